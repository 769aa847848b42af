package client

import (
	"context"
	"net/http"

	"roombook/pkg/model"
)

type UserClient struct {
	httpClient *HTTPClient
}

func NewUserClient(httpClient *HTTPClient) *UserClient {
	return &UserClient{httpClient: httpClient}
}

func (c *UserClient) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	var user model.User
	if err := c.httpClient.call(ctx, http.MethodPost, "/api/v1/auth/register", req, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login returns the token response and an HTTPClient authenticated with it.
func (c *UserClient) Login(ctx context.Context, email, password string) (*model.LoginResponse, *HTTPClient, error) {
	var resp model.LoginResponse
	req := model.LoginRequest{Email: email, Password: password}
	if err := c.httpClient.call(ctx, http.MethodPost, "/api/v1/auth/login", req, nil, &resp); err != nil {
		return nil, nil, err
	}
	return &resp, c.httpClient.WithToken(resp.AccessToken), nil
}

func (c *UserClient) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.httpClient.call(ctx, http.MethodGet, "/api/v1/users/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
