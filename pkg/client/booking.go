package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"roombook/pkg/model"
)

type BookingClient struct {
	httpClient *HTTPClient
}

func NewBookingClient(httpClient *HTTPClient) *BookingClient {
	return &BookingClient{httpClient: httpClient}
}

// Create books a slot. A non-empty idempotencyKey makes retries safe.
func (c *BookingClient) Create(ctx context.Context, booking *model.Booking, idempotencyKey string) (*model.Booking, error) {
	var headers map[string]string
	if idempotencyKey != "" {
		headers = map[string]string{idempotencyHeader: idempotencyKey}
	}

	var created model.Booking
	if err := c.httpClient.call(ctx, http.MethodPost, "/api/v1/bookings", booking, headers, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *BookingClient) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	var booking model.Booking
	if err := c.httpClient.call(ctx, http.MethodGet, "/api/v1/bookings/id/"+url.PathEscape(id), nil, nil, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *BookingClient) Search(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	q := url.Values{}
	if filter.RoomID != "" {
		q.Set("room_id", filter.RoomID)
	}
	if filter.UserID != "" {
		q.Set("user_id", filter.UserID)
	}
	if filter.Date != "" {
		q.Set("date", filter.Date)
	}
	q.Set("limit", fmt.Sprintf("%d", limit))
	q.Set("offset", fmt.Sprintf("%d", offset))

	var bookings []*model.Booking
	if err := c.httpClient.call(ctx, http.MethodGet, "/api/v1/bookings?"+q.Encode(), nil, nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *BookingClient) Mine(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	var bookings []*model.Booking
	path := fmt.Sprintf("/api/v1/bookings/mine?limit=%d&offset=%d", limit, offset)
	if err := c.httpClient.call(ctx, http.MethodGet, path, nil, nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *BookingClient) Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error) {
	var booking model.Booking
	if err := c.httpClient.call(ctx, http.MethodPatch, "/api/v1/bookings/id/"+url.PathEscape(id), updates, nil, &booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *BookingClient) Cancel(ctx context.Context, id string) error {
	return c.httpClient.call(ctx, http.MethodDelete, "/api/v1/bookings/id/"+url.PathEscape(id), nil, nil, nil)
}
