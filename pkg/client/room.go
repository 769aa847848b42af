package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"roombook/pkg/model"
)

type RoomClient struct {
	httpClient *HTTPClient
}

func NewRoomClient(httpClient *HTTPClient) *RoomClient {
	return &RoomClient{httpClient: httpClient}
}

func (c *RoomClient) Create(ctx context.Context, room *model.Room) (*model.Room, error) {
	var created model.Room
	if err := c.httpClient.call(ctx, http.MethodPost, "/api/v1/rooms", room, nil, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *RoomClient) GetByID(ctx context.Context, id string) (*model.Room, error) {
	var room model.Room
	if err := c.httpClient.call(ctx, http.MethodGet, "/api/v1/rooms/id/"+url.PathEscape(id), nil, nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *RoomClient) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Room, error) {
	var rooms []*model.Room
	path := fmt.Sprintf("/api/v1/rooms?limit=%d&offset=%d", limit, offset)
	if err := c.httpClient.call(ctx, http.MethodGet, path, nil, nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *RoomClient) Update(ctx context.Context, id string, updates *model.RoomUpdate) (*model.Room, error) {
	var room model.Room
	if err := c.httpClient.call(ctx, http.MethodPatch, "/api/v1/rooms/id/"+url.PathEscape(id), updates, nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *RoomClient) Delete(ctx context.Context, id string) error {
	return c.httpClient.call(ctx, http.MethodDelete, "/api/v1/rooms/id/"+url.PathEscape(id), nil, nil, nil)
}

// Availability fetches the slot grid; zero-valued query fields fall back to
// the server defaults.
func (c *RoomClient) Availability(ctx context.Context, id, date string, query model.SlotQuery) (*model.RoomAvailability, error) {
	q := url.Values{}
	q.Set("date", date)
	if query.Granularity > 0 {
		q.Set("granularity", strconv.Itoa(query.Granularity))
	}
	if query.DayStart != "" {
		q.Set("day_start", query.DayStart)
	}
	if query.DayEnd != "" {
		q.Set("day_end", query.DayEnd)
	}
	if query.IncludeClosing != nil {
		q.Set("include_closing", strconv.FormatBool(*query.IncludeClosing))
	}

	var result model.RoomAvailability
	path := "/api/v1/rooms/id/" + url.PathEscape(id) + "/availability?" + q.Encode()
	if err := c.httpClient.call(ctx, http.MethodGet, path, nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *RoomClient) FindAvailable(ctx context.Context, date, start, end string) ([]*model.Room, error) {
	q := url.Values{}
	q.Set("date", date)
	q.Set("start_time", start)
	q.Set("end_time", end)

	var rooms []*model.Room
	if err := c.httpClient.call(ctx, http.MethodGet, "/api/v1/rooms/available?"+q.Encode(), nil, nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}
