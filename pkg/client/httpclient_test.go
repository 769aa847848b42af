package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"roombook/pkg/model"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewHTTPClient(server.URL)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestLogin_AuthenticatesLaterCalls(t *testing.T) {
	hc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			var req model.LoginRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email != "ann@example.com" {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "bad body", "code": "BAD_REQUEST"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"access_token": "tok-1"}})
		case "/api/v1/users/me":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "missing token", "code": "UNAUTHORIZED"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": "u1", "email": "ann@example.com", "role": "user"}})
		default:
			http.NotFound(w, r)
		}
	})

	users := NewUserClient(hc)
	if _, err := users.Me(context.Background()); err == nil {
		t.Fatal("Me() without login succeeded")
	}

	resp, authed, err := users.Login(context.Background(), "ann@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.AccessToken != "tok-1" {
		t.Errorf("AccessToken = %q, want tok-1", resp.AccessToken)
	}

	me, err := NewUserClient(authed).Me(context.Background())
	if err != nil {
		t.Fatalf("Me() error = %v", err)
	}
	if me.ID != "u1" || me.Role != model.RoleUser {
		t.Errorf("Me() = %+v", me)
	}
}

func TestBookingCreate_ConflictIsAPIError(t *testing.T) {
	var gotKey string
	hc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get(idempotencyHeader)
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":   "Room is already booked for this period",
			"code":    "CONFLICT",
			"details": map[string]any{"booking_id": "b-9"},
		})
	})

	_, err := NewBookingClient(hc.WithToken("tok")).Create(context.Background(), &model.Booking{RoomID: "r1"}, "key-1")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Create() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusConflict || apiErr.Code != "CONFLICT" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if apiErr.Details["booking_id"] != "b-9" {
		t.Errorf("Details = %v", apiErr.Details)
	}
	if gotKey != "key-1" {
		t.Errorf("Idempotency-Key = %q, want key-1", gotKey)
	}
}

func TestRoomAvailability_SendsOverrides(t *testing.T) {
	include := false
	tests := []struct {
		name  string
		query model.SlotQuery
		want  string
	}{
		{
			name:  "defaults",
			query: model.SlotQuery{},
			want:  "date=2026-03-02",
		},
		{
			name:  "overrides",
			query: model.SlotQuery{Granularity: 15, DayStart: "08:00", DayEnd: "12:00", IncludeClosing: &include},
			want:  "date=2026-03-02&day_end=12%3A00&day_start=08%3A00&granularity=15&include_closing=false",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath, gotQuery string
			hc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
				writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{
					"date":       "2026-03-02",
					"free_slots": []string{"09:00"},
				}})
			})

			result, err := NewRoomClient(hc).Availability(context.Background(), "r1", "2026-03-02", tt.query)
			if err != nil {
				t.Fatalf("Availability() error = %v", err)
			}
			if gotPath != "/api/v1/rooms/id/r1/availability" {
				t.Errorf("path = %q", gotPath)
			}
			if gotQuery != tt.want {
				t.Errorf("query = %q, want %q", gotQuery, tt.want)
			}
			if len(result.FreeSlots) != 1 || result.FreeSlots[0] != "09:00" {
				t.Errorf("FreeSlots = %v", result.FreeSlots)
			}
		})
	}
}

func TestBookingCancel_NoContent(t *testing.T) {
	var gotMethod string
	hc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	})

	if err := NewBookingClient(hc).Cancel(context.Background(), "b1"); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Errorf("method = %s, want DELETE", gotMethod)
	}
}

func TestResponseErr_NonJSONBody(t *testing.T) {
	hc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := NewRoomClient(hc).GetByID(context.Background(), "r1")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("GetByID() error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Message != "upstream down\n" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestWaitForHealthy(t *testing.T) {
	calls := 0
	hc := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := hc.WaitForHealthy(context.Background(), 5*time.Second); err != nil {
		t.Fatalf("WaitForHealthy() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
