package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	bookingserrors "roombook/internal/bookings/errors"
	"roombook/internal/bookings/validator"
	"roombook/pkg/auth"
	"roombook/pkg/availability"
	"roombook/pkg/config"
	mongotx "roombook/pkg/db/mongo"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/kafka"
	"roombook/pkg/logger"
	"roombook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const roomID = "3b241101-e2bb-4255-8caf-4136c566a962"

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

type mockBookingRepository struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
	nextID   int
	findErr  error
	stall    bool // FindByRoomAndDate waits for its context to end
}

func newMockRepo(existing ...*model.Booking) *mockBookingRepository {
	m := &mockBookingRepository{bookings: map[string]*model.Booking{}}
	for _, b := range existing {
		m.bookings[b.ID] = b
	}
	return m
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	booking.ID = fmt.Sprintf("new-%d", m.nextID)
	copied := *booking
	m.bookings[booking.ID] = &copied
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bookings[id]; ok {
		copied := *b
		return &copied, nil
	}
	return nil, fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
}

func (m *mockBookingRepository) Find(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, b := range m.bookings {
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if filter.RoomID != "" && b.RoomID != filter.RoomID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *mockBookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	found, _ := m.Find(ctx, filter, 0, 0)
	return int64(len(found)), nil
}

func (m *mockBookingRepository) Update(ctx context.Context, id string, booking *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *booking
	m.bookings[id] = &copied
	return nil
}

func (m *mockBookingRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[id]; !ok {
		return fmt.Errorf("%w: %s", bookingserrors.ErrNotFound, id)
	}
	delete(m.bookings, id)
	return nil
}

func (m *mockBookingRepository) FindByRoomAndDate(ctx context.Context, roomID, date string) ([]*model.Booking, error) {
	if m.stall {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Booking
	for _, b := range m.bookings {
		if b.RoomID == roomID && b.Date == date {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBookingRepository) FindByDate(ctx context.Context, date string) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingRepository) DeleteByRoom(ctx context.Context, roomID string) (int64, error) {
	return 0, nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

// mockLocker behaves like the Redis lock: one holder per key.
type mockLocker struct {
	mu       sync.Mutex
	held     map[string]string
	failWith error
	released int
}

func (l *mockLocker) Acquire(ctx context.Context, roomID, date string) (string, error) {
	if l.failWith != nil {
		return "", l.failWith
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[string]string{}
	}
	key := roomID + date
	if _, ok := l.held[key]; ok {
		return "", bookingserrors.ErrSlotLocked
	}
	l.held[key] = "token"
	return "token", nil
}

func (l *mockLocker) Release(ctx context.Context, roomID, date, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, roomID+date)
	l.released++
	return nil
}

type mockRooms struct{}

func (mockRooms) GetByID(ctx context.Context, id string) (*model.Room, error) {
	if id != roomID {
		return nil, apperrors.NotFoundWithID("Room", id)
	}
	return &model.Room{ID: roomID, Name: "Orion", Capacity: 3}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (p *recordingPublisher) PublishBooking(ctx context.Context, eventType string, event model.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType+":"+event.BookingID)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

var (
	alice   = auth.Identity{UserID: "alice", Role: model.RoleUser}
	bob     = auth.Identity{UserID: "bob", Role: model.RoleUser}
	manager = auth.Identity{UserID: "mgr", Role: model.RoleManager}
)

type fixture struct {
	svc       BookingService
	repo      *mockBookingRepository
	locker    *mockLocker
	publisher *recordingPublisher
}

func newFixture(existing ...*model.Booking) *fixture {
	cfg := &config.Config{
		Log:          logger.Discard(),
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	}
	f := &fixture{
		repo:      newMockRepo(existing...),
		locker:    &mockLocker{},
		publisher: &recordingPublisher{},
	}
	svc := NewBookingService(f.repo, f.locker, mockRooms{}, f.publisher, validator.NewBookingValidator(cfg.Log), cfg).(*bookingService)
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC) }
	f.svc = svc
	return f
}

func newBooking(start, end string) *model.Booking {
	return &model.Booking{
		RoomID:    roomID,
		Date:      "2026-03-02",
		StartTime: start,
		EndTime:   end,
		Title:     "Standup",
	}
}

func existingBooking(id, owner, start, end string) *model.Booking {
	b := newBooking(start, end)
	b.ID = id
	b.UserID = owner
	return b
}

// ────────────────────────────────────────────────
// Create
// ────────────────────────────────────────────────

func TestCreate(t *testing.T) {
	tests := []struct {
		name     string
		booking  *model.Booking
		wantCode string
	}{
		{name: "free slot", booking: newBooking("10:00", "11:00")},
		{name: "back to back", booking: newBooking("11:00", "12:00")},
		{name: "unpadded hour", booking: newBooking("9:00", "10:00")},
		{name: "until midnight", booking: newBooking("22:00", "24:00")},
		{name: "overlap", booking: newBooking("11:30", "12:15"), wantCode: apperrors.CodeConflict},
		{name: "containing", booking: newBooking("10:30", "13:00"), wantCode: apperrors.CodeConflict},
		{name: "inverted range", booking: newBooking("12:00", "11:00"), wantCode: apperrors.CodeValidation},
		{name: "empty range", booking: newBooking("12:00", "12:00"), wantCode: apperrors.CodeValidation},
		{name: "malformed time", booking: newBooking("noon", "13:00"), wantCode: apperrors.CodeValidation},
		{name: "past date", booking: func() *model.Booking { b := newBooking("10:00", "11:00"); b.Date = "2026-03-01"; return b }(), wantCode: apperrors.CodeValidation},
		{name: "unknown room", booking: func() *model.Booking { b := newBooking("10:00", "11:00"); b.RoomID = "9b241101-e2bb-4255-8caf-4136c566a962"; return b }(), wantCode: apperrors.CodeNotFound},
		{
			name:     "over capacity",
			booking:  func() *model.Booking { b := newBooking("10:00", "11:00"); b.Participants = []string{"a", "b", "c", "d"}; return b }(),
			wantCode: apperrors.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(existingBooking("b1", "bob", "12:00", "13:00"))

			err := f.svc.Create(context.Background(), alice, tt.booking)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if tt.booking.UserID != "alice" {
					t.Errorf("UserID = %q, want caller", tt.booking.UserID)
				}
				if len(f.publisher.events) != 1 || f.publisher.events[0] != kafka.EventBookingCreated+":"+tt.booking.ID {
					t.Errorf("events = %v", f.publisher.events)
				}
				return
			}
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Fatalf("error = %v, want code %s", err, tt.wantCode)
			}
			if len(f.publisher.events) != 0 {
				t.Errorf("no event expected on failure, got %v", f.publisher.events)
			}
		})
	}
}

func TestCreate_ConflictDetails(t *testing.T) {
	f := newFixture(existingBooking("b1", "bob", "12:00", "13:00"))

	err := f.svc.Create(context.Background(), alice, newBooking("12:30", "14:00"))
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeConflict {
		t.Fatalf("error = %v, want conflict", err)
	}
	if appErr.Details["booking_id"] != "b1" || appErr.Details["start_time"] != "12:00" || appErr.Details["end_time"] != "13:00" {
		t.Errorf("details = %v", appErr.Details)
	}
	if f.locker.released != 1 {
		t.Errorf("lock should be released after a conflict, released = %d", f.locker.released)
	}
}

func TestCreate_ConflictLateInCrowdedDay(t *testing.T) {
	var existing []*model.Booking
	for i := range 600 {
		start := availability.Clock(i).String()
		end := availability.Clock(i + 1).String()
		existing = append(existing, existingBooking(fmt.Sprintf("m%d", i), "bob", start, end))
	}
	existing = append(existing, existingBooking("late", "bob", "10:00", "10:30"))
	f := newFixture(existing...)

	err := f.svc.Create(context.Background(), alice, newBooking("10:25", "10:35"))
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeConflict {
		t.Fatalf("error = %v, want conflict", err)
	}
	if appErr.Details["booking_id"] != "late" {
		t.Errorf("conflicting booking = %v, want late", appErr.Details["booking_id"])
	}
}

func TestCreate_CanonicalTimes(t *testing.T) {
	f := newFixture()
	b := newBooking(" 9:00", "9:30 ")

	if err := f.svc.Create(context.Background(), alice, b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.StartTime != "09:00" || b.EndTime != "09:30" {
		t.Errorf("stored %s-%s, want 09:00-09:30", b.StartTime, b.EndTime)
	}
}

func TestCreate_LockErrors(t *testing.T) {
	tests := []struct {
		name     string
		lockErr  error
		wantCode string
	}{
		{name: "held elsewhere", lockErr: fmt.Errorf("%w: busy", bookingserrors.ErrSlotLocked), wantCode: apperrors.CodeConflict},
		{name: "redis down", lockErr: errors.New("connection refused"), wantCode: apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.locker.failWith = tt.lockErr

			err := f.svc.Create(context.Background(), alice, newBooking("10:00", "11:00"))
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Errorf("error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestCreate_GuardedSectionEndsWithLock(t *testing.T) {
	f := newFixture()
	f.repo.stall = true
	f.svc.(*bookingService).cfg.BookingLockTTL = 20 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- f.svc.Create(context.Background(), alice, newBooking("10:00", "11:00")) }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected an error once the lock window closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Create kept running after the lock TTL")
	}
	if len(f.repo.bookings) != 0 || len(f.publisher.events) != 0 {
		t.Errorf("nothing should be written, bookings=%d events=%v", len(f.repo.bookings), f.publisher.events)
	}
}

func TestCreate_PublishFailureDoesNotFail(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("broker unavailable")

	if err := f.svc.Create(context.Background(), alice, newBooking("10:00", "11:00")); err != nil {
		t.Fatalf("publish failure should not fail the booking: %v", err)
	}
}

// Concurrent requests for the same slot must yield exactly one booking.
func TestCreate_ConcurrentSameSlot(t *testing.T) {
	f := newFixture()

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.svc.Create(context.Background(), alice, newBooking("10:00", "11:00")); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Errorf("succeeded = %d, want 1", succeeded)
	}
	if len(f.repo.bookings) != 1 {
		t.Errorf("stored bookings = %d, want 1", len(f.repo.bookings))
	}
}

// ────────────────────────────────────────────────
// Update / Delete
// ────────────────────────────────────────────────

func TestUpdate(t *testing.T) {
	tests := []struct {
		name     string
		caller   auth.Identity
		updates  model.BookingUpdate
		wantCode string
	}{
		{name: "owner moves within own range", caller: alice, updates: model.BookingUpdate{StartTime: "09:30"}},
		{name: "owner extends to touch next", caller: alice, updates: model.BookingUpdate{EndTime: "12:00"}},
		{name: "manager edits any booking", caller: manager, updates: model.BookingUpdate{Title: "Retro"}},
		{name: "stranger forbidden", caller: bob, updates: model.BookingUpdate{Title: "Mine now"}, wantCode: apperrors.CodeForbidden},
		{name: "overlaps other booking", caller: alice, updates: model.BookingUpdate{EndTime: "12:30"}, wantCode: apperrors.CodeConflict},
		{name: "inverted after merge", caller: alice, updates: model.BookingUpdate{StartTime: "11:00"}, wantCode: apperrors.CodeValidation},
		{name: "malformed", caller: alice, updates: model.BookingUpdate{EndTime: "11h"}, wantCode: apperrors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(
				existingBooking("b1", "alice", "10:00", "11:00"),
				existingBooking("b2", "bob", "12:00", "13:00"),
			)

			updates := tt.updates
			got, err := f.svc.Update(context.Background(), tt.caller, "b1", &updates)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.ID != "b1" || got.UserID != "alice" {
					t.Errorf("updated booking = %+v", got)
				}
				return
			}
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Errorf("error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name     string
		caller   auth.Identity
		id       string
		wantCode string
	}{
		{name: "owner", caller: alice, id: "b1"},
		{name: "manager", caller: manager, id: "b1"},
		{name: "stranger", caller: bob, id: "b1", wantCode: apperrors.CodeForbidden},
		{name: "missing", caller: alice, id: "nope", wantCode: apperrors.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(existingBooking("b1", "alice", "10:00", "11:00"))

			err := f.svc.Delete(context.Background(), tt.caller, tt.id)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if len(f.publisher.events) != 1 || f.publisher.events[0] != kafka.EventBookingCancelled+":b1" {
					t.Errorf("events = %v", f.publisher.events)
				}
				return
			}
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Errorf("error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestListMine(t *testing.T) {
	f := newFixture(
		existingBooking("b1", "alice", "10:00", "11:00"),
		existingBooking("b2", "bob", "12:00", "13:00"),
	)

	got, total, err := f.svc.ListMine(context.Background(), alice, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(got) != 1 || got[0].ID != "b1" {
		t.Errorf("ListMine() = %v (total %d)", got, total)
	}
}

func TestSearch_InvalidDate(t *testing.T) {
	f := newFixture()
	if _, _, err := f.svc.Search(context.Background(), model.BookingFilter{Date: "tomorrow"}, 10, 0); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestCreate_StoreFailure(t *testing.T) {
	f := newFixture()
	f.repo.findErr = errors.New("mongo down")

	if err := f.svc.Create(context.Background(), alice, newBooking("10:00", "11:00")); !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Errorf("error = %v, want INTERNAL_ERROR", err)
	}
}
