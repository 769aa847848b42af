package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	roomserrors "roombook/internal/rooms/errors"
	"roombook/internal/rooms/validator"
	"roombook/pkg/config"
	mongotx "roombook/pkg/db/mongo"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"
	"roombook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const roomID = "3b241101-e2bb-4255-8caf-4136c566a962"

// ────────────────────────────────────────────────
// Mocks
// ────────────────────────────────────────────────

type mockRoomRepository struct {
	rooms      map[string]*model.Room
	createFunc func(ctx context.Context, room *model.Room) error
	updateFunc func(ctx context.Context, id string, room *model.Room) error
	countFunc  func(ctx context.Context) (int64, error)
	deleted    []string
}

func (m *mockRoomRepository) Create(ctx context.Context, room *model.Room) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, room)
	}
	room.ID = roomID
	return nil
}

func (m *mockRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	if room, ok := m.rooms[id]; ok {
		copied := *room
		return &copied, nil
	}
	return nil, fmt.Errorf("%w: %s", roomserrors.ErrNotFound, id)
}

func (m *mockRoomRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Room, error) {
	return m.List(ctx)
}

func (m *mockRoomRepository) List(ctx context.Context) ([]*model.Room, error) {
	out := []*model.Room{}
	for _, id := range []string{roomID, "r2", "r3"} {
		if room, ok := m.rooms[id]; ok {
			out = append(out, room)
		}
	}
	return out, nil
}

func (m *mockRoomRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return int64(len(m.rooms)), nil
}

func (m *mockRoomRepository) Update(ctx context.Context, id string, room *model.Room) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, room)
	}
	return nil
}

func (m *mockRoomRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.rooms[id]; !ok {
		return fmt.Errorf("%w: %s", roomserrors.ErrNotFound, id)
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockRoomRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(mongo.NewSessionContext(ctx, nil))
}

type mockBookingStore struct {
	byRoom      map[string][]*model.Booking
	findErr     error
	deletedRoom string
}

func (m *mockBookingStore) FindByRoomAndDate(ctx context.Context, roomID, date string) ([]*model.Booking, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.byRoom[roomID], nil
}

func (m *mockBookingStore) FindByDate(ctx context.Context, date string) ([]*model.Booking, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	var out []*model.Booking
	for _, bookings := range m.byRoom {
		out = append(out, bookings...)
	}
	return out, nil
}

func (m *mockBookingStore) DeleteByRoom(ctx context.Context, roomID string) (int64, error) {
	m.deletedRoom = roomID
	return int64(len(m.byRoom[roomID])), nil
}

func testConfig() *config.Config {
	return &config.Config{
		Log:                logger.Discard(),
		ReadTimeout:        5 * time.Second,
		WriteTimeout:       5 * time.Second,
		SlotGranularityMin: 30,
		DayStart:           "09:00",
		DayEnd:             "18:00",
	}
}

func newTestService(repo *mockRoomRepository, store *mockBookingStore) RoomService {
	return NewRoomService(repo, store, validator.NewRoomValidator(logger.Discard()), testConfig())
}

func orion() *model.Room {
	return &model.Room{ID: roomID, Name: "Orion", Capacity: 6, Price: 20}
}

// ────────────────────────────────────────────────
// CRUD
// ────────────────────────────────────────────────

func TestCreate(t *testing.T) {
	tests := []struct {
		name     string
		room     model.Room
		repoErr  error
		wantCode string
	}{
		{name: "valid", room: model.Room{Name: "  Orion  ", Capacity: 6}},
		{name: "invalid capacity", room: model.Room{Name: "Orion"}, wantCode: apperrors.CodeValidation},
		{name: "duplicate name", room: model.Room{Name: "Orion", Capacity: 6}, repoErr: roomserrors.ErrDuplicateName, wantCode: apperrors.CodeConflict},
		{name: "storage failure", room: model.Room{Name: "Orion", Capacity: 6}, repoErr: errors.New("boom"), wantCode: apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRoomRepository{
				createFunc: func(ctx context.Context, room *model.Room) error {
					if tt.repoErr != nil {
						return fmt.Errorf("%w: %s", tt.repoErr, room.Name)
					}
					room.ID = roomID
					return nil
				},
			}
			svc := newTestService(repo, &mockBookingStore{})

			room := tt.room
			err := svc.Create(context.Background(), &room)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if room.Name != "Orion" {
					t.Errorf("name should be trimmed, got %q", room.Name)
				}
				return
			}
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Errorf("error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc := newTestService(&mockRoomRepository{}, &mockBookingStore{})

	_, err := svc.GetByID(context.Background(), roomID)
	if !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}

	_, err = svc.GetByID(context.Background(), "")
	if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("empty id error = %v, want INVALID_INPUT", err)
	}
}

func TestGetAll_CountFailure(t *testing.T) {
	repo := &mockRoomRepository{
		rooms: map[string]*model.Room{roomID: orion()},
		countFunc: func(ctx context.Context) (int64, error) {
			return 0, errors.New("count failed")
		},
	}
	svc := newTestService(repo, &mockBookingStore{})

	if _, _, err := svc.GetAll(context.Background(), 10, 0); !apperrors.HasCode(err, apperrors.CodeInternal) {
		t.Errorf("error = %v, want INTERNAL_ERROR", err)
	}
}

func TestUpdate_MergesPartialFields(t *testing.T) {
	var stored *model.Room
	repo := &mockRoomRepository{
		rooms: map[string]*model.Room{roomID: orion()},
		updateFunc: func(ctx context.Context, id string, room *model.Room) error {
			stored = room
			return nil
		},
	}
	svc := newTestService(repo, &mockBookingStore{})

	capacity := 12
	got, err := svc.Update(context.Background(), roomID, &model.RoomUpdate{Capacity: &capacity})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Capacity != 12 || got.Name != "Orion" || got.Price != 20 {
		t.Errorf("merged room = %+v", got)
	}
	if stored == nil || stored.Capacity != 12 {
		t.Errorf("repository received %+v", stored)
	}
}

func TestDelete_CascadesBookings(t *testing.T) {
	repo := &mockRoomRepository{rooms: map[string]*model.Room{roomID: orion()}}
	store := &mockBookingStore{byRoom: map[string][]*model.Booking{
		roomID: {{ID: "b1", RoomID: roomID, StartTime: "09:00", EndTime: "10:00"}},
	}}
	svc := newTestService(repo, store)

	if err := svc.Delete(context.Background(), roomID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.deletedRoom != roomID {
		t.Errorf("bookings of %s were not deleted", roomID)
	}

	if err := svc.Delete(context.Background(), "missing"); !apperrors.HasCode(err, apperrors.CodeNotFound) {
		t.Errorf("missing room error = %v, want NOT_FOUND", err)
	}
}

// ────────────────────────────────────────────────
// Availability
// ────────────────────────────────────────────────

func TestAvailability(t *testing.T) {
	repo := &mockRoomRepository{rooms: map[string]*model.Room{roomID: orion()}}
	store := &mockBookingStore{byRoom: map[string][]*model.Booking{
		roomID: {
			{ID: "b1", RoomID: roomID, StartTime: "09:00", EndTime: "10:00"},
			{ID: "b2", RoomID: roomID, StartTime: "10:45", EndTime: "11:15"},
		},
	}}
	svc := newTestService(repo, store)

	got, err := svc.Availability(context.Background(), roomID, "2026-03-02", model.SlotQuery{DayEnd: "12:00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantBooked := []string{"09:00", "09:30", "10:30", "11:00"}
	wantFree := []string{"10:00", "11:30"}
	if !reflect.DeepEqual(got.BookedSlots, wantBooked) {
		t.Errorf("BookedSlots = %v, want %v", got.BookedSlots, wantBooked)
	}
	if !reflect.DeepEqual(got.FreeSlots, wantFree) {
		t.Errorf("FreeSlots = %v, want %v", got.FreeSlots, wantFree)
	}
	if got.Granularity != 30 || got.DayStart != "09:00" || got.DayEnd != "12:00" {
		t.Errorf("window = %d %s-%s", got.Granularity, got.DayStart, got.DayEnd)
	}
	if len(got.Slots) != 6 || got.Slots[0].Label != "9:00" {
		t.Errorf("Slots = %+v", got.Slots)
	}
}

func TestAvailability_IncludeClosing(t *testing.T) {
	repo := &mockRoomRepository{rooms: map[string]*model.Room{roomID: orion()}}
	svc := newTestService(repo, &mockBookingStore{})

	include := true
	got, err := svc.Availability(context.Background(), roomID, "2026-03-02", model.SlotQuery{
		Granularity:    60,
		DayStart:       "16:00",
		IncludeClosing: &include,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"16:00", "17:00", "18:00"}
	if !reflect.DeepEqual(got.FreeSlots, want) {
		t.Errorf("FreeSlots = %v, want %v", got.FreeSlots, want)
	}
}

func TestAvailability_Errors(t *testing.T) {
	repo := &mockRoomRepository{rooms: map[string]*model.Room{roomID: orion()}}

	tests := []struct {
		name     string
		id       string
		date     string
		query    model.SlotQuery
		store    *mockBookingStore
		wantCode string
	}{
		{name: "bad date", id: roomID, date: "03/02/2026", wantCode: apperrors.CodeValidation},
		{name: "inverted window", id: roomID, date: "2026-03-02", query: model.SlotQuery{DayStart: "18:00", DayEnd: "09:00"}, wantCode: apperrors.CodeValidation},
		{name: "bad granularity", id: roomID, date: "2026-03-02", query: model.SlotQuery{Granularity: -5}, wantCode: apperrors.CodeValidation},
		{name: "unknown room", id: "r9", date: "2026-03-02", wantCode: apperrors.CodeNotFound},
		{name: "store failure", id: roomID, date: "2026-03-02", store: &mockBookingStore{findErr: errors.New("down")}, wantCode: apperrors.CodeInternal},
		{
			name: "corrupt stored booking", id: roomID, date: "2026-03-02",
			store:    &mockBookingStore{byRoom: map[string][]*model.Booking{roomID: {{ID: "bad", StartTime: "25:00", EndTime: "26:00"}}}},
			wantCode: apperrors.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := tt.store
			if store == nil {
				store = &mockBookingStore{}
			}
			svc := newTestService(repo, store)

			_, err := svc.Availability(context.Background(), tt.id, tt.date, tt.query)
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Errorf("error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestFindAvailable(t *testing.T) {
	repo := &mockRoomRepository{rooms: map[string]*model.Room{
		roomID: orion(),
		"r2":   {ID: "r2", Name: "Vega", Capacity: 4},
		"r3":   {ID: "r3", Name: "Lyra", Capacity: 10},
	}}
	store := &mockBookingStore{byRoom: map[string][]*model.Booking{
		roomID: {{ID: "b1", RoomID: roomID, StartTime: "09:00", EndTime: "10:00"}},
		"r2":   {{ID: "b2", RoomID: "r2", StartTime: "10:00", EndTime: "11:00"}},
	}}
	svc := newTestService(repo, store)

	got, err := svc.FindAvailable(context.Background(), "2026-03-02", "09:30", "10:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ids []string
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	if !reflect.DeepEqual(ids, []string{"r2", "r3"}) {
		t.Errorf("available rooms = %v, want [r2 r3]", ids)
	}

	if _, err := svc.FindAvailable(context.Background(), "2026-03-02", "10:00", "10:00"); !apperrors.HasCode(err, apperrors.CodeValidation) {
		t.Errorf("empty range error = %v, want VALIDATION_ERROR", err)
	}
}
