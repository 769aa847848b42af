package service

import (
	"context"
	"errors"
	"sync"
	"time"

	roomserrors "roombook/internal/rooms/errors"
	"roombook/internal/rooms/repository"
	"roombook/internal/rooms/validator"
	"roombook/pkg/availability"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"
	"roombook/pkg/validation"

	"go.mongodb.org/mongo-driver/mongo"
)

type RoomService interface {
	Create(ctx context.Context, room *model.Room) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Room, int64, error)
	Update(ctx context.Context, id string, updates *model.RoomUpdate) (*model.Room, error)
	Delete(ctx context.Context, id string) error

	Availability(ctx context.Context, id, date string, query model.SlotQuery) (*model.RoomAvailability, error)
	FindAvailable(ctx context.Context, date, start, end string) ([]*model.Room, error)
}

// BookingStore is the slice of the bookings repository rooms depend on.
type BookingStore interface {
	FindByRoomAndDate(ctx context.Context, roomID, date string) ([]*model.Booking, error)
	FindByDate(ctx context.Context, date string) ([]*model.Booking, error)
	DeleteByRoom(ctx context.Context, roomID string) (int64, error)
}

type roomService struct {
	repo      repository.RoomRepository
	bookings  BookingStore
	validator *validator.RoomValidator
	cfg       *config.Config
}

func NewRoomService(
	repo repository.RoomRepository,
	bookings BookingStore,
	validator *validator.RoomValidator,
	cfg *config.Config,
) RoomService {
	return &roomService{
		repo:      repo,
		bookings:  bookings,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *roomService) Create(ctx context.Context, room *model.Room) error {
	s.sanitize(room)

	if err := s.validate(room); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, room); err != nil {
		if errors.Is(err, roomserrors.ErrDuplicateName) {
			return apperrors.Conflict("Room with this name already exists").
				WithDetails(map[string]any{"name": room.Name})
		}
		s.cfg.Log.Error("Failed to create room",
			"name", room.Name,
			"error", err,
		)
		return apperrors.Internal("Failed to create room", err)
	}

	s.cfg.Log.Info("Room created successfully",
		"id", room.ID,
		"name", room.Name,
		"capacity", room.Capacity,
	)
	return nil
}

func (s *roomService) GetByID(ctx context.Context, id string) (*model.Room, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}

	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve room")
	}
	return room, nil
}

func (s *roomService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Room, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var rooms []*model.Room
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(ctx)
		if err != nil {
			s.cfg.Log.Error("Failed to count rooms", "error", err)
			errCount = apperrors.Internal("Failed to count rooms", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		rooms, err = s.repo.FindAll(ctx, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list rooms",
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve rooms", err)
		}
	}()

	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return rooms, count, nil
}

func (s *roomService) Update(ctx context.Context, id string, updates *model.RoomUpdate) (*model.Room, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Room update validation failed", "id", id, "error", err)
		return nil, validationError("Invalid update input", err)
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to check room existence")
	}

	merged := mergeRoomUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, roomserrors.ErrDuplicateName) {
			return nil, apperrors.Conflict("Room with this name already exists").
				WithDetails(map[string]any{"name": merged.Name})
		}
		return nil, s.mapRepoError(err, id, "Failed to update room")
	}

	s.cfg.Log.Info("Room updated successfully",
		"id", id,
		"name", merged.Name,
	)
	return merged, nil
}

// Delete removes the room together with its bookings.
func (s *roomService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Room ID cannot be empty")
	}

	var removed int64
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			return s.mapRepoError(err, id, "Failed to delete room")
		}
		n, err := s.bookings.DeleteByRoom(sessCtx, id)
		if err != nil {
			return apperrors.Internal("Failed to delete room bookings", err)
		}
		removed = n
		return nil
	})
	if err != nil {
		if !apperrors.HasCode(err, apperrors.CodeNotFound) {
			s.cfg.Log.Error("Failed to delete room", "id", id, "error", err)
		}
		return err
	}

	s.cfg.Log.Info("Room deleted successfully",
		"id", id,
		"bookings_removed", removed,
	)
	return nil
}

func (s *roomService) Availability(ctx context.Context, id, date string, query model.SlotQuery) (*model.RoomAvailability, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}

	opts, err := s.slotOptions(query).Resolve()
	if err != nil {
		return nil, engineError(err)
	}

	room, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	bookings, err := s.bookings.FindByRoomAndDate(ctx, id, date)
	if err != nil {
		s.cfg.Log.Error("Failed to load room bookings",
			"room_id", id,
			"date", date,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to load room bookings", err)
	}

	grid, err := availability.Grid(model.Intervals(bookings, ""), opts)
	if err != nil {
		s.cfg.Log.Error("Stored bookings have invalid times",
			"room_id", id,
			"date", date,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to compute availability", err)
	}

	result := &model.RoomAvailability{
		Room:        room,
		Date:        date,
		Granularity: opts.Granularity,
		DayStart:    opts.DayStart,
		DayEnd:      opts.DayEnd,
		Slots:       []model.SlotView{},
		FreeSlots:   []string{},
		BookedSlots: []string{},
	}
	for slot := range grid {
		result.Slots = append(result.Slots, model.SlotView{Time: slot.Time, Label: slot.Label, Booked: slot.Booked})
		if slot.Booked {
			result.BookedSlots = append(result.BookedSlots, slot.Time)
		} else {
			result.FreeSlots = append(result.FreeSlots, slot.Time)
		}
	}

	s.cfg.Log.Debug("Availability computed",
		"room_id", id,
		"date", date,
		"bookings", len(bookings),
		"free", len(result.FreeSlots),
		"booked", len(result.BookedSlots),
	)
	return result, nil
}

// FindAvailable returns the rooms with no booking overlapping [start, end) on date.
func (s *roomService) FindAvailable(ctx context.Context, date, start, end string) ([]*model.Room, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}
	if _, err := availability.NewRange(start, end); err != nil {
		return nil, engineError(err)
	}

	var rooms []*model.Room
	var bookings []*model.Booking
	var errRooms, errBookings error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		rooms, err = s.repo.List(ctx)
		if err != nil {
			s.cfg.Log.Error("Failed to list rooms", "error", err)
			errRooms = apperrors.Internal("Failed to retrieve rooms", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.bookings.FindByDate(ctx, date)
		if err != nil {
			s.cfg.Log.Error("Failed to load bookings", "date", date, "error", err)
			errBookings = apperrors.Internal("Failed to load bookings", err)
		}
	}()

	wg.Wait()

	if errRooms != nil {
		return nil, errRooms
	}
	if errBookings != nil {
		return nil, errBookings
	}

	byRoom := make(map[string][]*model.Booking)
	for _, b := range bookings {
		byRoom[b.RoomID] = append(byRoom[b.RoomID], b)
	}

	free := []*model.Room{}
	for _, room := range rooms {
		conflict, err := availability.HasConflict(model.Intervals(byRoom[room.ID], ""), start, end)
		if err != nil {
			s.cfg.Log.Error("Stored bookings have invalid times",
				"room_id", room.ID,
				"date", date,
				"error", err,
			)
			return nil, apperrors.Internal("Failed to compute availability", err)
		}
		if !conflict {
			free = append(free, room)
		}
	}

	return free, nil
}

// --- Helpers ---

func (s *roomService) slotOptions(q model.SlotQuery) availability.Options {
	opts := s.cfg.SlotOptions()
	if q.Granularity != 0 {
		opts.Granularity = q.Granularity
	}
	if q.DayStart != "" {
		opts.DayStart = q.DayStart
	}
	if q.DayEnd != "" {
		opts.DayEnd = q.DayEnd
	}
	if q.IncludeClosing != nil {
		opts.IncludeClosing = *q.IncludeClosing
	}
	return opts
}

func (s *roomService) sanitize(room *model.Room) {
	room.Name = sanitizer.NormalizeName(room.Name)
	room.Amenities = sanitizer.TrimAndNormalize(room.Amenities)
}

func (s *roomService) validate(room *model.Room) error {
	if err := s.validator.Validate(room); err != nil {
		s.cfg.Log.Warn("Room validation failed",
			"name", room.Name,
			"error", err,
		)
		return validationError("Room validation failed", err)
	}
	return nil
}

func (s *roomService) mapRepoError(err error, id, message string) error {
	if errors.Is(err, roomserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Room", id)
	}
	if errors.Is(err, roomserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid room ID format")
	}
	if apperrors.IsAppError(err) {
		return err
	}
	s.cfg.Log.Error(message, "id", id, "error", err)
	return apperrors.Internal(message, err)
}

func mergeRoomUpdates(existing *model.Room, updates *model.RoomUpdate) *model.Room {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Capacity != nil {
		merged.Capacity = *updates.Capacity
	}
	if updates.Price != nil {
		merged.Price = *updates.Price
	}
	if updates.Amenities != nil {
		merged.Amenities = *updates.Amenities
	}

	return &merged
}

func validateDate(date string) error {
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return apperrors.Validation("Invalid date", map[string]any{
			"field":  "date",
			"value":  date,
			"reason": "must be a date in YYYY-MM-DD format",
		})
	}
	return nil
}

func validationError(message string, err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}

// engineError maps availability input errors onto the API error model.
func engineError(err error) error {
	var verr *availability.ValidationError
	if errors.As(err, &verr) {
		return apperrors.Validation("Invalid availability parameters", map[string]any{
			"field":  verr.Field,
			"value":  verr.Value,
			"reason": verr.Reason,
		})
	}
	return apperrors.Internal("Failed to compute availability", err)
}
