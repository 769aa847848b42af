package service

import (
	"context"
	"errors"
	"sync"
	"time"

	bookingserrors "roombook/internal/bookings/errors"
	"roombook/internal/bookings/repository"
	"roombook/internal/bookings/validator"
	"roombook/pkg/auth"
	"roombook/pkg/availability"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/kafka"
	"roombook/pkg/metrics"
	"roombook/pkg/model"
	"roombook/pkg/sanitizer"
	"roombook/pkg/validation"
)

type BookingService interface {
	Create(ctx context.Context, caller auth.Identity, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	Search(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error)
	ListMine(ctx context.Context, caller auth.Identity, limit int, offset int64) ([]*model.Booking, int64, error)
	Update(ctx context.Context, caller auth.Identity, id string, updates *model.BookingUpdate) (*model.Booking, error)
	Delete(ctx context.Context, caller auth.Identity, id string) error
}

// RoomLookup resolves the room a booking targets. Errors are returned to
// the caller unchanged.
type RoomLookup interface {
	GetByID(ctx context.Context, id string) (*model.Room, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	locker    repository.SlotLocker
	rooms     RoomLookup
	publisher kafka.BookingPublisher
	validator *validator.BookingValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	locker repository.SlotLocker,
	rooms RoomLookup,
	publisher kafka.BookingPublisher,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = kafka.NopPublisher{}
	}
	return &bookingService{
		repo:      repo,
		locker:    locker,
		rooms:     rooms,
		publisher: publisher,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, caller auth.Identity, booking *model.Booking) error {
	booking.ID = ""
	booking.UserID = caller.UserID
	s.sanitize(booking)

	if err := s.validate(booking); err != nil {
		return err
	}
	if err := s.validator.ValidateNotPast(booking, s.today()); err != nil {
		s.cfg.Log.Warn("Booking in the past rejected", "date", booking.Date, "user_id", caller.UserID)
		return validationError("Booking validation failed", err)
	}

	room, err := s.rooms.GetByID(ctx, booking.RoomID)
	if err != nil {
		return err
	}
	if err := s.validator.ValidateCapacity(booking, room); err != nil {
		return validationError("Booking validation failed", err)
	}

	err = s.withSlotLock(ctx, booking.RoomID, booking.Date, func(ctx context.Context) error {
		if err := s.checkConflict(ctx, booking); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		if !apperrors.HasCode(err, apperrors.CodeConflict) {
			s.cfg.Log.Error("Failed to create booking",
				"room_id", booking.RoomID,
				"date", booking.Date,
				"error", err,
			)
		}
		return err
	}

	metrics.IncBookingCreated()
	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"room_id", booking.RoomID,
		"user_id", booking.UserID,
		"date", booking.Date,
		"start_time", booking.StartTime,
		"end_time", booking.EndTime,
	)
	s.publish(ctx, kafka.EventBookingCreated, booking)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id, "Failed to retrieve booking")
	}
	return booking, nil
}

func (s *bookingService) Search(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	filter.Date = sanitizer.NormalizeDate(filter.Date)
	if filter.Date != "" {
		if _, err := time.Parse(model.DateLayout, filter.Date); err != nil {
			return nil, 0, apperrors.InvalidInput("date must be in YYYY-MM-DD format")
		}
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.Count(ctx, filter)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings",
				"room_id", filter.RoomID,
				"user_id", filter.UserID,
				"date", filter.Date,
				"error", err,
			)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.Find(ctx, filter, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to search bookings",
				"room_id", filter.RoomID,
				"user_id", filter.UserID,
				"date", filter.Date,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to search bookings", err)
		}
	}()

	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	s.cfg.Log.Debug("Booking search completed",
		"count", len(bookings),
		"total_count", count,
	)
	return bookings, count, nil
}

func (s *bookingService) ListMine(ctx context.Context, caller auth.Identity, limit int, offset int64) ([]*model.Booking, int64, error) {
	return s.Search(ctx, model.BookingFilter{UserID: caller.UserID}, limit, offset)
}

func (s *bookingService) Update(ctx context.Context, caller auth.Identity, id string, updates *model.BookingUpdate) (*model.Booking, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(caller, existing); err != nil {
		s.cfg.Log.Warn("Booking update forbidden", "id", id, "user_id", caller.UserID)
		return nil, err
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return nil, validationError("Invalid update input", err)
	}

	merged := mergeBookingUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	room, err := s.rooms.GetByID(ctx, merged.RoomID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateCapacity(merged, room); err != nil {
		return nil, validationError("Booking validation failed", err)
	}

	err = s.withSlotLock(ctx, merged.RoomID, merged.Date, func(ctx context.Context) error {
		if err := s.checkConflict(ctx, merged); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, id, merged); err != nil {
			return s.mapRepoError(err, id, "Failed to update booking")
		}
		return nil
	})
	if err != nil {
		if !apperrors.HasCode(err, apperrors.CodeConflict) {
			s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		}
		return nil, err
	}

	s.cfg.Log.Info("Booking updated successfully",
		"id", id,
		"start_time", merged.StartTime,
		"end_time", merged.EndTime,
	)
	return merged, nil
}

func (s *bookingService) Delete(ctx context.Context, caller auth.Identity, id string) error {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(caller, existing); err != nil {
		s.cfg.Log.Warn("Booking cancellation forbidden", "id", id, "user_id", caller.UserID)
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapRepoError(err, id, "Failed to delete booking")
	}

	metrics.IncBookingCancelled()
	s.cfg.Log.Info("Booking cancelled successfully",
		"id", id,
		"room_id", existing.RoomID,
		"cancelled_by", caller.UserID,
	)
	s.publish(ctx, kafka.EventBookingCancelled, existing)
	return nil
}

// --- Helpers ---

func (s *bookingService) today() string {
	return s.now().Format(model.DateLayout)
}

// checkConflict runs the candidate against the room's bookings for the day.
// The candidate itself is skipped so an update never collides with its
// stored version.
func (s *bookingService) checkConflict(ctx context.Context, booking *model.Booking) error {
	existing, err := s.repo.FindByRoomAndDate(ctx, booking.RoomID, booking.Date)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}

	err = availability.Check(model.Intervals(existing, booking.ID), booking.StartTime, booking.EndTime)
	var conflict *availability.ConflictError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &conflict):
		metrics.IncBookingConflict()
		s.cfg.Log.Info("Booking conflict detected",
			"room_id", booking.RoomID,
			"date", booking.Date,
			"start_time", booking.StartTime,
			"end_time", booking.EndTime,
			"conflicting_booking_id", conflict.BookingID,
		)
		return apperrors.Conflict("Time slot conflicts with an existing booking").WithDetails(map[string]any{
			"booking_id": conflict.BookingID,
			"start_time": conflict.Start.String(),
			"end_time":   conflict.End.String(),
		})
	case availability.IsValidation(err):
		return engineError(err)
	default:
		return apperrors.Internal("Failed to check existing bookings", err)
	}
}

// withSlotLock runs fn while holding the room/date lock. fn gets a context
// that expires with the lock, so no write lands after another request may
// have taken it over.
func (s *bookingService) withSlotLock(ctx context.Context, roomID, date string, fn func(ctx context.Context) error) error {
	token, err := s.locker.Acquire(ctx, roomID, date)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrSlotLocked) {
			return apperrors.Conflict("This room is currently being booked by another request. Please try again.")
		}
		return apperrors.Internal("Failed to acquire booking lock", err)
	}
	defer func() {
		// The request context may already be done; release on a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.WriteTimeout)
		defer cancel()
		if err := s.locker.Release(releaseCtx, roomID, date, token); err != nil {
			s.cfg.Log.Warn("Failed to release booking lock",
				"room_id", roomID,
				"date", date,
				"error", err,
			)
		}
	}()

	lockCtx := ctx
	if ttl := s.cfg.BookingLockTTL; ttl > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, ttl)
		defer cancel()
	}
	return fn(lockCtx)
}

func (s *bookingService) publish(ctx context.Context, eventType string, booking *model.Booking) {
	err := s.publisher.PublishBooking(ctx, eventType, booking.Event())
	if err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}

func (s *bookingService) sanitize(b *model.Booking) {
	b.Title = sanitizer.NormalizeTitle(b.Title)
	b.Date = sanitizer.NormalizeDate(b.Date)
	b.StartTime = canonicalClock(sanitizer.NormalizeClock(b.StartTime))
	b.EndTime = canonicalClock(sanitizer.NormalizeClock(b.EndTime))
	b.Participants = sanitizer.NormalizeParticipants(b.Participants)
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return validationError("Booking validation failed", err)
	}
	if _, err := availability.NewRange(booking.StartTime, booking.EndTime); err != nil {
		s.cfg.Log.Warn("Booking time range rejected", "error", err)
		return engineError(err)
	}
	return nil
}

func (s *bookingService) mapRepoError(err error, id, message string) error {
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	if errors.Is(err, bookingserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	s.cfg.Log.Error(message, "id", id, "error", err)
	return apperrors.Internal(message, err)
}

func authorize(caller auth.Identity, booking *model.Booking) error {
	if caller.UserID == booking.UserID || caller.IsStaff() {
		return nil
	}
	return apperrors.Forbidden("Only the booking owner, a manager or an admin can change this booking")
}

func mergeBookingUpdates(existing *model.Booking, updates *model.BookingUpdate) *model.Booking {
	merged := *existing

	if updates.StartTime != "" {
		merged.StartTime = updates.StartTime
	}
	if updates.EndTime != "" {
		merged.EndTime = updates.EndTime
	}
	if updates.Title != "" {
		merged.Title = updates.Title
	}
	if updates.Participants != nil {
		merged.Participants = *updates.Participants
	}

	return &merged
}

// canonicalClock pads "9:00" to "09:00" so stored times sort correctly.
// Malformed input is returned as is for validation to report.
func canonicalClock(s string) string {
	c, err := availability.ParseClock(s)
	if err != nil {
		return s
	}
	return c.String()
}

func validationError(message string, err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, verrs.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}

func engineError(err error) error {
	var verr *availability.ValidationError
	if errors.As(err, &verr) {
		return apperrors.Validation("Invalid booking time range", map[string]any{
			"field":  verr.Field,
			"value":  verr.Value,
			"reason": verr.Reason,
		})
	}
	return apperrors.Internal("Failed to validate booking time range", err)
}
