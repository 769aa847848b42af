package service

import (
	"context"
	"sync"
	"time"

	apperrors "roombook/pkg/errors"
	"roombook/pkg/logger"
	"roombook/pkg/model"
)

type Counter interface {
	Count(ctx context.Context) (int64, error)
}

type BookingCounter interface {
	Count(ctx context.Context, filter model.BookingFilter) (int64, error)
}

type StatsService interface {
	Stats(ctx context.Context) (*model.Stats, error)
}

type statsService struct {
	users    Counter
	rooms    Counter
	bookings BookingCounter
	log      *logger.Logger
	now      func() time.Time
}

func NewStatsService(users, rooms Counter, bookings BookingCounter, log *logger.Logger) StatsService {
	return &statsService{
		users:    users,
		rooms:    rooms,
		bookings: bookings,
		log:      log,
		now:      time.Now,
	}
}

func (s *statsService) Stats(ctx context.Context) (*model.Stats, error) {
	now := s.now()
	today := now.Format(model.DateLayout)

	stats := &model.Stats{GeneratedAt: now.UTC()}
	counts := []struct {
		name  string
		dst   *int64
		count func(context.Context) (int64, error)
	}{
		{name: "users", dst: &stats.TotalUsers, count: s.users.Count},
		{name: "rooms", dst: &stats.TotalRooms, count: s.rooms.Count},
		{name: "bookings", dst: &stats.TotalBookings, count: func(ctx context.Context) (int64, error) {
			return s.bookings.Count(ctx, model.BookingFilter{})
		}},
		{name: "bookings_today", dst: &stats.BookingsToday, count: func(ctx context.Context) (int64, error) {
			return s.bookings.Count(ctx, model.BookingFilter{Date: today})
		}},
	}

	errs := make([]error, len(counts))
	var wg sync.WaitGroup
	for i, c := range counts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			*c.dst, errs[i] = c.count(ctx)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			s.log.Error("failed to count", "collection", counts[i].name, "error", err)
			return nil, apperrors.Internal("Failed to collect stats", err)
		}
	}
	return stats, nil
}
