package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "roombook/internal/bookings/errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockPrefix = "booking_lock:"

// releaseScript deletes the key only while it still holds our token, so a
// lock that expired and was re-acquired elsewhere is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SlotLocker serializes writes for one room and date.
type SlotLocker interface {
	Acquire(ctx context.Context, roomID, date string) (token string, err error)
	Release(ctx context.Context, roomID, date, token string) error
}

type redisSlotLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSlotLocker(client *redis.Client, ttl time.Duration) SlotLocker {
	return &redisSlotLocker{client: client, ttl: ttl}
}

func (l *redisSlotLocker) Acquire(ctx context.Context, roomID, date string) (string, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, LockKey(roomID, date), token, l.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("failed to acquire booking lock: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("%w: room %s on %s", bookingserrors.ErrSlotLocked, roomID, date)
	}
	return token, nil
}

func (l *redisSlotLocker) Release(ctx context.Context, roomID, date, token string) error {
	n, err := releaseScript.Run(ctx, l.client, []string{LockKey(roomID, date)}, token).Int()
	if err != nil {
		return fmt.Errorf("failed to release booking lock: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: room %s on %s", bookingserrors.ErrLockNotHeld, roomID, date)
	}
	return nil
}

func LockKey(roomID, date string) string {
	return lockPrefix + roomID + ":" + date
}
