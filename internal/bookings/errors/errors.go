package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrSlotLocked means another request holds the room/date lock.
	ErrSlotLocked = errors.New("booking slot is locked")

	ErrLockNotHeld = errors.New("booking lock is not held")
)
