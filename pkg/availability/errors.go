package availability

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed time, an inverted range or bad options.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// ConflictError names the existing booking a candidate range overlaps.
type ConflictError struct {
	BookingID string
	Start     Clock
	End       Clock
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("time range conflicts with booking %s (%s-%s)", e.BookingID, e.Start, e.End)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

func withField(err error, field string) error {
	var v *ValidationError
	if errors.As(err, &v) {
		return &ValidationError{Field: field, Value: v.Value, Reason: v.Reason}
	}
	return err
}
