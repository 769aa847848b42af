package validator

import (
	"fmt"

	"roombook/pkg/logger"
	"roombook/pkg/model"
	"roombook/pkg/validation"
)

type BookingValidator struct {
	validate *validation.Validator
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v, err := validation.New()
	if err != nil {
		log.Fatal("Failed to initialize booking validator", "error", err)
	}

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func (v *BookingValidator) Validate(booking *model.Booking) error {
	return v.validate.Struct(booking)
}

func (v *BookingValidator) ValidateUpdate(updates *model.BookingUpdate) error {
	return v.validate.Struct(updates)
}

// ValidateCapacity rejects more participants than the room seats.
func (v *BookingValidator) ValidateCapacity(booking *model.Booking, room *model.Room) error {
	if len(booking.Participants) > room.Capacity {
		return validation.Field("participants", fmt.Sprintf(
			"participants count (%d) exceeds room capacity (%d)",
			len(booking.Participants), room.Capacity,
		))
	}
	return nil
}

// ValidateNotPast rejects bookings dated before today. Both dates are
// YYYY-MM-DD so they compare as strings.
func (v *BookingValidator) ValidateNotPast(booking *model.Booking, today string) error {
	if booking.Date < today {
		return validation.Field("date", fmt.Sprintf("cannot book a date in the past (today is %s)", today))
	}
	return nil
}
