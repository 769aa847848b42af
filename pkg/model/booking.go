package model

import (
	"time"

	"roombook/pkg/availability"
)

const DateLayout = "2006-01-02"

type Booking struct {
	ID           string    `json:"id" bson:"_id" validate:"omitempty,uuid4"`
	RoomID       string    `json:"room_id" bson:"room_id" validate:"required,uuid4"`
	UserID       string    `json:"user_id" bson:"user_id" validate:"omitempty,uuid4"`
	Date         string    `json:"date" bson:"date" validate:"required,iso_date"`
	StartTime    string    `json:"start_time" bson:"start_time" validate:"required,clock"`
	EndTime      string    `json:"end_time" bson:"end_time" validate:"required,clock"`
	Title        string    `json:"title" bson:"title" validate:"required,min=1,max=200"`
	Participants []string  `json:"participants" bson:"participants" validate:"omitempty,max=500,dive,required,max=100"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

type BookingUpdate struct {
	StartTime    string    `json:"start_time,omitempty" validate:"omitempty,clock"`
	EndTime      string    `json:"end_time,omitempty" validate:"omitempty,clock"`
	Title        string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Participants *[]string `json:"participants,omitempty" validate:"omitempty,max=500,dive,required,max=100"`
}

type BookingFilter struct {
	RoomID string
	UserID string
	Date   string
}

// BookingEvent is published after a booking is created or cancelled.
type BookingEvent struct {
	BookingID string    `json:"booking_id"`
	RoomID    string    `json:"room_id"`
	UserID    string    `json:"user_id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	At        time.Time `json:"at"`
}

func (b *Booking) Event() BookingEvent {
	return BookingEvent{
		BookingID: b.ID,
		RoomID:    b.RoomID,
		UserID:    b.UserID,
		Date:      b.Date,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		At:        time.Now().UTC(),
	}
}

// Intervals converts stored bookings into engine input, skipping the
// booking with the given id so an update never conflicts with itself.
func Intervals(bookings []*Booking, skipID string) []availability.Booking {
	out := make([]availability.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b == nil || (skipID != "" && b.ID == skipID) {
			continue
		}
		out = append(out, availability.Booking{ID: b.ID, Start: b.StartTime, End: b.EndTime})
	}
	return out
}
