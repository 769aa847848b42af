package model

import "time"

type Room struct {
	ID        string    `json:"id" bson:"_id" validate:"omitempty,uuid4"`
	Name      string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Capacity  int       `json:"capacity" bson:"capacity" validate:"required,min=1,max=500"`
	Price     float64   `json:"price" bson:"price" validate:"min=0"`
	Amenities string    `json:"amenities,omitempty" bson:"amenities,omitempty" validate:"omitempty,max=500"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type RoomUpdate struct {
	Name      string   `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Capacity  *int     `json:"capacity,omitempty" validate:"omitempty,min=1,max=500"`
	Price     *float64 `json:"price,omitempty" validate:"omitempty,min=0"`
	Amenities *string  `json:"amenities,omitempty" validate:"omitempty,max=500"`
}

// RoomAvailability is the per-date view of a room's slot grid.
type RoomAvailability struct {
	Room        *Room      `json:"room"`
	Date        string     `json:"date"`
	Granularity int        `json:"granularity"`
	DayStart    string     `json:"day_start"`
	DayEnd      string     `json:"day_end"`
	Slots       []SlotView `json:"slots"`
	FreeSlots   []string   `json:"free_slots"`
	BookedSlots []string   `json:"booked_slots"`
}

type SlotView struct {
	Time   string `json:"time"`
	Label  string `json:"label"`
	Booked bool   `json:"booked"`
}

// SlotQuery overrides the configured grid for one availability request.
// Zero values keep the configured defaults.
type SlotQuery struct {
	Granularity    int
	DayStart       string
	DayEnd         string
	IncludeClosing *bool
}
