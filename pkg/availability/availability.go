// Package availability computes free time slots and booking conflicts for a
// single room on a single date.
//
// Every function here is pure: inputs are never mutated, nothing is cached,
// and results depend only on the arguments, so callers may invoke them from
// any number of goroutines. Callers are expected to pass bookings that are
// already restricted to one room and one date.
//
// Times are "HH:MM" strings at the boundary and Clock values (minutes since
// midnight) internally. All ranges are half-open, [start, end), so a booking
// ending at 10:00 never conflicts with one starting at 10:00.
package availability

import (
	"fmt"
	"iter"
)

const (
	DefaultGranularity = 30
	DefaultDayStart    = "09:00"
	DefaultDayEnd      = "18:00"
)

// Booking is the slice of a stored booking the engine needs.
type Booking struct {
	ID    string
	Start string
	End   string
}

// Options describes the slot grid for one day.
type Options struct {
	// Granularity is the slot length in minutes.
	Granularity int
	DayStart    string
	DayEnd      string
	// IncludeClosing also emits a slot starting exactly at DayEnd.
	IncludeClosing bool
}

func DefaultOptions() Options {
	return Options{
		Granularity: DefaultGranularity,
		DayStart:    DefaultDayStart,
		DayEnd:      DefaultDayEnd,
	}
}

// Slot is one cell of the grid, [Start, Start+granularity).
type Slot struct {
	Start  Clock  `json:"-"`
	Time   string `json:"time"`
	Label  string `json:"label"`
	Booked bool   `json:"booked"`
}

func (s Slot) Range(granularity int) Range {
	return Range{Start: s.Start, End: s.Start.Add(granularity)}
}

type interval struct {
	id string
	r  Range
}

func parseBookings(existing []Booking) ([]interval, error) {
	out := make([]interval, 0, len(existing))
	for _, b := range existing {
		r, err := NewRange(b.Start, b.End)
		if err != nil {
			return nil, fmt.Errorf("booking %s: %w", b.ID, err)
		}
		out = append(out, interval{id: b.ID, r: r})
	}
	return out, nil
}

// FindConflict returns the first booking, in input order, whose range
// overlaps [start, end). It returns nil when the range is free.
func FindConflict(existing []Booking, start, end string) (*Booking, error) {
	candidate, err := NewRange(start, end)
	if err != nil {
		return nil, err
	}
	parsed, err := parseBookings(existing)
	if err != nil {
		return nil, err
	}
	for i, b := range parsed {
		if b.r.Overlaps(candidate) {
			found := existing[i]
			return &found, nil
		}
	}
	return nil, nil
}

func HasConflict(existing []Booking, start, end string) (bool, error) {
	b, err := FindConflict(existing, start, end)
	if err != nil {
		return false, err
	}
	return b != nil, nil
}

// Check gates a submission: nil when [start, end) is free, *ConflictError
// when it overlaps a booking, *ValidationError for malformed input.
func Check(existing []Booking, start, end string) error {
	b, err := FindConflict(existing, start, end)
	if err != nil {
		return err
	}
	if b == nil {
		return nil
	}
	r, _ := NewRange(b.Start, b.End)
	return &ConflictError{BookingID: b.ID, Start: r.Start, End: r.End}
}

func (o Options) normalize() (Options, Range, error) {
	if o.Granularity == 0 {
		o.Granularity = DefaultGranularity
	}
	if o.DayStart == "" {
		o.DayStart = DefaultDayStart
	}
	if o.DayEnd == "" {
		o.DayEnd = DefaultDayEnd
	}
	if o.Granularity < 1 || o.Granularity > MinutesPerDay {
		return o, Range{}, &ValidationError{
			Field:  "granularity",
			Value:  fmt.Sprint(o.Granularity),
			Reason: fmt.Sprintf("must be between 1 and %d minutes", MinutesPerDay),
		}
	}
	start, err := ParseClock(o.DayStart)
	if err != nil {
		return o, Range{}, withField(err, "day_start")
	}
	end, err := ParseClock(o.DayEnd)
	if err != nil {
		return o, Range{}, withField(err, "day_end")
	}
	if start >= end {
		return o, Range{}, &ValidationError{
			Field:  "day_end",
			Value:  o.DayEnd,
			Reason: fmt.Sprintf("must be after day_start %s", start),
		}
	}
	return o, Range{Start: start, End: end}, nil
}

// Resolve fills unset fields with defaults and validates the result.
func (o Options) Resolve() (Options, error) {
	o, _, err := o.normalize()
	if err != nil {
		return Options{}, err
	}
	return o, nil
}

// Grid validates the bookings and options and returns the day's slots in
// chronological order. The sequence is lazy and can be ranged over any
// number of times with identical results.
func Grid(existing []Booking, opts Options) (iter.Seq[Slot], error) {
	opts, day, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	parsed, err := parseBookings(existing)
	if err != nil {
		return nil, err
	}

	g := opts.Granularity
	inside := func(t Clock) bool {
		if opts.IncludeClosing {
			return t <= day.End
		}
		return t < day.End
	}

	return func(yield func(Slot) bool) {
		for t := day.Start; inside(t); t = t.Add(g) {
			cell := Range{Start: t, End: t.Add(g)}
			booked := false
			for _, b := range parsed {
				if b.r.Overlaps(cell) {
					booked = true
					break
				}
			}
			if !yield(Slot{Start: t, Time: t.String(), Label: t.Label(), Booked: booked}) {
				return
			}
		}
	}, nil
}

// FreeSlots returns the slots not overlapped by any booking.
func FreeSlots(existing []Booking, opts Options) ([]Slot, error) {
	return collect(existing, opts, false)
}

// BookedSlots returns the slots overlapped by at least one booking.
func BookedSlots(existing []Booking, opts Options) ([]Slot, error) {
	return collect(existing, opts, true)
}

func collect(existing []Booking, opts Options, booked bool) ([]Slot, error) {
	seq, err := Grid(existing, opts)
	if err != nil {
		return nil, err
	}
	out := []Slot{}
	for s := range seq {
		if s.Booked == booked {
			out = append(out, s)
		}
	}
	return out, nil
}
