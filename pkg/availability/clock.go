package availability

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MinutesPerHour = 60
	MinutesPerDay  = 24 * MinutesPerHour
)

// Clock is a time of day expressed as minutes since midnight.
// MinutesPerDay (24:00) is a valid value and marks the end of the day.
type Clock int

// ParseClock parses "H:MM" or "HH:MM". "24:00" is accepted as end of day.
func ParseClock(s string) (Clock, error) {
	raw := strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(raw, ":")
	if !ok || len(hh) < 1 || len(hh) > 2 || len(mm) != 2 {
		return 0, &ValidationError{Field: "time", Value: s, Reason: "must be in HH:MM format"}
	}

	hour, err := parseDigits(hh)
	if err != nil {
		return 0, &ValidationError{Field: "time", Value: s, Reason: "hour must be numeric"}
	}
	minute, err := parseDigits(mm)
	if err != nil {
		return 0, &ValidationError{Field: "time", Value: s, Reason: "minute must be numeric"}
	}

	if minute > 59 {
		return 0, &ValidationError{Field: "time", Value: s, Reason: "minute must be between 00 and 59"}
	}
	if hour == 24 && minute == 0 {
		return Clock(MinutesPerDay), nil
	}
	if hour > 23 {
		return 0, &ValidationError{Field: "time", Value: s, Reason: "hour must be between 0 and 23"}
	}

	return Clock(hour*MinutesPerHour + minute), nil
}

// MustParseClock is ParseClock for constants known to be valid.
func MustParseClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// parseDigits rejects signs and spaces that strconv.Atoi would accept.
func parseDigits(s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}

func (c Clock) Hour() int   { return int(c) / MinutesPerHour }
func (c Clock) Minute() int { return int(c) % MinutesPerHour }

// String renders the canonical zero-padded form, e.g. "09:00".
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Label renders the display form with an unpadded hour, e.g. "9:00".
func (c Clock) Label() string {
	return fmt.Sprintf("%d:%02d", c.Hour(), c.Minute())
}

func (c Clock) Add(minutes int) Clock {
	return c + Clock(minutes)
}

// Range is the half-open interval [Start, End).
type Range struct {
	Start Clock
	End   Clock
}

// NewRange parses both ends and requires start < end.
func NewRange(start, end string) (Range, error) {
	s, err := ParseClock(start)
	if err != nil {
		return Range{}, withField(err, "start_time")
	}
	e, err := ParseClock(end)
	if err != nil {
		return Range{}, withField(err, "end_time")
	}
	if s >= e {
		return Range{}, &ValidationError{
			Field:  "end_time",
			Value:  end,
			Reason: fmt.Sprintf("must be after start_time %s", s),
		}
	}
	return Range{Start: s, End: e}, nil
}

// Overlaps reports whether two half-open ranges share any minute.
// Ranges that only touch at an endpoint do not overlap.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && o.Start < r.End
}

func (r Range) Minutes() int {
	return int(r.End - r.Start)
}

func (r Range) String() string {
	return r.Start.String() + "-" + r.End.String()
}
