package availability

import "testing"

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:00", want: 540},
		{in: "9:00", want: 540},
		{in: "18:30", want: 1110},
		{in: "23:59", want: 1439},
		{in: "24:00", want: 1440},
		{in: " 10:15 ", want: 615},
		{in: "24:01", wantErr: true},
		{in: "25:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12:5", wantErr: true},
		{in: "123:00", wantErr: true},
		{in: "1200", wantErr: true},
		{in: "", wantErr: true},
		{in: "ab:cd", wantErr: true},
		{in: "-1:00", wantErr: true},
		{in: "12:+5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseClock(%q) = %d, expected error", tt.in, got)
				}
				if !IsValidation(err) {
					t.Errorf("expected validation error, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClock(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestClock_Format(t *testing.T) {
	c := MustParseClock("9:05")
	if c.String() != "09:05" {
		t.Errorf("String() = %s, want 09:05", c.String())
	}
	if c.Label() != "9:05" {
		t.Errorf("Label() = %s, want 9:05", c.Label())
	}
	if Clock(MinutesPerDay).String() != "24:00" {
		t.Errorf("end of day renders as %s", Clock(MinutesPerDay).String())
	}
}

func TestClock_NumericOrderingBeatsStrings(t *testing.T) {
	// "9:30" > "10:00" lexicographically; numerically it is earlier.
	early := MustParseClock("9:30")
	late := MustParseClock("10:00")
	if !(early < late) {
		t.Errorf("expected 9:30 < 10:00, got %d >= %d", early, late)
	}
}

func TestNewRange(t *testing.T) {
	r, err := NewRange("09:00", "10:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Minutes() != 90 {
		t.Errorf("Minutes() = %d, want 90", r.Minutes())
	}
	if r.String() != "09:00-10:30" {
		t.Errorf("String() = %s", r.String())
	}

	_, err = NewRange("bad", "10:00")
	v, ok := err.(*ValidationError)
	if !ok || v.Field != "start_time" {
		t.Errorf("expected start_time validation error, got %v", err)
	}

	_, err = NewRange("10:00", "10:00")
	v, ok = err.(*ValidationError)
	if !ok || v.Field != "end_time" {
		t.Errorf("expected end_time validation error, got %v", err)
	}
}

func TestRange_Overlaps(t *testing.T) {
	a := Range{Start: 540, End: 600}
	tests := []struct {
		name string
		b    Range
		want bool
	}{
		{name: "touching after", b: Range{Start: 600, End: 660}, want: false},
		{name: "touching before", b: Range{Start: 480, End: 540}, want: false},
		{name: "one minute overlap", b: Range{Start: 599, End: 660}, want: true},
		{name: "same", b: a, want: true},
		{name: "inside", b: Range{Start: 550, End: 560}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps = %v, want %v", got, tt.want)
			}
			if got := tt.b.Overlaps(a); got != tt.want {
				t.Errorf("Overlaps is not symmetric")
			}
		})
	}
}
