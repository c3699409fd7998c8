package electiondomain

import (
	"errors"
	"testing"
	"time"
)

func TestParseDurationCompact(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want Duration
	}{
		{in: "1d", want: Duration{Days: 1}},
		{in: "2h30m", want: Duration{Hours: 2, Minutes: 30}},
		{in: "1d 12h", want: Duration{Days: 1, Hours: 12}},
		{in: "45s", want: Duration{Seconds: 45}},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in, now)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("%q: expected %+v, got %+v", tt.in, tt.want, got)
		}
	}
}

func TestParseDurationRejects(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for _, in := range []string{"", "0d", "0h0m", "soon-ish"} {
		if _, err := ParseDuration(in, now); !errors.Is(err, ErrInvalidDuration) {
			t.Fatalf("%q: expected invalid duration, got %v", in, err)
		}
	}
}

func TestParseDurationNaturalLanguage(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	got, err := ParseDuration("tomorrow at 9am", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Total() != 24*time.Hour {
		t.Fatalf("expected one day, got %v", got)
	}
}

func TestDurationHelpers(t *testing.T) {
	d := Duration{Hours: 25, Seconds: 61}
	if d.Normalized() != (Duration{Days: 1, Hours: 1, Minutes: 1, Seconds: 1}) {
		t.Fatalf("unexpected normalization %+v", d.Normalized())
	}
	if d.Normalized().String() != "1d1h1m1s" {
		t.Fatalf("unexpected string %q", d.Normalized().String())
	}
	if _, err := NewDuration(0, -1, 5, 0); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected negative component rejection, got %v", err)
	}
}

func TestDurationBounds(t *testing.T) {
	huge := []Duration{
		{Days: 1 << 40},
		{Hours: 1 << 50},
		{Seconds: 1 << 62},
		{Days: 3650, Hours: 1},
	}
	for _, d := range huge {
		if err := d.Validate(); !errors.Is(err, ErrDurationTooLong) || !errors.Is(err, ErrValidation) {
			t.Fatalf("%+v: expected too long, got %v", d, err)
		}
	}
	if _, err := NewDuration(3650, 0, 0, 0); err != nil {
		t.Fatalf("ten years rejected: %v", err)
	}
	if _, err := ParseDuration("100000d", time.Now()); !errors.Is(err, ErrDurationTooLong) {
		t.Fatalf("expected too long, got %v", err)
	}
}
