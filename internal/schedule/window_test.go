package schedule

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:30")
	if err != nil {
		t.Fatalf("Failed to parse clock: %v", err)
	}
	if c.Hour != 9 || c.Minute != 30 {
		t.Errorf("Expected 09:30, got %02d:%02d", c.Hour, c.Minute)
	}

	invalid := []string{"", "24:00", "12:60", "ab:cd", "1230"}
	for _, raw := range invalid {
		if _, err := ParseClock(raw); err == nil {
			t.Errorf("Expected error for %q, got none", raw)
		}
	}
}

func TestInWindowBoundaries(t *testing.T) {
	start := ClockTime{Hour: 8, Minute: 0}
	end := ClockTime{Hour: 22, Minute: 30}

	at := func(h, m int) time.Time {
		return time.Date(2025, 6, 1, h, m, 15, 0, time.UTC)
	}

	// Both boundaries are inclusive.
	if !InWindow(start, end, at(8, 0)) {
		t.Error("Expected start boundary to be inside the window")
	}
	if !InWindow(start, end, at(22, 30)) {
		t.Error("Expected end boundary to be inside the window")
	}
	if InWindow(start, end, at(7, 59)) {
		t.Error("Expected 07:59 to be outside the window")
	}
	if InWindow(start, end, at(22, 31)) {
		t.Error("Expected 22:31 to be outside the window")
	}
	if !InWindow(start, end, at(12, 0)) {
		t.Error("Expected midday to be inside the window")
	}
}

func TestInWindowLocalTimeNormalizedToUTC(t *testing.T) {
	start := ClockTime{Hour: 8, Minute: 0}
	end := ClockTime{Hour: 22, Minute: 0}

	// 06:00 UTC expressed as 08:00 in a +02:00 zone stays outside.
	zone := time.FixedZone("plus2", 2*60*60)
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, zone)
	if InWindow(start, end, now) {
		t.Error("Expected wall-clock 08:00+02:00 (06:00 UTC) to be outside")
	}
}

func TestInWindowInvertedAlwaysFalse(t *testing.T) {
	start := ClockTime{Hour: 22, Minute: 0}
	end := ClockTime{Hour: 8, Minute: 0}

	for _, h := range []int{0, 8, 12, 22, 23} {
		now := time.Date(2025, 6, 1, h, 0, 0, 0, time.UTC)
		if InWindow(start, end, now) {
			t.Errorf("Expected inverted window to reject %02d:00", h)
		}
	}
}

func TestNextDaily(t *testing.T) {
	clock := ClockTime{Hour: 6, Minute: 0}

	// Before the clock time: same day.
	now := time.Date(2025, 6, 1, 4, 0, 0, 0, time.UTC)
	next := NextDaily(clock, now)
	want := time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("Expected %v, got %v", want, next)
	}

	// At or after the clock time: next day.
	now = time.Date(2025, 6, 1, 6, 0, 0, 0, time.UTC)
	next = NextDaily(clock, now)
	want = time.Date(2025, 6, 2, 6, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("Expected %v, got %v", want, next)
	}

	if !next.After(now) {
		t.Error("Expected next occurrence to be strictly after now")
	}
}
