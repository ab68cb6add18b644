package schedule

import (
	"fmt"
	"time"
)

// ClockTime is an hour:minute offset within a day, interpreted in UTC
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClock parses an "HH:MM" string into a ClockTime
func ParseClock(s string) (ClockTime, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return ClockTime{}, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return ClockTime{}, fmt.Errorf("clock time %q out of range", s)
	}
	return ClockTime{Hour: h, Minute: m}, nil
}

// Minutes returns the minute-of-day value
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

// String formats the clock time as "HH:MM"
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// InWindow reports whether now falls inside the daily window [start, end],
// inclusive at both ends. Comparison happens on minute-of-day values in
// UTC. Windows that cross midnight (end before start) are a configuration
// error and always evaluate false.
func InWindow(start, end ClockTime, now time.Time) bool {
	if end.Minutes() < start.Minutes() {
		return false
	}
	minute := now.UTC().Hour()*60 + now.UTC().Minute()
	return minute >= start.Minutes() && minute <= end.Minutes()
}

// NextDaily returns the next occurrence of the clock time strictly after
// now, in UTC. Used to schedule calendar-based tasks such as the daily
// token refresh at window start.
func NextDaily(c ClockTime, now time.Time) time.Time {
	u := now.UTC()
	next := time.Date(u.Year(), u.Month(), u.Day(), c.Hour, c.Minute, 0, 0, time.UTC)
	if !next.After(u) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
