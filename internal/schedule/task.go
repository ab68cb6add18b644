package schedule

import (
	"time"
)

// NextFireFunc computes the next fire time for a recurring task, strictly
// after now
type NextFireFunc func(now time.Time) time.Time

// Task is a single recurring obligation for one account. The daily token
// refresh, the hourly funds check, and the daily achievement claim all
// share this shape: a next-fire timestamp recomputed after every firing.
type Task struct {
	Name     string
	nextFire time.Time
	compute  NextFireFunc
}

// NewTask creates a recurring task and arms it relative to now
func NewTask(name string, now time.Time, compute NextFireFunc) *Task {
	return &Task{
		Name:     name,
		nextFire: compute(now),
		compute:  compute,
	}
}

// Due reports whether the task should fire at now
func (t *Task) Due(now time.Time) bool {
	return !t.nextFire.IsZero() && !now.Before(t.nextFire)
}

// NextFire returns the currently armed fire time
func (t *Task) NextFire() time.Time {
	return t.nextFire
}

// Fired re-arms the task after a firing, regardless of whether the firing
// succeeded. A task is never left without a next fire time.
func (t *Task) Fired(now time.Time) {
	t.nextFire = t.compute(now)
}

// Reschedule forces a specific next fire time, used when the remote
// dictates the cadence (e.g. refresh at window start next day)
func (t *Task) Reschedule(at time.Time) {
	t.nextFire = at
}

// EveryInterval returns a NextFireFunc firing at fixed intervals
func EveryInterval(interval time.Duration) NextFireFunc {
	return func(now time.Time) time.Time {
		return now.Add(interval)
	}
}

// DailyAt returns a NextFireFunc firing once per day at the given UTC
// clock time
func DailyAt(c ClockTime) NextFireFunc {
	return func(now time.Time) time.Time {
		return NextDaily(c, now)
	}
}
