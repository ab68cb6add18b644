package state

import "time"

// LogEntry is one timestamped activity message
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	AccountID string    `json:"account_id,omitempty"`
	Message   string    `json:"message"`
}

// LogRing is a bounded, newest-first sequence of log entries. Appending
// beyond the cap evicts the oldest entry. Not safe for concurrent use on
// its own; the Store serializes access.
type LogRing struct {
	cap     int
	entries []LogEntry
}

// NewLogRing creates a ring with the given capacity
func NewLogRing(capacity int) *LogRing {
	if capacity < 1 {
		capacity = 1
	}
	return &LogRing{cap: capacity}
}

// Append inserts an entry at index 0, evicting the oldest entry when full
func (r *LogRing) Append(entry LogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	r.entries = append([]LogEntry{entry}, r.entries...)
	if len(r.entries) > r.cap {
		r.entries = r.entries[:r.cap]
	}
}

// Recent returns up to max entries, newest first. max <= 0 returns all
// retained entries.
func (r *LogRing) Recent(max int) []LogEntry {
	n := len(r.entries)
	if max > 0 && max < n {
		n = max
	}
	out := make([]LogEntry, n)
	copy(out, r.entries[:n])
	return out
}

// Len returns the number of retained entries
func (r *LogRing) Len() int {
	return len(r.entries)
}

// Cap returns the ring capacity
func (r *LogRing) Cap() int {
	return r.cap
}
