package main

import (
	"fmt"
	"time"

	"spinbot.dev/spin-api-go/internal/database"
	"spinbot.dev/spin-api-go/internal/logging"
	"spinbot.dev/spin-api-go/internal/state"
)

// counterFlusher periodically writes in-memory account counters to the
// database so restarts do not lose progress totals, and prunes activity
// rows past the retention horizon.
type counterFlusher struct {
	db        *database.DB
	store     *state.Store
	logger    *logging.Logger
	retention time.Duration // 0 disables pruning
}

func newCounterFlusher(db *database.DB, store *state.Store, logger *logging.Logger, retention time.Duration) *counterFlusher {
	return &counterFlusher{db: db, store: store, logger: logger.WithComponent("flush"), retention: retention}
}

// Start runs the flush loop on the given interval and returns a stop
// function. A non-positive interval defaults to five minutes.
func (f *counterFlusher) Start(interval time.Duration) func() {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				f.Flush()
			case <-stop:
				return
			}
		}
	}()
	return func() { close(stop) }
}

// Flush writes the current counters for every account.
func (f *counterFlusher) Flush() {
	for _, id := range f.store.IDs() {
		var (
			spins, claimed, balance int64
			active                  bool
			lastRefresh             time.Time
		)
		ok := f.store.View(id, func(a *state.Account) {
			spins = a.SpinCount
			claimed = a.AchievementsClaimed
			balance = a.Balance
			active = a.Active
			lastRefresh = a.LastRefresh
		})
		if !ok {
			continue
		}
		if err := f.db.UpdateAccountCounters(id, spins, claimed, balance, active, lastRefresh); err != nil {
			f.logger.AccountError(id, "failed to flush counters", err)
		}
	}

	if f.retention > 0 {
		deleted, err := f.db.DeleteOldActivities(time.Now().Add(-f.retention))
		if err != nil {
			f.logger.Error("failed to prune activity log", err)
		} else if deleted > 0 {
			f.logger.Debug(fmt.Sprintf("pruned %d activity rows", deleted))
		}
	}
}
