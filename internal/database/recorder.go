package database

import (
	"fmt"

	"spinbot.dev/spin-api-go/internal/events"
	"spinbot.dev/spin-api-go/internal/logging"
)

// Recorder subscribes to the event bus and persists action outcomes into
// the activity and error logs
type Recorder struct {
	db     *DB
	logger *logging.Logger
	subs   []events.SubscriptionID
	bus    events.EventBus
}

// NewRecorder attaches a recorder to the bus
func NewRecorder(db *DB, bus events.EventBus, logger *logging.Logger) *Recorder {
	r := &Recorder{db: db, logger: logger, bus: bus}

	activityTypes := map[events.EventType]string{
		events.EventTypeTokenRefreshed:     "refresh",
		events.EventTypeSpinExecuted:       "spin",
		events.EventTypeFundsChecked:       "funds",
		events.EventTypeAchievementsClaim:  "claim",
		events.EventTypeLoopStarted:        "loop",
		events.EventTypeLoopStopped:        "loop",
		events.EventTypeAccountDeactivated: "deactivate",
	}
	for eventType, activityType := range activityTypes {
		at := activityType
		r.subs = append(r.subs, bus.Subscribe(eventType, func(e events.Event) {
			r.recordActivity(e, at, "ok")
		}))
	}

	failureTypes := map[events.EventType]string{
		events.EventTypeTokenRefreshFailed: "refresh",
		events.EventTypeSpinFailed:         "spin",
	}
	for eventType, activityType := range failureTypes {
		at := activityType
		r.subs = append(r.subs, bus.Subscribe(eventType, func(e events.Event) {
			r.recordActivity(e, at, "failed")
		}))
	}

	r.subs = append(r.subs, bus.Subscribe(events.EventTypeError, r.recordError))

	// Terminal deactivation survives restarts through the accounts table
	r.subs = append(r.subs, bus.Subscribe(events.EventTypeAccountDeactivated, func(e events.Event) {
		if err := r.db.MarkAccountSuspended(e.AccountID); err != nil {
			r.logger.AccountError(e.AccountID, "failed to persist suspension", err)
		}
	}))

	return r
}

// Detach removes all subscriptions
func (r *Recorder) Detach() {
	for _, id := range r.subs {
		r.bus.Unsubscribe(id)
	}
	r.subs = nil
}

func (r *Recorder) recordActivity(e events.Event, activityType, status string) {
	message := ""
	if reason, ok := e.Data["reason"].(string); ok {
		message = reason
	}
	if _, err := r.db.RecordActivity(e.AccountID, activityType, status, message); err != nil {
		r.logger.Error("failed to persist activity", err)
	}
}

func (r *Recorder) recordError(e events.Event) {
	message := fmt.Sprintf("%v", e.Data["error"])
	if _, err := r.db.LogError(e.AccountID, string(e.Type), message); err != nil {
		r.logger.Error("failed to persist error", err)
	}
}
