package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	// Token lifecycle events
	EventTypeTokenRefreshed     EventType = "token.refreshed"
	EventTypeTokenRefreshFailed EventType = "token.refresh_failed"

	// Action events
	EventTypeSpinExecuted      EventType = "action.spin"
	EventTypeSpinFailed        EventType = "action.spin_failed"
	EventTypeFundsChecked      EventType = "action.funds"
	EventTypeAchievementsClaim EventType = "action.claim"

	// Account lifecycle events
	EventTypeAccountDeactivated EventType = "account.deactivated"
	EventTypeLoopStarted        EventType = "account.loop_started"
	EventTypeLoopStopped        EventType = "account.loop_stopped"

	// Error events
	EventTypeError EventType = "error"
)

// Event represents a system event with metadata
type Event struct {
	Type      EventType
	AccountID string
	Source    string // Component that emitted the event
	Timestamp time.Time
	Data      map[string]interface{}
}

// EventHandler is a function that processes an event
type EventHandler func(Event)

// SubscriptionID uniquely identifies a subscription
type SubscriptionID int64

// EventBus defines the interface for event pub/sub
type EventBus interface {
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID
	Unsubscribe(id SubscriptionID)
	Publish(event Event)
	Stop()
}

// Helper constructors for common events

// NewTokenRefreshedEvent reports a successful token refresh
func NewTokenRefreshedEvent(accountID string, rotated bool, expiry time.Time) Event {
	data := map[string]interface{}{
		"credential_rotated": rotated,
	}
	if !expiry.IsZero() {
		data["token_expiry"] = expiry
	}
	return Event{
		Type:      EventTypeTokenRefreshed,
		AccountID: accountID,
		Source:    "auth",
		Timestamp: time.Now(),
		Data:      data,
	}
}

// NewTokenRefreshFailedEvent reports a failed refresh attempt
func NewTokenRefreshFailedEvent(accountID string, reason string) Event {
	return Event{
		Type:      EventTypeTokenRefreshFailed,
		AccountID: accountID,
		Source:    "auth",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"reason": reason,
		},
	}
}

// NewSpinEvent reports a completed spin cycle
func NewSpinEvent(accountID string, reward, balance int64) Event {
	return Event{
		Type:      EventTypeSpinExecuted,
		AccountID: accountID,
		Source:    "executor",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"reward":  reward,
			"balance": balance,
		},
	}
}

// NewSpinFailedEvent reports a spin cycle that did not complete
func NewSpinFailedEvent(accountID string, reason string) Event {
	return Event{
		Type:      EventTypeSpinFailed,
		AccountID: accountID,
		Source:    "executor",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"reason": reason,
		},
	}
}

// NewFundsCheckedEvent reports an observed currency balance
func NewFundsCheckedEvent(accountID string, balance int64) Event {
	return Event{
		Type:      EventTypeFundsChecked,
		AccountID: accountID,
		Source:    "executor",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"balance": balance,
		},
	}
}

// NewAchievementsClaimedEvent reports claimed achievement counts
func NewAchievementsClaimedEvent(accountID string, claimed, available int) Event {
	return Event{
		Type:      EventTypeAchievementsClaim,
		AccountID: accountID,
		Source:    "executor",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"claimed":   claimed,
			"available": available,
		},
	}
}

// NewAccountDeactivatedEvent reports a terminal deactivation
func NewAccountDeactivatedEvent(accountID string, reason string) Event {
	return Event{
		Type:      EventTypeAccountDeactivated,
		AccountID: accountID,
		Source:    "orchestrator",
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"reason": reason,
		},
	}
}

// NewLoopEvent reports an account loop starting or stopping
func NewLoopEvent(accountID string, started bool) Event {
	t := EventTypeLoopStopped
	if started {
		t = EventTypeLoopStarted
	}
	return Event{
		Type:      t,
		AccountID: accountID,
		Source:    "orchestrator",
		Timestamp: time.Now(),
	}
}

// NewErrorEvent creates an error event
func NewErrorEvent(accountID, source string, err error, metadata map[string]interface{}) Event {
	data := map[string]interface{}{
		"error": err.Error(),
	}
	for k, v := range metadata {
		data[k] = v
	}
	return Event{
		Type:      EventTypeError,
		AccountID: accountID,
		Source:    source,
		Timestamp: time.Now(),
		Data:      data,
	}
}
