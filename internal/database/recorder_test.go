package database

import (
	"errors"
	"testing"

	"spinbot.dev/spin-api-go/internal/events"
	"spinbot.dev/spin-api-go/internal/logging"
)

func TestRecorderPersistsEvents(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.UpsertAccount("alpha", ""); err != nil {
		t.Fatalf("Failed to upsert account: %v", err)
	}

	bus := events.NewEventBus(16)
	logger := logging.NewLogger("test").SetMinLevel(logging.LogLevelError)
	recorder := NewRecorder(db, bus, logger)
	defer recorder.Detach()

	bus.Publish(events.NewSpinEvent("alpha", 10, 990))
	bus.Publish(events.NewTokenRefreshFailedEvent("alpha", "bad credential"))
	bus.Publish(events.NewAccountDeactivatedEvent("alpha", "forbidden response from remote"))
	bus.Publish(events.NewErrorEvent("alpha", "executor", errors.New("remote down"), nil))
	bus.Stop() // drains before returning

	activities, err := db.GetRecentActivityForAccount("alpha", 10)
	if err != nil {
		t.Fatalf("Failed to get activities: %v", err)
	}
	if len(activities) != 3 {
		t.Fatalf("Expected 3 activity rows, got %d", len(activities))
	}

	byType := map[string]string{}
	for _, a := range activities {
		byType[a.ActivityType] = a.Status
	}
	if byType["spin"] != "ok" {
		t.Errorf("Expected spin recorded ok, got %q", byType["spin"])
	}
	if byType["refresh"] != "failed" {
		t.Errorf("Expected refresh recorded failed, got %q", byType["refresh"])
	}
	if byType["deactivate"] != "ok" {
		t.Errorf("Expected deactivation recorded, got %q", byType["deactivate"])
	}

	errs, err := db.GetRecentErrors(10)
	if err != nil {
		t.Fatalf("Failed to get errors: %v", err)
	}
	if len(errs) != 1 {
		t.Fatalf("Expected 1 error row, got %d", len(errs))
	}
	if errs[0].ErrorMessage != "remote down" {
		t.Errorf("Expected error message persisted, got %q", errs[0].ErrorMessage)
	}

	account, err := db.GetAccountByHandle("alpha")
	if err != nil {
		t.Fatalf("Failed to get account: %v", err)
	}
	if !account.IsSuspended {
		t.Error("Expected deactivation event to suspend the persisted account")
	}
}
