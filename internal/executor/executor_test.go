package executor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"spinbot.dev/spin-api-go/internal/api"
	"spinbot.dev/spin-api-go/internal/auth"
	"spinbot.dev/spin-api-go/internal/events"
	"spinbot.dev/spin-api-go/internal/logging"
	"spinbot.dev/spin-api-go/internal/schedule"
	"spinbot.dev/spin-api-go/internal/state"
)

// callCounter tracks how many times each path was hit
type callCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCallCounter() *callCounter {
	return &callCounter{counts: make(map[string]int)}
}

func (c *callCounter) hit(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[path]++
	return c.counts[path]
}

func (c *callCounter) get(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[path]
}

func newTestExecutor(t *testing.T, srv *httptest.Server) (*Executor, *state.Store) {
	t.Helper()

	store := state.NewStore()
	err := store.AddAccount(state.AccountConfig{
		ID:                "alpha",
		RefreshCredential: "refresh-alpha",
		AchievementGroup:  "grp",
		WindowStart:       schedule.ClockTime{Hour: 0, Minute: 0},
		WindowEnd:         schedule.ClockTime{Hour: 23, Minute: 59},
		BaseIntervalMin:   10,
	})
	if err != nil {
		t.Fatalf("Failed to add account: %v", err)
	}
	store.SetAuthenticated("alpha", "token-1", "", time.Now())

	logger := logging.NewLogger("test").SetMinLevel(logging.LogLevelError)
	client := api.NewClient(srv.URL, 5*time.Second)
	mgr := auth.NewManager(client, store, nil, nil, logger)

	exec := New(client, store, mgr, nil, logger, time.Millisecond, 2*time.Millisecond)
	exec.SetSleepFunc(func(ctx context.Context, d time.Duration) {})
	return exec, store
}

func TestCheckFundsRecordsBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != api.PathFunds {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(api.FundsResponse{Balance: 4200})
	}))
	defer srv.Close()

	exec, store := newTestExecutor(t, srv)
	balance, ok := exec.CheckFunds(context.Background(), "alpha")
	if !ok {
		t.Fatal("Expected funds check to succeed")
	}
	if balance != 4200 {
		t.Errorf("Expected balance 4200, got %d", balance)
	}

	snap, _ := store.Snapshot("alpha")
	if snap.Balance != 4200 {
		t.Errorf("Expected stored balance 4200, got %d", snap.Balance)
	}
}

func TestCheckFundsRefreshesOnceAndRetries(t *testing.T) {
	counter := newCallCounter()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case api.PathRefresh:
			counter.hit(r.URL.Path)
			json.NewEncoder(w).Encode(api.RefreshResponse{Token: "token-2"})
		case api.PathFunds:
			// First call rejects the stale token, the retry succeeds.
			if counter.hit(r.URL.Path) == 1 {
				http.Error(w, "expired", http.StatusUnauthorized)
				return
			}
			if r.Header.Get("Authorization") != "Bearer token-2" {
				t.Errorf("Expected retried call with refreshed token, got %q", r.Header.Get("Authorization"))
			}
			json.NewEncoder(w).Encode(api.FundsResponse{Balance: 100})
		default:
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	exec, _ := newTestExecutor(t, srv)
	balance, ok := exec.CheckFunds(context.Background(), "alpha")
	if !ok || balance != 100 {
		t.Fatalf("Expected successful retry with balance 100, got ok=%v balance=%d", ok, balance)
	}

	if counter.get(api.PathRefresh) != 1 {
		t.Errorf("Expected exactly 1 refresh, got %d", counter.get(api.PathRefresh))
	}
	if counter.get(api.PathFunds) != 2 {
		t.Errorf("Expected exactly 2 funds calls, got %d", counter.get(api.PathFunds))
	}
}

func TestCheckFundsRetryBoundIsOne(t *testing.T) {
	counter := newCallCounter()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case api.PathRefresh:
			counter.hit(r.URL.Path)
			json.NewEncoder(w).Encode(api.RefreshResponse{Token: "token-2"})
		case api.PathFunds:
			counter.hit(r.URL.Path)
			// The remote keeps rejecting even the fresh token.
			http.Error(w, "expired", http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	exec, _ := newTestExecutor(t, srv)
	if _, ok := exec.CheckFunds(context.Background(), "alpha"); ok {
		t.Fatal("Expected funds check to fail")
	}

	if counter.get(api.PathFunds) != 2 {
		t.Errorf("Expected exactly 2 funds calls (original + one retry), got %d", counter.get(api.PathFunds))
	}
	if counter.get(api.PathRefresh) != 1 {
		t.Errorf("Expected exactly 1 refresh, got %d", counter.get(api.PathRefresh))
	}
}

func TestCheckFundsFailedRefreshSurfacesOriginalFailure(t *testing.T) {
	counter := newCallCounter()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counter.hit(r.URL.Path)
		http.Error(w, "denied", http.StatusUnauthorized)
	}))
	defer srv.Close()

	exec, store := newTestExecutor(t, srv)
	if _, ok := exec.CheckFunds(context.Background(), "alpha"); ok {
		t.Fatal("Expected funds check to fail")
	}

	if counter.get(api.PathFunds) != 1 {
		t.Errorf("Expected no retry after failed refresh, got %d funds calls", counter.get(api.PathFunds))
	}
	if store.IsActive("alpha") {
		t.Error("Expected account deactivated by the failed refresh")
	}
}

func TestClaimAchievementsNothingClaimable(t *testing.T) {
	counter := newCallCounter()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			counter.hit("claim")
			w.WriteHeader(http.StatusOK)
			return
		}
		json.NewEncoder(w).Encode(api.AchievementListResponse{Achievements: []api.Achievement{
			{ID: "a1", Progress: 3, Goal: 10},          // unfinished
			{ID: "a2", Progress: 10, Goal: 10, Claimed: true}, // already claimed
		}})
	}))
	defer srv.Close()

	exec, _ := newTestExecutor(t, srv)
	claimed := exec.ClaimAchievements(context.Background(), "alpha")
	if claimed != 0 {
		t.Errorf("Expected 0 claims, got %d", claimed)
	}
	if counter.get("claim") != 0 {
		t.Errorf("Expected no claim calls, got %d", counter.get("claim"))
	}
}

func TestClaimAchievementsClaimsEachWithSpacing(t *testing.T) {
	counter := newCallCounter()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			counter.hit(r.URL.Path)
			w.WriteHeader(http.StatusOK)
			return
		}
		// Only the daily listing carries claimable entries.
		if r.URL.Query().Get("category") == string(api.CategoryDaily) {
			json.NewEncoder(w).Encode(api.AchievementListResponse{Achievements: []api.Achievement{
				{ID: "d1", Progress: 10, Goal: 10},
				{ID: "d2", Progress: 7, Goal: 5},
			}})
			return
		}
		json.NewEncoder(w).Encode(api.AchievementListResponse{})
	}))
	defer srv.Close()

	exec, store := newTestExecutor(t, srv)
	sleeps := 0
	exec.SetSleepFunc(func(ctx context.Context, d time.Duration) { sleeps++ })

	claimed := exec.ClaimAchievements(context.Background(), "alpha")
	if claimed != 2 {
		t.Fatalf("Expected 2 claims, got %d", claimed)
	}
	if counter.get(api.PathClaimAchievement("d1")) != 1 || counter.get(api.PathClaimAchievement("d2")) != 1 {
		t.Error("Expected one claim call per achievement")
	}
	if sleeps != 1 {
		t.Errorf("Expected 1 inter-claim delay, got %d", sleeps)
	}

	snap, _ := store.Snapshot("alpha")
	if snap.AchievementsClaimed != 2 {
		t.Errorf("Expected cumulative claim counter 2, got %d", snap.AchievementsClaimed)
	}
}

func TestClaimAchievementsFailedClaimDoesNotAbort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if r.URL.Path == api.PathClaimAchievement("bad") {
				http.Error(w, "oops", http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.URL.Query().Get("category") == string(api.CategoryGeneral) {
			json.NewEncoder(w).Encode(api.AchievementListResponse{Achievements: []api.Achievement{
				{ID: "bad", Progress: 10, Goal: 10},
				{ID: "good", Progress: 10, Goal: 10},
			}})
			return
		}
		json.NewEncoder(w).Encode(api.AchievementListResponse{})
	}))
	defer srv.Close()

	exec, _ := newTestExecutor(t, srv)
	claimed := exec.ClaimAchievements(context.Background(), "alpha")
	if claimed != 1 {
		t.Errorf("Expected the surviving claim to land, got %d", claimed)
	}
}

func TestSpinCycleSuccess(t *testing.T) {
	counter := newCallCounter()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counter.hit(r.URL.Path)
		switch r.URL.Path {
		case api.PathBuyPack:
			w.WriteHeader(http.StatusOK)
		case api.PathSpin:
			json.NewEncoder(w).Encode(api.SpinResponse{Reward: 50, Balance: 950, PackID: "pack-7"})
		case api.PathOpenPack:
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["packId"] != "pack-7" {
				t.Errorf("Expected pack-7 open request, got %v", body)
			}
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	exec, store := newTestExecutor(t, srv)
	result := exec.SpinCycle(context.Background(), "alpha")
	if result.Outcome != OutcomeSuccess {
		t.Fatalf("Expected success, got outcome %d (%v)", result.Outcome, result.Err)
	}
	if result.Reward != 50 || result.Balance != 950 {
		t.Errorf("Unexpected result: %+v", result)
	}
	if counter.get(api.PathOpenPack) != 1 {
		t.Errorf("Expected one pack open, got %d", counter.get(api.PathOpenPack))
	}

	snap, _ := store.Snapshot("alpha")
	if snap.SpinCount != 1 || snap.Balance != 950 {
		t.Errorf("Expected counters updated, got %+v", snap)
	}
}

func TestSpinCycleNoPackGranted(t *testing.T) {
	counter := newCallCounter()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counter.hit(r.URL.Path)
		switch r.URL.Path {
		case api.PathBuyPack:
			w.WriteHeader(http.StatusOK)
		case api.PathSpin:
			json.NewEncoder(w).Encode(api.SpinResponse{Reward: 10, Balance: 990})
		default:
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	exec, _ := newTestExecutor(t, srv)
	result := exec.SpinCycle(context.Background(), "alpha")
	if result.Outcome != OutcomeSuccess {
		t.Fatalf("Expected success, got %v", result.Err)
	}
	if counter.get(api.PathOpenPack) != 0 {
		t.Error("Expected no pack open without a pack ID")
	}
}

func TestSpinCycleRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	exec, _ := newTestExecutor(t, srv)
	result := exec.SpinCycle(context.Background(), "alpha")
	if result.Outcome != OutcomeRateLimited {
		t.Errorf("Expected rate-limited outcome, got %d", result.Outcome)
	}
}

func TestSpinCycleForbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "account suspended", http.StatusForbidden)
	}))
	defer srv.Close()

	exec, _ := newTestExecutor(t, srv)
	result := exec.SpinCycle(context.Background(), "alpha")
	if result.Outcome != OutcomeForbidden {
		t.Errorf("Expected forbidden outcome, got %d", result.Outcome)
	}
}

func TestFailuresPublishErrorEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "remote down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := state.NewStore()
	err := store.AddAccount(state.AccountConfig{
		ID:                "alpha",
		RefreshCredential: "refresh-alpha",
		WindowStart:       schedule.ClockTime{Hour: 0, Minute: 0},
		WindowEnd:         schedule.ClockTime{Hour: 23, Minute: 59},
		BaseIntervalMin:   10,
	})
	if err != nil {
		t.Fatalf("Failed to add account: %v", err)
	}
	store.SetAuthenticated("alpha", "token-1", "", time.Now())

	bus := events.NewEventBus(16)
	var mu sync.Mutex
	var captured []events.Event
	bus.Subscribe(events.EventTypeError, func(e events.Event) {
		mu.Lock()
		captured = append(captured, e)
		mu.Unlock()
	})

	logger := logging.NewLogger("test").SetMinLevel(logging.LogLevelError)
	client := api.NewClient(srv.URL, 5*time.Second)
	mgr := auth.NewManager(client, store, nil, bus, logger)
	exec := New(client, store, mgr, bus, logger, 0, 0)
	exec.SetSleepFunc(func(ctx context.Context, d time.Duration) {})

	exec.CheckFunds(context.Background(), "alpha")
	exec.SpinCycle(context.Background(), "alpha")
	bus.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(captured) != 2 {
		t.Fatalf("Expected 2 error events, got %d", len(captured))
	}
	for _, e := range captured {
		if e.AccountID != "alpha" {
			t.Errorf("Expected account alpha on error event, got %q", e.AccountID)
		}
		if e.Data["error"] == "" {
			t.Error("Expected error message in event data")
		}
	}
	if captured[0].Data["action"] != "funds" {
		t.Errorf("Expected funds action metadata, got %v", captured[0].Data["action"])
	}
	if captured[1].Data["step"] != "buy" {
		t.Errorf("Expected buy step metadata, got %v", captured[1].Data["step"])
	}
}
