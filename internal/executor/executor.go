package executor

import (
	"context"
	"math/rand"
	"time"

	"spinbot.dev/spin-api-go/internal/api"
	"spinbot.dev/spin-api-go/internal/auth"
	"spinbot.dev/spin-api-go/internal/events"
	"spinbot.dev/spin-api-go/internal/logging"
	"spinbot.dev/spin-api-go/internal/state"
)

// Executor runs the remote actions for an account: funds checks,
// achievement claims and the buy/spin/open-pack cycle. Every call goes
// through the one-shot authorization-retry policy.
type Executor struct {
	client *api.Client
	store  *state.Store
	auth   *auth.Manager
	bus    events.EventBus
	logger *logging.Logger

	claimDelayMin time.Duration
	claimDelayMax time.Duration

	// sleep is replaceable so tests are not bound to wall-clock delays
	sleep func(ctx context.Context, d time.Duration)
}

// New creates an executor. Claim delay bounds space out consecutive claim
// calls to stay under remote rate limits.
func New(client *api.Client, store *state.Store, authMgr *auth.Manager, bus events.EventBus, logger *logging.Logger, claimDelayMin, claimDelayMax time.Duration) *Executor {
	if claimDelayMin > claimDelayMax {
		claimDelayMin, claimDelayMax = claimDelayMax, claimDelayMin
	}
	return &Executor{
		client:        client,
		store:         store,
		auth:          authMgr,
		bus:           bus,
		logger:        logger,
		claimDelayMin: claimDelayMin,
		claimDelayMax: claimDelayMax,
		sleep:         sleepCtx,
	}
}

// SetSleepFunc overrides the delay function, for tests
func (e *Executor) SetSleepFunc(fn func(ctx context.Context, d time.Duration)) {
	e.sleep = fn
}

// publishError mirrors an action failure onto the error event stream so
// the persistence layer can record it
func (e *Executor) publishError(accountID string, err error, metadata map[string]interface{}) {
	if e.bus == nil || err == nil {
		return
	}
	e.bus.Publish(events.NewErrorEvent(accountID, "executor", err, metadata))
}

// claimDelay picks a random inter-claim pause within the configured bounds
func (e *Executor) claimDelay() time.Duration {
	if e.claimDelayMax <= e.claimDelayMin {
		return e.claimDelayMin
	}
	span := e.claimDelayMax - e.claimDelayMin
	return e.claimDelayMin + time.Duration(rand.Int63n(int64(span)))
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
