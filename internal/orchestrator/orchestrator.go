package orchestrator

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"spinbot.dev/spin-api-go/internal/auth"
	"spinbot.dev/spin-api-go/internal/events"
	"spinbot.dev/spin-api-go/internal/executor"
	"spinbot.dev/spin-api-go/internal/logging"
	"spinbot.dev/spin-api-go/internal/schedule"
	"spinbot.dev/spin-api-go/internal/state"
)

// Options tunes the orchestrator's timing behaviour
type Options struct {
	TickInterval  time.Duration // driver tick, default 30s
	Cooldown      time.Duration // pause after a rate-limited spin cycle
	RefreshRetry  time.Duration // wait before re-attempting a failed refresh
	FundsInterval time.Duration // cadence of the recurring funds check
	ClaimTime     *schedule.ClockTime // daily claim clock; nil = account window end
}

func (o *Options) defaults() {
	if o.TickInterval <= 0 {
		o.TickInterval = 30 * time.Second
	}
	if o.Cooldown <= 0 {
		o.Cooldown = 45 * time.Second
	}
	if o.RefreshRetry <= 0 {
		o.RefreshRetry = 10 * time.Minute
	}
	if o.FundsInterval <= 0 {
		o.FundsInterval = time.Hour
	}
}

// runner serializes all work for one account. The busy lock guarantees no
// two actions for the same account ever execute concurrently; actions for
// different accounts interleave freely.
type runner struct {
	id            string
	busy          sync.Mutex
	rng           *rand.Rand
	cooldownUntil time.Time
	fundsTask     *schedule.Task
	claimTask     *schedule.Task
}

// Orchestrator drives the per-account scheduling state machine: calendar
// token refreshes, recurring funds checks and achievement claims, and the
// jittered spin cycle. A single periodic tick evaluates every account; the
// work itself runs per account, guarded by that account's busy lock.
type Orchestrator struct {
	store  *state.Store
	exec   *executor.Executor
	auth   *auth.Manager
	bus    events.EventBus
	logger *logging.Logger
	opts   Options

	mu      sync.Mutex
	runners map[string]*runner

	now func() time.Time
}

// New creates an orchestrator over every account currently in the store.
// Accounts start with their loop enabled.
func New(store *state.Store, exec *executor.Executor, authMgr *auth.Manager, bus events.EventBus, logger *logging.Logger, opts Options) *Orchestrator {
	opts.defaults()

	o := &Orchestrator{
		store:   store,
		exec:    exec,
		auth:    authMgr,
		bus:     bus,
		logger:  logger,
		opts:    opts,
		runners: make(map[string]*runner),
		now:     time.Now,
	}

	now := o.now()
	for _, id := range store.IDs() {
		o.runners[id] = o.newRunner(id, now)
		store.SetRunning(id, true)
	}

	return o
}

// SetNowFunc overrides the clock, for tests
func (o *Orchestrator) SetNowFunc(now func() time.Time) {
	o.now = now
}

func (o *Orchestrator) newRunner(id string, now time.Time) *runner {
	r := &runner{
		id:        id,
		rng:       rand.New(rand.NewSource(now.UnixNano() + int64(len(id)))),
		fundsTask: schedule.NewTask("funds", now, schedule.EveryInterval(o.opts.FundsInterval)),
	}

	claimClock := o.claimClock(id)
	r.claimTask = schedule.NewTask("claim", now, schedule.DailyAt(claimClock))
	return r
}

// claimClock resolves the daily achievement claim time: the configured
// override, or the account's window end
func (o *Orchestrator) claimClock(id string) schedule.ClockTime {
	if o.opts.ClaimTime != nil {
		return *o.opts.ClaimTime
	}
	cfg, _ := o.store.Config(id)
	return cfg.WindowEnd
}

// Run drives the periodic tick until the context is cancelled. In-flight
// account work finishes cooperatively; no new work starts after return.
func (o *Orchestrator) Run(ctx context.Context) {
	ticker := time.NewTicker(o.opts.TickInterval)
	defer ticker.Stop()

	o.logger.Info("orchestrator started")
	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			o.logger.Info("orchestrator stopped")
			return
		case <-ticker.C:
			o.tick(ctx, &wg)
		}
	}
}

// tick evaluates every account once. Accounts whose previous action is
// still in flight are skipped; their timers are re-examined next tick.
func (o *Orchestrator) tick(ctx context.Context, wg *sync.WaitGroup) {
	o.mu.Lock()
	runners := make([]*runner, 0, len(o.runners))
	for _, r := range o.runners {
		runners = append(runners, r)
	}
	o.mu.Unlock()

	now := o.now()
	for _, r := range runners {
		if !r.busy.TryLock() {
			o.logger.Debug("evaluation still in flight for " + r.id + ", skipping tick")
			continue
		}
		wg.Add(1)
		go func(r *runner) {
			defer wg.Done()
			defer r.busy.Unlock()
			o.evaluate(ctx, r, now)
		}(r)
	}
}

// evaluate runs one scheduling pass for one account: refresh first, then
// the recurring tasks and the spin state machine, both gated on the active
// flag and the daily window
func (o *Orchestrator) evaluate(ctx context.Context, r *runner, now time.Time) {
	var (
		running       bool
		active        bool
		token         string
		nextRefreshAt time.Time
	)
	found := o.store.View(r.id, func(a *state.Account) {
		running = a.Running
		active = a.Active
		token = a.Token
		nextRefreshAt = a.NextRefreshAt
	})
	if !found || !running {
		return
	}

	// Token lifecycle: an armed refresh time gates every path, so both
	// the calendar refresh and the retry after a failure wait for their
	// due time instead of firing every tick. Unarmed accounts refresh
	// when the token is missing, the account is inactive, or the token
	// has already expired.
	refreshDue := nextRefreshAt.IsZero() || !now.Before(nextRefreshAt)
	needsRefresh := refreshDue &&
		(!nextRefreshAt.IsZero() || token == "" || !active || auth.TokenExpired(token, now))

	if needsRefresh {
		if !o.auth.Refresh(ctx, r.id) {
			// Back off before the next attempt; a dead credential must not
			// be hammered every tick
			o.store.SetNextRefresh(r.id, now.Add(o.opts.RefreshRetry))
			return
		}
		active = true
	}

	if !active {
		return
	}

	cfg, ok := o.store.Config(r.id)
	if !ok {
		return
	}

	// Outside the window the timers are neither advanced nor reset;
	// evaluation resumes transparently when the window reopens
	if !schedule.InWindow(cfg.WindowStart, cfg.WindowEnd, now) {
		return
	}

	o.runRecurringTasks(ctx, r, now)
	o.evaluateSpin(ctx, r, cfg, now)
}

// runRecurringTasks fires the funds check and achievement claim when due.
// Tasks are always re-armed after firing, whatever the outcome.
func (o *Orchestrator) runRecurringTasks(ctx context.Context, r *runner, now time.Time) {
	if r.fundsTask.Due(now) {
		o.exec.CheckFunds(ctx, r.id)
		r.fundsTask.Fired(now)
	}
	if r.claimTask.Due(now) {
		o.exec.ClaimAchievements(ctx, r.id)
		r.claimTask.Fired(now)
	}
}

// evaluateSpin advances the spin state machine:
//
//	Idle  (no timestamp)   -> arm a jittered next-spin timestamp
//	Armed (future)         -> wait
//	Due   (elapsed)        -> execute the cycle, then always re-arm
//
// Rate-limited cycles add a cooldown before the next evaluation; a
// forbidden response deactivates the account permanently.
func (o *Orchestrator) evaluateSpin(ctx context.Context, r *runner, cfg state.AccountConfig, now time.Time) {
	if now.Before(r.cooldownUntil) {
		return
	}

	var nextSpinAt time.Time
	o.store.View(r.id, func(a *state.Account) { nextSpinAt = a.NextSpinAt })

	if nextSpinAt.IsZero() {
		o.armSpin(r, cfg, now)
		return
	}
	if now.Before(nextSpinAt) {
		return
	}

	result := o.exec.SpinCycle(ctx, r.id)
	switch result.Outcome {
	case executor.OutcomeRateLimited:
		r.cooldownUntil = o.now().Add(o.opts.Cooldown)
		o.store.Log(r.id, "rate limited, cooling down")
	case executor.OutcomeForbidden:
		o.deactivate(r.id, "forbidden response from remote")
	}

	// Always reschedule: a failed cycle must never stall the account
	o.armSpin(r, cfg, o.now())
}

func (o *Orchestrator) armSpin(r *runner, cfg state.AccountConfig, now time.Time) {
	next := schedule.NextAction(now, cfg.BaseIntervalMin, cfg.JitterMinSec, cfg.JitterMaxSec, r.rng)
	o.store.SetNextSpin(r.id, next)
}

// deactivate handles the one terminal failure state: the remote reports
// the account suspended. The loop stops and stays stopped; other accounts
// are unaffected.
func (o *Orchestrator) deactivate(id, reason string) {
	o.store.Deactivate(id)
	o.store.SetRunning(id, false)
	o.store.Log(id, "account deactivated: "+reason)
	o.logger.AccountWarn(id, "account deactivated: "+reason)
	if o.bus != nil {
		o.bus.Publish(events.NewAccountDeactivatedEvent(id, reason))
	}
}
