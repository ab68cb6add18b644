package orchestrator

import (
	"context"
	"fmt"

	"spinbot.dev/spin-api-go/internal/events"
	"spinbot.dev/spin-api-go/internal/executor"
)

// TriggerResult is the uniform outcome returned to manual callers. It
// mirrors the result shape the scheduled path produces.
type TriggerResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Balance *int64 `json:"balance,omitempty"`
	Claimed *int   `json:"claimed,omitempty"`
}

// lookup returns the runner for an account
func (o *Orchestrator) lookup(id string) (*runner, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	r, ok := o.runners[id]
	if !ok {
		return nil, fmt.Errorf("unknown account %q", id)
	}
	return r, nil
}

// StartAccount enables the account's autonomous loop. The next tick picks
// it up; an inactive account re-authenticates first.
func (o *Orchestrator) StartAccount(id string) error {
	if _, err := o.lookup(id); err != nil {
		return err
	}
	o.store.SetRunning(id, true)
	o.store.Log(id, "loop started")
	if o.bus != nil {
		o.bus.Publish(events.NewLoopEvent(id, true))
	}
	return nil
}

// StopAccount disables the loop cooperatively: in-flight work completes,
// no new scheduled action is initiated
func (o *Orchestrator) StopAccount(id string) error {
	if _, err := o.lookup(id); err != nil {
		return err
	}
	o.store.SetRunning(id, false)
	o.store.Log(id, "loop stopped")
	if o.bus != nil {
		o.bus.Publish(events.NewLoopEvent(id, false))
	}
	return nil
}

// TriggerRefresh manually refreshes the account's token
func (o *Orchestrator) TriggerRefresh(ctx context.Context, id string) (TriggerResult, error) {
	r, err := o.lookup(id)
	if err != nil {
		return TriggerResult{}, err
	}
	r.busy.Lock()
	defer r.busy.Unlock()

	if o.auth.Refresh(ctx, id) {
		return TriggerResult{Success: true, Message: "token refreshed"}, nil
	}
	return TriggerResult{Success: false, Message: "refresh failed"}, nil
}

// TriggerSpin manually runs one spin cycle. The schedule is re-armed
// afterwards exactly as on the scheduled path.
func (o *Orchestrator) TriggerSpin(ctx context.Context, id string) (TriggerResult, error) {
	r, err := o.lookup(id)
	if err != nil {
		return TriggerResult{}, err
	}
	r.busy.Lock()
	defer r.busy.Unlock()

	result := o.exec.SpinCycle(ctx, id)
	if result.Outcome == executor.OutcomeForbidden {
		o.deactivate(id, "forbidden response from remote")
	}
	if cfg, ok := o.store.Config(id); ok {
		o.armSpin(r, cfg, o.now())
	}

	if result.Outcome == executor.OutcomeSuccess {
		balance := result.Balance
		return TriggerResult{Success: true, Balance: &balance}, nil
	}
	return TriggerResult{Success: false, Message: fmt.Sprintf("spin cycle failed: %v", result.Err)}, nil
}

// TriggerClaim manually claims all available achievements
func (o *Orchestrator) TriggerClaim(ctx context.Context, id string) (TriggerResult, error) {
	r, err := o.lookup(id)
	if err != nil {
		return TriggerResult{}, err
	}
	r.busy.Lock()
	defer r.busy.Unlock()

	claimed := o.exec.ClaimAchievements(ctx, id)
	return TriggerResult{Success: true, Claimed: &claimed}, nil
}

// TriggerFunds manually checks the currency balance
func (o *Orchestrator) TriggerFunds(ctx context.Context, id string) (TriggerResult, error) {
	r, err := o.lookup(id)
	if err != nil {
		return TriggerResult{}, err
	}
	r.busy.Lock()
	defer r.busy.Unlock()

	balance, ok := o.exec.CheckFunds(ctx, id)
	if !ok {
		return TriggerResult{Success: false, Message: "funds check failed"}, nil
	}
	return TriggerResult{Success: true, Balance: &balance}, nil
}
