package executor

import (
	"context"
	"fmt"

	"spinbot.dev/spin-api-go/internal/api"
	"spinbot.dev/spin-api-go/internal/events"
)

// CycleOutcome classifies the result of one spin cycle for the scheduler
type CycleOutcome int

const (
	OutcomeSuccess     CycleOutcome = iota
	OutcomeFailed                   // generic remote or transport failure
	OutcomeRateLimited              // remote throttling, cool down and resume
	OutcomeForbidden                // account suspended, terminal
)

// CycleResult is the outcome of one buy/spin/open-pack cycle
type CycleResult struct {
	Outcome CycleOutcome
	Reward  int64
	Balance int64
	Err     error
}

// SpinCycle runs one purchase-then-use sequence: buy a spin pack, execute
// the spin, and open the resulting pack when the remote grants one. Each
// step is wrapped in the authorization-retry policy. The caller always
// reschedules afterwards regardless of outcome; a failed cycle never
// stalls the account's schedule.
func (e *Executor) SpinCycle(ctx context.Context, accountID string) CycleResult {
	if result := e.withAuthRetry(ctx, accountID, func(token string) api.Result {
		return e.client.Post(ctx, api.PathBuyPack, token, nil)
	}); !result.Success {
		return e.cycleFailure(accountID, "buy", result.Err)
	}

	spinResult := e.withAuthRetry(ctx, accountID, func(token string) api.Result {
		return e.client.Post(ctx, api.PathSpin, token, nil)
	})
	if !spinResult.Success {
		return e.cycleFailure(accountID, "spin", spinResult.Err)
	}

	var payload api.SpinResponse
	if err := spinResult.Decode(&payload); err != nil {
		return e.cycleFailure(accountID, "spin payload", err)
	}

	if payload.PackID != "" {
		packID := payload.PackID
		if result := e.withAuthRetry(ctx, accountID, func(token string) api.Result {
			return e.client.Post(ctx, api.PathOpenPack, token, map[string]string{"packId": packID})
		}); !result.Success {
			// Pack stays claimable remotely; the spin itself succeeded
			e.store.Log(accountID, fmt.Sprintf("pack open failed: %v", result.Err))
			e.logger.AccountWarn(accountID, fmt.Sprintf("pack open failed: %v", result.Err))
		}
	}

	e.store.RecordSpin(accountID)
	e.store.SetBalance(accountID, payload.Balance)
	e.store.Log(accountID, fmt.Sprintf("spin complete, reward %d, balance %d", payload.Reward, payload.Balance))
	if e.bus != nil {
		e.bus.Publish(events.NewSpinEvent(accountID, payload.Reward, payload.Balance))
	}

	return CycleResult{Outcome: OutcomeSuccess, Reward: payload.Reward, Balance: payload.Balance}
}

// cycleFailure classifies a failed step and logs it
func (e *Executor) cycleFailure(accountID, step string, err error) CycleResult {
	outcome := OutcomeFailed
	switch {
	case api.IsRateLimited(err):
		outcome = OutcomeRateLimited
	case api.IsForbidden(err):
		outcome = OutcomeForbidden
	}

	msg := fmt.Sprintf("spin cycle %s failed: %v", step, err)
	e.store.Log(accountID, msg)
	e.logger.AccountWarn(accountID, msg)
	if e.bus != nil {
		e.bus.Publish(events.NewSpinFailedEvent(accountID, msg))
	}
	e.publishError(accountID, err, map[string]interface{}{"step": step})

	return CycleResult{Outcome: outcome, Err: err}
}
