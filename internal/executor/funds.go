package executor

import (
	"context"
	"fmt"

	"spinbot.dev/spin-api-go/internal/api"
	"spinbot.dev/spin-api-go/internal/events"
)

// CheckFunds queries the account's currency balance. On success the
// balance is recorded and returned. Authorization failures trigger the
// one-shot refresh-and-retry; any other failure is logged and reported as
// not-ok without raising.
func (e *Executor) CheckFunds(ctx context.Context, accountID string) (int64, bool) {
	result := e.withAuthRetry(ctx, accountID, func(token string) api.Result {
		return e.client.Get(ctx, api.PathFunds, token)
	})

	if !result.Success {
		e.store.Log(accountID, fmt.Sprintf("funds check failed: %v", result.Err))
		e.logger.AccountWarn(accountID, fmt.Sprintf("funds check failed: %v", result.Err))
		e.publishError(accountID, result.Err, map[string]interface{}{"action": "funds"})
		return 0, false
	}

	var payload api.FundsResponse
	if err := result.Decode(&payload); err != nil {
		e.store.Log(accountID, fmt.Sprintf("funds payload malformed: %v", err))
		e.logger.AccountWarn(accountID, fmt.Sprintf("funds payload malformed: %v", err))
		return 0, false
	}

	e.store.SetBalance(accountID, payload.Balance)
	e.store.Log(accountID, fmt.Sprintf("balance: %d", payload.Balance))
	if e.bus != nil {
		e.bus.Publish(events.NewFundsCheckedEvent(accountID, payload.Balance))
	}
	return payload.Balance, true
}
