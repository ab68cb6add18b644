package executor

import (
	"context"

	"spinbot.dev/spin-api-go/internal/api"
)

// withAuthRetry applies the authorization-retry policy to one logical API
// call: if the call fails with an authorization error, refresh the token
// once and retry the call exactly once. If the refresh fails, the original
// failure is surfaced. The cycle never recurses; one refresh and one retry
// per originating call is the hard bound.
func (e *Executor) withAuthRetry(ctx context.Context, accountID string, call func(token string) api.Result) api.Result {
	token, _, ok := e.store.Credentials(accountID)
	if !ok {
		return api.Result{Err: &api.Error{Category: api.ErrorConfiguration, Message: "unknown account " + accountID}}
	}

	result := call(token)
	if result.Success || !api.IsAuthorization(result.Err) {
		return result
	}

	if !e.auth.Refresh(ctx, accountID) {
		return result
	}

	token, _, _ = e.store.Credentials(accountID)
	return call(token)
}
