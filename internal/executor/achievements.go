package executor

import (
	"context"
	"fmt"

	"spinbot.dev/spin-api-go/internal/api"
	"spinbot.dev/spin-api-go/internal/events"
)

// ClaimAchievements collects every claimable achievement across the four
// fixed categories and claims each one individually. Claims are spaced by
// a randomized delay to stay under remote rate limits, and the failure of
// one claim never aborts the rest. Returns the number of successful
// claims, which is also added to the account's cumulative counter.
func (e *Executor) ClaimAchievements(ctx context.Context, accountID string) int {
	cfg, ok := e.store.Config(accountID)
	if !ok {
		return 0
	}

	claimable := e.collectClaimable(ctx, accountID, cfg.AchievementGroup)
	if len(claimable) == 0 {
		e.store.Log(accountID, "no achievements to claim")
		return 0
	}

	claimed := 0
	for i, achievement := range claimable {
		if i > 0 {
			e.sleep(ctx, e.claimDelay())
		}
		if ctx.Err() != nil {
			break
		}

		id := achievement.ID
		result := e.withAuthRetry(ctx, accountID, func(token string) api.Result {
			return e.client.Post(ctx, api.PathClaimAchievement(id), token, nil)
		})
		if result.Success {
			claimed++
			continue
		}
		e.store.Log(accountID, fmt.Sprintf("claim %s failed: %v", id, result.Err))
		e.logger.AccountWarn(accountID, fmt.Sprintf("claim %s failed: %v", id, result.Err))
		e.publishError(accountID, result.Err, map[string]interface{}{"action": "claim", "achievement": id})
	}

	if claimed > 0 {
		e.store.RecordClaims(accountID, claimed)
	}
	e.store.Log(accountID, fmt.Sprintf("claimed %d of %d achievements", claimed, len(claimable)))
	if e.bus != nil {
		e.bus.Publish(events.NewAchievementsClaimedEvent(accountID, claimed, len(claimable)))
	}
	return claimed
}

// collectClaimable fetches the listings for all four categories and
// gathers entries whose progress allows a claim. A failed listing is
// logged and skipped; remaining categories still run.
func (e *Executor) collectClaimable(ctx context.Context, accountID, group string) []api.Achievement {
	var claimable []api.Achievement

	for _, category := range api.AchievementCategories {
		path := api.PathAchievements(group, category)
		result := e.withAuthRetry(ctx, accountID, func(token string) api.Result {
			return e.client.Get(ctx, path, token)
		})
		if !result.Success {
			e.store.Log(accountID, fmt.Sprintf("achievement listing %s failed: %v", category, result.Err))
			continue
		}

		var payload api.AchievementListResponse
		if err := result.Decode(&payload); err != nil {
			e.store.Log(accountID, fmt.Sprintf("achievement listing %s malformed: %v", category, err))
			continue
		}

		for _, achievement := range payload.Achievements {
			if achievement.Claimable() {
				claimable = append(claimable, achievement)
			}
		}
	}

	return claimable
}
