package api

import "fmt"

// The remote API surface is fixed and known ahead of time. Paths are
// relative to the configured base URL.
const (
	PathRefresh  = "/auth/refresh"
	PathFunds    = "/user/funds"
	PathBuyPack  = "/shop/packs/buy"
	PathSpin     = "/game/spin"
	PathOpenPack = "/packs/open"
)

// AchievementCategory is one of the four fixed claimable listings
type AchievementCategory string

const (
	CategoryGeneral AchievementCategory = "general"
	CategoryDaily   AchievementCategory = "daily"
	CategoryWeekly  AchievementCategory = "weekly"
	CategoryMonthly AchievementCategory = "monthly"
)

// AchievementCategories lists the categories in listing order
var AchievementCategories = []AchievementCategory{
	CategoryGeneral, CategoryDaily, CategoryWeekly, CategoryMonthly,
}

// PathAchievements returns the listing path for an achievement group and category
func PathAchievements(group string, category AchievementCategory) string {
	return fmt.Sprintf("/achievements/%s?category=%s", group, category)
}

// PathClaimAchievement returns the claim path for a single achievement
func PathClaimAchievement(id string) string {
	return fmt.Sprintf("/achievements/%s/claim", id)
}

// RefreshRequest is the body sent to the authentication endpoint
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse carries the new short-lived token and, when the remote
// rotates it, a replacement refresh credential
type RefreshResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// FundsResponse is the currency balance payload
type FundsResponse struct {
	Balance int64 `json:"balance"`
}

// Achievement is one entry of a claimable-achievement listing
type Achievement struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Progress int    `json:"progress"`
	Goal     int    `json:"goal"`
	Claimed  bool   `json:"claimed"`
}

// Claimable reports whether the achievement has met its goal and has not
// been claimed yet
func (a Achievement) Claimable() bool {
	return a.Goal > 0 && a.Progress >= a.Goal && !a.Claimed
}

// AchievementListResponse is the listing payload for one category
type AchievementListResponse struct {
	Achievements []Achievement `json:"achievements"`
}

// SpinResponse is the payload of a spin action
type SpinResponse struct {
	Reward  int64  `json:"reward"`
	Balance int64  `json:"balance"`
	PackID  string `json:"packId,omitempty"`
}
