package state

import (
	"time"

	"spinbot.dev/spin-api-go/internal/schedule"
)

// AccountConfig is the static per-account configuration loaded at startup.
// Identity and window settings never change at runtime; the refresh
// credential rotates through the store.
type AccountConfig struct {
	ID                string
	RefreshCredential string
	AchievementGroup  string
	WindowStart       schedule.ClockTime
	WindowEnd         schedule.ClockTime
	BaseIntervalMin   int
	JitterMinSec      int
	JitterMaxSec      int
}

// Account tracks one configured remote identity: its static configuration,
// authentication state, scheduling state and counters. All mutation goes
// through the Store so access stays serialized.
type Account struct {
	Config AccountConfig

	// Authentication state
	Token             string
	RefreshCredential string
	LastRefresh       time.Time
	Active            bool

	// Scheduling state
	NextSpinAt    time.Time // zero until first computed (Idle)
	NextRefreshAt time.Time

	// Loop supervision
	Running bool

	// Counters
	SpinCount           int64
	AchievementsClaimed int64
	Balance             int64

	log *LogRing
}

// Snapshot is the externally visible view of an account. Tokens and
// refresh credentials are deliberately absent.
type Snapshot struct {
	ID                  string    `json:"id"`
	Active              bool      `json:"active"`
	Running             bool      `json:"running"`
	WindowStart         string    `json:"window_start"`
	WindowEnd           string    `json:"window_end"`
	LastRefresh         time.Time `json:"last_refresh"`
	NextSpinAt          time.Time `json:"next_spin_at"`
	NextRefreshAt       time.Time `json:"next_refresh_at"`
	SpinCount           int64     `json:"spin_count"`
	AchievementsClaimed int64     `json:"achievements_claimed"`
	Balance             int64     `json:"balance"`
}

// snapshot builds the sanitized view. Caller holds the store lock.
func (a *Account) snapshot() Snapshot {
	return Snapshot{
		ID:                  a.Config.ID,
		Active:              a.Active,
		Running:             a.Running,
		WindowStart:         a.Config.WindowStart.String(),
		WindowEnd:           a.Config.WindowEnd.String(),
		LastRefresh:         a.LastRefresh,
		NextSpinAt:          a.NextSpinAt,
		NextRefreshAt:       a.NextRefreshAt,
		SpinCount:           a.SpinCount,
		AchievementsClaimed: a.AchievementsClaimed,
		Balance:             a.Balance,
	}
}
