package database

import "time"

// Account is a persisted account row. The handle mirrors the in-memory
// account identifier; tokens and credentials are never stored here.
type Account struct {
	ID                  int        `db:"id"`
	Handle              string     `db:"handle"`
	AchievementGroup    *string    `db:"achievement_group"`
	SpinCount           int64      `db:"spin_count"`
	AchievementsClaimed int64      `db:"achievements_claimed"`
	Balance             int64      `db:"balance"`
	CreatedAt           time.Time  `db:"created_at"`
	LastRefreshAt       *time.Time `db:"last_refresh_at"`
	IsActive            bool       `db:"is_active"`
	IsSuspended         bool       `db:"is_suspended"`
}

// ActivityLog is one persisted action record
type ActivityLog struct {
	ID            int       `db:"id"`
	ActivityID    string    `db:"activity_id"`
	AccountHandle string    `db:"account_handle"`
	ActivityType  string    `db:"activity_type"`
	Status        string    `db:"status"`
	Message       *string   `db:"message"`
	OccurredAt    time.Time `db:"occurred_at"`
}

// ErrorLog is a persisted error record
type ErrorLog struct {
	ID            int       `db:"id"`
	AccountHandle *string   `db:"account_handle"`
	ErrorType     string    `db:"error_type"`
	ErrorMessage  string    `db:"error_message"`
	OccurredAt    time.Time `db:"occurred_at"`
}
