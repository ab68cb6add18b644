package database

import (
	"database/sql"
	"fmt"
	"time"
)

// UpsertAccount ensures an account row exists for the handle and returns it
func (db *DB) UpsertAccount(handle, achievementGroup string) (*Account, error) {
	existing, err := db.GetAccountByHandle(handle)
	if err == nil {
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	err = db.ExecTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO accounts (handle, achievement_group, created_at)
			VALUES (?, ?, ?)
		`, handle, achievementGroup, time.Now())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert account: %w", err)
	}

	return db.GetAccountByHandle(handle)
}

// GetAccountByHandle retrieves an account row by its handle
func (db *DB) GetAccountByHandle(handle string) (*Account, error) {
	account := &Account{}
	err := db.conn.QueryRow(`
		SELECT
			id, handle, achievement_group, spin_count, achievements_claimed,
			balance, created_at, last_refresh_at, is_active, is_suspended
		FROM accounts
		WHERE handle = ?
	`, handle).Scan(
		&account.ID, &account.Handle, &account.AchievementGroup,
		&account.SpinCount, &account.AchievementsClaimed, &account.Balance,
		&account.CreatedAt, &account.LastRefreshAt, &account.IsActive,
		&account.IsSuspended,
	)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// ListAccounts returns every persisted account row
func (db *DB) ListAccounts() ([]*Account, error) {
	rows, err := db.conn.Query(`
		SELECT
			id, handle, achievement_group, spin_count, achievements_claimed,
			balance, created_at, last_refresh_at, is_active, is_suspended
		FROM accounts
		ORDER BY handle
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []*Account{}
	for rows.Next() {
		account := &Account{}
		err := rows.Scan(
			&account.ID, &account.Handle, &account.AchievementGroup,
			&account.SpinCount, &account.AchievementsClaimed, &account.Balance,
			&account.CreatedAt, &account.LastRefreshAt, &account.IsActive,
			&account.IsSuspended,
		)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// UpdateAccountCounters writes back the in-memory counters and status for
// one account. Called on the flush timer and at shutdown.
func (db *DB) UpdateAccountCounters(handle string, spins, claimed, balance int64, active bool, lastRefresh time.Time) error {
	return db.ExecTx(func(tx *sql.Tx) error {
		var refreshAt *time.Time
		if !lastRefresh.IsZero() {
			refreshAt = &lastRefresh
		}
		_, err := tx.Exec(`
			UPDATE accounts
			SET spin_count = ?,
				achievements_claimed = ?,
				balance = ?,
				is_active = ?,
				last_refresh_at = ?
			WHERE handle = ?
		`, spins, claimed, balance, active, refreshAt, handle)
		return err
	})
}

// MarkAccountSuspended flags a terminally deactivated account
func (db *DB) MarkAccountSuspended(handle string) error {
	return db.ExecTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			UPDATE accounts
			SET is_suspended = 1, is_active = 0
			WHERE handle = ?
		`, handle)
		return err
	})
}
