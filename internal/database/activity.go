package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Activity logging operations

// RecordActivity inserts a completed action record and returns its
// correlation ID
func (db *DB) RecordActivity(accountHandle, activityType, status, message string) (string, error) {
	activityID := uuid.NewString()
	err := db.ExecTx(func(tx *sql.Tx) error {
		var msg *string
		if message != "" {
			msg = &message
		}
		_, err := tx.Exec(`
			INSERT INTO activity_log (
				activity_id, account_handle, activity_type, status, message, occurred_at
			) VALUES (?, ?, ?, ?, ?, ?)
		`, activityID, accountHandle, activityType, status, msg, time.Now())
		return err
	})
	if err != nil {
		return "", err
	}
	return activityID, nil
}

// GetRecentActivityForAccount returns recent activity rows for an account,
// newest first
func (db *DB) GetRecentActivityForAccount(handle string, limit int) ([]*ActivityLog, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.conn.Query(`
		SELECT id, activity_id, account_handle, activity_type, status, message, occurred_at
		FROM activity_log
		WHERE account_handle = ?
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?
	`, handle, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

// GetRecentActivity returns the most recent activity rows across all
// accounts, newest first
func (db *DB) GetRecentActivity(limit int) ([]*ActivityLog, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.conn.Query(`
		SELECT id, activity_id, account_handle, activity_type, status, message, occurred_at
		FROM activity_log
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanActivities(rows)
}

func scanActivities(rows *sql.Rows) ([]*ActivityLog, error) {
	activities := []*ActivityLog{}
	for rows.Next() {
		activity := &ActivityLog{}
		err := rows.Scan(
			&activity.ID, &activity.ActivityID, &activity.AccountHandle,
			&activity.ActivityType, &activity.Status, &activity.Message,
			&activity.OccurredAt,
		)
		if err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}

// DeleteOldActivities deletes activity rows older than the given time
func (db *DB) DeleteOldActivities(olderThan time.Time) (int64, error) {
	var deleted int64
	err := db.ExecTx(func(tx *sql.Tx) error {
		result, err := tx.Exec(`
			DELETE FROM activity_log
			WHERE occurred_at < ?
		`, olderThan)
		if err != nil {
			return err
		}
		deleted, err = result.RowsAffected()
		return err
	})
	return deleted, err
}
