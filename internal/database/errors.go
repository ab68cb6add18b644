package database

import (
	"database/sql"
	"time"
)

// LogError inserts an error record. accountHandle may be empty for
// process-level errors.
func (db *DB) LogError(accountHandle, errorType, errorMessage string) (int64, error) {
	var errorID int64
	err := db.ExecTx(func(tx *sql.Tx) error {
		var handle *string
		if accountHandle != "" {
			handle = &accountHandle
		}
		result, err := tx.Exec(`
			INSERT INTO error_log (account_handle, error_type, error_message, occurred_at)
			VALUES (?, ?, ?, ?)
		`, handle, errorType, errorMessage, time.Now())
		if err != nil {
			return err
		}
		errorID, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return 0, err
	}
	return errorID, nil
}

// GetRecentErrors returns recent error rows, newest first
func (db *DB) GetRecentErrors(limit int) ([]*ErrorLog, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.conn.Query(`
		SELECT id, account_handle, error_type, error_message, occurred_at
		FROM error_log
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	errorLogs := []*ErrorLog{}
	for rows.Next() {
		errorLog := &ErrorLog{}
		err := rows.Scan(
			&errorLog.ID, &errorLog.AccountHandle, &errorLog.ErrorType,
			&errorLog.ErrorMessage, &errorLog.OccurredAt,
		)
		if err != nil {
			return nil, err
		}
		errorLogs = append(errorLogs, errorLog)
	}

	return errorLogs, rows.Err()
}
