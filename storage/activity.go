package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Activity is one terminal processing outcome with its metrics.
type Activity struct {
	ID           int64     `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	PromptCode   string    `json:"promptCode"`
	Outcome      string    `json:"outcome"`
	SourceChars  int       `json:"sourceChars"`
	ResultChars  int       `json:"resultChars"`
	LatencyMs    int64     `json:"latencyMs"`
	Success      bool      `json:"success"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

// SaveActivity saves a processing outcome to the database
func (db *DB) SaveActivity(a *Activity) error {
	result, err := db.conn.Exec(
		`INSERT INTO activity (prompt_code, outcome, source_chars, result_chars, latency_ms, success, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.PromptCode, a.Outcome, a.SourceChars, a.ResultChars, a.LatencyMs, a.Success, a.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to save activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	a.ID = id
	return nil
}

// GetActivity retrieves processing history with pagination
func (db *DB) GetActivity(limit, offset int) ([]Activity, error) {
	rows, err := db.conn.Query(
		`SELECT id, timestamp, prompt_code, outcome, source_chars, result_chars, latency_ms, success, error_message
		 FROM activity
		 ORDER BY timestamp DESC
		 LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	var items []Activity
	for rows.Next() {
		var a Activity
		var errorMessage sql.NullString
		err := rows.Scan(
			&a.ID, &a.Timestamp, &a.PromptCode, &a.Outcome,
			&a.SourceChars, &a.ResultChars, &a.LatencyMs, &a.Success, &errorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if errorMessage.Valid {
			a.ErrorMessage = errorMessage.String
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// GetActivityCount returns the total number of recorded outcomes
func (db *DB) GetActivityCount() (int, error) {
	var count int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM activity`).Scan(&count)
	return count, err
}

// DeleteActivity deletes a history entry by ID
func (db *DB) DeleteActivity(id int64) error {
	result, err := db.conn.Exec(`DELETE FROM activity WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("activity not found")
	}
	return nil
}
