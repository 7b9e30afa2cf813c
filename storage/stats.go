package storage

import "fmt"

// CodeStats represents statistics grouped by prompt code
type CodeStats struct {
	PromptCode   string  `json:"promptCode"`
	Total        int     `json:"total"`
	SuccessCount int     `json:"successCount"`
	FailureCount int     `json:"failureCount"`
	AvgLatencyMs float64 `json:"avgLatencyMs"`
}

// OverallStats represents overall statistics
type OverallStats struct {
	Total            int     `json:"total"`
	SuccessCount     int     `json:"successCount"`
	FailureCount     int     `json:"failureCount"`
	TotalSourceChars int64   `json:"totalSourceChars"`
	TotalResultChars int64   `json:"totalResultChars"`
	AvgLatencyMs     float64 `json:"avgLatencyMs"`
}

// GetOverallStats retrieves overall statistics for the last N days
func (db *DB) GetOverallStats(days int) (*OverallStats, error) {
	query := `
		SELECT
			COUNT(*) as total,
			SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END) as success_count,
			SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END) as failure_count,
			COALESCE(SUM(source_chars), 0) as total_source_chars,
			COALESCE(SUM(result_chars), 0) as total_result_chars,
			COALESCE(AVG(latency_ms), 0) as avg_latency_ms
		FROM activity
		WHERE timestamp >= datetime('now', '-' || ? || ' days')
	`

	var stats OverallStats
	var success, failure *int
	err := db.conn.QueryRow(query, days).Scan(
		&stats.Total,
		&success,
		&failure,
		&stats.TotalSourceChars,
		&stats.TotalResultChars,
		&stats.AvgLatencyMs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query overall stats: %w", err)
	}
	if success != nil {
		stats.SuccessCount = *success
	}
	if failure != nil {
		stats.FailureCount = *failure
	}
	return &stats, nil
}

// GetCodeStats retrieves statistics grouped by prompt code for the last N days
func (db *DB) GetCodeStats(days int) ([]CodeStats, error) {
	query := `
		SELECT
			prompt_code,
			COUNT(*) as total,
			SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END) as success_count,
			SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END) as failure_count,
			AVG(latency_ms) as avg_latency_ms
		FROM activity
		WHERE timestamp >= datetime('now', '-' || ? || ' days')
		GROUP BY prompt_code
		ORDER BY total DESC
	`

	rows, err := db.conn.Query(query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query code stats: %w", err)
	}
	defer rows.Close()

	var stats []CodeStats
	for rows.Next() {
		var s CodeStats
		if err := rows.Scan(&s.PromptCode, &s.Total, &s.SuccessCount, &s.FailureCount, &s.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("failed to scan code stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
