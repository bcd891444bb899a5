package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AnalyticsDays is the window reported by DailyAnalytics.
const AnalyticsDays = 30

// DailyStat aggregates one day of interaction documents.
type DailyStat struct {
	Date                 string  `json:"date"`
	Interactions         int     `json:"interactions"`
	AvgProcessingTime    float64 `json:"avg_processing_time"`
	SuccessfulOperations int     `json:"successful_operations"`
}

// DailyAnalytics groups the interaction documents of collection by day for the
// last AnalyticsDays days, newest day first. Documents carry "timestamp",
// "processing_time_ms" and "success" fields.
func (s *Store) DailyAnalytics(ctx context.Context, collection string) ([]DailyStat, error) {
	since := s.now().UTC().AddDate(0, 0, -AnalyticsDays).Format("2006-01-02")

	query := `
	SELECT
		substr(json_extract(data, '$.timestamp'), 1, 10) AS day,
		COUNT(*) AS interactions,
		AVG(json_extract(data, '$.processing_time_ms')) AS avg_processing_time,
		SUM(CASE WHEN json_extract(data, '$.success') THEN 1 ELSE 0 END) AS successful_operations
	FROM documents
	WHERE collection = ?
		AND json_extract(data, '$.timestamp') IS NOT NULL
		AND substr(json_extract(data, '$.timestamp'), 1, 10) >= ?
	GROUP BY day
	ORDER BY day DESC
	LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, collection, since, AnalyticsDays)
	if err != nil {
		return nil, fmt.Errorf("analytics query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	stats := []DailyStat{}
	for rows.Next() {
		var st DailyStat
		var avg sql.NullFloat64
		if err := rows.Scan(&st.Date, &st.Interactions, &avg, &st.SuccessfulOperations); err != nil {
			return nil, err
		}
		if avg.Valid {
			st.AvgProcessingTime = avg.Float64
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// SetClock overrides the time source; intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}
