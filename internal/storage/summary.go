package storage

import (
	"context"
	"fmt"
	"time"
)

// VolumePeriod is one bucket of aggregated training volume.
type VolumePeriod struct {
	Period      time.Time `json:"period"`
	Sessions    int       `json:"sessions"`
	Sets        int       `json:"sets"`
	TotalVolume float64   `json:"totalVolume"`
}

// VolumeSummary aggregates completed training per week or month: session
// count, completed sets, and tonnage (Σ weight × reps).
func (db *DB) VolumeSummary(ctx context.Context, start, end time.Time, bucket string, userID int) ([]VolumePeriod, error) {
	// date_trunc argument cannot be parameterized; accept known values only.
	switch bucket {
	case "week", "month":
	default:
		bucket = "month"
	}

	rows, err := db.Pool.Query(ctx,
		fmt.Sprintf(`SELECT date_trunc('%s', s.updated_at) AS period,
		 COUNT(DISTINCT s.id) AS sessions,
		 COUNT(*) AS sets,
		 COALESCE(SUM(ss.weight * ss.actual_reps), 0) AS volume
		 FROM sessions s
		 JOIN session_exercises se ON se.session_id = s.id
		 JOIN session_sets ss ON ss.entry_id = se.entry_id
		 WHERE s.user_id = $1 AND s.completed AND ss.completed
		   AND s.updated_at >= $2 AND s.updated_at < $3
		 GROUP BY period
		 ORDER BY period ASC`, bucket),
		userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying volume summary: %w", err)
	}
	defer rows.Close()

	var result []VolumePeriod
	for rows.Next() {
		var p VolumePeriod
		if err := rows.Scan(&p.Period, &p.Sessions, &p.Sets, &p.TotalVolume); err != nil {
			return nil, fmt.Errorf("scanning volume period: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
