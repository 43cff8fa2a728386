package storage

import (
	"context"
	"fmt"

	"github.com/claude/setforge/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// LatestSetHistory returns the most recent completed values for one set slot
// of an exercise, drawn from the user's completed sessions. Used to pre-fill
// a fresh set with last time's weight/reps/RPE. Returns nil when the user has
// no history for that slot.
func (db *DB) LatestSetHistory(ctx context.Context, exerciseID uuid.UUID, setNumber, userID int) (*models.SetHistory, error) {
	var h models.SetHistory
	err := db.Pool.QueryRow(ctx,
		`SELECT se.exercise_id, ss.set_number, ss.weight, ss.actual_reps, ss.rpe, s.updated_at
		 FROM session_sets ss
		 JOIN session_exercises se ON se.entry_id = ss.entry_id
		 JOIN sessions s ON s.id = se.session_id
		 WHERE se.exercise_id = $1 AND ss.set_number = $2 AND s.user_id = $3
		   AND s.completed AND ss.completed
		 ORDER BY s.updated_at DESC
		 LIMIT 1`,
		exerciseID, setNumber, userID).
		Scan(&h.ExerciseID, &h.SetNumber, &h.Weight, &h.Reps, &h.RPE, &h.PerformedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying set history: %w", err)
	}
	return &h, nil
}
