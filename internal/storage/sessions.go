package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/setforge/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SessionSummary is a session row without its exercises, for listings.
type SessionSummary struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	DurationMin int        `json:"duration"`
	TotalVolume float64    `json:"totalVolume"`
	Completed   bool       `json:"completed"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ListSessions returns the user's sessions, most recently updated first.
func (db *DB) ListSessions(ctx context.Context, userID, limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx,
		`SELECT id, name, started_at, duration_min, total_volume, completed, updated_at
		 FROM sessions
		 WHERE user_id = $1
		 ORDER BY updated_at DESC
		 LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []SessionSummary
	for rows.Next() {
		var s SessionSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.StartedAt, &s.DurationMin, &s.TotalVolume, &s.Completed, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// GetSession loads a session with its exercises and any saved set data,
// ordered by exercise position and set number. Method and config come back
// raw; normalization belongs to the method package.
func (db *DB) GetSession(ctx context.Context, sessionID uuid.UUID, userID int) (*models.Session, error) {
	sess := &models.Session{ID: sessionID, UserID: userID}
	err := db.Pool.QueryRow(ctx,
		`SELECT name, started_at, duration_min, total_volume, completed
		 FROM sessions
		 WHERE id = $1 AND user_id = $2`,
		sessionID, userID).
		Scan(&sess.Name, &sess.StartedAt, &sess.DurationMin, &sess.TotalVolume, &sess.Completed)
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	exRows, err := db.Pool.Query(ctx,
		`SELECT entry_id, exercise_id, name, position, prescribed_sets, rep_range, rest_sec,
		 COALESCE(special_method, ''), special_config
		 FROM session_exercises
		 WHERE session_id = $1
		 ORDER BY position ASC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session exercises: %w", err)
	}
	defer exRows.Close()

	byEntry := map[uuid.UUID]int{}
	for exRows.Next() {
		var ex models.SessionExercise
		if err := exRows.Scan(&ex.EntryID, &ex.ExerciseID, &ex.Name, &ex.Position,
			&ex.Sets, &ex.RepRange, &ex.RestSec, &ex.SpecialMethod, &ex.SpecialConfig); err != nil {
			return nil, fmt.Errorf("scanning session exercise: %w", err)
		}
		byEntry[ex.EntryID] = len(sess.Exercises)
		sess.Exercises = append(sess.Exercises, ex)
	}
	if err := exRows.Err(); err != nil {
		return nil, err
	}

	setRows, err := db.Pool.Query(ctx,
		`SELECT ss.entry_id, ss.set_number, ss.target_reps, ss.actual_reps, ss.weight, ss.rpe, ss.completed
		 FROM session_sets ss
		 JOIN session_exercises se ON se.entry_id = ss.entry_id
		 WHERE se.session_id = $1
		 ORDER BY ss.entry_id, ss.set_number ASC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying session sets: %w", err)
	}
	defer setRows.Close()

	for setRows.Next() {
		var entryID uuid.UUID
		var s models.SetEntry
		if err := setRows.Scan(&entryID, &s.Number, &s.TargetReps, &s.ActualReps, &s.Weight, &s.RPE, &s.Completed); err != nil {
			return nil, fmt.Errorf("scanning session set: %w", err)
		}
		if i, ok := byEntry[entryID]; ok {
			sess.Exercises[i].SetsData = append(sess.Exercises[i].SetsData, s)
		}
	}
	return sess, setRows.Err()
}

// CreateSession inserts a prescribed session and its exercises. Entry IDs are
// assigned here when absent.
func (db *DB) CreateSession(ctx context.Context, sess *models.Session) error {
	if sess.ID == uuid.Nil {
		sess.ID = uuid.New()
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO sessions (id, user_id, name, started_at, duration_min, total_volume, completed)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		sess.ID, sess.UserID, sess.Name, sess.StartedAt, sess.DurationMin, sess.TotalVolume, sess.Completed)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}

	if len(sess.Exercises) > 0 {
		query := `INSERT INTO session_exercises
			(entry_id, session_id, exercise_id, name, position, prescribed_sets, rep_range, rest_sec, special_method, special_config) VALUES `
		args := make([]any, 0, len(sess.Exercises)*10)
		valueStrings := make([]string, 0, len(sess.Exercises))

		for i := range sess.Exercises {
			ex := &sess.Exercises[i]
			if ex.EntryID == uuid.Nil {
				ex.EntryID = uuid.New()
			}
			if ex.Position == 0 {
				ex.Position = i
			}
			base := i * 10
			valueStrings = append(valueStrings, fmt.Sprintf(
				"($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10,
			))
			var cfg any
			if len(ex.SpecialConfig) > 0 {
				cfg = []byte(ex.SpecialConfig)
			}
			args = append(args, ex.EntryID, sess.ID, ex.ExerciseID, ex.Name, ex.Position,
				ex.Sets, ex.RepRange, ex.RestSec, nullIfEmpty(ex.SpecialMethod), cfg)
		}

		query += strings.Join(valueStrings, ",")
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting session exercises: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// SaveProgress implements the progress save contract: replace each saved
// exercise's set rows and update the session totals, in one transaction.
// Satisfies persist.Saver for server-side direct saves.
func (db *DB) SaveProgress(ctx context.Context, sessionID uuid.UUID, userID int, p models.ProgressSave) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE sessions
		 SET duration_min = $1, total_volume = $2, completed = $3, updated_at = now()
		 WHERE id = $4 AND user_id = $5`,
		p.Duration, p.TotalVolume, p.IsCompleted, sessionID, userID)
	if err != nil {
		return fmt.Errorf("updating session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %s not found for user %d", sessionID, userID)
	}

	for _, ex := range p.Exercises {
		var entryID uuid.UUID
		err := tx.QueryRow(ctx,
			`SELECT entry_id FROM session_exercises
			 WHERE session_id = $1 AND exercise_id = $2
			 ORDER BY position ASC LIMIT 1`,
			sessionID, ex.ExerciseID).Scan(&entryID)
		if err == pgx.ErrNoRows {
			// Exercise no longer in the session (removed mid-workout);
			// its saved sets have nowhere to go.
			continue
		}
		if err != nil {
			return fmt.Errorf("resolving entry for exercise %s: %w", ex.ExerciseID, err)
		}

		var cfg any
		if len(ex.SpecialConfig) > 0 {
			cfg = []byte(ex.SpecialConfig)
		}
		_, err = tx.Exec(ctx,
			`UPDATE session_exercises SET special_method = $1, special_config = $2 WHERE entry_id = $3`,
			nullIfEmpty(ex.SpecialMethod), cfg, entryID)
		if err != nil {
			return fmt.Errorf("updating exercise method: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM session_sets WHERE entry_id = $1`, entryID); err != nil {
			return fmt.Errorf("clearing sets: %w", err)
		}
		if len(ex.Sets) == 0 {
			continue
		}

		query := `INSERT INTO session_sets (entry_id, set_number, target_reps, actual_reps, weight, rpe, completed) VALUES `
		args := make([]any, 0, len(ex.Sets)*7)
		valueStrings := make([]string, 0, len(ex.Sets))
		for i, s := range ex.Sets {
			base := i * 7
			valueStrings = append(valueStrings, fmt.Sprintf(
				"($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7,
			))
			args = append(args, entryID, s.Number, s.TargetReps, s.ActualReps, s.Weight, s.RPE, s.Completed)
		}
		query += strings.Join(valueStrings, ",")
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("inserting sets: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
