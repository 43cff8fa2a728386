package persist

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Journal keeps the latest unsynced autosave payload per session in a local
// SQLite database, so a silently failed autosave survives a process restart.
// Parked payloads are replayed by Sync.FlushPending at startup.
type Journal struct {
	db *sql.DB
}

// PendingSave is one parked autosave payload awaiting replay.
type PendingSave struct {
	SessionID uuid.UUID
	UserID    int
	Payload   json.RawMessage
}

// OpenJournal opens (or creates) the journal database at dir/autosave.db.
func OpenJournal(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating journal dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "autosave.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening journal db: %w", err)
	}
	// Serialize access: concurrent journal operations on separate pooled
	// connections fail immediately with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS pending_saves (
		session_id  TEXT PRIMARY KEY,
		user_id     INTEGER NOT NULL DEFAULT 1,
		payload     BLOB NOT NULL,
		updated_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal table: %w", err)
	}

	return &Journal{db: db}, nil
}

// Record stores the payload for a session, replacing any earlier one. Only
// the most recent autosave matters — each payload carries the full state.
func (j *Journal) Record(sessionID uuid.UUID, userID int, payload []byte) error {
	_, err := j.db.Exec(
		`INSERT OR REPLACE INTO pending_saves (session_id, user_id, payload, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)`,
		sessionID.String(), userID, payload,
	)
	return err
}

// All returns every parked payload, oldest first.
func (j *Journal) All() ([]PendingSave, error) {
	rows, err := j.db.Query(
		`SELECT session_id, user_id, payload FROM pending_saves ORDER BY updated_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PendingSave
	for rows.Next() {
		var idStr string
		var ps PendingSave
		if err := rows.Scan(&idStr, &ps.UserID, (*[]byte)(&ps.Payload)); err != nil {
			return nil, err
		}
		ps.SessionID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt journal session id %q: %w", idStr, err)
		}
		result = append(result, ps)
	}
	return result, rows.Err()
}

// Clear removes a session's journaled payload after a successful save.
func (j *Journal) Clear(sessionID uuid.UUID) error {
	_, err := j.db.Exec(`DELETE FROM pending_saves WHERE session_id = ?`, sessionID.String())
	return err
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
