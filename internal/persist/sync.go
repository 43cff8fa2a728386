// Package persist synchronizes in-progress workout state to storage. It keeps
// the two save paths structurally separate: silent best-effort autosave on set
// completion, and explicit user-initiated save/complete whose failures are
// surfaced for retry. Autosave must never block or interrupt progression.
package persist

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/claude/setforge/internal/engine"
	"github.com/claude/setforge/internal/models"
	"github.com/google/uuid"
)

// Saver is the external save contract (PUT semantics). Implemented by
// *storage.DB for server-side direct saves and by HTTPSaver for clients
// talking to a remote SetForge server.
type Saver interface {
	SaveProgress(ctx context.Context, sessionID uuid.UUID, userID int, p models.ProgressSave) error
}

const autosaveTimeout = 15 * time.Second

// Sync wraps a Saver with the two save modes. The journal is optional; when
// present, failed autosaves are parked locally and replayed by FlushPending
// at the next startup (successful saves clear them earlier).
type Sync struct {
	saver   Saver
	journal *Journal
	log     *slog.Logger
}

// New creates a Sync. journal may be nil.
func New(saver Saver, journal *Journal, log *slog.Logger) *Sync {
	if log == nil {
		log = slog.Default()
	}
	return &Sync{saver: saver, journal: journal, log: log}
}

// Autosave fires a silent save of the current state. It returns immediately;
// the save runs in the background and failures are logged and journaled, never
// surfaced. Call it after each set completion.
func (s *Sync) Autosave(w *engine.Workout) {
	p := w.BuildSave(false)
	p.AutoSave = true
	sessionID, userID := w.SessionID(), w.UserID()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), autosaveTimeout)
		defer cancel()

		if err := s.saver.SaveProgress(ctx, sessionID, userID, p); err != nil {
			s.log.Warn("autosave failed", "session", sessionID, "error", err)
			s.record(sessionID, userID, p)
			return
		}
		s.clear(sessionID)
	}()
}

// SaveAndExit persists the current state without completing the workout.
// On failure the error is returned and in-memory state is untouched, so the
// user can retry with nothing lost.
func (s *Sync) SaveAndExit(ctx context.Context, w *engine.Workout) error {
	p := w.BuildSave(false)
	if err := s.saver.SaveProgress(ctx, w.SessionID(), w.UserID(), p); err != nil {
		return err
	}
	s.clear(w.SessionID())
	return nil
}

// Complete persists the workout as finished. Every set must be completed
// first; otherwise WorkoutIncompleteError reports the remaining count and no
// save is attempted.
func (s *Sync) Complete(ctx context.Context, w *engine.Workout) error {
	if n := w.RemainingSets(); n > 0 {
		return &engine.WorkoutIncompleteError{Remaining: n}
	}
	p := w.BuildSave(true)
	if err := s.saver.SaveProgress(ctx, w.SessionID(), w.UserID(), p); err != nil {
		return err
	}
	s.clear(w.SessionID())
	return nil
}

// FlushPending replays autosave payloads parked by earlier failed saves and
// clears each one that now goes through. Payloads that still fail stay parked
// for the next flush. Call at startup, once storage is reachable.
func (s *Sync) FlushPending(ctx context.Context) error {
	if s.journal == nil {
		return nil
	}
	pending, err := s.journal.All()
	if err != nil {
		return err
	}
	for _, ps := range pending {
		var p models.ProgressSave
		if err := json.Unmarshal(ps.Payload, &p); err != nil {
			s.log.Warn("dropping unreadable journal entry", "session", ps.SessionID, "error", err)
			s.clear(ps.SessionID)
			continue
		}
		if err := s.saver.SaveProgress(ctx, ps.SessionID, ps.UserID, p); err != nil {
			s.log.Warn("journaled autosave still failing", "session", ps.SessionID, "error", err)
			continue
		}
		s.clear(ps.SessionID)
		s.log.Info("journaled autosave flushed", "session", ps.SessionID)
	}
	return nil
}

func (s *Sync) record(sessionID uuid.UUID, userID int, p models.ProgressSave) {
	if s.journal == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.journal.Record(sessionID, userID, data); err != nil {
		s.log.Warn("autosave journal write failed", "session", sessionID, "error", err)
	}
}

func (s *Sync) clear(sessionID uuid.UUID) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Clear(sessionID); err != nil {
		s.log.Warn("autosave journal clear failed", "session", sessionID, "error", err)
	}
}
