package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/setforge/internal/engine"
	"github.com/claude/setforge/internal/persist"
	"github.com/claude/setforge/internal/storage"
	"github.com/google/uuid"
)

// ActiveHost keeps the in-memory workout for each session currently being
// performed. Each hosted workout gets a 1 Hz ticker goroutine that drives the
// rest countdown; the ticker never touches the exercise/set aggregate.
type ActiveHost struct {
	mu       sync.Mutex
	workouts map[uuid.UUID]*hostedWorkout
	db       *storage.DB
	sync     *persist.Sync
	log      *slog.Logger
}

type hostedWorkout struct {
	w      *engine.Workout
	cancel context.CancelFunc
}

// NewActiveHost creates an ActiveHost.
func NewActiveHost(db *storage.DB, sync *persist.Sync, log *slog.Logger) *ActiveHost {
	return &ActiveHost{
		workouts: make(map[uuid.UUID]*hostedWorkout),
		db:       db,
		sync:     sync,
		log:      log,
	}
}

// Start loads a session and hosts it as an active workout. Starting a session
// that is already active returns the running workout unchanged, so a client
// reconnect does not reset progress.
func (h *ActiveHost) Start(ctx context.Context, sessionID uuid.UUID, userID int) (*engine.Workout, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if hw, ok := h.workouts[sessionID]; ok {
		return hw.w, nil
	}

	sess, err := h.db.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if sess.Completed {
		return nil, fmt.Errorf("session %s is already completed", sessionID)
	}
	if len(sess.Exercises) == 0 {
		return nil, fmt.Errorf("session %s has no exercises", sessionID)
	}

	w := engine.New(sess, h.log)
	tickCtx, cancel := context.WithCancel(context.Background())
	h.workouts[sessionID] = &hostedWorkout{w: w, cancel: cancel}

	go h.tick(tickCtx, w)

	h.log.Info("workout started", "session", sessionID, "exercises", len(sess.Exercises))
	return w, nil
}

// Get returns the hosted workout for a session, if active.
func (h *ActiveHost) Get(sessionID uuid.UUID) (*engine.Workout, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	hw, ok := h.workouts[sessionID]
	if !ok {
		return nil, false
	}
	return hw.w, true
}

// Release drops a hosted workout and stops its ticker. Called after a
// successful save-and-exit or workout completion.
func (h *ActiveHost) Release(sessionID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if hw, ok := h.workouts[sessionID]; ok {
		hw.cancel()
		delete(h.workouts, sessionID)
	}
}

// Shutdown stops all tickers.
func (h *ActiveHost) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, hw := range h.workouts {
		hw.cancel()
		delete(h.workouts, id)
	}
}

func (h *ActiveHost) tick(ctx context.Context, w *engine.Workout) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if w.TickRest() {
				h.log.Debug("rest complete", "session", w.SessionID())
			}
		}
	}
}
