package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/claude/setforge/internal/engine"
	"github.com/claude/setforge/internal/models"
	"github.com/google/uuid"
)

// fakeSaver records SaveProgress calls and returns a scripted error.
type fakeSaver struct {
	mu    sync.Mutex
	calls []models.ProgressSave
	err   error
	done  chan struct{}
}

func newFakeSaver() *fakeSaver {
	return &fakeSaver{done: make(chan struct{}, 8)}
}

func (f *fakeSaver) SaveProgress(ctx context.Context, sessionID uuid.UUID, userID int, p models.ProgressSave) error {
	f.mu.Lock()
	f.calls = append(f.calls, p)
	err := f.err
	f.mu.Unlock()
	f.done <- struct{}{}
	return err
}

func (f *fakeSaver) wait(t *testing.T) models.ProgressSave {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("save never fired")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func testWorkout(t *testing.T) *engine.Workout {
	t.Helper()
	sess := &models.Session{
		ID:     uuid.New(),
		UserID: 1,
		Exercises: []models.SessionExercise{
			{EntryID: uuid.New(), ExerciseID: uuid.New(), Name: "Bench Press", Sets: 2, RepRange: "8-12", RestSec: 0},
		},
	}
	return engine.New(sess, nil)
}

func completeCurrent(t *testing.T, w *engine.Workout) {
	t.Helper()
	st := w.State()
	exID := st.Exercises[st.CurrentExercise].ExerciseID
	if err := w.UpdateSet(exID, st.CurrentSet, engine.FieldWeight, 100); err != nil {
		t.Fatal(err)
	}
	if err := w.UpdateSet(exID, st.CurrentSet, engine.FieldActualReps, 8); err != nil {
		t.Fatal(err)
	}
	if _, err := w.CompleteSet(); err != nil {
		t.Fatal(err)
	}
}

// TestAutosaveMarksPayload verifies the silent path flags its payload as an
// autosave and never marks the workout completed.
func TestAutosaveMarksPayload(t *testing.T) {
	saver := newFakeSaver()
	s := New(saver, nil, nil)
	w := testWorkout(t)
	completeCurrent(t, w)

	s.Autosave(w)
	p := saver.wait(t)
	if !p.AutoSave {
		t.Error("autosave payload not flagged autoSave")
	}
	if p.IsCompleted {
		t.Error("autosave payload marked completed")
	}
	if len(p.Exercises) != 1 {
		t.Errorf("exercises = %d, want 1", len(p.Exercises))
	}
}

// TestAutosaveSwallowsErrors verifies a failed silent save is never surfaced;
// it is journaled instead so nothing is lost.
func TestAutosaveSwallowsErrors(t *testing.T) {
	saver := newFakeSaver()
	saver.err = errors.New("connection refused")

	journal, err := OpenJournal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer journal.Close()

	s := New(saver, journal, nil)
	w := testWorkout(t)
	completeCurrent(t, w)

	s.Autosave(w) // must not panic or block
	saver.wait(t)

	// The journal write happens after the save returns; poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	for !journalHas(t, journal, w.SessionID()) {
		if time.Now().After(deadline) {
			t.Fatal("failed autosave was not journaled")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func journalHas(t *testing.T, j *Journal, id uuid.UUID) bool {
	t.Helper()
	pending, err := j.All()
	if err != nil {
		t.Fatal(err)
	}
	for _, ps := range pending {
		if ps.SessionID == id {
			return true
		}
	}
	return false
}

// TestAutosaveClearsJournal verifies a successful save clears any earlier
// journaled payload for the session.
func TestAutosaveClearsJournal(t *testing.T) {
	saver := newFakeSaver()
	journal, err := OpenJournal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer journal.Close()

	w := testWorkout(t)
	if err := journal.Record(w.SessionID(), 1, []byte(`{}`)); err != nil {
		t.Fatal(err)
	}

	s := New(saver, journal, nil)
	s.Autosave(w)
	saver.wait(t)

	deadline := time.Now().Add(2 * time.Second)
	for journalHas(t, journal, w.SessionID()) {
		if time.Now().After(deadline) {
			t.Fatal("journal entry not cleared after successful save")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// TestFlushPendingReplays verifies parked payloads are replayed at startup
// and cleared once the save goes through.
func TestFlushPendingReplays(t *testing.T) {
	journal, err := OpenJournal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer journal.Close()

	id := uuid.New()
	if err := journal.Record(id, 1, []byte(`{"duration": 42, "isCompleted": false}`)); err != nil {
		t.Fatal(err)
	}

	saver := newFakeSaver()
	s := New(saver, journal, nil)
	if err := s.FlushPending(context.Background()); err != nil {
		t.Fatalf("FlushPending: %v", err)
	}

	if len(saver.calls) != 1 {
		t.Fatalf("saves = %d, want 1", len(saver.calls))
	}
	if saver.calls[0].Duration != 42 {
		t.Errorf("replayed duration = %d, want 42", saver.calls[0].Duration)
	}
	if journalHas(t, journal, id) {
		t.Error("entry still parked after successful replay")
	}
}

// TestFlushPendingKeepsFailures verifies a payload whose replay still fails
// stays parked for the next flush.
func TestFlushPendingKeepsFailures(t *testing.T) {
	journal, err := OpenJournal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer journal.Close()

	id := uuid.New()
	if err := journal.Record(id, 1, []byte(`{"duration": 7}`)); err != nil {
		t.Fatal(err)
	}

	saver := newFakeSaver()
	saver.err = errors.New("still down")
	s := New(saver, journal, nil)
	if err := s.FlushPending(context.Background()); err != nil {
		t.Fatalf("FlushPending: %v", err)
	}

	if !journalHas(t, journal, id) {
		t.Error("entry dropped even though the replay failed")
	}
}

// TestFlushPendingDropsCorrupt verifies an unreadable payload is discarded
// instead of wedging the flush forever.
func TestFlushPendingDropsCorrupt(t *testing.T) {
	journal, err := OpenJournal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer journal.Close()

	id := uuid.New()
	if err := journal.Record(id, 1, []byte(`{{not json`)); err != nil {
		t.Fatal(err)
	}

	saver := newFakeSaver()
	s := New(saver, journal, nil)
	if err := s.FlushPending(context.Background()); err != nil {
		t.Fatalf("FlushPending: %v", err)
	}

	if len(saver.calls) != 0 {
		t.Errorf("saves = %d, want 0 for a corrupt payload", len(saver.calls))
	}
	if journalHas(t, journal, id) {
		t.Error("corrupt entry still parked")
	}
}

// TestSaveAndExitSurfacesErrors verifies the explicit path returns the save
// error so the caller can retry, unlike autosave.
func TestSaveAndExitSurfacesErrors(t *testing.T) {
	saver := newFakeSaver()
	saver.err = errors.New("server unreachable")
	s := New(saver, nil, nil)
	w := testWorkout(t)

	if err := s.SaveAndExit(context.Background(), w); err == nil {
		t.Fatal("SaveAndExit returned nil, want the save error")
	}

	saver.err = nil
	if err := s.SaveAndExit(context.Background(), w); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	// SaveAndExit is synchronous, so the calls slice is settled here.
	p := saver.calls[len(saver.calls)-1]
	if p.IsCompleted || p.AutoSave {
		t.Errorf("save-and-exit payload = completed %v autosave %v, want neither", p.IsCompleted, p.AutoSave)
	}
}

// TestCompleteRequiresAllSets verifies completion is refused, with the
// remaining count and no save attempted, while sets are open.
func TestCompleteRequiresAllSets(t *testing.T) {
	saver := newFakeSaver()
	s := New(saver, nil, nil)
	w := testWorkout(t) // 2 sets, none done

	err := s.Complete(context.Background(), w)
	var wie *engine.WorkoutIncompleteError
	if !errors.As(err, &wie) {
		t.Fatalf("err = %v, want WorkoutIncompleteError", err)
	}
	if wie.Remaining != 2 {
		t.Errorf("remaining = %d, want 2", wie.Remaining)
	}
	if !errors.Is(err, engine.ErrWorkoutIncomplete) {
		t.Error("error does not match ErrWorkoutIncomplete")
	}
	if len(saver.calls) != 0 {
		t.Errorf("save attempted on incomplete workout: %d calls", len(saver.calls))
	}
}

// TestCompleteMarksFinished verifies a fully done workout saves with the
// completed flag set.
func TestCompleteMarksFinished(t *testing.T) {
	saver := newFakeSaver()
	s := New(saver, nil, nil)
	w := testWorkout(t)
	completeCurrent(t, w)
	completeCurrent(t, w)

	if err := s.Complete(context.Background(), w); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	p := saver.wait(t)
	if !p.IsCompleted {
		t.Error("completed payload not flagged isCompleted")
	}
	if p.AutoSave {
		t.Error("completed payload flagged autoSave")
	}
	if p.TotalVolume != 1600 {
		t.Errorf("volume = %v, want 1600", p.TotalVolume)
	}
}
