package engine

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/claude/setforge/internal/models"
)

// TestCompleteSetAdvances verifies the basic flow: next set within the
// exercise, then next exercise, then workout done — with rest started on each
// normal advance.
func TestCompleteSetAdvances(t *testing.T) {
	w := New(testSession(), nil)

	adv := complete(t, w, 100, 8)
	if adv.Kind != AdvanceNextSet || adv.Exercise != 0 || adv.Set != 1 {
		t.Fatalf("first advance = %+v, want next_set 0/1", adv)
	}
	if adv.RestSec != 120 {
		t.Errorf("rest = %d, want prescribed 120", adv.RestSec)
	}
	if got := w.Phase(); got != PhaseResting {
		t.Errorf("phase = %v, want resting", got)
	}

	complete(t, w, 100, 8)
	adv = complete(t, w, 100, 8) // last bench set
	if adv.Kind != AdvanceNextExercise || adv.Exercise != 1 || adv.Set != 0 {
		t.Fatalf("exercise boundary advance = %+v, want next_exercise 1/0", adv)
	}
	if adv.RestSec != 120 {
		t.Errorf("boundary rest = %d, want the finished exercise's 120", adv.RestSec)
	}
	if got := w.Phase(); got != PhaseExerciseComplete {
		t.Errorf("phase = %v, want exercise_complete", got)
	}

	complete(t, w, 60, 10)
	complete(t, w, 60, 10)
	complete(t, w, 140, 5)
	adv = complete(t, w, 140, 5)
	if adv.Kind != AdvanceWorkoutDone {
		t.Fatalf("final advance = %+v, want workout_done", adv)
	}
	if got := w.Phase(); got != PhaseWorkoutComplete {
		t.Errorf("phase = %v, want workout_complete", got)
	}
	if w.Timer().State().IsActive {
		t.Error("timer still active after workout completion")
	}
}

// TestCompleteSetValidation verifies that a set without weight or reps is
// rejected with no state change.
func TestCompleteSetValidation(t *testing.T) {
	w := New(testSession(), nil)

	before := w.Progress()
	adv, err := w.CompleteSet()
	if adv.Kind != AdvanceNone {
		t.Errorf("advance = %+v, want none", adv)
	}
	var ise *IncompleteSetError
	if !errors.As(err, &ise) {
		t.Fatalf("err = %v, want IncompleteSetError", err)
	}
	if !ise.MissingWeight || !ise.MissingReps {
		t.Errorf("error = %+v, want both fields missing", ise)
	}
	if !errors.Is(err, ErrIncompleteSet) {
		t.Error("IncompleteSetError does not match ErrIncompleteSet")
	}

	after := w.Progress()
	if before.Percentage != after.Percentage || after.CompletedSets != 0 {
		t.Errorf("progress changed on rejected completion: %+v", after)
	}
	if got := w.Phase(); got != PhaseSetActive {
		t.Errorf("phase = %v, want set_active", got)
	}

	// Weight only — reps still missing.
	if err := w.UpdateSet(benchID, 0, FieldWeight, 100); err != nil {
		t.Fatal(err)
	}
	_, err = w.CompleteSet()
	if !errors.As(err, &ise) || ise.MissingWeight || !ise.MissingReps {
		t.Errorf("weight-only completion: err = %v, want reps missing only", err)
	}
}

// TestCompleteSetAfterWorkoutDone verifies that completion requests arriving
// after the workout finished are dropped as no-ops.
func TestCompleteSetAfterWorkoutDone(t *testing.T) {
	sess := testSession()
	sess.Exercises = sess.Exercises[:1]
	sess.Exercises[0].Sets = 1
	w := New(sess, nil)

	if adv := complete(t, w, 100, 8); adv.Kind != AdvanceWorkoutDone {
		t.Fatalf("advance = %+v, want workout_done", adv)
	}
	adv, err := w.CompleteSet()
	if err != nil || adv.Kind != AdvanceNone {
		t.Errorf("duplicate completion = %+v, %v; want none, nil", adv, err)
	}
}

// TestCompleteSetEmptySession verifies a session with no exercises is a
// harmless no-op rather than a crash.
func TestCompleteSetEmptySession(t *testing.T) {
	sess := testSession()
	sess.Exercises = nil
	w := New(sess, nil)

	adv, err := w.CompleteSet()
	if err != nil {
		t.Fatalf("CompleteSet: %v", err)
	}
	if adv.Kind != AdvanceNone {
		t.Errorf("advance = %+v, want none", adv)
	}
	if p := w.Progress(); p.TotalSets != 0 || p.CompletedSets != 0 {
		t.Errorf("progress = %+v, want 0/0", p)
	}
}

// TestCompleteSetSkipsCompleted verifies progression lands on the lowest
// following uncompleted set when sets were done out of order.
func TestCompleteSetSkipsCompleted(t *testing.T) {
	w := New(testSession(), nil)

	// Do set 2 first.
	if err := w.Select(benchID, 1); err != nil {
		t.Fatal(err)
	}
	if adv := complete(t, w, 100, 8); adv.Kind != AdvanceNextSet || adv.Set != 2 {
		t.Fatalf("advance = %+v, want next_set to index 2", adv)
	}

	// Back to set 1; completing it must skip the already-done set 2.
	if err := w.Select(benchID, 0); err != nil {
		t.Fatal(err)
	}
	if adv := complete(t, w, 100, 8); adv.Kind != AdvanceNextSet || adv.Set != 2 {
		t.Fatalf("advance = %+v, want skip to index 2", adv)
	}
}

// supersetSession pairs bench with row at positions 0 and 1.
func supersetSession() *models.Session {
	sess := testSession()
	sess.Exercises[0].SpecialMethod = "superset"
	sess.Exercises[0].SpecialConfig = json.RawMessage(`{"pairedExerciseId": "` + rowID.String() + `"}`)
	return sess
}

// TestSupersetSwitch verifies the lock-step switch: completing a superset set
// jumps to the paired exercise at the same set index with no rest.
func TestSupersetSwitch(t *testing.T) {
	w := New(supersetSession(), nil)

	adv := complete(t, w, 100, 8)
	if adv.Kind != AdvanceSwitchedPair {
		t.Fatalf("advance = %+v, want switched_pair", adv)
	}
	if adv.Exercise != 1 || adv.Set != 0 {
		t.Errorf("switched to %d/%d, want 1/0 (same set index)", adv.Exercise, adv.Set)
	}
	if adv.RestSec != 0 {
		t.Errorf("rest = %d, want 0 on a superset switch", adv.RestSec)
	}
	if got := w.Phase(); got != PhaseSetActive {
		t.Errorf("phase = %v, want set_active", got)
	}
	if w.Timer().State().IsActive {
		t.Error("timer running after a superset switch")
	}
}

// TestSupersetPairCompleted verifies fall-through to normal progression when
// the paired set at the same index is already done. The pairing is one-way:
// completing the row set never jumps back to bench.
func TestSupersetPairCompleted(t *testing.T) {
	w := New(supersetSession(), nil)

	// Complete row set 1 directly.
	if err := w.Select(rowID, 0); err != nil {
		t.Fatal(err)
	}
	if adv := complete(t, w, 60, 10); adv.Kind != AdvanceNextSet {
		t.Fatalf("row completion = %+v, want plain next_set (no back-reference)", adv)
	}

	// Bench set 1 now falls through to bench set 2.
	if err := w.Select(benchID, 0); err != nil {
		t.Fatal(err)
	}
	adv := complete(t, w, 100, 8)
	if adv.Kind != AdvanceNextSet || adv.Exercise != 0 || adv.Set != 1 {
		t.Errorf("advance = %+v, want next_set 0/1 fall-through", adv)
	}
	if adv.RestSec != 120 {
		t.Errorf("rest = %d, want 120 on fall-through", adv.RestSec)
	}
}

// TestSupersetMissingPair verifies that a pairing pointing at an exercise not
// in the session degrades to normal progression.
func TestSupersetMissingPair(t *testing.T) {
	sess := testSession()
	sess.Exercises[0].SpecialMethod = "superset"
	sess.Exercises[0].SpecialConfig = json.RawMessage(`{"pairedExerciseId": "` + absentID.String() + `"}`)
	w := New(sess, nil)

	if adv := complete(t, w, 100, 8); adv.Kind != AdvanceNextSet {
		t.Errorf("advance = %+v, want next_set when pair is absent", adv)
	}
}

// TestRestTickAndSkip verifies the countdown returns to set_active both when
// it runs out and when skipped.
func TestRestTickAndSkip(t *testing.T) {
	sess := testSession()
	sess.Exercises[0].RestSec = 2
	w := New(sess, nil)

	complete(t, w, 100, 8)
	if w.TickRest() {
		t.Error("tick 1 reported done with 1s remaining")
	}
	if !w.TickRest() {
		t.Error("tick 2 did not report done")
	}
	if w.TickRest() {
		t.Error("tick after done reported done again")
	}
	if got := w.Phase(); got != PhaseSetActive {
		t.Errorf("phase = %v, want set_active after countdown", got)
	}

	complete(t, w, 100, 8)
	if got := w.Phase(); got != PhaseResting {
		t.Fatalf("phase = %v, want resting", got)
	}
	w.SkipRest()
	if got := w.Phase(); got != PhaseSetActive {
		t.Errorf("phase = %v, want set_active after skip", got)
	}
	if w.Timer().State().IsActive {
		t.Error("timer active after skip")
	}
}

// TestCustomRestDuration verifies the session override starts immediately and
// then beats prescribed rest on subsequent advances.
func TestCustomRestDuration(t *testing.T) {
	w := New(testSession(), nil)

	w.SetRestDuration(45)
	ts := w.Timer().State()
	if !ts.IsActive || ts.Remaining != 45 || ts.Total != 45 {
		t.Errorf("timer = %+v, want active 45/45", ts)
	}
	if got := w.Phase(); got != PhaseResting {
		t.Errorf("phase = %v, want resting right after override", got)
	}
	w.SkipRest()

	adv := complete(t, w, 100, 8)
	if adv.RestSec != 45 {
		t.Errorf("rest = %d, want override 45 over prescribed 120", adv.RestSec)
	}
}

// TestZeroRestSkipsCountdown verifies that an exercise with no prescribed rest
// advances straight to the active phase.
func TestZeroRestSkipsCountdown(t *testing.T) {
	sess := testSession()
	sess.Exercises[0].RestSec = 0
	w := New(sess, nil)

	adv := complete(t, w, 100, 8)
	if adv.RestSec != 0 {
		t.Errorf("rest = %d, want 0", adv.RestSec)
	}
	if got := w.Phase(); got != PhaseSetActive {
		t.Errorf("phase = %v, want set_active", got)
	}
}
