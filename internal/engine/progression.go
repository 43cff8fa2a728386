package engine

import "github.com/claude/setforge/internal/method"

// AdvanceKind describes what CompleteSet did after marking the set done.
type AdvanceKind int

const (
	// AdvanceNone: nothing happened (duplicate request or already finished).
	AdvanceNone AdvanceKind = iota
	// AdvanceNextSet: moved to a later uncompleted set in the same exercise.
	AdvanceNextSet
	// AdvanceNextExercise: moved to the first set of the next exercise.
	AdvanceNextExercise
	// AdvanceSwitchedPair: superset switch to the paired exercise at the
	// same set index, no rest.
	AdvanceSwitchedPair
	// AdvanceWorkoutDone: the final set was completed.
	AdvanceWorkoutDone
)

func (k AdvanceKind) String() string {
	switch k {
	case AdvanceNextSet:
		return "next_set"
	case AdvanceNextExercise:
		return "next_exercise"
	case AdvanceSwitchedPair:
		return "switched_pair"
	case AdvanceWorkoutDone:
		return "workout_done"
	}
	return "none"
}

// Advance reports the result of completing a set: the new cursor position and
// the rest period that was started (0 when none).
type Advance struct {
	Kind     AdvanceKind `json:"kind"`
	Exercise int         `json:"exercise"`
	Set      int         `json:"set"`
	RestSec  int         `json:"restSec,omitempty"`
}

// CompleteSet validates and completes the current set, then advances the
// cursor. Order of checks:
//
//  1. The set must have weight and actual reps entered, else IncompleteSetError
//     and no state change.
//  2. Superset: if this exercise pairs with another live entry whose set at
//     the same index is still open, switch there directly. Both exercises are
//     performed back-to-back, so no rest timer starts.
//  3. Otherwise move to the lowest following uncompleted set in this
//     exercise, or the first set of the next exercise, or finish the workout.
//     Any such advance starts the rest timer (session override first, else
//     the exercise's prescribed rest).
//
// A completion request that arrives while another is still being processed
// is dropped as a duplicate (AdvanceNone).
func (w *Workout) CompleteSet() (Advance, error) {
	if !w.completing.CompareAndSwap(false, true) {
		return Advance{Kind: AdvanceNone}, nil
	}
	defer w.completing.Store(false)

	w.mu.Lock()
	defer w.mu.Unlock()

	// A session can arrive with no exercises at all; there is nothing to
	// complete and nothing to advance.
	if len(w.exercises) == 0 || w.phase == PhaseWorkoutComplete {
		return Advance{Kind: AdvanceNone}, nil
	}

	ex := w.exercises[w.curEx]
	set := &ex.Sets[w.curSet]

	if set.Weight <= 0 || set.ActualReps <= 0 {
		return Advance{Kind: AdvanceNone, Exercise: w.curEx, Set: w.curSet},
			&IncompleteSetError{MissingWeight: set.Weight <= 0, MissingReps: set.ActualReps <= 0}
	}

	set.Completed = true

	// Superset takes priority over normal progression: jump to the paired
	// exercise at the same set index if that set is still open.
	if ex.Method == method.Superset && ex.Config.Superset != nil {
		if pi := w.pairIndex(ex); pi >= 0 {
			pair := w.exercises[pi]
			if w.curSet < len(pair.Sets) && !pair.Sets[w.curSet].Completed {
				w.curEx = pi
				w.phase = PhaseSetActive
				w.log.Debug("superset switch", "exercise", pair.Name, "set", w.curSet+1)
				return Advance{Kind: AdvanceSwitchedPair, Exercise: pi, Set: w.curSet}, nil
			}
		}
	}

	// Next uncompleted set in this exercise, preferring declared order even
	// when earlier sets were done out of order.
	for i := w.curSet + 1; i < len(ex.Sets); i++ {
		if ex.Sets[i].Completed {
			continue
		}
		w.curSet = i
		rest := w.startRest(ex, false)
		return Advance{Kind: AdvanceNextSet, Exercise: w.curEx, Set: i, RestSec: rest}, nil
	}

	if w.curEx+1 < len(w.exercises) {
		w.curEx++
		w.curSet = 0
		rest := w.startRest(ex, true)
		return Advance{Kind: AdvanceNextExercise, Exercise: w.curEx, Set: 0, RestSec: rest}, nil
	}

	w.phase = PhaseWorkoutComplete
	w.timer.Skip()
	return Advance{Kind: AdvanceWorkoutDone, Exercise: w.curEx, Set: w.curSet}, nil
}

// pairIndex resolves the live entry for this exercise's superset partner.
// The pairing is stored as a catalog exercise id, not a back-reference, so
// resolution happens here at transition time. Callers hold w.mu.
func (w *Workout) pairIndex(ex *Exercise) int {
	for i, other := range w.exercises {
		if other != ex && other.ExerciseID == ex.Config.Superset.PairedExerciseID {
			return i
		}
	}
	return -1
}

// startRest begins the rest countdown after a normal advance and sets the
// phase accordingly. The session-wide custom duration wins over the
// prescribed rest of the exercise whose set was just finished. Callers hold w.mu.
func (w *Workout) startRest(done *Exercise, exerciseBoundary bool) int {
	d := w.timer.CustomDuration()
	if d <= 0 {
		d = done.RestSec
	}
	if d <= 0 {
		w.phase = PhaseSetActive
		return 0
	}
	w.timer.Start(d)
	if exerciseBoundary {
		w.phase = PhaseExerciseComplete
	} else {
		w.phase = PhaseResting
	}
	return d
}

// TickRest forwards the external 1 Hz tick to the rest timer and, when the
// countdown finishes, returns the workout to the active phase.
func (w *Workout) TickRest() bool {
	done := w.timer.Tick()
	if done {
		w.restOver()
	}
	return done
}

// SkipRest cancels the current rest period immediately.
func (w *Workout) SkipRest() {
	w.timer.Skip()
	w.restOver()
}

// SetRestDuration overrides rest periods for the remainder of the session and
// starts a countdown of that length right away.
func (w *Workout) SetRestDuration(seconds int) {
	w.timer.SetCustomDuration(seconds)
	if seconds > 0 {
		w.mu.Lock()
		if w.phase == PhaseSetActive {
			w.phase = PhaseResting
		}
		w.mu.Unlock()
	}
}

func (w *Workout) restOver() {
	w.mu.Lock()
	if w.phase == PhaseResting || w.phase == PhaseExerciseComplete {
		w.phase = PhaseSetActive
	}
	w.mu.Unlock()
}
