// Package engine implements the workout execution core: the exercise/set
// aggregate, set-by-set progression with special training methods, the rest
// countdown, and derived progress metrics. All mutation happens through the
// Workout type; the rendering layer only ever sees snapshots.
package engine

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/claude/setforge/internal/method"
	"github.com/claude/setforge/internal/models"
	"github.com/google/uuid"
)

const defaultRPE = 8

// Exercise is one prescribed exercise with its working sets and any assigned
// special training method. Owned exclusively by the Workout.
type Exercise struct {
	EntryID    uuid.UUID         `json:"entryId"`
	ExerciseID uuid.UUID         `json:"exerciseId"`
	Name       string            `json:"name"`
	Prescribed int               `json:"prescribedSets"`
	RepRange   string            `json:"repRange"`
	RestSec    int               `json:"restSec"`
	Method     method.Tag        `json:"specialMethod,omitempty"`
	Config     method.Config     `json:"specialConfig"`
	Sets       []models.SetEntry `json:"sets"`
}

// Phase is the progression state of an active workout.
type Phase int

const (
	PhaseSetActive Phase = iota
	PhaseResting
	PhaseExerciseComplete
	PhaseWorkoutComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseSetActive:
		return "set_active"
	case PhaseResting:
		return "resting"
	case PhaseExerciseComplete:
		return "exercise_complete"
	case PhaseWorkoutComplete:
		return "workout_complete"
	}
	return "unknown"
}

// Workout is the in-memory aggregate for one active session. Mutations are
// serialized by an internal lock; user actions arrive one at a time and each
// returns before the next is applied.
type Workout struct {
	mu        sync.Mutex
	sessionID uuid.UUID
	userID    int
	startedAt time.Time
	exercises []*Exercise
	timer     RestTimer
	curEx     int
	curSet    int
	phase     Phase

	// completing guards against a completion request arriving while another
	// is still being processed; the duplicate becomes a no-op.
	completing atomic.Bool

	log *slog.Logger
}

// New builds a Workout from a loaded session. Exercises with saved set data
// are restored as-is (renumbered densely); exercises without it get fresh
// default sets from the prescription. Re-initializing from a previously saved
// session yields the same aggregate.
func New(sess *models.Session, log *slog.Logger) *Workout {
	if log == nil {
		log = slog.Default()
	}

	w := &Workout{
		sessionID: sess.ID,
		userID:    sess.UserID,
		startedAt: time.Now(),
		phase:     PhaseSetActive,
		log:       log,
	}
	if sess.StartedAt != nil {
		w.startedAt = *sess.StartedAt
	}

	for _, se := range sess.Exercises {
		tag := method.Normalize(se.SpecialMethod)
		ex := &Exercise{
			EntryID:    se.EntryID,
			ExerciseID: se.ExerciseID,
			Name:       se.Name,
			Prescribed: se.Sets,
			RepRange:   se.RepRange,
			RestSec:    se.RestSec,
			Method:     tag,
			Config:     method.NormalizeConfig(tag, se.SpecialConfig),
		}

		if len(se.SetsData) > 0 {
			ex.Sets = make([]models.SetEntry, len(se.SetsData))
			copy(ex.Sets, se.SetsData)
			renumber(ex.Sets)
		} else {
			target := firstNumber(se.RepRange)
			count := se.Sets
			if count <= 0 {
				count = 1
			}
			ex.Sets = make([]models.SetEntry, count)
			for i := range ex.Sets {
				ex.Sets[i] = models.SetEntry{Number: i + 1, TargetReps: target, RPE: defaultRPE}
			}
		}

		w.exercises = append(w.exercises, ex)
	}

	return w
}

// SessionID returns the session this workout was loaded from.
func (w *Workout) SessionID() uuid.UUID { return w.sessionID }

// UserID returns the owning user.
func (w *Workout) UserID() int { return w.userID }

// Phase returns the current progression phase.
func (w *Workout) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// Current returns the indices of the current exercise and set.
func (w *Workout) Current() (exercise, set int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.curEx, w.curSet
}

// Timer exposes the rest timer. Its operations are independently safe.
func (w *Workout) Timer() *RestTimer { return &w.timer }

// SetField names a mutable SetEntry field for UpdateSet.
type SetField string

const (
	FieldWeight     SetField = "weight"
	FieldActualReps SetField = "actualReps"
	FieldTargetReps SetField = "targetReps"
	FieldRPE        SetField = "rpe"
)

// UpdateSet replaces one field of one set. Business rules are not enforced
// here; validation happens when the set is completed.
func (w *Workout) UpdateSet(exerciseID uuid.UUID, setIndex int, field SetField, value float64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	set, err := w.set(exerciseID, setIndex)
	if err != nil {
		return err
	}
	switch field {
	case FieldWeight:
		set.Weight = value
	case FieldActualReps:
		set.ActualReps = int(value)
	case FieldTargetReps:
		set.TargetReps = int(value)
	case FieldRPE:
		set.RPE = value
	default:
		return ErrNoSuchSet
	}
	return nil
}

// AddSet appends a set to the exercise, copying the previous set's target
// reps, weight, and RPE so consecutive sets start from the same prescription.
func (w *Workout) AddSet(exerciseID uuid.UUID) (models.SetEntry, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ex := w.exercise(exerciseID)
	if ex == nil {
		return models.SetEntry{}, ErrNoSuchExercise
	}

	set := models.SetEntry{Number: len(ex.Sets) + 1, TargetReps: firstNumber(ex.RepRange), RPE: defaultRPE}
	if n := len(ex.Sets); n > 0 {
		prev := ex.Sets[n-1]
		set.TargetReps = prev.TargetReps
		set.Weight = prev.Weight
		set.RPE = prev.RPE
	}
	ex.Sets = append(ex.Sets, set)
	return set, nil
}

// RemoveSet deletes a set and renumbers the rest densely from 1. The last
// remaining set of an exercise and completed sets cannot be removed.
func (w *Workout) RemoveSet(exerciseID uuid.UUID, setIndex int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	ex := w.exercise(exerciseID)
	if ex == nil {
		return ErrNoSuchExercise
	}
	if setIndex < 0 || setIndex >= len(ex.Sets) {
		return ErrNoSuchSet
	}
	if len(ex.Sets) == 1 || ex.Sets[setIndex].Completed {
		return ErrCannotRemoveSet
	}

	ex.Sets = append(ex.Sets[:setIndex], ex.Sets[setIndex+1:]...)
	renumber(ex.Sets)

	// Keep the cursor on a valid set.
	if w.exercises[w.curEx] == ex && w.curSet >= len(ex.Sets) {
		w.curSet = len(ex.Sets) - 1
	}
	return nil
}

// ResetSet clears a set back to its defaults, keeping its number and target.
func (w *Workout) ResetSet(exerciseID uuid.UUID, setIndex int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	set, err := w.set(exerciseID, setIndex)
	if err != nil {
		return err
	}
	set.Completed = false
	set.ActualReps = 0
	set.Weight = 0
	set.RPE = defaultRPE
	return nil
}

// SetMethod assigns a special training method. The configuration resets to
// the variant defaults: configs are not portable between variants.
func (w *Workout) SetMethod(exerciseID uuid.UUID, tag method.Tag) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	ex := w.exercise(exerciseID)
	if ex == nil {
		return ErrNoSuchExercise
	}
	ex.Method = tag
	ex.Config = method.Default(tag)
	return nil
}

// SetMethodConfig replaces the method configuration. The config's variant
// must match the exercise's assigned method.
func (w *Workout) SetMethodConfig(exerciseID uuid.UUID, cfg method.Config) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	ex := w.exercise(exerciseID)
	if ex == nil {
		return ErrNoSuchExercise
	}
	if cfg.Tag != ex.Method {
		return ErrConfigMismatch
	}
	ex.Config = cfg
	return nil
}

// Select moves the cursor to an arbitrary set, letting the user work sets
// out of declared order.
func (w *Workout) Select(exerciseID uuid.UUID, setIndex int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, ex := range w.exercises {
		if ex.ExerciseID == exerciseID {
			if setIndex < 0 || setIndex >= len(ex.Sets) {
				return ErrNoSuchSet
			}
			w.curEx, w.curSet = i, setIndex
			w.phase = PhaseSetActive
			return nil
		}
	}
	return ErrNoSuchExercise
}

// BuildSave produces the persistence payload for the current state. Method
// tags and configs are emitted in canonical form, so a session restored from
// this payload initializes to an identical aggregate.
func (w *Workout) BuildSave(completed bool) models.ProgressSave {
	w.mu.Lock()
	defer w.mu.Unlock()

	p := models.ProgressSave{
		Duration:    int(time.Since(w.startedAt).Minutes()),
		IsCompleted: completed,
	}
	for _, ex := range w.exercises {
		sets := make([]models.SetEntry, len(ex.Sets))
		copy(sets, ex.Sets)
		for _, s := range ex.Sets {
			if s.Completed {
				p.TotalVolume += s.Weight * float64(s.ActualReps)
			}
		}
		cfg, _ := ex.Config.MarshalJSON()
		es := models.ExerciseSave{
			ExerciseID:    ex.ExerciseID,
			Sets:          sets,
			SpecialMethod: string(ex.Method),
		}
		if string(cfg) != "null" {
			es.SpecialConfig = cfg
		}
		p.Exercises = append(p.Exercises, es)
	}
	return p
}

// RemainingSets counts uncompleted sets across the whole workout.
func (w *Workout) RemainingSets() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, ex := range w.exercises {
		for _, s := range ex.Sets {
			if !s.Completed {
				n++
			}
		}
	}
	return n
}

// exercise finds the first live entry for a catalog exercise id. Callers hold w.mu.
func (w *Workout) exercise(exerciseID uuid.UUID) *Exercise {
	for _, ex := range w.exercises {
		if ex.ExerciseID == exerciseID {
			return ex
		}
	}
	return nil
}

func (w *Workout) set(exerciseID uuid.UUID, setIndex int) (*models.SetEntry, error) {
	ex := w.exercise(exerciseID)
	if ex == nil {
		return nil, ErrNoSuchExercise
	}
	if setIndex < 0 || setIndex >= len(ex.Sets) {
		return nil, ErrNoSuchSet
	}
	return &ex.Sets[setIndex], nil
}

func renumber(sets []models.SetEntry) {
	for i := range sets {
		sets[i].Number = i + 1
	}
}

// firstNumber extracts the leading integer of a rep-range string ("8-12" → 8).
// Rep ranges without a parseable number fall back to 8.
func firstNumber(s string) int {
	start := -1
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return 8
	}
	n := 0
	for i := start; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}
