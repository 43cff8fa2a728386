package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Session is a prescribed workout plus any previously saved progress,
// as loaded from storage or received from the REST API.
type Session struct {
	ID          uuid.UUID         `json:"id"`
	UserID      int               `json:"userId"`
	Name        string            `json:"name"`
	StartedAt   *time.Time        `json:"startedAt,omitempty"`
	DurationMin int               `json:"duration"`
	TotalVolume float64           `json:"totalVolume"`
	Completed   bool              `json:"completed"`
	Exercises   []SessionExercise `json:"exercises"`
}

// SessionExercise is one prescribed exercise within a session. SetsData holds
// previously saved per-set progress; when empty the engine synthesizes default
// sets from the prescription. SpecialMethod and SpecialConfig carry the raw
// persisted values — normalization happens in the method package, not here.
type SessionExercise struct {
	EntryID       uuid.UUID       `json:"entryId"`
	ExerciseID    uuid.UUID       `json:"exerciseId"`
	Name          string          `json:"name"`
	Position      int             `json:"position"`
	Sets          int             `json:"sets"`
	RepRange      string          `json:"repRange"`
	RestSec       int             `json:"restSec"`
	SpecialMethod string          `json:"specialMethod,omitempty"`
	SpecialConfig json.RawMessage `json:"specialConfig,omitempty"`
	SetsData      []SetEntry      `json:"setsData,omitempty"`
}

// SetEntry is one working set. Numbers are 1-based and dense within an
// exercise. Completed implies Weight > 0 and ActualReps > 0.
type SetEntry struct {
	Number     int     `json:"number"`
	TargetReps int     `json:"targetReps"`
	ActualReps int     `json:"actualReps"`
	Weight     float64 `json:"weight"`
	RPE        float64 `json:"rpe"`
	Completed  bool    `json:"completed"`
}

// ProgressSave is the PUT body for /api/v1/sessions/{id}/progress. AutoSave
// marks silent best-effort saves fired on set completion, as opposed to
// explicit save-and-exit / complete-workout saves.
type ProgressSave struct {
	Duration    int            `json:"duration"`
	TotalVolume float64        `json:"totalVolume"`
	IsCompleted bool           `json:"isCompleted"`
	AutoSave    bool           `json:"autoSave,omitempty"`
	Exercises   []ExerciseSave `json:"exercises"`
}

// ExerciseSave is the per-exercise slice of a progress save. SpecialMethod
// and SpecialConfig are already canonical when produced by the engine.
type ExerciseSave struct {
	ExerciseID    uuid.UUID       `json:"exerciseId"`
	Sets          []SetEntry      `json:"sets"`
	SpecialMethod string          `json:"specialMethod,omitempty"`
	SpecialConfig json.RawMessage `json:"specialConfig,omitempty"`
}

// SetHistory is the most recent historical values for one set slot of an
// exercise, used to pre-fill a fresh set.
type SetHistory struct {
	ExerciseID  uuid.UUID `json:"exerciseId"`
	SetNumber   int       `json:"setNumber"`
	Weight      float64   `json:"weight"`
	Reps        int       `json:"reps"`
	RPE         float64   `json:"rpe"`
	PerformedAt time.Time `json:"performedAt"`
}
