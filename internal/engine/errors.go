package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompleteSet means the current set cannot be completed because
	// weight or actual reps are unset. Recoverable: no state changes.
	ErrIncompleteSet = errors.New("set is incomplete")

	// ErrCannotRemoveSet means the set is the exercise's only set or is
	// already completed.
	ErrCannotRemoveSet = errors.New("set cannot be removed")

	// ErrWorkoutIncomplete means a complete-workout attempt was made while
	// uncompleted sets remain.
	ErrWorkoutIncomplete = errors.New("workout is incomplete")

	ErrNoSuchExercise = errors.New("exercise not in session")
	ErrNoSuchSet      = errors.New("set index out of range")

	// ErrConfigMismatch means a special-method config was assigned whose
	// shape does not match the exercise's current method.
	ErrConfigMismatch = errors.New("config does not match assigned method")
)

// IncompleteSetError names exactly which fields block completion.
type IncompleteSetError struct {
	MissingWeight bool
	MissingReps   bool
}

func (e *IncompleteSetError) Error() string {
	switch {
	case e.MissingWeight && e.MissingReps:
		return "set is incomplete: weight and reps not entered"
	case e.MissingWeight:
		return "set is incomplete: weight not entered"
	case e.MissingReps:
		return "set is incomplete: reps not entered"
	}
	return ErrIncompleteSet.Error()
}

func (e *IncompleteSetError) Is(target error) bool { return target == ErrIncompleteSet }

// WorkoutIncompleteError names how many sets remain.
type WorkoutIncompleteError struct {
	Remaining int
}

func (e *WorkoutIncompleteError) Error() string {
	return fmt.Sprintf("workout is incomplete: %d sets remaining", e.Remaining)
}

func (e *WorkoutIncompleteError) Is(target error) bool { return target == ErrWorkoutIncomplete }
