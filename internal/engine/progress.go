package engine

import (
	"math"
	"time"
)

// Progress is derived from the set collection on demand; it is never stored.
type Progress struct {
	TotalSets      int     `json:"totalSets"`
	CompletedSets  int     `json:"completedSets"`
	Percentage     float64 `json:"percentage"`
	ElapsedMinutes int     `json:"elapsedMinutes"`
	TotalVolume    float64 `json:"totalVolume"`
}

// Progress computes completion and volume over the current sets. Volume is
// Σ weight × actual reps over completed sets, rounded to the nearest whole
// unit for display. Safe to call at arbitrary frequency.
func (w *Workout) Progress() Progress {
	w.mu.Lock()
	defer w.mu.Unlock()

	var p Progress
	p.ElapsedMinutes = int(time.Since(w.startedAt).Minutes())
	for _, ex := range w.exercises {
		p.TotalSets += len(ex.Sets)
		for _, s := range ex.Sets {
			if s.Completed {
				p.CompletedSets++
				p.TotalVolume += s.Weight * float64(s.ActualReps)
			}
		}
	}
	if p.TotalSets > 0 {
		p.Percentage = float64(p.CompletedSets) / float64(p.TotalSets) * 100
	}
	p.TotalVolume = math.Round(p.TotalVolume)
	return p
}

// State is the immutable snapshot handed to the rendering layer after each
// mutation. Exercises are deep copies; mutating them has no effect on the
// live aggregate.
type State struct {
	SessionID       string     `json:"sessionId"`
	Phase           string     `json:"phase"`
	CurrentExercise int        `json:"currentExercise"`
	CurrentSet      int        `json:"currentSet"`
	Timer           TimerState `json:"timer"`
	Progress        Progress   `json:"progress"`
	Exercises       []Exercise `json:"exercises"`
}

// State builds a full snapshot of the workout.
func (w *Workout) State() State {
	progress := w.Progress()
	timer := w.timer.State()

	w.mu.Lock()
	defer w.mu.Unlock()

	st := State{
		SessionID:       w.sessionID.String(),
		Phase:           w.phase.String(),
		CurrentExercise: w.curEx,
		CurrentSet:      w.curSet,
		Timer:           timer,
		Progress:        progress,
	}
	st.Exercises = make([]Exercise, len(w.exercises))
	for i, ex := range w.exercises {
		c := *ex
		c.Sets = append(c.Sets[:0:0], ex.Sets...)
		st.Exercises[i] = c
	}
	return st
}
