package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/claude/setforge/internal/engine"
	"github.com/claude/setforge/internal/method"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleStartWorkout(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	wk, err := s.active.Start(r.Context(), sessionID, defaultUserID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, wk.State())
}

func (s *Server) handleWorkoutState(w http.ResponseWriter, r *http.Request) {
	wk, ok := s.hostedWorkout(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, wk.State())
}

// handleCompleteSet drives the progression engine. A successful completion
// fires a silent autosave; the response never waits on it.
func (s *Server) handleCompleteSet(w http.ResponseWriter, r *http.Request) {
	wk, ok := s.hostedWorkout(w, r)
	if !ok {
		return
	}

	adv, err := wk.CompleteSet()
	if err != nil {
		if errors.Is(err, engine.ErrIncompleteSet) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if adv.Kind != engine.AdvanceNone {
		s.active.sync.Autosave(wk)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"advance": adv,
		"state":   wk.State(),
	})
}

type setRequest struct {
	ExerciseID uuid.UUID       `json:"exerciseId"`
	Field      string          `json:"field,omitempty"`
	Value      float64         `json:"value,omitempty"`
	Set        int             `json:"set,omitempty"`
	Method     string          `json:"method,omitempty"`
	Config     json.RawMessage `json:"config,omitempty"`
	Seconds    int             `json:"seconds,omitempty"`
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	wk, req, n, ok := s.workoutSetRequest(w, r)
	if !ok {
		return
	}
	if err := wk.UpdateSet(req.ExerciseID, n-1, engine.SetField(req.Field), req.Value); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wk.State())
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	wk, ok := s.hostedWorkout(w, r)
	if !ok {
		return
	}
	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	set, err := wk.AddSet(req.ExerciseID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"set": set, "state": wk.State()})
}

func (s *Server) handleRemoveSet(w http.ResponseWriter, r *http.Request) {
	wk, ok := s.hostedWorkout(w, r)
	if !ok {
		return
	}
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid set number"})
		return
	}
	exerciseID, err := uuid.Parse(r.URL.Query().Get("exercise_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise_id parameter required"})
		return
	}
	if err := wk.RemoveSet(exerciseID, n-1); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wk.State())
}

func (s *Server) handleResetSet(w http.ResponseWriter, r *http.Request) {
	wk, req, n, ok := s.workoutSetRequest(w, r)
	if !ok {
		return
	}
	if err := wk.ResetSet(req.ExerciseID, n-1); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wk.State())
}

func (s *Server) handleSelectSet(w http.ResponseWriter, r *http.Request) {
	wk, ok := s.hostedWorkout(w, r)
	if !ok {
		return
	}
	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := wk.Select(req.ExerciseID, req.Set-1); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wk.State())
}

func (s *Server) handleSkipRest(w http.ResponseWriter, r *http.Request) {
	wk, ok := s.hostedWorkout(w, r)
	if !ok {
		return
	}
	wk.SkipRest()
	writeJSON(w, http.StatusOK, wk.State())
}

func (s *Server) handleRestDuration(w http.ResponseWriter, r *http.Request) {
	wk, ok := s.hostedWorkout(w, r)
	if !ok {
		return
	}
	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.Seconds <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "seconds must be positive"})
		return
	}
	wk.SetRestDuration(req.Seconds)
	writeJSON(w, http.StatusOK, wk.State())
}

func (s *Server) handleSetMethod(w http.ResponseWriter, r *http.Request) {
	wk, ok := s.hostedWorkout(w, r)
	if !ok {
		return
	}
	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	tag := method.Normalize(req.Method)
	if err := wk.SetMethod(req.ExerciseID, tag); err != nil {
		writeEngineError(w, err)
		return
	}
	if len(req.Config) > 0 {
		if err := wk.SetMethodConfig(req.ExerciseID, method.NormalizeConfig(tag, req.Config)); err != nil {
			writeEngineError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, wk.State())
}

// handleFinishWorkout is save-and-exit: persists progress without completing.
// A failed save leaves the workout hosted so the user can retry.
func (s *Server) handleFinishWorkout(w http.ResponseWriter, r *http.Request) {
	wk, ok := s.hostedWorkout(w, r)
	if !ok {
		return
	}
	if err := s.active.sync.SaveAndExit(r.Context(), wk); err != nil {
		s.log.Error("save and exit", "session", wk.SessionID(), "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "save failed: " + err.Error()})
		return
	}
	s.active.Release(wk.SessionID())
	writeJSON(w, http.StatusOK, map[string]bool{"saved": true})
}

func (s *Server) handleCompleteWorkout(w http.ResponseWriter, r *http.Request) {
	wk, ok := s.hostedWorkout(w, r)
	if !ok {
		return
	}
	if err := s.active.sync.Complete(r.Context(), wk); err != nil {
		var wi *engine.WorkoutIncompleteError
		if errors.As(err, &wi) {
			writeJSON(w, http.StatusConflict, map[string]any{
				"error":     err.Error(),
				"remaining": wi.Remaining,
			})
			return
		}
		s.log.Error("complete workout", "session", wk.SessionID(), "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "save failed: " + err.Error()})
		return
	}
	s.active.Release(wk.SessionID())
	writeJSON(w, http.StatusOK, map[string]any{"completed": true, "progress": wk.Progress()})
}

func (s *Server) hostedWorkout(w http.ResponseWriter, r *http.Request) (*engine.Workout, bool) {
	sessionID, ok := sessionIDParam(w, r)
	if !ok {
		return nil, false
	}
	wk, found := s.active.Get(sessionID)
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no active workout for session"})
		return nil, false
	}
	return wk, true
}

func (s *Server) workoutSetRequest(w http.ResponseWriter, r *http.Request) (*engine.Workout, setRequest, int, bool) {
	wk, ok := s.hostedWorkout(w, r)
	if !ok {
		return nil, setRequest{}, 0, false
	}
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid set number"})
		return nil, setRequest{}, 0, false
	}
	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return nil, setRequest{}, 0, false
	}
	return wk, req, n, true
}

func writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrNoSuchExercise), errors.Is(err, engine.ErrNoSuchSet):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrCannotRemoveSet), errors.Is(err, engine.ErrConfigMismatch):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrIncompleteSet):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
