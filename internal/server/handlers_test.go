package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claude/setforge/internal/engine"
)

// TestParseTimeRangeDefault verifies an empty query defaults to the last
// 6 months ending now.
func TestParseTimeRangeDefault(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/volume", nil)
	start, end, err := parseTimeRange(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(end) > time.Minute {
		t.Errorf("end = %v, want ~now", end)
	}
	approx := end.AddDate(0, -6, 0)
	if start.Sub(approx) > time.Minute || approx.Sub(start) > time.Minute {
		t.Errorf("start = %v, want ~6 months before end", start)
	}
}

// TestParseTimeRangeExplicit verifies both date-only and RFC3339 bounds parse.
func TestParseTimeRangeExplicit(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/volume?start=2026-01-01&end=2026-03-15T12:00:00Z", nil)
	start, end, err := parseTimeRange(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Year() != 2026 || start.Month() != time.January || start.Day() != 1 {
		t.Errorf("start = %v, want 2026-01-01", start)
	}
	if end.Hour() != 12 {
		t.Errorf("end = %v, want 2026-03-15T12:00:00Z", end)
	}
}

// TestParseTimeRangeInvalid verifies a malformed start date errors out.
func TestParseTimeRangeInvalid(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/volume?start=January", nil)
	if _, _, err := parseTimeRange(r); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

// TestWriteEngineErrorStatus verifies engine errors map to the right HTTP
// status codes.
func TestWriteEngineErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{engine.ErrNoSuchExercise, http.StatusNotFound},
		{engine.ErrNoSuchSet, http.StatusNotFound},
		{engine.ErrCannotRemoveSet, http.StatusConflict},
		{engine.ErrConfigMismatch, http.StatusConflict},
		{&engine.IncompleteSetError{MissingWeight: true}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeEngineError(rec, tt.err)
		if rec.Code != tt.want {
			t.Errorf("writeEngineError(%v) status = %d, want %d", tt.err, rec.Code, tt.want)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q, want application/json", ct)
		}
	}
}
