package mcp

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/claude/setforge/internal/models"
	"github.com/claude/setforge/internal/storage"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// fakeDataSource serves canned sessions for tool handler tests.
type fakeDataSource struct {
	sessions map[uuid.UUID]*models.Session
}

func (f *fakeDataSource) ListSessions(ctx context.Context, userID, limit int) ([]storage.SessionSummary, error) {
	return nil, nil
}

func (f *fakeDataSource) GetSession(ctx context.Context, sessionID uuid.UUID, userID int) (*models.Session, error) {
	sess, ok := f.sessions[sessionID]
	if !ok {
		return nil, context.Canceled
	}
	return sess, nil
}

func (f *fakeDataSource) LatestSetHistory(ctx context.Context, exerciseID uuid.UUID, setNumber, userID int) (*models.SetHistory, error) {
	return nil, nil
}

func (f *fakeDataSource) VolumeSummary(ctx context.Context, start, end time.Time, bucket string, userID int) ([]storage.VolumePeriod, error) {
	return nil, nil
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

// TestUserIDFromContext verifies extraction and the single-user default.
func TestUserIDFromContext(t *testing.T) {
	ctx := context.Background()
	if got := UserIDFromContext(ctx); got != 1 {
		t.Errorf("default user = %d, want 1", got)
	}
	ctx = WithUserID(ctx, 42)
	if got := UserIDFromContext(ctx); got != 42 {
		t.Errorf("user = %d, want 42", got)
	}
}

// TestDefaultTimeRange verifies the 6-month default window.
func TestDefaultTimeRange(t *testing.T) {
	start, end, err := defaultTimeRange("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(end) > time.Minute {
		t.Errorf("end = %v, want ~now", end)
	}
	if got := end.AddDate(0, -6, 0); !start.Equal(got) {
		t.Errorf("start = %v, want %v", start, got)
	}
}

// TestDefaultTimeRangeExplicit verifies ISO and date-only inputs parse.
func TestDefaultTimeRangeExplicit(t *testing.T) {
	start, end, err := defaultTimeRange("2026-01-01", "2026-02-01T08:30:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start.Month() != time.January || start.Day() != 1 {
		t.Errorf("start = %v, want 2026-01-01", start)
	}
	if end.Hour() != 8 || end.Minute() != 30 {
		t.Errorf("end = %v, want 2026-02-01T08:30:00Z", end)
	}
}

// TestGetSessionSets verifies the per-exercise set listing: the matching
// exercise's sets and method come back, a foreign exercise id is an error.
func TestGetSessionSets(t *testing.T) {
	sessionID := uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	benchID := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	ds := &fakeDataSource{sessions: map[uuid.UUID]*models.Session{
		sessionID: {
			ID: sessionID,
			Exercises: []models.SessionExercise{{
				ExerciseID:    benchID,
				Name:          "Bench Press",
				SpecialMethod: "drop_set",
				SetsData: []models.SetEntry{
					{Number: 1, TargetReps: 8, ActualReps: 8, Weight: 100, RPE: 8, Completed: true},
					{Number: 2, TargetReps: 8},
				},
			}},
		},
	}}
	h := &handlers{ds: ds, log: slog.Default()}

	res, err := h.getSessionSets(context.Background(), callRequest(map[string]any{
		"session_id":  sessionID.String(),
		"exercise_id": benchID.String(),
	}))
	if err != nil {
		t.Fatalf("getSessionSets: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool error: %s", resultText(t, res))
	}
	text := resultText(t, res)
	for _, want := range []string{"Bench Press", "drop_set", `"weight":100`} {
		if !strings.Contains(text, want) {
			t.Errorf("result %q does not contain %q", text, want)
		}
	}

	res, err = h.getSessionSets(context.Background(), callRequest(map[string]any{
		"session_id":  sessionID.String(),
		"exercise_id": uuid.New().String(),
	}))
	if err != nil {
		t.Fatalf("getSessionSets: %v", err)
	}
	if !res.IsError {
		t.Error("expected error for exercise not in session")
	}
}

// TestGetSessionSetsMissingParams verifies required parameters are enforced.
func TestGetSessionSetsMissingParams(t *testing.T) {
	h := &handlers{ds: &fakeDataSource{}, log: slog.Default()}

	res, err := h.getSessionSets(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("getSessionSets: %v", err)
	}
	if !res.IsError {
		t.Error("expected error for missing session_id")
	}

	res, err = h.getSessionSets(context.Background(), callRequest(map[string]any{
		"session_id": "not-a-uuid",
	}))
	if err != nil {
		t.Fatalf("getSessionSets: %v", err)
	}
	if !res.IsError {
		t.Error("expected error for malformed session_id")
	}
}

// TestDefaultTimeRangeInvalid verifies malformed dates are rejected.
func TestDefaultTimeRangeInvalid(t *testing.T) {
	if _, _, err := defaultTimeRange("last tuesday", ""); err == nil {
		t.Fatal("expected error for malformed start")
	}
}
