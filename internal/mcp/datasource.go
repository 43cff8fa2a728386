package mcp

import (
	"context"
	"time"

	"github.com/claude/setforge/internal/models"
	"github.com/claude/setforge/internal/storage"
	"github.com/google/uuid"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (local)
// and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	ListSessions(ctx context.Context, userID, limit int) ([]storage.SessionSummary, error)
	GetSession(ctx context.Context, sessionID uuid.UUID, userID int) (*models.Session, error)
	LatestSetHistory(ctx context.Context, exerciseID uuid.UUID, setNumber, userID int) (*models.SetHistory, error)
	VolumeSummary(ctx context.Context, start, end time.Time, bucket string, userID int) ([]storage.VolumePeriod, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
