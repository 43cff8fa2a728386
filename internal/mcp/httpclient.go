package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/claude/setforge/internal/models"
	"github.com/claude/setforge/internal/storage"
	"github.com/google/uuid"
)

// HTTPClient implements DataSource by calling the SetForge REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

// ListSessions implements DataSource. userID is implied by the API key.
func (c *HTTPClient) ListSessions(ctx context.Context, _ int, limit int) ([]storage.SessionSummary, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	body, err := c.get(ctx, "/api/v1/sessions", params)
	if err != nil {
		return nil, err
	}
	var result []storage.SessionSummary
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("httpclient: decode sessions: %w", err)
	}
	return result, nil
}

// GetSession implements DataSource.
func (c *HTTPClient) GetSession(ctx context.Context, sessionID uuid.UUID, _ int) (*models.Session, error) {
	body, err := c.get(ctx, "/api/v1/sessions/"+sessionID.String(), nil)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, fmt.Errorf("httpclient: session %s not found", sessionID)
	}
	var sess models.Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("httpclient: decode session: %w", err)
	}
	return &sess, nil
}

// LatestSetHistory implements DataSource. A 404 maps to (nil, nil), matching
// the storage behavior for "no history yet".
func (c *HTTPClient) LatestSetHistory(ctx context.Context, exerciseID uuid.UUID, setNumber, _ int) (*models.SetHistory, error) {
	params := url.Values{}
	params.Set("exercise_id", exerciseID.String())
	params.Set("set_number", strconv.Itoa(setNumber))

	body, err := c.get(ctx, "/api/v1/history", params)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, nil
	}
	var h models.SetHistory
	if err := json.Unmarshal(body, &h); err != nil {
		return nil, fmt.Errorf("httpclient: decode history: %w", err)
	}
	return &h, nil
}

// VolumeSummary implements DataSource.
func (c *HTTPClient) VolumeSummary(ctx context.Context, start, end time.Time, bucket string, _ int) ([]storage.VolumePeriod, error) {
	params := url.Values{}
	params.Set("start", start.Format(time.RFC3339))
	params.Set("end", end.Format(time.RFC3339))
	if bucket != "" {
		params.Set("bucket", bucket)
	}

	body, err := c.get(ctx, "/api/v1/volume", params)
	if err != nil {
		return nil, err
	}
	var result []storage.VolumePeriod
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("httpclient: decode volume summary: %w", err)
	}
	return result, nil
}
