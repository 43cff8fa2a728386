package persist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/claude/setforge/internal/models"
	"github.com/google/uuid"
)

// HTTPSaver implements Saver against a remote SetForge server. Used when the
// engine runs on a client and the session store lives elsewhere (typically
// reached over Tailscale).
type HTTPSaver struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPSaver satisfies Saver.
var _ Saver = (*HTTPSaver)(nil)

// NewHTTPSaver creates an HTTPSaver targeting the given base URL.
func NewHTTPSaver(baseURL, apiKey string) *HTTPSaver {
	return &HTTPSaver{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SaveProgress PUTs the save payload to the server. The user is derived from
// the API key server-side, so userID is not sent.
func (c *HTTPSaver) SaveProgress(ctx context.Context, sessionID uuid.UUID, _ int, p models.ProgressSave) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding save payload: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/sessions/%s/progress", c.baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating save request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("saving progress: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("save request failed (status %d): %s", resp.StatusCode, msg)
	}
	return nil
}
