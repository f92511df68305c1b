package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/trainload/internal/analytics"
	"github.com/claude/trainload/internal/models"
)

// HTTPClient reads sessions from a trainload server's REST API. Used for
// remote MCP mode where the binary runs locally (stdio) but the session
// store lives on the server (accessed over Tailscale).
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPClient is a session source.
var _ analytics.SessionSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL. apiKey
// may be empty.
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
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

// Sessions fetches the full reconciled history the server holds for the
// caller. The server resolves the user from the connection, so userID is
// only used for error context.
func (c *HTTPClient) Sessions(ctx context.Context, userID string) ([]models.WorkoutSession, error) {
	body, err := c.get(ctx, "/api/v1/sessions", nil)
	if err != nil {
		return nil, fmt.Errorf("sessions for %s: %w", userID, err)
	}

	var sessions []models.WorkoutSession
	if err := json.Unmarshal(body, &sessions); err != nil {
		return nil, fmt.Errorf("httpclient: decode sessions: %w", err)
	}
	return sessions, nil
}
