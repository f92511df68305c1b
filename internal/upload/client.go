package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/claude/trainload/internal/ingest"
	"github.com/claude/trainload/internal/models"
)

const maxAttempts = 3

// Client sends sessions to a trainload server over HTTP.
type Client struct {
	serverURL  string
	apiKey     string
	httpClient *http.Client
	// retryBase is the first backoff; each retry doubles it.
	retryBase time.Duration
}

// NewClient creates a new HTTP client for the trainload server.
func NewClient(serverURL, apiKey string) *Client {
	return &Client{
		serverURL: serverURL,
		apiKey:    apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		retryBase: time.Second,
	}
}

// statusError is a non-200 reply. 4xx replies are not retried.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("ingest failed (status %d): %s", e.code, e.body)
}

func (e *statusError) retryable() bool {
	return e.code >= 500 || e.code == http.StatusTooManyRequests
}

// SendSessions POSTs a batch to the server's session ingest endpoint.
// Retries up to 3 times with exponential backoff on network errors and
// server-side failures.
func (c *Client) SendSessions(ctx context.Context, batch models.SessionBatch) (*ingest.Result, error) {
	data, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("marshaling batch: %w", err)
	}

	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryBase << uint(attempt-1)):
			}
		}

		res, err := c.post(ctx, data)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if se, ok := err.(*statusError); ok && !se.retryable() {
			return nil, err
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) post(ctx context.Context, data []byte) (*ingest.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/api/v1/ingest/sessions", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &statusError{code: resp.StatusCode, body: string(body)}
	}

	var res ingest.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decoding ingest result: %w", err)
	}
	return &res, nil
}
