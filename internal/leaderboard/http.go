package leaderboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	httpTimeout     = 10 * time.Second
	maxResponseSize = 1 << 20
)

// SubmitRequest is the body of POST /scores.
type SubmitRequest struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// SubmitResponse is the reply to POST /scores.
type SubmitResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// HTTPStore implements Store against a remote service exposing
// POST /scores and GET /scores.
type HTTPStore struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPStore creates a client for the service at baseURL.
func NewHTTPStore(baseURL string) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: httpTimeout,
		},
	}
}

// Submit posts the entry. A reply without ok=true yields ErrDeclined.
func (s *HTTPStore) Submit(ctx context.Context, entry ScoreEntry) error {
	body, err := json.Marshal(SubmitRequest{Name: entry.Name, Score: entry.Score})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/scores", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("submit score: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("submit score: HTTP %d", resp.StatusCode)
	}

	var out SubmitResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&out); err != nil {
		return fmt.Errorf("decode submit response: %w", err)
	}
	if !out.OK {
		return ErrDeclined
	}
	return nil
}

// Top fetches the list and orders and trims it locally; the remote order is
// not trusted.
func (s *HTTPStore) Top(ctx context.Context, limit int) ([]ScoreEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/scores", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch scores: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch scores: HTTP %d", resp.StatusCode)
	}

	var entries []ScoreEntry
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}
	return TopN(entries, limit), nil
}

func (s *HTTPStore) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}
