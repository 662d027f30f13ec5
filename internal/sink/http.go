package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/consentlab/studyctl/internal/event"
)

const httpTimeout = 10 * time.Second

// HTTP posts records to a remote append-only log endpoint as JSON
// (PostgREST-style single-row insert). The remote contract is
// success/failure only; no response body is interpreted.
type HTTP struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewHTTP creates a sink posting to endpoint. token, when non-empty,
// is sent as both an apikey header and a bearer token.
func NewHTTP(endpoint, token string) *HTTP {
	return &HTTP{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: httpTimeout},
	}
}

// Emit delivers one record. Any transport or remote rejection is
// returned as an error for the Async wrapper to log.
func (h *HTTP) Emit(ctx context.Context, rec event.Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("apikey", h.token)
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post event: remote returned %s", resp.Status)
	}
	return nil
}
