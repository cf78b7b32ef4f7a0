package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Publisher POSTs full-collection snapshots to a running service.
type Publisher struct {
	client  *http.Client
	baseURL string
}

// NewPublisher creates a publisher targeting baseURL.
func NewPublisher(baseURL string, timeout time.Duration) *Publisher {
	return &Publisher{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Publish sends docs as the complete collection for the named feed
// (roster, midterm, or final).
func (p *Publisher) Publish(ctx context.Context, feed string, docs any) error {
	body, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	url := p.baseURL + "/snapshots/" + feed
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post snapshot: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("snapshot rejected: %s: %s", resp.Status, string(msg))
	}
	return nil
}
