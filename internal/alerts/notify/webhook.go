package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Message is one rendered alert notification.
type Message struct {
	AlertID  string    `json:"alert_id"`
	Event    string    `json:"event"`
	Area     string    `json:"area"`
	Severity string    `json:"severity"`
	RaisedAt time.Time `json:"raised_at"`
	Text     string    `json:"text"`
}

// Channel delivers rendered alert messages.
type Channel interface {
	Send(ctx context.Context, msg Message) error
}

// WebhookChannel posts alert messages as JSON to a health-department endpoint.
type WebhookChannel struct {
	url    string
	client *http.Client
}

// WebhookOption configures the webhook channel.
type WebhookOption func(*WebhookChannel)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(ch *WebhookChannel) {
		if client != nil {
			ch.client = client
		}
	}
}

// NewWebhookChannel constructs a webhook channel.
func NewWebhookChannel(url string, opts ...WebhookOption) (*WebhookChannel, error) {
	if url == "" {
		return nil, errors.New("alert webhook: empty url")
	}
	channel := &WebhookChannel{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(channel)
	}
	return channel, nil
}

// Send posts msg. Receivers can route on the X-Alert-Severity header without
// decoding the body.
func (w *WebhookChannel) Send(ctx context.Context, msg Message) error {
	if w == nil || w.url == "" {
		return errors.New("alert webhook: empty url")
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Alert-Severity", msg.Severity)
	if msg.AlertID != "" {
		req.Header.Set("Idempotency-Key", msg.AlertID)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("alert webhook: %s answered %d for alert %s", msg.Area, resp.StatusCode, msg.AlertID)
	}
	return nil
}
