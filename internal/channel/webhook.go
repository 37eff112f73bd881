package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// WebhookAdapter posts payloads to an HTTP endpoint. Non-2xx responses are
// delivery failures.
type WebhookAdapter struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// NewWebhookAdapter constructs the adapter.
func NewWebhookAdapter(endpoint string, timeout time.Duration, logger *zap.Logger) *WebhookAdapter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookAdapter{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

var _ Adapter = (*WebhookAdapter)(nil)

type webhookBody struct {
	Recipient string `json:"recipient"`
	TicketKey string `json:"ticket_key"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// Send posts the payload as JSON.
func (a *WebhookAdapter) Send(ctx context.Context, payload Payload) error {
	if a.endpoint == "" {
		return fmt.Errorf("webhook endpoint not configured")
	}
	raw, err := json.Marshal(webhookBody{
		Recipient: payload.Recipient,
		TicketKey: payload.TicketKey,
		Subject:   payload.Subject,
		Body:      payload.Body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook delivery failed with status %d", resp.StatusCode)
	}
	a.logger.Debug("webhook delivered",
		zap.String("recipient", payload.Recipient),
		zap.Int("status", resp.StatusCode))
	return nil
}
