package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AnTengye/formrelay/model"
)

// WebhookTimeout bounds one webhook delivery.
const WebhookTimeout = 15 * time.Second

// WebhookEnvelope is the JSON body posted to a form's webhook.
type WebhookEnvelope struct {
	FormName    string                  `json:"form_name"`
	SubmittedAt string                  `json:"submitted_at"`
	Data        *model.SubmissionRecord `json:"data"`
}

// WebhookDispatcher posts submissions to webhooks without waiting for them.
type WebhookDispatcher struct {
	client  *http.Client
	tasks   *Detached
	timeout time.Duration
}

func NewWebhookDispatcher(tasks *Detached) *WebhookDispatcher {
	return &WebhookDispatcher{
		client:  &http.Client{Timeout: WebhookTimeout},
		tasks:   tasks,
		timeout: WebhookTimeout,
	}
}

// Fire schedules the delivery and returns immediately.
func (d *WebhookDispatcher) Fire(ctx context.Context, url string, envelope WebhookEnvelope) {
	d.tasks.Go(ctx, "webhook", d.timeout, func(ctx context.Context) error {
		return d.Post(ctx, url, envelope)
	})
}

// Post delivers the envelope synchronously.
func (d *WebhookDispatcher) Post(ctx context.Context, url string, envelope WebhookEnvelope) error {
	jsonData, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
