package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single notification request.
const DefaultTimeout = 10 * time.Second

// WebhookNotifier sends notifications to a generic HTTP webhook.
type WebhookNotifier struct {
	URL     string
	Headers map[string]string
	Client  *http.Client
}

// NewWebhookNotifier creates a webhook notifier.
func NewWebhookNotifier(url string, headers map[string]string) *WebhookNotifier {
	return &WebhookNotifier{
		URL:     url,
		Headers: headers,
		Client:  &http.Client{Timeout: DefaultTimeout},
	}
}

// Notify implements Notifier. The event is posted as JSON.
func (n *WebhookNotifier) Notify(ctx context.Context, event Event) error {
	if err := postJSON(ctx, n.Client, n.URL, n.Headers, event); err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	return nil
}

func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("returned %d", resp.StatusCode)
	}
	return nil
}
