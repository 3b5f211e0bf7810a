package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/good-yellow-bee/marketwatch/internal/models"
)

// WebhookConfig holds webhook notifier configuration.
type WebhookConfig struct {
	URL string // Slack-compatible incoming webhook URL
}

// Validate validates the webhook configuration.
func (c *WebhookConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("webhook URL is required")
	}
	if !strings.HasPrefix(c.URL, "https://") && !strings.HasPrefix(c.URL, "http://") {
		return fmt.Errorf("webhook URL must be HTTP(S)")
	}
	return nil
}

// WebhookNotifier posts triggered alerts to a Slack-compatible webhook.
type WebhookNotifier struct {
	config     WebhookConfig
	httpClient *http.Client
}

// NewWebhookNotifier creates a new webhook notifier.
func NewWebhookNotifier(config WebhookConfig) (*WebhookNotifier, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid webhook config: %w", err)
	}

	return &WebhookNotifier{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Name returns "webhook".
func (w *WebhookNotifier) Name() string {
	return "webhook"
}

// Send posts the triggered alert to the webhook.
func (w *WebhookNotifier) Send(ctx context.Context, trigger *models.TriggeredAlert) error {
	payload := w.buildPayload(trigger)

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.URL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return nil
}

// Close is a no-op for webhook notifier.
func (w *WebhookNotifier) Close() error {
	return nil
}

// webhookMessage represents the Slack Block Kit payload.
type webhookMessage struct {
	Blocks []webhookBlock `json:"blocks"`
}

// webhookBlock represents a Slack Block Kit block.
type webhookBlock struct {
	Type     string        `json:"type"`
	Text     *webhookText  `json:"text,omitempty"`
	Fields   []webhookText `json:"fields,omitempty"`
	Elements []webhookText `json:"elements,omitempty"`
}

// webhookText represents text in Slack Block Kit.
type webhookText struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// buildPayload builds the Block Kit message payload.
func (w *WebhookNotifier) buildPayload(trigger *models.TriggeredAlert) webhookMessage {
	emoji := priorityEmoji(trigger.Priority)
	timestamp := trigger.TriggeredAt.Format("2006-01-02 15:04:05 MST")

	blocks := []webhookBlock{
		// Header
		{
			Type: "header",
			Text: &webhookText{
				Type:  "plain_text",
				Text:  fmt.Sprintf("%s %s: %s", emoji, typeLabel(trigger.Type), trigger.ItemName),
				Emoji: true,
			},
		},
		// Priority and Time fields
		{
			Type: "section",
			Fields: []webhookText{
				{
					Type: "mrkdwn",
					Text: fmt.Sprintf("*Priority:*\n%s %s", emoji, strings.ToUpper(string(trigger.Priority))),
				},
				{
					Type: "mrkdwn",
					Text: fmt.Sprintf("*Time:*\n%s", timestamp),
				},
			},
		},
		// Message
		{
			Type: "section",
			Text: &webhookText{
				Type: "mrkdwn",
				Text: fmt.Sprintf("*Message:*\n%s", trigger.Message),
			},
		},
		// Market snapshot
		{
			Type: "section",
			Fields: []webhookText{
				{
					Type: "mrkdwn",
					Text: fmt.Sprintf("*Buy / Sell:*\n%.2f / %.2f", trigger.Snapshot.BuyPrice, trigger.Snapshot.SellPrice),
				},
				{
					Type: "mrkdwn",
					Text: fmt.Sprintf("*Margin:*\n%.1f%%", trigger.Snapshot.MarginPct),
				},
			},
		},
	}

	if trigger.Snapshot.Volume > 0 {
		blocks = append(blocks, webhookBlock{
			Type: "context",
			Elements: []webhookText{
				{
					Type: "mrkdwn",
					Text: fmt.Sprintf("Volume: %.0f", trigger.Snapshot.Volume),
				},
			},
		})
	}

	return webhookMessage{Blocks: blocks}
}
