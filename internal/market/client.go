// Package market fetches trade snapshots from a market data endpoint and
// feeds them to the alert evaluator on a fixed cadence.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/good-yellow-bee/marketwatch/internal/models"
)

// ClientConfig holds market data client configuration.
type ClientConfig struct {
	BaseURL        string        // Market data endpoint URL
	Timeout        time.Duration // Per-request timeout (default: 30s)
	RequestsPerSec float64       // Outbound rate limit (default: 2)
	Burst          int           // Rate limit burst (default: 2)
}

// Validate validates the client configuration.
func (c *ClientConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL is required")
	}
	return nil
}

// DefaultClientConfig returns default client settings for the given URL.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:        baseURL,
		Timeout:        30 * time.Second,
		RequestsPerSec: 2,
		Burst:          2,
	}
}

// Client fetches trade snapshots over HTTP. Responses may be a bare JSON
// array of rows or an envelope with a "data" array; row fields are
// normalized, so upstream column naming does not matter.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a market data client.
func NewClient(config ClientConfig) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid market client config: %w", err)
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RequestsPerSec <= 0 {
		config.RequestsPerSec = 2
	}
	if config.Burst <= 0 {
		config.Burst = 2
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSec), config.Burst),
	}, nil
}

// envelope is the optional wrapper some endpoints put around the row array.
type envelope struct {
	Data []map[string]any `json:"data"`
}

// Fetch retrieves the current trade snapshots. Rows that cannot be
// normalized are skipped; an empty result is not an error.
func (c *Client) Fetch(ctx context.Context) ([]models.TradeSnapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch market data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("market API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	rows, err := decodeRows(body)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	snapshots := make([]models.TradeSnapshot, 0, len(rows))
	for _, row := range rows {
		snap, err := models.NormalizeRow(row, now)
		if err != nil {
			continue
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// decodeRows accepts either a bare array of rows or a {"data": [...]}
// envelope.
func decodeRows(body []byte) ([]map[string]any, error) {
	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err == nil {
		return rows, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode market data: %w", err)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("market response has no data array")
	}
	return env.Data, nil
}
