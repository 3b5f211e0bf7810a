package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/good-yellow-bee/marketwatch/internal/models"
)

func TestWebhookConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  WebhookConfig
		wantErr bool
	}{
		{"empty URL", WebhookConfig{}, true},
		{"bad scheme", WebhookConfig{URL: "ftp://example.com"}, true},
		{"https", WebhookConfig{URL: "https://hooks.example.com/x"}, false},
		{"http", WebhookConfig{URL: "http://localhost:9000/x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWebhookSend(t *testing.T) {
	var received []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s, want application/json", ct)
		}
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n, err := NewWebhookNotifier(WebhookConfig{URL: server.URL})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	trigger := &models.TriggeredAlert{
		ItemName: "Tritanium",
		Type:     models.AlertTypeMarginThreshold,
		Priority: models.PriorityHigh,
		Message:  "Tritanium: margin-threshold above 20.00 (current 25.00)",
		Snapshot: models.TradeSnapshot{
			BuyPrice: 5.2, SellPrice: 6.1, MarginPct: 17.3, Volume: 12000,
		},
		TriggeredAt: time.Now(),
	}

	if err := n.Send(context.Background(), trigger); err != nil {
		t.Fatalf("send: %v", err)
	}

	var payload webhookMessage
	if err := json.Unmarshal(received, &payload); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if len(payload.Blocks) == 0 {
		t.Fatal("payload has no blocks")
	}
	if payload.Blocks[0].Type != "header" {
		t.Errorf("first block = %q, want header", payload.Blocks[0].Type)
	}
	if !strings.Contains(payload.Blocks[0].Text.Text, "Tritanium") {
		t.Errorf("header = %q, want item name", payload.Blocks[0].Text.Text)
	}
}

func TestWebhookSendServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	n, err := NewWebhookNotifier(WebhookConfig{URL: server.URL})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	trigger := &models.TriggeredAlert{
		ItemName:    "Tritanium",
		Priority:    models.PriorityLow,
		TriggeredAt: time.Now(),
	}
	if err := n.Send(context.Background(), trigger); err == nil {
		t.Fatal("expected error on 500")
	}
}
