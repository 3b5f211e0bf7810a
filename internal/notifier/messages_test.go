package notifier

import (
	"strings"
	"testing"
	"time"

	"github.com/good-yellow-bee/marketwatch/internal/models"
)

func TestMessagesTitle(t *testing.T) {
	m, err := NewMessages()
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}

	trigger := &models.TriggeredAlert{
		ItemName:    "Tritanium",
		Type:        models.AlertTypePriceDrop,
		Priority:    models.PriorityCritical,
		Message:     "Tritanium: price dropped to 2.10 ISK",
		TriggeredAt: time.Now(),
	}

	title, err := m.Title(trigger)
	if err != nil {
		t.Fatalf("render title: %v", err)
	}
	if !strings.Contains(title, "Tritanium") {
		t.Errorf("title = %q, want item name", title)
	}
	if !strings.Contains(title, "Price Drop") {
		t.Errorf("title = %q, want type label", title)
	}
}

func TestMessagesBody(t *testing.T) {
	m, err := NewMessages()
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}

	trigger := &models.TriggeredAlert{
		ItemName: "PLEX",
		Type:     models.AlertTypeSellPriceAbove,
		Priority: models.PriorityHigh,
		Message:  "PLEX: sell-price-above above 5000000.00 (current 5500000.00)",
		Snapshot: models.TradeSnapshot{
			BuyPrice: 4_900_000, SellPrice: 5_500_000, MarginPct: 12.2,
		},
		TriggeredAt: time.Now(),
	}

	body, err := m.Body(trigger)
	if err != nil {
		t.Fatalf("render body: %v", err)
	}
	if !strings.Contains(body, "HIGH") {
		t.Errorf("body = %q, want uppercased priority", body)
	}
	if !strings.Contains(body, "5500000.00") {
		t.Errorf("body = %q, want sell price", body)
	}
}

func TestPriorityEmojiDistinct(t *testing.T) {
	seen := make(map[string]models.Priority)
	for _, p := range []models.Priority{
		models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityCritical,
	} {
		e := priorityEmoji(p)
		if prev, dup := seen[e]; dup {
			t.Errorf("emoji %q shared by %s and %s", e, prev, p)
		}
		seen[e] = p
	}
}
