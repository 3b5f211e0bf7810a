package alerting

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/good-yellow-bee/marketwatch/internal/models"
)

func TestStoreAdd(t *testing.T) {
	store := NewStore(nil)

	id, err := store.Add(models.AlertDefinition{
		ItemName:  "Tritanium",
		Type:      models.AlertTypeMarginThreshold,
		Condition: models.ConditionAbove,
		Threshold: 20,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if id == "" {
		t.Fatal("empty id")
	}

	def, ok := store.Get(id)
	if !ok {
		t.Fatal("definition not found after add")
	}
	if !def.Enabled {
		t.Error("new definition should be enabled")
	}
	if def.Priority != models.PriorityMedium {
		t.Errorf("priority = %q, want medium default", def.Priority)
	}
	if def.Origin != "user" {
		t.Errorf("origin = %q, want user", def.Origin)
	}
	if def.CreatedAt.IsZero() {
		t.Error("created-at not stamped")
	}
}

func TestStoreAddInvalid(t *testing.T) {
	store := NewStore(nil)

	if _, err := store.Add(models.AlertDefinition{}); err == nil {
		t.Fatal("expected validation error")
	}
	if len(store.Definitions()) != 0 {
		t.Error("invalid definition was stored")
	}
}

func TestStoreDefinitionsOrder(t *testing.T) {
	store := NewStore(nil)

	var ids []string
	for i := 0; i < 5; i++ {
		id, err := store.Add(models.AlertDefinition{
			ItemName: fmt.Sprintf("Item %d", i),
			Type:     models.AlertTypeBuyPriceBelow,
		})
		if err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
		ids = append(ids, id)
	}

	// Remove the middle one; order of the rest must hold.
	store.Remove(ids[2])

	defs := store.Definitions()
	if len(defs) != 4 {
		t.Fatalf("definitions = %d, want 4", len(defs))
	}
	want := []string{ids[0], ids[1], ids[3], ids[4]}
	for i, def := range defs {
		if def.ID != want[i] {
			t.Errorf("defs[%d].ID = %q, want %q", i, def.ID, want[i])
		}
	}
}

func TestStoreUpdate(t *testing.T) {
	store := NewStore(nil)

	id, _ := store.Add(models.AlertDefinition{
		ItemName:  "Tritanium",
		Type:      models.AlertTypeMarginThreshold,
		Condition: models.ConditionAbove,
		Threshold: 20,
	})

	threshold := 35.0
	priority := models.PriorityCritical
	store.Update(id, AlertPatch{Threshold: &threshold, Priority: &priority})

	def, _ := store.Get(id)
	if def.Threshold != 35 {
		t.Errorf("threshold = %v, want 35", def.Threshold)
	}
	if def.Priority != models.PriorityCritical {
		t.Errorf("priority = %q, want critical", def.Priority)
	}
	// Untouched fields survive.
	if def.ItemName != "Tritanium" {
		t.Errorf("item name = %q, want Tritanium", def.ItemName)
	}
}

func TestStoreAcknowledgeAll(t *testing.T) {
	store := NewStore(nil)
	now := time.Now()

	triggeredID, _ := store.Add(models.AlertDefinition{
		ItemName: "A", Type: models.AlertTypeBuyPriceBelow, Threshold: 1,
	})
	store.RecordTrigger(triggeredID, 0.5, models.TradeSnapshot{TypeName: "A"}, "msg", now)

	// Never triggered: not counted.
	store.Add(models.AlertDefinition{
		ItemName: "B", Type: models.AlertTypeBuyPriceBelow, Threshold: 1,
	})

	// Already acknowledged: not counted.
	ackedID, _ := store.Add(models.AlertDefinition{
		ItemName: "C", Type: models.AlertTypeBuyPriceBelow, Threshold: 1,
	})
	store.RecordTrigger(ackedID, 0.5, models.TradeSnapshot{TypeName: "C"}, "msg", now)
	store.Acknowledge(ackedID)

	if got := store.AcknowledgeAll(); got != 1 {
		t.Fatalf("acknowledged = %d, want 1", got)
	}
	def, _ := store.Get(triggeredID)
	if !def.Acknowledged {
		t.Error("triggered definition not acknowledged")
	}
}

func TestStoreHistoryCap(t *testing.T) {
	store := NewStore(nil)

	id, _ := store.Add(models.AlertDefinition{
		ItemName: "Tritanium", Type: models.AlertTypeBuyPriceBelow, Threshold: 10,
	})

	base := time.Now()
	for i := 0; i < HistoryLimit+20; i++ {
		store.RecordTrigger(id, float64(i), models.TradeSnapshot{TypeName: "Tritanium"}, "msg", base.Add(time.Duration(i)*time.Second))
	}

	history := store.History()
	if len(history) != HistoryLimit {
		t.Fatalf("history = %d, want %d", len(history), HistoryLimit)
	}
	// Newest first.
	if history[0].CurrentValue != float64(HistoryLimit+19) {
		t.Errorf("history[0].CurrentValue = %v, want %v", history[0].CurrentValue, float64(HistoryLimit+19))
	}
	if !history[0].TriggeredAt.After(history[1].TriggeredAt) {
		t.Error("history not newest-first")
	}
}

func TestStoreRecordTriggerMissing(t *testing.T) {
	store := NewStore(nil)
	if got := store.RecordTrigger("missing", 1, models.TradeSnapshot{}, "msg", time.Now()); got != nil {
		t.Fatalf("RecordTrigger for missing id = %+v, want nil", got)
	}
}

func TestStoreClearAll(t *testing.T) {
	store := NewStore(nil)
	store.Add(models.AlertDefinition{ItemName: "A", Type: models.AlertTypeBuyPriceBelow})
	store.Add(models.AlertDefinition{ItemName: "B", Type: models.AlertTypeBuyPriceBelow})

	store.ClearAll()
	if got := len(store.Definitions()); got != 0 {
		t.Fatalf("definitions after clear = %d, want 0", got)
	}
}

func TestStoreExportImportRoundTrip(t *testing.T) {
	store := NewStore(nil)

	store.Add(models.AlertDefinition{
		ItemName: "Tritanium", Type: models.AlertTypeMarginThreshold,
		Condition: models.ConditionAbove, Threshold: 20, Priority: models.PriorityHigh,
	})
	store.Add(models.AlertDefinition{
		ItemName: "PLEX", Type: models.AlertTypeSellPriceAbove, Threshold: 5_000_000, OneTime: true,
	})
	store.MergeSettings([]byte(`{"volume": 33}`))

	doc, err := store.ExportSnapshot()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(doc, &raw); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if string(raw["version"]) != fmt.Sprintf("%q", SnapshotVersion) {
		t.Errorf("version = %s, want %q", raw["version"], SnapshotVersion)
	}

	restored := NewStore(nil)
	if err := restored.ImportSnapshot(doc); err != nil {
		t.Fatalf("import: %v", err)
	}

	defs := restored.Definitions()
	if len(defs) != 2 {
		t.Fatalf("imported definitions = %d, want 2", len(defs))
	}
	if defs[0].ItemName != "Tritanium" || defs[1].ItemName != "PLEX" {
		t.Errorf("definition order lost: %q, %q", defs[0].ItemName, defs[1].ItemName)
	}
	if restored.Settings().Volume != 33 {
		t.Errorf("imported volume = %d, want 33", restored.Settings().Volume)
	}
}

func TestStoreImportMalformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", "not json"},
		{"empty object", "{}"},
		{"wrong version", `{"alerts": [], "version": "9.9.9"}`},
		{"invalid alert", `{"alerts": [{"type": "margin-threshold"}], "version": "1.0.0"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(nil)
			store.Add(models.AlertDefinition{ItemName: "Keep", Type: models.AlertTypeBuyPriceBelow})

			err := store.ImportSnapshot([]byte(tt.doc))
			if !errors.Is(err, ErrMalformedSnapshot) {
				t.Fatalf("error = %v, want ErrMalformedSnapshot", err)
			}
			// Existing state untouched.
			if got := len(store.Definitions()); got != 1 {
				t.Errorf("definitions = %d, want 1", got)
			}
		})
	}
}

func TestStoreImportSettingsOnly(t *testing.T) {
	store := NewStore(nil)
	store.Add(models.AlertDefinition{ItemName: "Keep", Type: models.AlertTypeBuyPriceBelow})

	err := store.ImportSnapshot([]byte(`{"settings": {"volume": 12}, "version": "1.0.0"}`))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if got := len(store.Definitions()); got != 1 {
		t.Errorf("definitions = %d, want 1 (settings-only import must not touch alerts)", got)
	}
	if store.Settings().Volume != 12 {
		t.Errorf("volume = %d, want 12", store.Settings().Volume)
	}
}

func TestStoreSyncSeeded(t *testing.T) {
	store := NewStore(nil)

	userID, _ := store.Add(models.AlertDefinition{
		ItemName: "User Alert", Type: models.AlertTypeBuyPriceBelow,
	})
	store.SyncSeeded([]models.AlertDefinition{
		{ItemName: "Seeded A", Type: models.AlertTypeMarginThreshold, Condition: models.ConditionAbove},
	})

	// Re-sync with a different set replaces only file-origin definitions.
	if err := store.SyncSeeded([]models.AlertDefinition{
		{ItemName: "Seeded B", Type: models.AlertTypeMarginThreshold, Condition: models.ConditionAbove},
	}); err != nil {
		t.Fatalf("sync: %v", err)
	}

	defs := store.Definitions()
	if len(defs) != 2 {
		t.Fatalf("definitions = %d, want 2", len(defs))
	}

	var names []string
	for _, d := range defs {
		names = append(names, d.ItemName)
	}
	joined := strings.Join(names, ",")
	if !strings.Contains(joined, "User Alert") || !strings.Contains(joined, "Seeded B") {
		t.Errorf("definitions = %v, want user alert and Seeded B", names)
	}
	if strings.Contains(joined, "Seeded A") {
		t.Errorf("stale seeded definition survived: %v", names)
	}

	if _, ok := store.Get(userID); !ok {
		t.Error("user-created definition removed by sync")
	}
}

func TestStoreAddFromPreset(t *testing.T) {
	store := NewStore(nil)

	id, err := store.AddFromPreset("margin-above-20", "Tritanium", 34)
	if err != nil {
		t.Fatalf("add from preset: %v", err)
	}

	def, _ := store.Get(id)
	if def.Type != models.AlertTypeMarginThreshold {
		t.Errorf("type = %q, want margin-threshold", def.Type)
	}
	if def.Threshold != 20 {
		t.Errorf("threshold = %v, want 20", def.Threshold)
	}
	if def.Origin != "preset" {
		t.Errorf("origin = %q, want preset", def.Origin)
	}
	if def.ItemName != "Tritanium" || def.ItemID != 34 {
		t.Errorf("item = %q/%d, want Tritanium/34", def.ItemName, def.ItemID)
	}

	if _, err := store.AddFromPreset("no-such-preset", "Tritanium", 0); err == nil {
		t.Fatal("expected error for unknown preset")
	}
}
