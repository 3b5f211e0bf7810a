package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/good-yellow-bee/marketwatch/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Open(); err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func testDefinition(id string, pos int64) *models.AlertDefinition {
	return &models.AlertDefinition{
		ID:        id,
		ItemName:  "Tritanium",
		ItemID:    34,
		Type:      models.AlertTypeMarginThreshold,
		Condition: models.ConditionAbove,
		Threshold: 20,
		Priority:  models.PriorityHigh,
		Enabled:   true,
		Origin:    "user",
		CreatedAt: time.Now().Truncate(time.Second),
		Position:  pos,
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStorage(t)
	if err := store.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestAlertUpsertAndList(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	repo := store.Alerts()

	baseline := 100.0
	def := testDefinition("a1", 0)
	def.BaselineVolume = &baseline
	def.BaselineSource = models.BaselineMeasured
	def.Cooldown = 10 * time.Minute

	if err := repo.Upsert(ctx, def); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	defs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("listed = %d, want 1", len(defs))
	}

	got := defs[0]
	if got.ID != "a1" || got.ItemName != "Tritanium" || got.ItemID != 34 {
		t.Errorf("identity = %q/%q/%d", got.ID, got.ItemName, got.ItemID)
	}
	if got.Type != models.AlertTypeMarginThreshold || got.Condition != models.ConditionAbove {
		t.Errorf("type/condition = %q/%q", got.Type, got.Condition)
	}
	if got.BaselineVolume == nil || *got.BaselineVolume != 100 {
		t.Errorf("baseline volume = %v, want 100", got.BaselineVolume)
	}
	if got.Cooldown != 10*time.Minute {
		t.Errorf("cooldown = %v, want 10m", got.Cooldown)
	}
	if !got.Enabled {
		t.Error("enabled flag lost")
	}

	// Upsert with the same id updates in place.
	def.Threshold = 35
	def.Acknowledged = true
	if err := repo.Upsert(ctx, def); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	defs, _ = repo.List(ctx)
	if len(defs) != 1 {
		t.Fatalf("listed after update = %d, want 1", len(defs))
	}
	if defs[0].Threshold != 35 || !defs[0].Acknowledged {
		t.Errorf("update not applied: threshold=%v acknowledged=%v", defs[0].Threshold, defs[0].Acknowledged)
	}
}

func TestAlertListOrder(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	repo := store.Alerts()

	// Insert out of position order.
	for _, p := range []int64{2, 0, 1} {
		def := testDefinition("a"+string(rune('0'+p)), p)
		if err := repo.Upsert(ctx, def); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	defs, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(defs) != 3 {
		t.Fatalf("listed = %d, want 3", len(defs))
	}
	for i, def := range defs {
		if def.Position != int64(i) {
			t.Errorf("defs[%d].Position = %d, want %d", i, def.Position, i)
		}
	}
}

func TestAlertDeleteAndReplaceAll(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	repo := store.Alerts()

	repo.Upsert(ctx, testDefinition("a1", 0))
	repo.Upsert(ctx, testDefinition("a2", 1))

	if err := repo.Delete(ctx, "a1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	defs, _ := repo.List(ctx)
	if len(defs) != 1 || defs[0].ID != "a2" {
		t.Fatalf("after delete: %+v", defs)
	}

	if err := repo.ReplaceAll(ctx, []*models.AlertDefinition{
		testDefinition("b1", 0),
		testDefinition("b2", 1),
	}); err != nil {
		t.Fatalf("replace all: %v", err)
	}
	defs, _ = repo.List(ctx)
	if len(defs) != 2 || defs[0].ID != "b1" || defs[1].ID != "b2" {
		t.Fatalf("after replace: %+v", defs)
	}

	if err := repo.DeleteAll(ctx); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	defs, _ = repo.List(ctx)
	if len(defs) != 0 {
		t.Fatalf("after delete all = %d, want 0", len(defs))
	}
}

func TestHistoryInsertListTrim(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	repo := store.History()

	base := time.Now().Truncate(time.Second)
	for i := 0; i < 5; i++ {
		entry := &models.TriggeredAlert{
			ID:           "h" + string(rune('0'+i)),
			AlertID:      "a1",
			ItemName:     "Tritanium",
			Type:         models.AlertTypeMarginThreshold,
			Priority:     models.PriorityMedium,
			CurrentValue: float64(i),
			Message:      "msg",
			Snapshot:     models.TradeSnapshot{TypeName: "Tritanium", MarginPct: float64(20 + i)},
			TriggeredAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Insert(ctx, entry); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	entries, total, err := repo.List(ctx, 3, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(entries) != 3 {
		t.Fatalf("page = %d, want 3", len(entries))
	}
	// Newest first.
	if entries[0].CurrentValue != 4 {
		t.Errorf("entries[0].CurrentValue = %v, want 4", entries[0].CurrentValue)
	}
	// Snapshot survives the JSON round trip.
	if entries[0].Snapshot.MarginPct != 24 {
		t.Errorf("snapshot margin = %v, want 24", entries[0].Snapshot.MarginPct)
	}

	if err := repo.TrimTo(ctx, 2); err != nil {
		t.Fatalf("trim: %v", err)
	}
	entries, total, _ = repo.List(ctx, 10, 0)
	if total != 2 || len(entries) != 2 {
		t.Fatalf("after trim: total=%d page=%d, want 2/2", total, len(entries))
	}
	// The most recent entries survive.
	if entries[0].CurrentValue != 4 || entries[1].CurrentValue != 3 {
		t.Errorf("survivors = %v/%v, want 4/3", entries[0].CurrentValue, entries[1].CurrentValue)
	}
}

func TestSettingsSaveLoad(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	repo := store.SettingsStore()

	// Nothing saved yet.
	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if got != nil {
		t.Fatalf("load empty = %+v, want nil", got)
	}

	s := models.DefaultSettings()
	s.Volume = 25
	s.HighPriorityOnly = true
	if err := repo.Save(ctx, &s); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err = repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil {
		t.Fatal("load = nil after save")
	}
	if got.Volume != 25 || !got.HighPriorityOnly {
		t.Errorf("loaded = %+v", got)
	}

	// Save again overwrites the single row.
	s.Volume = 90
	if err := repo.Save(ctx, &s); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, _ = repo.Load(ctx)
	if got.Volume != 90 {
		t.Errorf("volume = %d, want 90", got.Volume)
	}
}
