package alerting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/good-yellow-bee/marketwatch/internal/models"
	"github.com/good-yellow-bee/marketwatch/internal/storage"
)

// HistoryLimit caps the triggered-alert history; the oldest entry is
// evicted when a new one would exceed it.
const HistoryLimit = 100

// SnapshotVersion is the export document version.
const SnapshotVersion = "1.0.0"

// ErrMalformedSnapshot is returned by ImportSnapshot for documents that
// carry neither alerts nor settings in the expected shape.
var ErrMalformedSnapshot = errors.New("malformed state snapshot")

// Store owns the alert definitions, triggered-alert history, and settings.
// In-memory state is authoritative for the session; every mutation is
// mirrored to persistent storage best effort, and a failed write is logged
// rather than surfaced.
type Store struct {
	mu       sync.Mutex
	defs     []*models.AlertDefinition
	history  []*models.TriggeredAlert
	settings models.Settings
	nextPos  int64

	persist storage.Storage
	sched   *AckScheduler
}

// NewStore creates a store backed by persist. persist may be nil, in which
// case state lives in memory only (used by tests).
func NewStore(persist storage.Storage) *Store {
	return &Store{
		settings: models.DefaultSettings(),
		persist:  persist,
		sched:    NewAckScheduler(),
	}
}

// Load reads alerts, history, and settings from persistent storage.
func (s *Store) Load(ctx context.Context) error {
	if s.persist == nil {
		return nil
	}

	defs, err := s.persist.Alerts().List(ctx)
	if err != nil {
		return fmt.Errorf("load alerts: %w", err)
	}
	history, _, err := s.persist.History().List(ctx, HistoryLimit, 0)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	settings, err := s.persist.SettingsStore().Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.defs = defs
	s.history = history
	for _, d := range defs {
		if d.Position >= s.nextPos {
			s.nextPos = d.Position + 1
		}
	}
	if settings != nil {
		s.settings = *settings
	}
	return nil
}

// Close cancels pending scheduled tasks.
func (s *Store) Close() {
	s.sched.CancelAll()
}

// Add assigns an id and default lifecycle flags, appends the definition,
// persists it, and returns the id.
func (s *Store) Add(def models.AlertDefinition) (string, error) {
	if err := def.Validate(); err != nil {
		return "", err
	}

	def.ID = uuid.New().String()
	def.Enabled = true
	def.Triggered = false
	def.Acknowledged = false
	def.TriggeredAt = nil
	if def.Priority == "" {
		def.Priority = models.PriorityMedium
	}
	if def.CreatedAt.IsZero() {
		def.CreatedAt = time.Now()
	}
	if def.Origin == "" {
		def.Origin = "user"
	}
	if def.BaselinePrice != nil || def.BaselineVolume != nil || def.BaselineMargin != nil {
		if def.BaselineSource == "" {
			def.BaselineSource = models.BaselineMeasured
		}
	}

	s.mu.Lock()
	def.Position = s.nextPos
	s.nextPos++
	stored := def.Clone()
	s.defs = append(s.defs, stored)
	s.mu.Unlock()

	s.persistUpsert(stored)
	return def.ID, nil
}

// AddFromPreset creates a definition from the static preset table.
func (s *Store) AddFromPreset(presetID, itemName string, itemID int64) (string, error) {
	preset, ok := FindPreset(presetID)
	if !ok {
		return "", fmt.Errorf("unknown preset %q", presetID)
	}
	def := models.AlertDefinition{
		ItemName:  itemName,
		ItemID:    itemID,
		Type:      preset.Type,
		Condition: preset.Condition,
		Threshold: preset.Threshold,
		Priority:  preset.Priority,
		OneTime:   preset.OneTime,
		Origin:    "preset",
	}
	return s.Add(def)
}

// Remove deletes a definition. Absent ids are a no-op. Any pending
// auto-acknowledge task for the alert is cancelled.
func (s *Store) Remove(id string) {
	s.sched.Cancel(id)

	s.mu.Lock()
	removed := false
	for i, d := range s.defs {
		if d.ID == id {
			s.defs = append(s.defs[:i], s.defs[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()

	if removed {
		s.persistDelete(id)
	}
}

// AlertPatch carries partial-update fields for Update. Nil fields are left
// untouched.
type AlertPatch struct {
	ItemName   *string
	ItemID     *int64
	Condition  *models.Condition
	Threshold  *float64
	Expression *string
	Priority   *models.Priority
	OneTime    *bool
	Enabled    *bool
	Cooldown   *time.Duration
}

// Update merges the patch into the matching definition. Absent ids are a
// no-op.
func (s *Store) Update(id string, patch AlertPatch) {
	s.mu.Lock()
	def := s.findLocked(id)
	if def == nil {
		s.mu.Unlock()
		return
	}
	if patch.ItemName != nil {
		def.ItemName = *patch.ItemName
	}
	if patch.ItemID != nil {
		def.ItemID = *patch.ItemID
	}
	if patch.Condition != nil {
		def.Condition = *patch.Condition
	}
	if patch.Threshold != nil {
		def.Threshold = *patch.Threshold
	}
	if patch.Expression != nil {
		def.Expression = *patch.Expression
	}
	if patch.Priority != nil {
		def.Priority = *patch.Priority
	}
	if patch.OneTime != nil {
		def.OneTime = *patch.OneTime
	}
	if patch.Enabled != nil {
		def.Enabled = *patch.Enabled
	}
	if patch.Cooldown != nil {
		def.Cooldown = *patch.Cooldown
	}
	updated := def.Clone()
	s.mu.Unlock()

	s.persistUpsert(updated)
}

// Reset clears the triggered/acknowledged flags and trigger timestamp,
// re-arming a one-time alert. Pending auto-acknowledge tasks are cancelled.
func (s *Store) Reset(id string) {
	s.sched.Cancel(id)

	s.mu.Lock()
	def := s.findLocked(id)
	if def == nil {
		s.mu.Unlock()
		return
	}
	def.Triggered = false
	def.Acknowledged = false
	def.TriggeredAt = nil
	updated := def.Clone()
	s.mu.Unlock()

	s.persistUpsert(updated)
}

// Acknowledge marks a definition acknowledged.
func (s *Store) Acknowledge(id string) {
	s.mu.Lock()
	def := s.findLocked(id)
	if def == nil {
		s.mu.Unlock()
		return
	}
	def.Acknowledged = true
	updated := def.Clone()
	s.mu.Unlock()

	s.persistUpsert(updated)
}

// AcknowledgeAll acknowledges every definition that has triggered and
// returns how many were updated.
func (s *Store) AcknowledgeAll() int {
	s.mu.Lock()
	var updated []*models.AlertDefinition
	for _, def := range s.defs {
		if def.TriggeredAt != nil && !def.Acknowledged {
			def.Acknowledged = true
			updated = append(updated, def.Clone())
		}
	}
	s.mu.Unlock()

	for _, def := range updated {
		s.persistUpsert(def)
	}
	return len(updated)
}

// ClearAll empties the definition collection.
func (s *Store) ClearAll() {
	s.sched.CancelAll()

	s.mu.Lock()
	s.defs = nil
	s.mu.Unlock()

	if s.persist != nil {
		if err := s.persist.Alerts().DeleteAll(context.Background()); err != nil {
			log.Printf("clear alerts: persist failed: %v", err)
		}
	}
}

// Get returns a copy of the definition with the given id.
func (s *Store) Get(id string) (models.AlertDefinition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if def := s.findLocked(id); def != nil {
		return *def.Clone(), true
	}
	return models.AlertDefinition{}, false
}

// Definitions returns copies of all definitions in insertion order.
func (s *Store) Definitions() []models.AlertDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AlertDefinition, len(s.defs))
	for i, d := range s.defs {
		out[i] = *d.Clone()
	}
	return out
}

// History returns copies of the triggered-alert history, newest first.
func (s *Store) History() []models.TriggeredAlert {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.TriggeredAlert, len(s.history))
	for i, h := range s.history {
		out[i] = *h
	}
	return out
}

// Settings returns the current settings.
func (s *Store) Settings() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// MergeSettings applies a JSON patch onto the settings and persists the
// result.
func (s *Store) MergeSettings(patch []byte) error {
	s.mu.Lock()
	if err := s.settings.Merge(patch); err != nil {
		s.mu.Unlock()
		return err
	}
	merged := s.settings
	s.mu.Unlock()

	s.persistSettings(merged)
	return nil
}

// RecordTrigger stamps the definition, builds a history entry, prepends it
// (evicting beyond HistoryLimit), persists both, and returns the entry.
// Returns nil when the definition no longer exists.
func (s *Store) RecordTrigger(id string, value float64, snap models.TradeSnapshot, message string, now time.Time) *models.TriggeredAlert {
	s.mu.Lock()
	def := s.findLocked(id)
	if def == nil {
		s.mu.Unlock()
		return nil
	}

	t := now
	def.TriggeredAt = &t
	if def.OneTime {
		def.Triggered = true
	}

	entry := &models.TriggeredAlert{
		ID:           uuid.New().String(),
		AlertID:      def.ID,
		ItemName:     def.ItemName,
		ItemID:       def.ItemID,
		Type:         def.Type,
		Condition:    def.Condition,
		Threshold:    def.Threshold,
		Priority:     def.Priority,
		CurrentValue: value,
		Message:      message,
		Snapshot:     snap,
		TriggeredAt:  now,
	}
	s.history = append([]*models.TriggeredAlert{entry}, s.history...)
	if len(s.history) > HistoryLimit {
		s.history = s.history[:HistoryLimit]
	}
	updated := def.Clone()
	s.mu.Unlock()

	s.persistUpsert(updated)
	s.persistHistory(entry)

	out := *entry
	return &out
}

// SetEstimatedBaseline captures the current metric as the baseline for a
// relative-type definition and flags it as estimated.
func (s *Store) SetEstimatedBaseline(id string, alertType models.AlertType, value float64) {
	s.mu.Lock()
	def := s.findLocked(id)
	if def == nil {
		s.mu.Unlock()
		return
	}
	v := value
	switch alertType {
	case models.AlertTypeVolumeSpike:
		def.BaselineVolume = &v
	case models.AlertTypePriceDrop, models.AlertTypePriceRise:
		def.BaselinePrice = &v
	case models.AlertTypeCompetitionUndercut:
		def.BaselineMargin = &v
	default:
		s.mu.Unlock()
		return
	}
	def.BaselineSource = models.BaselineEstimated
	updated := def.Clone()
	s.mu.Unlock()

	s.persistUpsert(updated)
}

// ScheduleAutoAcknowledge arms a cancellable timer that acknowledges the
// alert after delay. The callback revalidates at fire time: a definition
// that was removed or reset in the interim is left alone.
func (s *Store) ScheduleAutoAcknowledge(id string, delay time.Duration) {
	if delay <= 0 {
		delay = 5 * time.Second
	}
	s.sched.Schedule(id, delay, func() {
		s.mu.Lock()
		def := s.findLocked(id)
		if def == nil || def.TriggeredAt == nil || def.Acknowledged {
			s.mu.Unlock()
			return
		}
		def.Acknowledged = true
		updated := def.Clone()
		s.mu.Unlock()

		s.persistUpsert(updated)
	})
}

// SyncSeeded replaces every file-seeded definition with the given set,
// leaving user- and preset-created definitions untouched.
func (s *Store) SyncSeeded(defs []models.AlertDefinition) error {
	for i := range defs {
		if err := defs[i].Validate(); err != nil {
			return fmt.Errorf("seeded alert %d: %w", i, err)
		}
	}

	s.mu.Lock()
	var kept []*models.AlertDefinition
	var removed []string
	for _, d := range s.defs {
		if d.Origin == "file" {
			removed = append(removed, d.ID)
		} else {
			kept = append(kept, d)
		}
	}
	s.defs = kept
	s.mu.Unlock()

	for _, id := range removed {
		s.sched.Cancel(id)
		s.persistDelete(id)
	}
	for i := range defs {
		defs[i].Origin = "file"
		if _, err := s.Add(defs[i]); err != nil {
			return err
		}
	}
	return nil
}

// snapshotDocument is the versioned export/import format.
type snapshotDocument struct {
	Alerts     []models.AlertDefinition `json:"alerts"`
	Settings   *models.Settings         `json:"settings,omitempty"`
	ExportedAt time.Time                `json:"exported_at"`
	Version    string                   `json:"version"`
}

// ExportSnapshot serializes the full alert and settings state.
func (s *Store) ExportSnapshot() ([]byte, error) {
	s.mu.Lock()
	doc := snapshotDocument{
		Alerts:     make([]models.AlertDefinition, len(s.defs)),
		ExportedAt: time.Now().UTC(),
		Version:    SnapshotVersion,
	}
	for i, d := range s.defs {
		doc.Alerts[i] = *d.Clone()
	}
	settings := s.settings
	doc.Settings = &settings
	s.mu.Unlock()

	return json.MarshalIndent(doc, "", "  ")
}

// ImportSnapshot replaces alert and settings state wholesale from an
// exported document. A document carrying only settings applies the
// settings and leaves alerts untouched; anything else fails without
// partial effect.
func (s *Store) ImportSnapshot(data []byte) error {
	var doc snapshotDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	if doc.Version != "" && doc.Version != SnapshotVersion {
		return fmt.Errorf("%w: unsupported version %q", ErrMalformedSnapshot, doc.Version)
	}
	if doc.Alerts == nil && doc.Settings == nil {
		return ErrMalformedSnapshot
	}

	if doc.Alerts == nil {
		// Settings-only document: partial apply.
		s.mu.Lock()
		s.settings = *doc.Settings
		settings := s.settings
		s.mu.Unlock()
		s.persistSettings(settings)
		return nil
	}

	for i := range doc.Alerts {
		if err := doc.Alerts[i].Validate(); err != nil {
			return fmt.Errorf("%w: alert %d: %v", ErrMalformedSnapshot, i, err)
		}
		if doc.Alerts[i].ID == "" {
			doc.Alerts[i].ID = uuid.New().String()
		}
	}

	s.sched.CancelAll()

	s.mu.Lock()
	s.defs = make([]*models.AlertDefinition, len(doc.Alerts))
	for i := range doc.Alerts {
		doc.Alerts[i].Position = int64(i)
		s.defs[i] = doc.Alerts[i].Clone()
	}
	s.nextPos = int64(len(doc.Alerts))
	if doc.Settings != nil {
		s.settings = *doc.Settings
	}
	settings := s.settings
	replaced := make([]*models.AlertDefinition, len(s.defs))
	for i, d := range s.defs {
		replaced[i] = d.Clone()
	}
	s.mu.Unlock()

	if s.persist != nil {
		if err := s.persist.Alerts().ReplaceAll(context.Background(), replaced); err != nil {
			log.Printf("import: persist alerts failed: %v", err)
		}
	}
	if doc.Settings != nil {
		s.persistSettings(settings)
	}
	return nil
}

// findLocked returns the definition pointer for id. Callers hold s.mu.
func (s *Store) findLocked(id string) *models.AlertDefinition {
	for _, d := range s.defs {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// Best-effort persistence. The in-memory state stays authoritative; storage
// errors are logged and the session continues.

func (s *Store) persistUpsert(def *models.AlertDefinition) {
	if s.persist == nil {
		return
	}
	if err := s.persist.Alerts().Upsert(context.Background(), def); err != nil {
		log.Printf("persist alert %s: %v", def.ID, err)
	}
}

func (s *Store) persistDelete(id string) {
	if s.persist == nil {
		return
	}
	if err := s.persist.Alerts().Delete(context.Background(), id); err != nil {
		log.Printf("delete alert %s: %v", id, err)
	}
}

func (s *Store) persistHistory(entry *models.TriggeredAlert) {
	if s.persist == nil {
		return
	}
	ctx := context.Background()
	if err := s.persist.History().Insert(ctx, entry); err != nil {
		log.Printf("persist history %s: %v", entry.ID, err)
		return
	}
	if err := s.persist.History().TrimTo(ctx, HistoryLimit); err != nil {
		log.Printf("trim history: %v", err)
	}
}

func (s *Store) persistSettings(settings models.Settings) {
	if s.persist == nil {
		return
	}
	if err := s.persist.SettingsStore().Save(context.Background(), &settings); err != nil {
		log.Printf("persist settings: %v", err)
	}
}
