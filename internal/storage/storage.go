// Package storage provides persistent storage for alert state.
package storage

import (
	"context"

	"github.com/good-yellow-bee/marketwatch/internal/models"
)

// Storage is the main interface for database operations. It mirrors the
// three logical state keys: alerts, triggered history, and settings.
type Storage interface {
	// Open initializes the database connection.
	Open() error
	// Close closes the database connection.
	Close() error
	// Migrate runs database migrations.
	Migrate() error

	Alerts() AlertRepository
	History() HistoryRepository
	SettingsStore() SettingsRepository
}

// AlertRepository persists alert definitions.
type AlertRepository interface {
	Upsert(ctx context.Context, def *models.AlertDefinition) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	// List returns all definitions in insertion order.
	List(ctx context.Context) ([]*models.AlertDefinition, error)
	// ReplaceAll swaps the whole collection (used by state import).
	ReplaceAll(ctx context.Context, defs []*models.AlertDefinition) error
}

// HistoryRepository persists triggered-alert history.
type HistoryRepository interface {
	Insert(ctx context.Context, entry *models.TriggeredAlert) error
	// List returns entries newest first.
	List(ctx context.Context, limit, offset int) ([]*models.TriggeredAlert, int64, error)
	// TrimTo deletes all but the n most recent entries.
	TrimTo(ctx context.Context, n int) error
	DeleteAll(ctx context.Context) error
}

// SettingsRepository persists the settings record.
type SettingsRepository interface {
	Save(ctx context.Context, settings *models.Settings) error
	// Load returns nil when no settings have been saved yet.
	Load(ctx context.Context) (*models.Settings, error)
}
