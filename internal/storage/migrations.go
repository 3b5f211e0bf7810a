package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Migration represents a database migration.
type Migration struct {
	Version int
	Name    string
	Up      string
}

// migrations holds all database migrations in order.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_schema",
		Up: `
			-- Alert definitions
			CREATE TABLE IF NOT EXISTS alerts (
				id TEXT PRIMARY KEY,
				item_name TEXT NOT NULL,
				item_id INTEGER NOT NULL DEFAULT 0,
				type TEXT NOT NULL,
				condition TEXT NOT NULL DEFAULT '',
				threshold REAL NOT NULL DEFAULT 0,
				expression TEXT NOT NULL DEFAULT '',
				baseline_price REAL,
				baseline_volume REAL,
				baseline_margin REAL,
				baseline_source TEXT NOT NULL DEFAULT '',
				priority TEXT NOT NULL,
				one_time INTEGER NOT NULL DEFAULT 0,
				cooldown_ns INTEGER NOT NULL DEFAULT 0,
				enabled INTEGER NOT NULL DEFAULT 1,
				triggered INTEGER NOT NULL DEFAULT 0,
				acknowledged INTEGER NOT NULL DEFAULT 0,
				origin TEXT NOT NULL DEFAULT 'user',
				position INTEGER NOT NULL,
				created_at DATETIME NOT NULL,
				triggered_at DATETIME
			);

			-- Triggered-alert history
			CREATE TABLE IF NOT EXISTS alert_history (
				id TEXT PRIMARY KEY,
				alert_id TEXT NOT NULL,
				item_name TEXT NOT NULL,
				item_id INTEGER NOT NULL DEFAULT 0,
				type TEXT NOT NULL,
				condition TEXT NOT NULL DEFAULT '',
				threshold REAL NOT NULL DEFAULT 0,
				priority TEXT NOT NULL,
				current_value REAL NOT NULL,
				message TEXT NOT NULL,
				snapshot_json TEXT NOT NULL,
				triggered_at DATETIME NOT NULL
			);

			-- Settings (single row)
			CREATE TABLE IF NOT EXISTS settings (
				id INTEGER PRIMARY KEY CHECK (id = 1),
				body TEXT NOT NULL,
				updated_at DATETIME NOT NULL
			);

			-- Indexes
			CREATE INDEX IF NOT EXISTS idx_alerts_position ON alerts(position);
			CREATE INDEX IF NOT EXISTS idx_alerts_enabled ON alerts(enabled);
			CREATE INDEX IF NOT EXISTS idx_history_triggered_at ON alert_history(triggered_at);
			CREATE INDEX IF NOT EXISTS idx_history_alert ON alert_history(alert_id);
		`,
	},
}

// runMigrations applies all pending migrations.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= currentVersion {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction for migration %d: %w", m.Version, err)
		}

		if _, err = tx.Exec(m.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %d (%s): %w", m.Version, m.Name, err)
		}

		_, err = tx.Exec(
			"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Name, time.Now(),
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}
