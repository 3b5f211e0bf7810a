package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/good-yellow-bee/marketwatch/internal/models"
)

type sqliteSettingsRepo struct {
	db *sql.DB
}

func (r *sqliteSettingsRepo) Save(ctx context.Context, settings *models.Settings) error {
	body, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	query := `
		INSERT INTO settings (id, body, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, string(body), time.Now()); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (r *sqliteSettingsRepo) Load(ctx context.Context) (*models.Settings, error) {
	var body string
	err := r.db.QueryRowContext(ctx, "SELECT body FROM settings WHERE id = 1").Scan(&body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	settings := &models.Settings{}
	if err := json.Unmarshal([]byte(body), settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	return settings, nil
}
