package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/good-yellow-bee/marketwatch/internal/models"
)

type sqliteHistoryRepo struct {
	db *sql.DB
}

func (r *sqliteHistoryRepo) Insert(ctx context.Context, entry *models.TriggeredAlert) error {
	snapJSON, err := json.Marshal(entry.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	query := `
		INSERT INTO alert_history (id, alert_id, item_name, item_id, type, condition,
			threshold, priority, current_value, message, snapshot_json, triggered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		entry.ID, entry.AlertID, entry.ItemName, entry.ItemID, entry.Type, entry.Condition,
		entry.Threshold, entry.Priority, entry.CurrentValue, entry.Message,
		string(snapJSON), entry.TriggeredAt,
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func (r *sqliteHistoryRepo) List(ctx context.Context, limit, offset int) ([]*models.TriggeredAlert, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM alert_history").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	query := `
		SELECT id, alert_id, item_name, item_id, type, condition, threshold,
			priority, current_value, message, snapshot_json, triggered_at
		FROM alert_history ORDER BY triggered_at DESC, id LIMIT ? OFFSET ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []*models.TriggeredAlert
	for rows.Next() {
		entry := &models.TriggeredAlert{}
		var snapJSON string
		err := rows.Scan(&entry.ID, &entry.AlertID, &entry.ItemName, &entry.ItemID,
			&entry.Type, &entry.Condition, &entry.Threshold, &entry.Priority,
			&entry.CurrentValue, &entry.Message, &snapJSON, &entry.TriggeredAt)
		if err != nil {
			return nil, 0, fmt.Errorf("scan history: %w", err)
		}
		if err := json.Unmarshal([]byte(snapJSON), &entry.Snapshot); err != nil {
			return nil, 0, fmt.Errorf("unmarshal snapshot: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, total, rows.Err()
}

func (r *sqliteHistoryRepo) TrimTo(ctx context.Context, n int) error {
	query := `
		DELETE FROM alert_history WHERE id NOT IN (
			SELECT id FROM alert_history ORDER BY triggered_at DESC, id LIMIT ?
		)
	`
	if _, err := r.db.ExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("trim history: %w", err)
	}
	return nil
}

func (r *sqliteHistoryRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM alert_history"); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}
