package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/good-yellow-bee/marketwatch/internal/models"
)

type sqliteAlertRepo struct {
	db *sql.DB
}

const alertColumns = `id, item_name, item_id, type, condition, threshold, expression,
	baseline_price, baseline_volume, baseline_margin, baseline_source,
	priority, one_time, cooldown_ns, enabled, triggered, acknowledged,
	origin, position, created_at, triggered_at`

func (r *sqliteAlertRepo) Upsert(ctx context.Context, def *models.AlertDefinition) error {
	query := `
		INSERT INTO alerts (` + alertColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			item_name = excluded.item_name,
			item_id = excluded.item_id,
			type = excluded.type,
			condition = excluded.condition,
			threshold = excluded.threshold,
			expression = excluded.expression,
			baseline_price = excluded.baseline_price,
			baseline_volume = excluded.baseline_volume,
			baseline_margin = excluded.baseline_margin,
			baseline_source = excluded.baseline_source,
			priority = excluded.priority,
			one_time = excluded.one_time,
			cooldown_ns = excluded.cooldown_ns,
			enabled = excluded.enabled,
			triggered = excluded.triggered,
			acknowledged = excluded.acknowledged,
			origin = excluded.origin,
			position = excluded.position,
			triggered_at = excluded.triggered_at
	`
	_, err := r.db.ExecContext(ctx, query,
		def.ID, def.ItemName, def.ItemID, def.Type, def.Condition, def.Threshold, def.Expression,
		nullFloat(def.BaselinePrice), nullFloat(def.BaselineVolume), nullFloat(def.BaselineMargin),
		def.BaselineSource,
		def.Priority, boolToInt(def.OneTime), def.Cooldown.Nanoseconds(),
		boolToInt(def.Enabled), boolToInt(def.Triggered), boolToInt(def.Acknowledged),
		def.Origin, def.Position, def.CreatedAt, nullTime(def.TriggeredAt),
	)
	if err != nil {
		return fmt.Errorf("upsert alert: %w", err)
	}
	return nil
}

func (r *sqliteAlertRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM alerts WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}
	return nil
}

func (r *sqliteAlertRepo) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM alerts"); err != nil {
		return fmt.Errorf("delete alerts: %w", err)
	}
	return nil
}

func (r *sqliteAlertRepo) List(ctx context.Context) ([]*models.AlertDefinition, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var defs []*models.AlertDefinition
	for rows.Next() {
		def, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

func (r *sqliteAlertRepo) ReplaceAll(ctx context.Context, defs []*models.AlertDefinition) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM alerts"); err != nil {
		return fmt.Errorf("clear alerts: %w", err)
	}
	query := `
		INSERT INTO alerts (` + alertColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, def := range defs {
		_, err := tx.ExecContext(ctx, query,
			def.ID, def.ItemName, def.ItemID, def.Type, def.Condition, def.Threshold, def.Expression,
			nullFloat(def.BaselinePrice), nullFloat(def.BaselineVolume), nullFloat(def.BaselineMargin),
			def.BaselineSource,
			def.Priority, boolToInt(def.OneTime), def.Cooldown.Nanoseconds(),
			boolToInt(def.Enabled), boolToInt(def.Triggered), boolToInt(def.Acknowledged),
			def.Origin, def.Position, def.CreatedAt, nullTime(def.TriggeredAt),
		)
		if err != nil {
			return fmt.Errorf("insert alert %s: %w", def.ID, err)
		}
	}
	return tx.Commit()
}

func scanAlert(rows *sql.Rows) (*models.AlertDefinition, error) {
	def := &models.AlertDefinition{}
	var (
		basePrice, baseVolume, baseMargin sql.NullFloat64
		oneTime, enabled, trig, acked     int
		cooldownNS                        int64
		triggeredAt                       sql.NullTime
	)
	err := rows.Scan(
		&def.ID, &def.ItemName, &def.ItemID, &def.Type, &def.Condition, &def.Threshold, &def.Expression,
		&basePrice, &baseVolume, &baseMargin, &def.BaselineSource,
		&def.Priority, &oneTime, &cooldownNS, &enabled, &trig, &acked,
		&def.Origin, &def.Position, &def.CreatedAt, &triggeredAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan alert: %w", err)
	}

	def.BaselinePrice = floatPtr(basePrice)
	def.BaselineVolume = floatPtr(baseVolume)
	def.BaselineMargin = floatPtr(baseMargin)
	def.OneTime = oneTime != 0
	def.Cooldown = time.Duration(cooldownNS)
	def.Enabled = enabled != 0
	def.Triggered = trig != 0
	def.Acknowledged = acked != 0
	if triggeredAt.Valid {
		t := triggeredAt.Time
		def.TriggeredAt = &t
	}
	return def, nil
}

// Helper functions

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
