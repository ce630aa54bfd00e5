package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const alertsEnabledKey = "crisis_alerts_enabled"

// AlertsEnabled reports whether crisis alerting is switched on. A missing row
// means enabled: alerting defaults on and must be disabled explicitly.
func (db *DB) AlertsEnabled(ctx context.Context) (bool, error) {
	var enabled bool
	err := db.pool.QueryRow(ctx,
		`SELECT enabled FROM alert_settings WHERE key = $1`,
		alertsEnabledKey,
	).Scan(&enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: alerts enabled: %w", err)
	}
	return enabled, nil
}

// SetAlertsEnabled switches crisis alerting on or off.
func (db *DB) SetAlertsEnabled(ctx context.Context, enabled bool) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO alert_settings (key, enabled, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (key) DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = now()`,
		alertsEnabledKey, enabled,
	)
	if err != nil {
		return fmt.Errorf("storage: set alerts enabled: %w", err)
	}
	return nil
}
