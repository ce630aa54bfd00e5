package storage

import (
	"context"
	"fmt"
)

// Schema statements are idempotent so startup can run them unconditionally.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS crisis_flags (
		id UUID PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		keyword_detected TEXT NOT NULL,
		risk_score DOUBLE PRECISION,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	// Dedup arbiter: one flag per conversation and signal label
	`CREATE UNIQUE INDEX IF NOT EXISTS crisis_flags_conversation_keyword_idx
		ON crisis_flags (conversation_id, lower(keyword_detected))`,
	`CREATE INDEX IF NOT EXISTS crisis_flags_created_at_idx
		ON crisis_flags (created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS alert_settings (
		key TEXT PRIMARY KEY,
		enabled BOOLEAN NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS operator_accounts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'operator',
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS operator_notifications (
		id UUID PRIMARY KEY,
		recipient TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		sent BOOLEAN NOT NULL DEFAULT FALSE,
		read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS operator_notifications_recipient_idx
		ON operator_notifications (recipient, read, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS crisis_resources (
		id BIGSERIAL PRIMARY KEY,
		language TEXT NOT NULL,
		region TEXT NOT NULL DEFAULT '',
		resource_type TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		contact TEXT NOT NULL DEFAULT '',
		availability TEXT NOT NULL DEFAULT '',
		display_order INT NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE INDEX IF NOT EXISTS crisis_resources_language_idx
		ON crisis_resources (language, active)`,
}

// Migrate applies the schema. Safe to run on every startup.
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("storage: migrate: %w", err)
		}
	}
	db.logger.Info("schema migrations applied", "statements", len(schema))
	return nil
}
