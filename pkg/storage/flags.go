package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/mindhaven/bastion/pkg/crisis"
)

// FlagExists reports whether a flag for this conversation and signal label is
// already recorded. Labels compare case-insensitively, matching the unique
// index.
func (db *DB) FlagExists(ctx context.Context, conversationID, keyword string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM crisis_flags
			WHERE conversation_id = $1 AND lower(keyword_detected) = lower($2)
		)`,
		conversationID, keyword,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("storage: flag exists: %w", err)
	}
	return exists, nil
}

// InsertFlag persists a crisis flag. A unique index violation maps to
// crisis.ErrDuplicateFlag so callers can treat the race as a successful dedup.
func (db *DB) InsertFlag(ctx context.Context, flag *crisis.Flag) error {
	err := WithRetry(ctx, 2, 50*time.Millisecond, func() error {
		_, err := db.pool.Exec(ctx,
			`INSERT INTO crisis_flags (id, conversation_id, user_id, keyword_detected, risk_score, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			flag.ID, flag.ConversationID, flag.UserID, flag.Keyword, flag.RiskScore, flag.CreatedAt,
		)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return crisis.ErrDuplicateFlag
		}
		return fmt.Errorf("storage: insert flag: %w", err)
	}
	return nil
}

// ListRecentFlags returns the newest flags for the operator dashboard.
func (db *DB) ListRecentFlags(ctx context.Context, limit int) ([]crisis.Flag, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := db.pool.Query(ctx,
		`SELECT id, conversation_id, user_id, keyword_detected, risk_score, created_at
		 FROM crisis_flags
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list flags: %w", err)
	}
	defer rows.Close()

	var flags []crisis.Flag
	for rows.Next() {
		var f crisis.Flag
		if err := rows.Scan(&f.ID, &f.ConversationID, &f.UserID, &f.Keyword, &f.RiskScore, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan flag: %w", err)
		}
		flags = append(flags, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list flags: %w", err)
	}
	return flags, nil
}
