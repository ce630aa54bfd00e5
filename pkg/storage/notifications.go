package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mindhaven/bastion/pkg/crisis"
)

// InsertNotification records an in-app notification for an operator.
func (db *DB) InsertNotification(ctx context.Context, n *crisis.Notification) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO operator_notifications (id, recipient, title, body, sent, read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.Recipient, n.Title, n.Body, n.Sent, n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("storage: insert notification: %w", err)
	}
	return nil
}

// MarkSent flags a notification as delivered by email. The read flag is
// untouched; reading is a separate operator action.
func (db *DB) MarkSent(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE operator_notifications SET sent = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("storage: mark sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkRead flags a notification as read in the dashboard.
func (db *DB) MarkRead(ctx context.Context, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE operator_notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("storage: mark read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListNotifications returns an operator's notifications, newest first.
// unreadOnly narrows to those not yet read.
func (db *DB) ListNotifications(ctx context.Context, recipient string, unreadOnly bool, limit int) ([]crisis.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT id, recipient, title, body, sent, read, created_at
		 FROM operator_notifications
		 WHERE recipient = $1`
	if unreadOnly {
		query += ` AND NOT read`
	}
	query += ` ORDER BY created_at DESC LIMIT $2`

	rows, err := db.pool.Query(ctx, query, recipient, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: list notifications: %w", err)
	}
	defer rows.Close()

	var out []crisis.Notification
	for rows.Next() {
		var n crisis.Notification
		if err := rows.Scan(&n.ID, &n.Recipient, &n.Title, &n.Body, &n.Sent, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list notifications: %w", err)
	}
	return out, nil
}
