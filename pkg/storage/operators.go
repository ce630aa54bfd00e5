package storage

import (
	"context"
	"fmt"

	"github.com/mindhaven/bastion/pkg/crisis"
)

// ListOperators returns the active operator accounts that receive crisis
// alerts. Membership is evaluated at call time so a freshly added operator is
// alerted immediately.
func (db *DB) ListOperators(ctx context.Context) ([]crisis.Operator, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, name, email
		 FROM operator_accounts
		 WHERE active AND role IN ('operator', 'admin')
		 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list operators: %w", err)
	}
	defer rows.Close()

	var ops []crisis.Operator
	for rows.Next() {
		var op crisis.Operator
		if err := rows.Scan(&op.ID, &op.Name, &op.Email); err != nil {
			return nil, fmt.Errorf("storage: scan operator: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list operators: %w", err)
	}
	return ops, nil
}

// UpsertOperator creates or updates an operator account.
func (db *DB) UpsertOperator(ctx context.Context, op crisis.Operator, role string, active bool) error {
	if role == "" {
		role = "operator"
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO operator_accounts (id, name, email, role, active)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name, email = EXCLUDED.email,
		     role = EXCLUDED.role, active = EXCLUDED.active`,
		op.ID, op.Name, op.Email, role, active,
	)
	if err != nil {
		return fmt.Errorf("storage: upsert operator: %w", err)
	}
	return nil
}
