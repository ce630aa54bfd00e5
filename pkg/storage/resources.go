package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/mindhaven/bastion/pkg/respond"
)

// Resources returns all active crisis resources for a language, regional and
// global entries together. Implements respond.Catalog.
func (db *DB) Resources(ctx context.Context, language string) ([]respond.Resource, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT language, region, resource_type, title, description, contact, availability, display_order
		 FROM crisis_resources
		 WHERE active AND language = $1
		 ORDER BY display_order, id`,
		strings.ToLower(language),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list resources: %w", err)
	}
	defer rows.Close()

	var out []respond.Resource
	for rows.Next() {
		var r respond.Resource
		if err := rows.Scan(&r.Language, &r.Region, &r.Type, &r.Title, &r.Description,
			&r.Contact, &r.Availability, &r.DisplayOrder); err != nil {
			return nil, fmt.Errorf("storage: scan resource: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list resources: %w", err)
	}
	return out, nil
}

// SeedResources loads resources into an empty catalog table. Existing rows
// mean operators curated the set already, so the seed is skipped.
func (db *DB) SeedResources(ctx context.Context, resources []respond.Resource) error {
	var count int
	if err := db.pool.QueryRow(ctx, `SELECT count(*) FROM crisis_resources`).Scan(&count); err != nil {
		return fmt.Errorf("storage: count resources: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, r := range resources {
		_, err := db.pool.Exec(ctx,
			`INSERT INTO crisis_resources (language, region, resource_type, title, description, contact, availability, display_order)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			strings.ToLower(r.Language), r.Region, r.Type, r.Title, r.Description,
			r.Contact, r.Availability, r.DisplayOrder,
		)
		if err != nil {
			return fmt.Errorf("storage: seed resource %q: %w", r.Title, err)
		}
	}
	db.logger.Info("seeded crisis resource catalog", "entries", len(resources))
	return nil
}
