package companies

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nimbus-console/nimbus-console/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListActive returns all active companies ordered by name.
func (r *Repository) ListActive(ctx context.Context) ([]Company, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, is_active, created_at, updated_at
		FROM company
		WHERE is_active
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var companies []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return companies, nil
}

// Get fetches a company by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Company, error) {
	var c Company
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, is_active, created_at, updated_at
		FROM company
		WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
