package profile

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nimbus-console/nimbus-console/internal/shared"
)

// Repository defines persistence for admin profiles.
type Repository interface {
	Get(ctx context.Context, id int64) (*Profile, error)
	Update(ctx context.Context, p *Profile) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Get fetches a profile by ID.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Profile, error) {
	var p Profile
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, role, COALESCE(phone, ''), created_at, updated_at, deleted_at
		FROM admin
		WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Email, &p.Role, &p.Phone, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Update writes the editable fields. Last write wins; there is no version
// check on the row.
func (r *PGRepository) Update(ctx context.Context, p *Profile) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE admin
		SET name = $2, email = $3, phone = NULLIF($4, ''), updated_at = NOW()
		WHERE id = $1`, p.ID, p.Name, p.Email, p.Phone)
	return err
}

var _ Repository = (*PGRepository)(nil)
