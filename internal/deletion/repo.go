package deletion

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AnonymizedName is the sentinel written over the profile name.
const AnonymizedName = "DELETED_USER"

// AnonymizedEmail returns the sentinel email for a deleted account.
func AnonymizedEmail(id int64) string {
	return fmt.Sprintf("deleted_%d@deleted.com", id)
}

// Repository defines the anonymization writes.
type Repository interface {
	AnonymizeProfile(ctx context.Context, id int64) error
	AnonymizeUser(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// AnonymizeProfile overwrites the personal fields of the admin row. The row
// itself is retained for referential and compliance purposes.
func (r *PGRepository) AnonymizeProfile(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE admin
		SET name = $2, email = $3, phone = NULL, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1`, id, AnonymizedName, AnonymizedEmail(id))
	return err
}

// AnonymizeUser overwrites the users row and marks the account deleted.
func (r *PGRepository) AnonymizeUser(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users
		SET email = $2, status = 'deleted', updated_at = NOW()
		WHERE id = $1`, id, AnonymizedEmail(id))
	return err
}

var _ Repository = (*PGRepository)(nil)
