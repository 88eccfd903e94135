package reset

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nimbus-console/nimbus-console/internal/platform/db"
	"github.com/nimbus-console/nimbus-console/internal/shared"
)

// Repository defines persistence for reset tokens and password writes.
type Repository interface {
	FindUserIDByEmail(ctx context.Context, email string) (int64, error)
	StoreToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	RedeemToken(ctx context.Context, tokenHash, passwordHash string) (int64, error)
	PurgeExpired(ctx context.Context) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindUserIDByEmail resolves an active account's ID.
func (r *PGRepository) FindUserIDByEmail(ctx context.Context, email string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`SELECT id FROM users WHERE email = $1 AND status = 'active'`, email).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return id, nil
}

// StoreToken persists a token hash with its expiry.
func (r *PGRepository) StoreToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO password_reset_tokens (user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, NOW())`, userID, tokenHash, expiresAt.UTC())
	return err
}

// RedeemToken marks a token used and writes the new password hash in one
// transaction, so a crash cannot burn the token without changing the
// password. Expired and unknown tokens come back as coded errors; an expired
// token is left intact for the purge job.
func (r *PGRepository) RedeemToken(ctx context.Context, tokenHash, passwordHash string) (int64, error) {
	var userID int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var expiresAt time.Time
		err := tx.QueryRow(ctx, `
			UPDATE password_reset_tokens
			SET used_at = NOW()
			WHERE token_hash = $1 AND used_at IS NULL
			RETURNING user_id, expires_at`, tokenHash).Scan(&userID, &expiresAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.E(shared.CodeTokenInvalid, "reset token is invalid or already used")
			}
			return err
		}
		if time.Now().After(expiresAt) {
			return shared.E(shared.CodeTokenExpired, "reset token has expired")
		}
		_, err = tx.Exec(ctx,
			`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, userID, passwordHash)
		return err
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}

// PurgeExpired deletes tokens past their expiry. Returns rows removed.
func (r *PGRepository) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM password_reset_tokens WHERE expires_at < NOW() OR used_at IS NOT NULL`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ Repository = (*PGRepository)(nil)
