package provision

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nimbus-console/nimbus-console/internal/shared"
)

// NewUser is the users row created for a provisioned admin.
type NewUser struct {
	Email               string
	PasswordHash        string
	ResetTokenHash      string
	ResetTokenExpiresAt time.Time
}

// CompanyUserRow links the new user to a company.
type CompanyUserRow struct {
	UserID    int64
	CompanyID int64
	FirstName string
	LastName  string
	Role      string
	Phone     string
}

// Repository defines persistence for admin provisioning.
type Repository interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, u NewUser) (int64, error)
	DeleteUser(ctx context.Context, id int64) error
	CreateCompanyUser(ctx context.Context, row CompanyUserRow) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// EmailExists reports whether a users row holds the exact email. The match
// is case-sensitive; the console has never normalized case here.
func (r *PGRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

// CreateUser inserts the users row and returns its ID. A concurrent insert
// of the same email surfaces as CodeEmailExists.
func (r *PGRepository) CreateUser(ctx context.Context, u NewUser) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, status, reset_token_hash, reset_token_expires_at, created_at, updated_at)
		VALUES ($1, $2, 'active', $3, $4, NOW(), NOW())
		RETURNING id`,
		u.Email, u.PasswordHash, u.ResetTokenHash, u.ResetTokenExpiresAt.UTC()).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, shared.E(shared.CodeEmailExists, "an account with this email already exists")
		}
		return 0, err
	}
	return id, nil
}

// DeleteUser removes a users row. Used only as the saga compensation.
func (r *PGRepository) DeleteUser(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

// CreateCompanyUser inserts the company_user link row.
func (r *PGRepository) CreateCompanyUser(ctx context.Context, row CompanyUserRow) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO company_user (user_id, company_id, first_name, last_name, role, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NOW())`,
		row.UserID, row.CompanyID, row.FirstName, row.LastName, row.Role, row.Phone)
	return err
}

var _ Repository = (*PGRepository)(nil)
