package activity

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for activity_logs.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Record appends one entry.
func (r *Repository) Record(ctx context.Context, entry Entry) error {
	if entry.UserID == 0 || entry.Type == "" {
		return ErrIncomplete
	}
	metaJSON, err := json.Marshal(entry.Meta)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO activity_logs (user_id, activity_type, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))`,
		entry.UserID, string(entry.Type), entry.Description, metaJSON, nullTime(entry.CreatedAt))
	return err
}

// ListByUser returns the user's full history, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, activity_type, description, metadata, created_at
		FROM activity_logs
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Window returns a page of the user's history with newest-first ordering.
// Limit is expected to be pageSize+1 so the caller can detect a next page.
func (r *Repository) Window(ctx context.Context, userID int64, filters TimelineFilters, offset, limit int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, activity_type, description, metadata, created_at
		FROM activity_logs
		WHERE user_id = $1
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at <= $3)
		  AND ($4::text IS NULL OR activity_type = $4)
		ORDER BY created_at DESC, id DESC
		OFFSET $5 LIMIT $6`,
		userID, nullTime(filters.From), nullTime(filters.To), nullText(filters.Type), offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			entry    Entry
			typeName string
			metaJSON []byte
		)
		if err := rows.Scan(&entry.ID, &entry.UserID, &typeName, &entry.Description, &metaJSON, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.Type = Type(typeName)
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &entry.Meta); err != nil {
				return nil, err
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func nullText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
