package activity

import (
	"context"
	"errors"
	"log/slog"
)

// Recorder appends entries to the activity log. Entries are never mutated or
// deleted afterwards.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// ErrIncomplete indicates an entry missing its required fields.
var ErrIncomplete = errors.New("activity: entry requires user_id and activity_type")

// BestEffort records an entry and swallows any failure. The audit trail must
// never mask the outcome of the action it describes.
func BestEffort(ctx context.Context, logger *slog.Logger, rec Recorder, entry Entry) {
	if rec == nil {
		return
	}
	if err := rec.Record(ctx, entry); err != nil {
		logger.Warn("activity log write failed",
			slog.String("activity_type", string(entry.Type)),
			slog.Int64("user_id", entry.UserID),
			slog.Any("error", err))
	}
}
