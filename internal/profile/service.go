package profile

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nimbus-console/nimbus-console/internal/activity"
	"github.com/nimbus-console/nimbus-console/internal/auth"
	"github.com/nimbus-console/nimbus-console/internal/shared"
)

// UpdateInput carries the editable profile fields.
type UpdateInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Service handles the profile update flow.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	recorder activity.Recorder
}

// NewService builds Service instance.
func NewService(logger *slog.Logger, repo Repository, recorder activity.Recorder) *Service {
	return &Service{logger: logger, repo: repo, recorder: recorder}
}

// Get fetches the caller's profile.
func (s *Service) Get(ctx context.Context, userID int64) (*Profile, error) {
	p, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.E(shared.CodeNotFound, "profile not found")
		}
		return nil, shared.Wrap(shared.CodeInternal, "load profile failed", err)
	}
	return p, nil
}

// Update validates the input, writes the changed fields and appends an audit
// entry with old/new snapshots. The write is last-write-wins; the audit entry
// is best-effort and never blocks the success path.
func (s *Service) Update(ctx context.Context, sess *shared.Session, input UpdateInput) (*Profile, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	input.Phone = strings.TrimSpace(input.Phone)
	if input.Name == "" {
		return nil, shared.EF(shared.CodeValidation, "name", "name is required")
	}
	if verr := auth.ValidateEmail(input.Email); verr != nil {
		return nil, verr
	}

	old, err := s.Get(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	updated := *old
	updated.Name = input.Name
	updated.Email = input.Email
	updated.Phone = input.Phone

	changes := Diff(old, &updated)
	if len(changes) == 0 {
		return old, nil
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, shared.Wrap(shared.CodeInternal, "save profile failed", err)
	}
	updated.UpdatedAt = time.Now().UTC()

	activity.BestEffort(ctx, s.logger, s.recorder, activity.Entry{
		UserID:      sess.UserID,
		Type:        activity.TypeProfileUpdated,
		Description: Describe(changes),
		Meta: map[string]any{
			"actor_id":       sess.UserID,
			"actor_email":    sess.Email,
			"changed_fields": FieldNames(changes),
			"old_value":      old.Snapshot(),
			"new_value":      updated.Snapshot(),
			"updated_at":     updated.UpdatedAt.Format(time.RFC3339),
		},
	})
	return &updated, nil
}
