package reset

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nimbus-console/nimbus-console/internal/activity"
	"github.com/nimbus-console/nimbus-console/internal/auth"
	"github.com/nimbus-console/nimbus-console/internal/shared"
)

// MailEnqueuer schedules the reset email for background delivery.
type MailEnqueuer interface {
	EnqueueResetEmail(ctx context.Context, to, link string) error
}

// Service orchestrates the password reset flow.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	mail     MailEnqueuer
	recorder activity.Recorder
	baseURL  string
	tokenTTL time.Duration
}

// NewService constructs a Service. baseURL is the console origin the reset
// link points back to.
func NewService(logger *slog.Logger, repo Repository, mail MailEnqueuer, recorder activity.Recorder, baseURL string, tokenTTL time.Duration) *Service {
	return &Service{logger: logger, repo: repo, mail: mail, recorder: recorder, baseURL: baseURL, tokenTTL: tokenTTL}
}

// Request validates the email, stores a fresh token and queues the reset
// email. Unknown addresses are not an error: the flow reports success either
// way so account existence cannot be probed.
func (s *Service) Request(ctx context.Context, email string) error {
	if verr := auth.ValidateEmail(email); verr != nil {
		return verr
	}

	userID, err := s.repo.FindUserIDByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Info("password reset for unknown email", slog.String("email", email))
			return nil
		}
		return shared.Wrap(shared.CodeInternal, "password reset lookup failed", err)
	}

	plain, hash, err := NewToken()
	if err != nil {
		s.recordFailure(ctx, userID, email, err)
		return shared.Wrap(shared.CodeInternal, "generate reset token failed", err)
	}
	if err := s.repo.StoreToken(ctx, userID, hash, time.Now().Add(s.tokenTTL)); err != nil {
		s.recordFailure(ctx, userID, email, err)
		return shared.Wrap(shared.CodeInternal, "store reset token failed", err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, plain)
	if err := s.mail.EnqueueResetEmail(ctx, email, link); err != nil {
		s.recordFailure(ctx, userID, email, err)
		return shared.Wrap(shared.CodeNetworkFailure, "queue reset email failed", err)
	}

	activity.BestEffort(ctx, s.logger, s.recorder, activity.Entry{
		UserID:      userID,
		Type:        activity.TypePasswordResetRequested,
		Description: "Password reset email requested",
		Meta: map[string]any{
			"actor_email":  email,
			"requested_at": time.Now().UTC().Format(time.RFC3339),
		},
	})
	return nil
}

// Confirm consumes a token and sets the new password.
func (s *Service) Confirm(ctx context.Context, token, password string) error {
	if token == "" {
		return shared.EF(shared.CodeValidation, "token", "reset token is required")
	}
	if verr := auth.ValidateLoginPassword(password); verr != nil {
		return verr
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return shared.Wrap(shared.CodeInternal, "hash password failed", err)
	}
	if _, err := s.repo.RedeemToken(ctx, HashToken(token), string(hash)); err != nil {
		var de *shared.DomainError
		if errors.As(err, &de) {
			return de
		}
		return shared.Wrap(shared.CodeInternal, "redeem reset token failed", err)
	}
	return nil
}

// PurgeExpired removes dead tokens; run from the background scheduler.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.PurgeExpired(ctx)
}

func (s *Service) recordFailure(ctx context.Context, userID int64, email string, cause error) {
	activity.BestEffort(ctx, s.logger, s.recorder, activity.Entry{
		UserID:      userID,
		Type:        activity.TypePasswordResetFailed,
		Description: "Password reset request failed",
		Meta: map[string]any{
			"actor_email": email,
			"error":       cause.Error(),
		},
	})
}
