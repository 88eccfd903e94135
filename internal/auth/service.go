package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nimbus-console/nimbus-console/internal/prefs"
	"github.com/nimbus-console/nimbus-console/internal/shared"
)

// Service wraps the credential and sign-out flows.
type Service struct {
	logger       *slog.Logger
	repo         Repository
	sessions     *shared.SessionManager
	prefs        *prefs.Store
	supportEmail string
}

// NewService constructs a new Service.
func NewService(logger *slog.Logger, repo Repository, sessions *shared.SessionManager, store *prefs.Store, supportEmail string) *Service {
	return &Service{logger: logger, repo: repo, sessions: sessions, prefs: store, supportEmail: supportEmail}
}

// SignInResult carries what the console needs after a successful login.
type SignInResult struct {
	Session     *shared.Session
	AccessToken string
	User        *User
}

// SignIn validates credentials and opens a session. Failures come back as
// coded errors so the console can place them on the right field:
// account_inactive wins over invalid_credentials, which wins over
// user_not_found mapping.
func (s *Service) SignIn(ctx context.Context, email, password, ip, ua string) (*SignInResult, error) {
	if verr := ValidateEmail(email); verr != nil {
		return nil, verr
	}
	if verr := ValidateLoginPassword(password); verr != nil {
		return nil, verr
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.EF(shared.CodeUserNotFound, "email", "no account exists for this email")
		}
		return nil, shared.Wrap(shared.CodeInternal, "sign in failed", err)
	}
	if user.Status != StatusActive {
		return nil, shared.E(shared.CodeAccountInactive,
			fmt.Sprintf("this account is inactive; contact %s for assistance", s.supportEmail))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		// The failed attempt must not leave the post-login flag behind.
		if derr := s.prefs.Delete(ctx, user.ID, prefs.KeySkipLoadingAfterLogin); derr != nil {
			s.logger.Warn("clear skip-loading flag", slog.Any("error", derr))
		}
		return nil, shared.EF(shared.CodeInvalidCredentials, "password", "incorrect password")
	}

	sess, token, err := s.sessions.Create(ctx, user.ID, user.Email)
	if err != nil {
		return nil, shared.Wrap(shared.CodeInternal, "open session failed", err)
	}
	if err := s.repo.CreateSession(ctx, sess.ID, user.ID, sess.CreatedAt.Add(s.sessions.TTL()), ip, ua); err != nil {
		s.logger.Warn("record session row", slog.Any("error", err))
	}
	// Consumed by the app shell on its next load.
	if err := s.prefs.Set(ctx, user.ID, prefs.KeySkipLoadingAfterLogin, "true"); err != nil {
		s.logger.Warn("set skip-loading flag", slog.Any("error", err))
	}
	return &SignInResult{Session: sess, AccessToken: token, User: user}, nil
}

// SignOut closes the session and flags the client for a forced reload.
func (s *Service) SignOut(ctx context.Context, sess *shared.Session) error {
	if sess == nil {
		return nil
	}
	if err := s.repo.DeleteSession(ctx, sess.ID); err != nil {
		s.logger.Warn("delete session row", slog.Any("error", err))
	}
	if err := s.prefs.Set(ctx, sess.UserID, prefs.KeyForceReloadAfterSignout, "true"); err != nil {
		s.logger.Warn("set force-reload flag", slog.Any("error", err))
	}
	return s.sessions.Destroy(ctx, sess)
}

// SessionTTL exposes the session lifetime for handler responses.
func (s *Service) SessionTTL() time.Duration {
	return s.sessions.TTL()
}
