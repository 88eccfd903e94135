package auth

import (
	"context"
	"log/slog"

	"github.com/nimbus-console/nimbus-console/internal/prefs"
	"github.com/nimbus-console/nimbus-console/internal/shared"
)

// CleanupResult reports what session cleanup actually did. The console runs
// cleanup on login-screen mount and always clears its form fields regardless
// of this result.
type CleanupResult struct {
	RemovedKeys     []string `json:"removed_keys"`
	SessionsRevoked int      `json:"sessions_revoked"`
	Reinitialized   bool     `json:"reinitialized"`
}

// Cleanup inspects the caller's persisted flags and deletes stale auth state.
// The token may be expired or garbage; identification failures and every
// per-step error are logged and swallowed. Cleanup is never fatal.
func (s *Service) Cleanup(ctx context.Context, bearer string) CleanupResult {
	result := CleanupResult{RemovedKeys: []string{}}
	if bearer == "" {
		return result
	}
	sessionID, userID, ok := s.sessions.PeekToken(bearer)
	if !ok {
		return result
	}

	forceReload, err := s.prefs.Get(ctx, userID, prefs.KeyForceReloadAfterSignout)
	if err != nil {
		s.logger.Warn("cleanup: read force-reload flag", slog.Any("error", err))
	}

	if forceReload == "true" {
		// Prior sign-out: purge every legacy auth key plus the flag itself,
		// revoke whatever sessions linger, then start the auth client fresh.
		keys := append(append([]string{}, prefs.LegacyAuthKeys...), prefs.KeyForceReloadAfterSignout)
		if err := s.prefs.Delete(ctx, userID, keys...); err != nil {
			s.logger.Warn("cleanup: delete auth keys", slog.Any("error", err))
		} else {
			result.RemovedKeys = keys
		}
		revoked, err := s.sessions.RevokeAll(ctx, userID)
		if err != nil {
			s.logger.Warn("cleanup: revoke sessions", slog.Any("error", err))
		}
		result.SessionsRevoked = revoked
		result.Reinitialized = true
		return result
	}

	// No sign-out flag. If the session behind the token is gone but stale
	// auth keys survive, delete them and re-initialize.
	if _, err := s.sessions.Load(ctx, sessionID); err == nil {
		return result
	} else if shared.CodeOf(err) != shared.CodeUnauthorized {
		s.logger.Warn("cleanup: probe session", slog.Any("error", err))
		return result
	}

	stale, err := s.prefs.PresentLegacyKeys(ctx, userID)
	if err != nil {
		s.logger.Warn("cleanup: probe legacy keys", slog.Any("error", err))
	}
	if len(stale) == 0 {
		return result
	}
	if err := s.prefs.Delete(ctx, userID, stale...); err != nil {
		s.logger.Warn("cleanup: delete legacy keys", slog.Any("error", err))
		return result
	}
	result.RemovedKeys = stale
	result.Reinitialized = true
	return result
}
