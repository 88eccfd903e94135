package deletion

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/nimbus-console/nimbus-console/internal/activity"
	"github.com/nimbus-console/nimbus-console/internal/profile"
	"github.com/nimbus-console/nimbus-console/internal/shared"
)

// HistoryReader supplies the full activity history for the compliance
// snapshot.
type HistoryReader interface {
	History(ctx context.Context, userID int64) ([]activity.Entry, error)
}

// SessionRevoker signs the user out everywhere once deletion completes.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, userID int64) (int, error)
}

// ComplianceRecord is the pre-deletion snapshot of the profile and the full
// activity history. It is logged, not persisted: keeping it out of the
// database is the point of the deletion.
type ComplianceRecord struct {
	ID      string
	TakenAt time.Time
	Profile map[string]any
	History []activity.Entry
}

// Service executes the account deletion flow.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	profiles profile.Repository
	history  HistoryReader
	recorder activity.Recorder
	sessions SessionRevoker
	states   *StateStore
}

// NewService builds Service instance.
func NewService(logger *slog.Logger, repo Repository, profiles profile.Repository, history HistoryReader, recorder activity.Recorder, sessions SessionRevoker, states *StateStore) *Service {
	return &Service{
		logger:   logger,
		repo:     repo,
		profiles: profiles,
		history:  history,
		recorder: recorder,
		sessions: sessions,
		states:   states,
	}
}

// StateOf returns the flow state for a session.
func (s *Service) StateOf(ctx context.Context, sessionID string) (State, error) {
	return s.states.Get(ctx, sessionID)
}

// Open moves the flow into verification. Called when the user taps
// "Delete account" under advanced settings.
func (s *Service) Open(ctx context.Context, sessionID string) (State, error) {
	return s.states.Transition(ctx, sessionID, StateVerificationPending)
}

// Cancel aborts a pending flow back to idle.
func (s *Service) Cancel(ctx context.Context, sessionID string) error {
	return s.states.Reset(ctx, sessionID)
}

// Verify checks the typed phrase. Only an exact match (case-insensitive,
// untrimmed) advances the flow; anything else leaves it unchanged.
func (s *Service) Verify(ctx context.Context, sessionID, phrase string) (State, bool, error) {
	if !PhraseMatches(phrase) {
		current, err := s.states.Get(ctx, sessionID)
		return current, false, err
	}
	next, err := s.states.Transition(ctx, sessionID, StateConfirmationPending)
	if err != nil {
		return next, false, err
	}
	return next, true, nil
}

// Execute runs the deletion saga. The flow must be in confirmation_pending.
// Every step is part of the saga: a failure in any of them moves the flow to
// failed, writes a best-effort failure entry, and surfaces the error. The
// anonymization steps are irreversible and carry no compensation.
func (s *Service) Execute(ctx context.Context, sess *shared.Session) error {
	if _, err := s.states.Transition(ctx, sess.ID, StateDeleting); err != nil {
		return err
	}

	var (
		before *profile.Profile
		record ComplianceRecord
	)

	saga := shared.NewSaga("account_deletion", s.logger,
		shared.SagaStep{
			Name: "log_started",
			Run: func(ctx context.Context) error {
				return s.recorder.Record(ctx, activity.Entry{
					UserID:      sess.UserID,
					Type:        activity.TypeDeletionStarted,
					Description: "Account deletion started",
					Meta: map[string]any{
						"actor_id":    sess.UserID,
						"actor_email": sess.Email,
						"started_at":  time.Now().UTC().Format(time.RFC3339),
					},
				})
			},
		},
		shared.SagaStep{
			Name: "compliance_snapshot",
			Run: func(ctx context.Context) error {
				p, err := s.profiles.Get(ctx, sess.UserID)
				if err != nil {
					return err
				}
				before = p
				entries, err := s.history.History(ctx, sess.UserID)
				if err != nil {
					return err
				}
				record = ComplianceRecord{
					ID:      ksuid.New().String(),
					TakenAt: time.Now().UTC(),
					Profile: p.Snapshot(),
					History: entries,
				}
				s.logger.Info("compliance snapshot taken",
					slog.String("record_id", record.ID),
					slog.Int64("user_id", sess.UserID),
					slog.Int("history_entries", len(record.History)),
					slog.Any("profile", record.Profile),
					slog.Any("history", record.History))
				return nil
			},
		},
		shared.SagaStep{
			Name: "anonymize_profile",
			Run: func(ctx context.Context) error {
				return s.repo.AnonymizeProfile(ctx, sess.UserID)
			},
		},
		shared.SagaStep{
			Name: "anonymize_user",
			Run: func(ctx context.Context) error {
				return s.repo.AnonymizeUser(ctx, sess.UserID)
			},
		},
		shared.SagaStep{
			Name: "log_completed",
			Run: func(ctx context.Context) error {
				return s.recorder.Record(ctx, activity.Entry{
					UserID:      sess.UserID,
					Type:        activity.TypeDeletionCompleted,
					Description: "Account deletion completed",
					Meta: map[string]any{
						"actor_id":     sess.UserID,
						"actor_email":  sess.Email,
						"record_id":    record.ID,
						"old_value":    before.Snapshot(),
						"new_value": map[string]any{
							"name":  AnonymizedName,
							"email": AnonymizedEmail(sess.UserID),
							"role":  before.Role,
							"phone": "",
						},
						"completed_at": time.Now().UTC().Format(time.RFC3339),
					},
				})
			},
		},
		shared.SagaStep{
			Name: "sign_out",
			Run: func(ctx context.Context) error {
				_, err := s.sessions.RevokeAll(ctx, sess.UserID)
				return err
			},
		},
	)

	result, err := saga.Execute(ctx)
	if err != nil {
		if _, terr := s.states.Transition(ctx, sess.ID, StateFailed); terr != nil {
			s.logger.Warn("deletion state not updated", slog.Any("error", terr))
		}
		activity.BestEffort(ctx, s.logger, s.recorder, activity.Entry{
			UserID:      sess.UserID,
			Type:        activity.TypeDeletionFailed,
			Description: "Account deletion failed at step " + result.FailedStep,
			Meta: map[string]any{
				"actor_id":        sess.UserID,
				"actor_email":     sess.Email,
				"failed_step":     result.FailedStep,
				"completed_steps": result.Completed,
				"error":           err.Error(),
			},
		})
		return shared.Wrap(shared.CodeInternal, "account deletion failed", err)
	}

	if _, terr := s.states.Transition(ctx, sess.ID, StateDone); terr != nil {
		s.logger.Warn("deletion state not updated", slog.Any("error", terr))
	}
	return nil
}
