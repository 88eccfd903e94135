package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nimbus-console/nimbus-console/internal/mailer"
	"github.com/nimbus-console/nimbus-console/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeResetEmail is the task type for password reset emails.
	TaskTypeResetEmail = "mail:reset"
	// TaskTypePurgeTokens is the task type for the expired-token sweep.
	TaskTypePurgeTokens = "reset:purge"
)

// ResetEmailPayload describes a queued password reset email.
type ResetEmailPayload struct {
	To   string `json:"to"`
	Link string `json:"link"`
}

// NewResetEmailTask constructs an Asynq task.
func NewResetEmailTask(payload ResetEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeResetEmail, data), nil
}

// NewPurgeTokensTask constructs the cron sweep task.
func NewPurgeTokensTask() *asynq.Task {
	return asynq.NewTask(TaskTypePurgeTokens, nil)
}

// ResetEmailHandler processes TaskTypeResetEmail tasks. Delivery errors are
// classified at the mailer boundary; configuration errors are not retried
// because resubmitting cannot fix them.
func ResetEmailHandler(logger *slog.Logger, mail mailer.Mailer) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ResetEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		body := fmt.Sprintf(
			"A password reset was requested for your admin console account.\r\n\r\n"+
				"Open the link below to choose a new password:\r\n\r\n%s\r\n\r\n"+
				"If you did not request this, you can ignore this email.\r\n",
			payload.Link)
		if err := mail.Send(ctx, payload.To, "Reset your admin console password", body); err != nil {
			code := mailer.Classify(err)
			logger.Error("reset email delivery failed",
				slog.String("to", payload.To),
				slog.String("code", string(code)),
				slog.Any("error", err))
			if code == shared.CodeSenderIdentity {
				return fmt.Errorf("sender identity rejected: %v: %w", err, asynq.SkipRetry)
			}
			return err
		}
		return nil
	}
}

// TokenPurger removes expired reset tokens.
type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// PurgeTokensHandler processes the cron sweep.
func PurgeTokensHandler(logger *slog.Logger, purger TokenPurger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		removed, err := purger.PurgeExpired(ctx)
		if err != nil {
			return err
		}
		if removed > 0 {
			logger.Info("purged reset tokens", slog.Int64("removed", removed))
		}
		return nil
	}
}
