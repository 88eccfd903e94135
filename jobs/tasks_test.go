package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type stubMailer struct {
	sent []string
	body string
	err  error
}

func (s *stubMailer) Send(ctx context.Context, to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to)
	s.body = body
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResetEmailHandlerSends(t *testing.T) {
	mail := &stubMailer{}
	handler := ResetEmailHandler(discardLogger(), mail)

	task, err := NewResetEmailTask(ResetEmailPayload{
		To:   "dana@console.test",
		Link: "https://console.example.com/reset-password?token=abc",
	})
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, []string{"dana@console.test"}, mail.sent)
	require.True(t, strings.Contains(mail.body, "https://console.example.com/reset-password?token=abc"))
}

func TestResetEmailHandlerSkipsRetryOnSenderIdentity(t *testing.T) {
	mail := &stubMailer{err: errors.New("550 sender identity not verified")}
	handler := ResetEmailHandler(discardLogger(), mail)

	task, err := NewResetEmailTask(ResetEmailPayload{To: "x@y.zzz", Link: "https://c/t"})
	require.NoError(t, err)

	herr := handler(context.Background(), task)
	require.ErrorIs(t, herr, asynq.SkipRetry)
}

func TestResetEmailHandlerRetriesTransientFailures(t *testing.T) {
	mail := &stubMailer{err: errors.New("dial tcp: connection refused")}
	handler := ResetEmailHandler(discardLogger(), mail)

	task, err := NewResetEmailTask(ResetEmailPayload{To: "x@y.zzz", Link: "https://c/t"})
	require.NoError(t, err)

	herr := handler(context.Background(), task)
	require.Error(t, herr)
	require.NotErrorIs(t, herr, asynq.SkipRetry)
}

func TestResetEmailHandlerBadPayload(t *testing.T) {
	handler := ResetEmailHandler(discardLogger(), &stubMailer{})

	herr := handler(context.Background(), asynq.NewTask(TaskTypeResetEmail, []byte("{broken")))
	require.ErrorIs(t, herr, asynq.SkipRetry)
}

type stubPurger struct {
	removed int64
	err     error
}

func (s *stubPurger) PurgeExpired(ctx context.Context) (int64, error) {
	return s.removed, s.err
}

func TestPurgeTokensHandler(t *testing.T) {
	handler := PurgeTokensHandler(discardLogger(), &stubPurger{removed: 3})
	require.NoError(t, handler(context.Background(), NewPurgeTokensTask()))

	failing := PurgeTokensHandler(discardLogger(), &stubPurger{err: errors.New("db down")})
	require.Error(t, failing(context.Background(), NewPurgeTokensTask()))
}
