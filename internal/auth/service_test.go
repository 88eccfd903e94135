package auth_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nimbus-console/nimbus-console/internal/auth"
	"github.com/nimbus-console/nimbus-console/internal/prefs"
	"github.com/nimbus-console/nimbus-console/internal/shared"
)

type stubRepo struct {
	user            *auth.User
	sessionRows     int
	deletedSessions []string
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	s.sessionRows++
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	s.deletedSessions = append(s.deletedSessions, id)
	return nil
}

func newService(t *testing.T, repo *stubRepo) (*auth.Service, *shared.SessionManager, *prefs.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "test-secret", time.Hour)
	store := prefs.NewStore(client)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return auth.NewService(logger, repo, sessions, store, "support@console.local"), sessions, store
}

func hash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestSignInSuccess(t *testing.T) {
	repo := &stubRepo{user: &auth.User{
		ID:           7,
		Email:        "admin@console.test",
		PasswordHash: hash(t, "hunter22"),
		Status:       auth.StatusActive,
	}}
	svc, sessions, store := newService(t, repo)

	res, err := svc.SignIn(context.Background(), "admin@console.test", "hunter22", "10.0.0.1", "test-agent")
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.Equal(t, int64(7), res.Session.UserID)
	require.Equal(t, 1, repo.sessionRows)

	// Token must authenticate back to the same session.
	sess, err := sessions.Authenticate(context.Background(), res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, res.Session.ID, sess.ID)

	flag, err := store.Get(context.Background(), 7, prefs.KeySkipLoadingAfterLogin)
	require.NoError(t, err)
	require.Equal(t, "true", flag)
}

func TestSignInUnknownEmail(t *testing.T) {
	svc, _, _ := newService(t, &stubRepo{})

	_, err := svc.SignIn(context.Background(), "ghost@console.test", "hunter22", "", "")
	require.Error(t, err)
	require.Equal(t, shared.CodeUserNotFound, shared.CodeOf(err))

	var derr *shared.DomainError
	require.ErrorAs(t, err, &derr)
	require.Equal(t, "email", derr.Field)
}

func TestSignInInactiveAccountWinsOverPassword(t *testing.T) {
	repo := &stubRepo{user: &auth.User{
		ID:           3,
		Email:        "off@console.test",
		PasswordHash: hash(t, "correct-password"),
		Status:       auth.StatusInactive,
	}}
	svc, _, _ := newService(t, repo)

	// Even a wrong password reports the inactive account, not bad credentials.
	_, err := svc.SignIn(context.Background(), "off@console.test", "wrong-password", "", "")
	require.Equal(t, shared.CodeAccountInactive, shared.CodeOf(err))
	require.Contains(t, err.Error(), "support@console.local")
}

func TestSignInWrongPasswordClearsSkipLoading(t *testing.T) {
	repo := &stubRepo{user: &auth.User{
		ID:           9,
		Email:        "admin@console.test",
		PasswordHash: hash(t, "hunter22"),
		Status:       auth.StatusActive,
	}}
	svc, _, store := newService(t, repo)

	require.NoError(t, store.Set(context.Background(), 9, prefs.KeySkipLoadingAfterLogin, "true"))

	_, err := svc.SignIn(context.Background(), "admin@console.test", "not-it-at-all", "", "")
	require.Equal(t, shared.CodeInvalidCredentials, shared.CodeOf(err))

	flag, err := store.Get(context.Background(), 9, prefs.KeySkipLoadingAfterLogin)
	require.NoError(t, err)
	require.Empty(t, flag)
}

func TestSignInIsCaseSensitiveOnEmail(t *testing.T) {
	repo := &stubRepo{user: &auth.User{
		ID:           4,
		Email:        "Admin@console.test",
		PasswordHash: hash(t, "hunter22"),
		Status:       auth.StatusActive,
	}}
	svc, _, _ := newService(t, repo)

	_, err := svc.SignIn(context.Background(), "admin@console.test", "hunter22", "", "")
	require.Equal(t, shared.CodeUserNotFound, shared.CodeOf(err))
}

func TestSignOut(t *testing.T) {
	repo := &stubRepo{user: &auth.User{
		ID:           5,
		Email:        "admin@console.test",
		PasswordHash: hash(t, "hunter22"),
		Status:       auth.StatusActive,
	}}
	svc, sessions, store := newService(t, repo)

	res, err := svc.SignIn(context.Background(), "admin@console.test", "hunter22", "", "")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(context.Background(), res.Session))
	require.Equal(t, []string{res.Session.ID}, repo.deletedSessions)

	_, err = sessions.Load(context.Background(), res.Session.ID)
	require.Equal(t, shared.CodeUnauthorized, shared.CodeOf(err))

	flag, err := store.Get(context.Background(), 5, prefs.KeyForceReloadAfterSignout)
	require.NoError(t, err)
	require.Equal(t, "true", flag)
}
