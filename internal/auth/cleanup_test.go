package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/nimbus-console/nimbus-console/internal/auth"
	"github.com/nimbus-console/nimbus-console/internal/prefs"
)

func seedLegacyKeys(t *testing.T, store *prefs.Store, userID int64) {
	t.Helper()
	for _, k := range prefs.LegacyAuthKeys {
		require.NoError(t, store.Set(context.Background(), userID, k, "stale"))
	}
}

func TestCleanupNoToken(t *testing.T) {
	svc, _, _ := newService(t, &stubRepo{})

	res := svc.Cleanup(context.Background(), "")
	require.Empty(t, res.RemovedKeys)
	require.False(t, res.Reinitialized)
}

func TestCleanupGarbageToken(t *testing.T) {
	svc, _, _ := newService(t, &stubRepo{})

	res := svc.Cleanup(context.Background(), "not-a-jwt")
	require.Empty(t, res.RemovedKeys)
	require.False(t, res.Reinitialized)
}

func TestCleanupAfterSignOutPurgesEverything(t *testing.T) {
	repo := &stubRepo{user: &auth.User{
		ID:           11,
		Email:        "admin@console.test",
		PasswordHash: hash(t, "hunter22"),
		Status:       auth.StatusActive,
	}}
	svc, sessions, store := newService(t, repo)

	res, err := svc.SignIn(context.Background(), "admin@console.test", "hunter22", "", "")
	require.NoError(t, err)
	token := res.AccessToken

	seedLegacyKeys(t, store, 11)
	require.NoError(t, svc.SignOut(context.Background(), res.Session))

	// A second session survives sign-out of the first and must be revoked
	// by cleanup.
	_, _, err = sessions.Create(context.Background(), 11, "admin@console.test")
	require.NoError(t, err)

	out := svc.Cleanup(context.Background(), token)
	require.True(t, out.Reinitialized)
	require.Equal(t, 1, out.SessionsRevoked)
	require.ElementsMatch(t,
		append(append([]string{}, prefs.LegacyAuthKeys...), prefs.KeyForceReloadAfterSignout),
		out.RemovedKeys)

	for _, k := range prefs.LegacyAuthKeys {
		v, err := store.Get(context.Background(), 11, k)
		require.NoError(t, err)
		require.Empty(t, v, "legacy key %s survived cleanup", k)
	}
	v, err := store.Get(context.Background(), 11, prefs.KeyForceReloadAfterSignout)
	require.NoError(t, err)
	require.Empty(t, v)

	live, err := sessions.HasLiveSession(context.Background(), 11)
	require.NoError(t, err)
	require.False(t, live)
}

func TestCleanupLiveSessionUntouched(t *testing.T) {
	repo := &stubRepo{user: &auth.User{
		ID:           12,
		Email:        "admin@console.test",
		PasswordHash: hash(t, "hunter22"),
		Status:       auth.StatusActive,
	}}
	svc, _, store := newService(t, repo)

	res, err := svc.SignIn(context.Background(), "admin@console.test", "hunter22", "", "")
	require.NoError(t, err)
	seedLegacyKeys(t, store, 12)

	out := svc.Cleanup(context.Background(), res.AccessToken)
	require.False(t, out.Reinitialized)
	require.Empty(t, out.RemovedKeys)

	v, err := store.Get(context.Background(), 12, "auth.token")
	require.NoError(t, err)
	require.Equal(t, "stale", v)
}

func TestCleanupForgedTokenIsIgnored(t *testing.T) {
	repo := &stubRepo{user: &auth.User{
		ID:           21,
		Email:        "admin@console.test",
		PasswordHash: hash(t, "hunter22"),
		Status:       auth.StatusActive,
	}}
	svc, sessions, store := newService(t, repo)

	res, err := svc.SignIn(context.Background(), "admin@console.test", "hunter22", "", "")
	require.NoError(t, err)
	seedLegacyKeys(t, store, 21)
	require.NoError(t, store.Set(context.Background(), 21, prefs.KeyForceReloadAfterSignout, "true"))

	// Token naming the victim's session and user IDs, signed with a key the
	// service never issued.
	claims := jwt.MapClaims{
		"sid": res.Session.ID,
		"sub": "21",
		"exp": jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("attacker-key"))
	require.NoError(t, err)

	out := svc.Cleanup(context.Background(), forged)
	require.Empty(t, out.RemovedKeys)
	require.Zero(t, out.SessionsRevoked)
	require.False(t, out.Reinitialized)

	// The victim keeps both the live session and the stored flags.
	_, err = sessions.Authenticate(context.Background(), res.AccessToken)
	require.NoError(t, err)
	v, err := store.Get(context.Background(), 21, "auth.token")
	require.NoError(t, err)
	require.Equal(t, "stale", v)
}

func TestCleanupDeadSessionWithStaleKeys(t *testing.T) {
	repo := &stubRepo{user: &auth.User{
		ID:           13,
		Email:        "admin@console.test",
		PasswordHash: hash(t, "hunter22"),
		Status:       auth.StatusActive,
	}}
	svc, sessions, store := newService(t, repo)

	res, err := svc.SignIn(context.Background(), "admin@console.test", "hunter22", "", "")
	require.NoError(t, err)
	seedLegacyKeys(t, store, 13)

	// Kill the session without the sign-out flag, as an expiry would.
	require.NoError(t, sessions.Destroy(context.Background(), res.Session))

	out := svc.Cleanup(context.Background(), res.AccessToken)
	require.True(t, out.Reinitialized)
	require.ElementsMatch(t, prefs.LegacyAuthKeys, out.RemovedKeys)
}
