package deletion_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/nimbus-console/nimbus-console/internal/activity"
	"github.com/nimbus-console/nimbus-console/internal/deletion"
	"github.com/nimbus-console/nimbus-console/internal/profile"
	"github.com/nimbus-console/nimbus-console/internal/shared"
)

type stubDeletionRepo struct {
	profiles    map[int64]*profile.Profile
	users       map[int64]string
	profileErr  error
	userErr     error
	anonymized  []int64
	userUpdates []int64
}

func (s *stubDeletionRepo) AnonymizeProfile(ctx context.Context, id int64) error {
	if s.profileErr != nil {
		return s.profileErr
	}
	p := s.profiles[id]
	p.Name = deletion.AnonymizedName
	p.Email = deletion.AnonymizedEmail(id)
	p.Phone = ""
	s.anonymized = append(s.anonymized, id)
	return nil
}

func (s *stubDeletionRepo) AnonymizeUser(ctx context.Context, id int64) error {
	if s.userErr != nil {
		return s.userErr
	}
	s.users[id] = "deleted"
	s.userUpdates = append(s.userUpdates, id)
	return nil
}

type stubProfileRepo struct {
	profiles map[int64]*profile.Profile
}

func (s *stubProfileRepo) Get(ctx context.Context, id int64) (*profile.Profile, error) {
	p, ok := s.profiles[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (s *stubProfileRepo) Update(ctx context.Context, p *profile.Profile) error {
	s.profiles[p.ID] = p
	return nil
}

type recordingLog struct {
	entries []activity.Entry
	failOn  activity.Type
}

func (r *recordingLog) Record(ctx context.Context, entry activity.Entry) error {
	if r.failOn != "" && entry.Type == r.failOn {
		return errors.New("activity write refused")
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *recordingLog) History(ctx context.Context, userID int64) ([]activity.Entry, error) {
	return r.entries, nil
}

func (r *recordingLog) typed(tt activity.Type) []activity.Entry {
	var out []activity.Entry
	for _, e := range r.entries {
		if e.Type == tt {
			out = append(out, e)
		}
	}
	return out
}

type stubRevoker struct {
	revoked []int64
}

func (s *stubRevoker) RevokeAll(ctx context.Context, userID int64) (int, error) {
	s.revoked = append(s.revoked, userID)
	return 1, nil
}

func newDeletionService(t *testing.T, repo *stubDeletionRepo, log *recordingLog) (*deletion.Service, *deletion.StateStore, *stubRevoker) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	states := deletion.NewStateStore(client, time.Hour)
	revoker := &stubRevoker{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := deletion.NewService(logger, repo, &stubProfileRepo{profiles: repo.profiles}, log, log, revoker, states)
	return svc, states, revoker
}

func seededRepo() *stubDeletionRepo {
	return &stubDeletionRepo{
		profiles: map[int64]*profile.Profile{
			77: {ID: 77, Name: "Dana Admin", Email: "dana@console.test", Role: "super_admin", Phone: "555-0001"},
		},
		users: map[int64]string{77: "active"},
	}
}

func session() *shared.Session {
	return &shared.Session{ID: "sess-77", UserID: 77, Email: "dana@console.test"}
}

func advanceToConfirmation(t *testing.T, svc *deletion.Service, sessionID string) {
	t.Helper()
	_, err := svc.Open(context.Background(), sessionID)
	require.NoError(t, err)
	_, ok, err := svc.Verify(context.Background(), sessionID, "delete")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyWrongPhraseKeepsState(t *testing.T) {
	svc, _, _ := newDeletionService(t, seededRepo(), &recordingLog{})
	ctx := context.Background()

	_, err := svc.Open(ctx, "sess-77")
	require.NoError(t, err)

	state, ok, err := svc.Verify(ctx, "sess-77", "delete ")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, deletion.StateVerificationPending, state)
}

func TestExecuteAnonymizesAndSignsOut(t *testing.T) {
	repo := seededRepo()
	log := &recordingLog{}
	svc, states, revoker := newDeletionService(t, repo, log)
	ctx := context.Background()

	advanceToConfirmation(t, svc, "sess-77")
	require.NoError(t, svc.Execute(ctx, session()))

	p := repo.profiles[77]
	require.Equal(t, "DELETED_USER", p.Name)
	require.Equal(t, "deleted_77@deleted.com", p.Email)
	require.Empty(t, p.Phone)
	require.Equal(t, "deleted", repo.users[77])
	require.Equal(t, []int64{77}, revoker.revoked)

	state, err := states.Get(ctx, "sess-77")
	require.NoError(t, err)
	require.Equal(t, deletion.StateDone, state)

	require.Len(t, log.typed(activity.TypeDeletionStarted), 1)
	completed := log.typed(activity.TypeDeletionCompleted)
	require.Len(t, completed, 1)
	require.NotEmpty(t, completed[0].Meta["record_id"])
	oldVal := completed[0].Meta["old_value"].(map[string]any)
	require.Equal(t, "Dana Admin", oldVal["name"])
	require.Equal(t, "dana@console.test", oldVal["email"])
}

func TestExecuteSnapshotCarriesFullHistory(t *testing.T) {
	repo := seededRepo()
	log := &recordingLog{entries: []activity.Entry{
		{UserID: 77, Type: activity.TypeProfileUpdated, Description: "Profile phone changed"},
		{UserID: 77, Type: activity.TypeExportCompleted, Description: "Data export completed"},
	}}

	var buf bytes.Buffer
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	states := deletion.NewStateStore(client, time.Hour)
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	svc := deletion.NewService(logger, repo, &stubProfileRepo{profiles: repo.profiles}, log, log, &stubRevoker{}, states)

	advanceToConfirmation(t, svc, "sess-77")
	require.NoError(t, svc.Execute(context.Background(), session()))

	// The snapshot log line carries the profile and every history entry, not
	// just a count.
	out := buf.String()
	require.Contains(t, out, "compliance snapshot taken")
	require.Contains(t, out, "dana@console.test")
	require.Contains(t, out, "Profile phone changed")
	require.Contains(t, out, "Data export completed")
}

func TestExecuteRequiresConfirmationState(t *testing.T) {
	svc, _, _ := newDeletionService(t, seededRepo(), &recordingLog{})

	err := svc.Execute(context.Background(), session())
	require.Equal(t, shared.CodeConflict, shared.CodeOf(err))
}

func TestExecuteFailureMovesToFailedAndLogs(t *testing.T) {
	repo := seededRepo()
	repo.userErr = errors.New("users table locked")
	log := &recordingLog{}
	svc, states, revoker := newDeletionService(t, repo, log)
	ctx := context.Background()

	advanceToConfirmation(t, svc, "sess-77")
	err := svc.Execute(ctx, session())
	require.Error(t, err)
	require.Equal(t, shared.CodeInternal, shared.CodeOf(err))
	require.Empty(t, revoker.revoked)

	state, serr := states.Get(ctx, "sess-77")
	require.NoError(t, serr)
	require.Equal(t, deletion.StateFailed, state)

	failed := log.typed(activity.TypeDeletionFailed)
	require.Len(t, failed, 1)
	require.Equal(t, "anonymize_user", failed[0].Meta["failed_step"])
	require.Contains(t, failed[0].Meta["error"], "users table locked")

	// Failed flows may be reopened.
	_, err = svc.Open(ctx, "sess-77")
	require.NoError(t, err)
}

func TestCancelResetsFlow(t *testing.T) {
	svc, states, _ := newDeletionService(t, seededRepo(), &recordingLog{})
	ctx := context.Background()

	_, err := svc.Open(ctx, "sess-77")
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, "sess-77"))

	state, err := states.Get(ctx, "sess-77")
	require.NoError(t, err)
	require.Equal(t, deletion.StateIdle, state)
}
