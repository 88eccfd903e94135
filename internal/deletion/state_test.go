package deletion

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/nimbus-console/nimbus-console/internal/shared"
)

func TestPhraseMatches(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"delete", true},
		{"Delete", true},
		{"DELETE", true},
		{"delet", false},
		{"deleted", false},
		{"delete ", false},
		{" delete", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := PhraseMatches(tc.input); got != tc.want {
			t.Errorf("PhraseMatches(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to State }{
		{StateIdle, StateVerificationPending},
		{StateVerificationPending, StateConfirmationPending},
		{StateVerificationPending, StateIdle},
		{StateConfirmationPending, StateDeleting},
		{StateConfirmationPending, StateIdle},
		{StateDeleting, StateDone},
		{StateDeleting, StateFailed},
		{StateFailed, StateVerificationPending},
	}
	for _, tc := range allowed {
		if !CanTransition(tc.from, tc.to) {
			t.Errorf("%s -> %s should be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to State }{
		{StateIdle, StateDeleting},
		{StateIdle, StateConfirmationPending},
		{StateVerificationPending, StateDeleting},
		{StateConfirmationPending, StateDone},
		{StateDone, StateVerificationPending},
		{StateDone, StateIdle},
		{StateDeleting, StateIdle},
	}
	for _, tc := range denied {
		if CanTransition(tc.from, tc.to) {
			t.Errorf("%s -> %s should be denied", tc.from, tc.to)
		}
	}
}

func newStateStore(t *testing.T) *StateStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewStateStore(client, time.Hour)
}

func TestStateStoreDefaultsToIdle(t *testing.T) {
	store := newStateStore(t)
	state, err := store.Get(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if state != StateIdle {
		t.Fatalf("state = %s, want idle", state)
	}
}

func TestStateStoreEnforcesTransitions(t *testing.T) {
	store := newStateStore(t)
	ctx := context.Background()

	if _, err := store.Transition(ctx, "sess-1", StateDeleting); err == nil {
		t.Fatal("idle -> deleting accepted")
	} else if shared.CodeOf(err) != shared.CodeConflict {
		t.Fatalf("code = %s, want conflict", shared.CodeOf(err))
	}

	state, err := store.Transition(ctx, "sess-1", StateVerificationPending)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if state != StateVerificationPending {
		t.Fatalf("state = %s", state)
	}

	// Flow state is per session.
	other, err := store.Get(ctx, "sess-2")
	if err != nil || other != StateIdle {
		t.Fatalf("sess-2 state = %s %v", other, err)
	}
}

func TestStateStoreReset(t *testing.T) {
	store := newStateStore(t)
	ctx := context.Background()

	if _, err := store.Transition(ctx, "sess-1", StateVerificationPending); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := store.Reset(ctx, "sess-1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	state, err := store.Get(ctx, "sess-1")
	if err != nil || state != StateIdle {
		t.Fatalf("state = %s %v", state, err)
	}
}
