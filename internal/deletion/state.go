package deletion

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nimbus-console/nimbus-console/internal/shared"
)

// State is the tagged deletion-flow state. Reifying the flow as one enum
// (instead of independent modal-visible booleans) makes invalid combinations
// unrepresentable.
type State string

const (
	StateIdle                State = "idle"
	StateVerificationPending State = "verification_pending"
	StateConfirmationPending State = "confirmation_pending"
	StateDeleting            State = "deleting"
	StateDone                State = "done"
	StateFailed              State = "failed"
)

// VerificationPhrase is the literal the user must type to unlock the final
// confirmation.
const VerificationPhrase = "delete"

// PhraseMatches reports whether the typed text unlocks confirmation. The
// comparison lower-cases the input but does not trim it: "Delete" passes,
// "delete " does not.
func PhraseMatches(input string) bool {
	return strings.ToLower(input) == VerificationPhrase
}

var transitions = map[State][]State{
	StateIdle:                {StateVerificationPending},
	StateVerificationPending: {StateConfirmationPending, StateIdle},
	StateConfirmationPending: {StateDeleting, StateIdle},
	StateDeleting:            {StateDone, StateFailed},
	StateFailed:              {StateVerificationPending},
}

// CanTransition reports whether from -> to is a legal step.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StateStore persists the per-session flow state in Redis so a re-opened
// console sees where the flow stands.
type StateStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStateStore constructs a StateStore.
func NewStateStore(client *redis.Client, ttl time.Duration) *StateStore {
	return &StateStore{client: client, ttl: ttl}
}

// Get returns the current state, defaulting to idle.
func (s *StateStore) Get(ctx context.Context, sessionID string) (State, error) {
	value, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return StateIdle, nil
		}
		return StateIdle, err
	}
	return State(value), nil
}

// Transition moves the flow to the target state, enforcing the transition
// table against the currently stored state.
func (s *StateStore) Transition(ctx context.Context, sessionID string, to State) (State, error) {
	current, err := s.Get(ctx, sessionID)
	if err != nil {
		return current, err
	}
	if !CanTransition(current, to) {
		return current, shared.E(shared.CodeConflict,
			"deletion flow is in state "+string(current)+", cannot move to "+string(to))
	}
	if err := s.client.Set(ctx, s.key(sessionID), string(to), s.ttl).Err(); err != nil {
		return current, err
	}
	return to, nil
}

// Reset clears the flow back to idle.
func (s *StateStore) Reset(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}

func (s *StateStore) key(sessionID string) string {
	return "deletion_state:" + sessionID
}
