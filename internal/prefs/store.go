// Package prefs persists per-user console state that the legacy client kept
// in device-local storage: language choice, post-login flags and a handful of
// stale auth cache keys that session cleanup is responsible for deleting.
package prefs

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Well-known preference keys.
const (
	KeyLanguage                = "language"
	KeySkipLoadingAfterLogin   = "skip_loading_after_login"
	KeyForceReloadAfterSignout = "force_reload_after_signout"
)

// LegacyAuthKeys enumerates auth cache keys written by older console builds.
// Session cleanup deletes exactly these.
var LegacyAuthKeys = []string{
	"auth.token",
	"auth.refresh_token",
	"auth.expires_at",
	"auth.provider_token",
	"auth.user_cache",
}

// KnownKeys lists every key the console may read back.
var KnownKeys = append([]string{
	KeyLanguage,
	KeySkipLoadingAfterLogin,
	KeyForceReloadAfterSignout,
}, LegacyAuthKeys...)

// Store is a Redis-backed namespaced key-value store, one namespace per user.
type Store struct {
	client *redis.Client
}

// NewStore constructs a Store.
func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

// Get returns the stored value, or "" when the key is absent.
func (s *Store) Get(ctx context.Context, userID int64, key string) (string, error) {
	value, err := s.client.Get(ctx, s.key(userID, key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// Set writes a value with no expiry.
func (s *Store) Set(ctx context.Context, userID int64, key, value string) error {
	return s.client.Set(ctx, s.key(userID, key), value, 0).Err()
}

// Delete removes the given keys. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, userID int64, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	namespaced := make([]string, len(keys))
	for i, k := range keys {
		namespaced[i] = s.key(userID, k)
	}
	return s.client.Del(ctx, namespaced...).Err()
}

// PresentLegacyKeys reports which legacy auth keys currently hold a value.
func (s *Store) PresentLegacyKeys(ctx context.Context, userID int64) ([]string, error) {
	var present []string
	for _, k := range LegacyAuthKeys {
		n, err := s.client.Exists(ctx, s.key(userID, k)).Result()
		if err != nil {
			return present, err
		}
		if n > 0 {
			present = append(present, k)
		}
	}
	return present, nil
}

// All returns every known key that holds a value.
func (s *Store) All(ctx context.Context, userID int64) (map[string]string, error) {
	values := make(map[string]string)
	for _, k := range KnownKeys {
		v, err := s.client.Get(ctx, s.key(userID, k)).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}
		values[k] = v
	}
	return values, nil
}

func (s *Store) key(userID int64, key string) string {
	return fmt.Sprintf("prefs:%d:%s", userID, key)
}
