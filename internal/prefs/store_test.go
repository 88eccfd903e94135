package prefs

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestGetMissingKeyIsEmpty(t *testing.T) {
	store := newStore(t)
	v, err := store.Get(context.Background(), 1, KeyLanguage)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v != "" {
		t.Fatalf("v = %q, want empty", v)
	}
}

func TestSetGetDelete(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, 1, KeyLanguage, "id"); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, err := store.Get(ctx, 1, KeyLanguage)
	if err != nil || v != "id" {
		t.Fatalf("get = %q %v", v, err)
	}

	// Another user's namespace is untouched.
	v, err = store.Get(ctx, 2, KeyLanguage)
	if err != nil || v != "" {
		t.Fatalf("cross-user get = %q %v", v, err)
	}

	if err := store.Delete(ctx, 1, KeyLanguage); err != nil {
		t.Fatalf("delete: %v", err)
	}
	v, _ = store.Get(ctx, 1, KeyLanguage)
	if v != "" {
		t.Fatalf("deleted key still set: %q", v)
	}
}

func TestDeleteNoKeysIsNoOp(t *testing.T) {
	store := newStore(t)
	if err := store.Delete(context.Background(), 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestPresentLegacyKeys(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	present, err := store.PresentLegacyKeys(ctx, 1)
	if err != nil || len(present) != 0 {
		t.Fatalf("present = %v %v", present, err)
	}

	if err := store.Set(ctx, 1, "auth.token", "x"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, 1, "auth.user_cache", "y"); err != nil {
		t.Fatalf("set: %v", err)
	}
	// A non-legacy key never shows up here.
	if err := store.Set(ctx, 1, KeyLanguage, "en"); err != nil {
		t.Fatalf("set: %v", err)
	}

	present, err = store.PresentLegacyKeys(ctx, 1)
	if err != nil {
		t.Fatalf("present: %v", err)
	}
	if len(present) != 2 {
		t.Fatalf("present = %v", present)
	}
}

func TestAllReturnsOnlySetKeys(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, 1, KeyLanguage, "en"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, 1, KeySkipLoadingAfterLogin, "true"); err != nil {
		t.Fatalf("set: %v", err)
	}

	all, err := store.All(ctx, 1)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 2 || all[KeyLanguage] != "en" || all[KeySkipLoadingAfterLogin] != "true" {
		t.Fatalf("all = %v", all)
	}
}
