package kv

import (
	"context"
	"path/filepath"
	"sort"
	"testing"
)

func testStoreRoundTrip(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, found, err := s.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("expected clean miss, got found=%v err=%v", found, err)
	}

	if err := s.Set(ctx, "a", []byte("1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "b", []byte("2")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	v, found, err := s.Get(ctx, "a")
	if err != nil || !found || string(v) != "1" {
		t.Fatalf("Get a: %q found=%v err=%v", v, found, err)
	}

	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("unexpected keys: %v", keys)
	}

	if err := s.Remove(ctx, "a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, found, _ := s.Get(ctx, "a"); found {
		t.Fatalf("expected a removed")
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	keys, _ = s.Keys(ctx)
	if len(keys) != 0 {
		t.Fatalf("expected empty store after clear, got %v", keys)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	testStoreRoundTrip(t, NewMemoryStore())
}

func TestBoltStoreRoundTrip(t *testing.T) {
	s, err := OpenBoltStore(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("OpenBoltStore: %v", err)
	}
	defer s.Close()
	testStoreRoundTrip(t, s)
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := OpenBoltStore(path)
	if err != nil {
		t.Fatalf("OpenBoltStore: %v", err)
	}
	if err := s.Set(ctx, "settings", []byte(`{"language":"en"}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenBoltStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	v, found, err := reopened.Get(ctx, "settings")
	if err != nil || !found || string(v) != `{"language":"en"}` {
		t.Fatalf("expected value to survive reopen, got %q found=%v err=%v", v, found, err)
	}
}

func TestMemoryStoreGetReturnsACopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Set(ctx, "k", []byte("abc")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, _, _ := s.Get(ctx, "k")
	v[0] = 'x'
	again, _, _ := s.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("expected stored value to be isolated from caller mutation, got %q", again)
	}
}
