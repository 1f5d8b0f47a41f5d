package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/relentnet/matchops-sync/internal/domain"
	"github.com/relentnet/matchops-sync/internal/kv"
)

func TestOpenUserStoreLocalModeRoundTrip(t *testing.T) {
	t.Setenv("LOCAL_KV_DIR", t.TempDir())
	t.Setenv("BACKEND_MODE", "")
	t.Setenv("CLOUD_ENDPOINT", "")
	t.Setenv("CLOUD_PUBLIC_KEY", "")
	ctx := context.Background()

	session, err := OpenUserStore(ctx, "coach-1", Deps{})
	if err != nil {
		t.Fatalf("OpenUserStore: %v", err)
	}
	defer CloseUserStore(ctx)

	if session.Mode() != "local" {
		t.Fatalf("expected local mode, got %s", session.Mode())
	}

	p, err := session.Store().CreatePlayer(ctx, domain.Player{Name: "Alex"})
	if err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}
	players, err := session.Store().GetPlayers(ctx)
	if err != nil || len(players) != 1 || players[0].ID != p.ID {
		t.Fatalf("expected the created player back, got %+v (err %v)", players, err)
	}
}

func TestOpenUserStoreRefusesOverlappingSessions(t *testing.T) {
	t.Setenv("LOCAL_KV_DIR", t.TempDir())
	ctx := context.Background()

	if _, err := OpenUserStore(ctx, "coach-1", Deps{}); err != nil {
		t.Fatalf("OpenUserStore: %v", err)
	}
	defer CloseUserStore(ctx)

	if _, err := OpenUserStore(ctx, "coach-2", Deps{}); err == nil {
		t.Fatalf("expected a second open to be refused while a session is active")
	}
}

func TestOpenUserStoreAdoptsLegacyDatabase(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOCAL_KV_DIR", dir)
	ctx := context.Background()

	// Seed a legacy, pre-scoping database file holding one player.
	legacy, err := kv.OpenBoltStore(filepath.Join(dir, kv.LegacyDatabaseName+".db"))
	if err != nil {
		t.Fatalf("open legacy: %v", err)
	}
	if err := legacy.Set(ctx, "players", []byte(`{"p1":{"id":"p1","name":"Alex"}}`)); err != nil {
		t.Fatalf("seed legacy: %v", err)
	}
	if err := legacy.Close(); err != nil {
		t.Fatalf("close legacy: %v", err)
	}

	session, err := OpenUserStore(ctx, "coach-1", Deps{})
	if err != nil {
		t.Fatalf("OpenUserStore: %v", err)
	}
	defer CloseUserStore(ctx)

	players, err := session.Store().GetPlayers(ctx)
	if err != nil || len(players) != 1 || players[0].Name != "Alex" {
		t.Fatalf("expected the legacy data adopted into the scoped database, got %+v (err %v)", players, err)
	}

	if _, err := os.Stat(filepath.Join(dir, kv.LegacyDatabaseName+".db")); !os.IsNotExist(err) {
		t.Fatalf("expected the legacy file to be renamed away, err %v", err)
	}
}
