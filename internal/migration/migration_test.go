package migration

import (
	"context"
	"testing"

	"github.com/relentnet/matchops-sync/internal/domain"
	"github.com/relentnet/matchops-sync/internal/kv"
	"github.com/relentnet/matchops-sync/internal/errs"
	"github.com/relentnet/matchops-sync/internal/store/localstore"
)

// Both sides of these tests are LocalDataStore instances over independent
// in-memory kv.Stores. LocalDataStore and RemoteDataStore satisfy the same
// migration.Store interface, so exercising the engine against two local
// stores is a faithful stand-in for a local<->remote run without a Postgres
// instance. Run closes its stores, so tests that run more than once build a
// fresh Engine per run over the same backing stores (in-memory stores stay
// readable after Close, which keeps post-run assertions simple).
type testRig struct {
	local  *localstore.LocalDataStore
	remote *localstore.LocalDataStore
	flags  kv.Store
}

func newTestRig(t *testing.T) testRig {
	t.Helper()
	return testRig{
		local:  localstore.New(kv.NewMemoryStore()),
		remote: localstore.New(kv.NewMemoryStore()),
		flags:  kv.NewMemoryStore(),
	}
}

func (r testRig) engine() *Engine {
	return New(r.local, r.remote, r.flags)
}

func TestRunCopiesEveryEntityType(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	e, local, remote := rig.engine(), rig.local, rig.remote

	if _, err := local.CreatePlayer(ctx, domain.Player{Name: "Alex Morgan"}); err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}
	team, err := local.CreateTeam(ctx, domain.Team{Name: "Thunder"})
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	if err := local.SetTeamRoster(ctx, team.ID, []domain.TeamPlayer{{TeamID: team.ID, PlayerID: "p1", Name: "Alex"}}); err != nil {
		t.Fatalf("SetTeamRoster: %v", err)
	}
	if _, err := local.CreateSeason(ctx, domain.Season{Name: "Fall 2026"}); err != nil {
		t.Fatalf("CreateSeason: %v", err)
	}
	if _, err := local.CreateGame(ctx, domain.Game{TeamName: "Thunder", OpponentName: "Lightning"}); err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if err := local.SaveSettings(ctx, domain.AppSettings{Language: "fr"}); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	if err := e.Run(ctx, LocalToRemote); err != nil {
		t.Fatalf("Run: %v", err)
	}

	players, err := remote.GetPlayers(ctx)
	if err != nil || len(players) != 1 {
		t.Fatalf("expected one migrated player, got %+v (err %v)", players, err)
	}
	roster, err := remote.GetTeamRoster(ctx, team.ID)
	if err != nil || len(roster) != 1 {
		t.Fatalf("expected roster to migrate, got %+v (err %v)", roster, err)
	}
	seasons, err := remote.GetSeasons(ctx, true)
	if err != nil || len(seasons) != 1 {
		t.Fatalf("expected one migrated season, got %+v (err %v)", seasons, err)
	}
	games, err := remote.GetGames(ctx)
	if err != nil || len(games) != 1 {
		t.Fatalf("expected one migrated game, got %+v (err %v)", games, err)
	}
	settings, err := remote.GetSettings(ctx)
	if err != nil || settings.Language != "fr" {
		t.Fatalf("expected migrated settings, got %+v (err %v)", settings, err)
	}

	done, err := e.IsCompleted(ctx)
	if err != nil || !done {
		t.Fatalf("expected migration marked completed, got %v (err %v)", done, err)
	}
}

func TestRunRefusesToRepeatAfterCompletion(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	if _, err := rig.local.CreatePlayer(ctx, domain.Player{Name: "Temp"}); err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}
	if err := rig.engine().Run(ctx, LocalToRemote); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	err := rig.engine().Run(ctx, LocalToRemote)
	if !errs.Is(err, errs.AlreadyExists) {
		t.Fatalf("expected AlreadyExists on a repeat run, got %v", err)
	}

	if err := rig.engine().ClearCompleted(ctx); err != nil {
		t.Fatalf("ClearCompleted: %v", err)
	}
	if err := rig.engine().Run(ctx, LocalToRemote); err != nil {
		t.Fatalf("Run after ClearCompleted: %v", err)
	}
}

func TestRunIsIdempotentAcrossRepeatedCalls(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	if _, err := rig.local.CreatePlayer(ctx, domain.Player{Name: "Alex Morgan"}); err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}

	if err := rig.engine().Run(ctx, LocalToRemote); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := rig.engine().ClearCompleted(ctx); err != nil {
		t.Fatalf("ClearCompleted: %v", err)
	}
	if err := rig.engine().Run(ctx, LocalToRemote); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	players, err := rig.remote.GetPlayers(ctx)
	if err != nil {
		t.Fatalf("GetPlayers: %v", err)
	}
	if len(players) != 1 {
		t.Fatalf("expected running the migration twice to not duplicate rows, got %d players", len(players))
	}
}

func TestRunResumesFromProgressMarkerAfterPartialFailure(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	e, local, remote := rig.engine(), rig.local, rig.remote
	if _, err := local.CreatePlayer(ctx, domain.Player{Name: "Alex Morgan"}); err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}
	if _, err := local.CreateSeason(ctx, domain.Season{Name: "Fall 2026"}); err != nil {
		t.Fatalf("CreateSeason: %v", err)
	}

	// Simulate a prior run that crashed after finishing players but before
	// seasons: mark players done directly on the flags store.
	if err := e.markEntityDone(ctx, "player"); err != nil {
		t.Fatalf("markEntityDone: %v", err)
	}
	// Poison the destination's player collection so a re-copy would be
	// observable, confirming the resumed run really did skip it.
	if _, err := remote.CreatePlayer(ctx, domain.Player{Name: "Should Not Be Overwritten"}); err != nil {
		t.Fatalf("CreatePlayer (remote seed): %v", err)
	}

	if err := e.Run(ctx, LocalToRemote); err != nil {
		t.Fatalf("Run: %v", err)
	}

	players, err := remote.GetPlayers(ctx)
	if err != nil {
		t.Fatalf("GetPlayers: %v", err)
	}
	if len(players) != 1 || players[0].Name != "Should Not Be Overwritten" {
		t.Fatalf("expected the resumed run to skip the already-done player step, got %+v", players)
	}

	seasons, err := remote.GetSeasons(ctx, true)
	if err != nil || len(seasons) != 1 {
		t.Fatalf("expected the season step to still run, got %+v (err %v)", seasons, err)
	}
}

func TestHasPartialProgressDetectsInterruptedRun(t *testing.T) {
	ctx := context.Background()
	rig := newTestRig(t)
	e := rig.engine()
	if _, err := rig.local.CreatePlayer(ctx, domain.Player{Name: "Alex"}); err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}

	if partial, err := e.HasPartialProgress(ctx); err != nil || partial {
		t.Fatalf("expected no partial progress on a fresh engine, got %v (err %v)", partial, err)
	}

	// A crashed run leaves one marker behind.
	if err := e.markEntityDone(ctx, "player"); err != nil {
		t.Fatalf("markEntityDone: %v", err)
	}
	if partial, err := e.HasPartialProgress(ctx); err != nil || !partial {
		t.Fatalf("expected partial progress to be detected, got %v (err %v)", partial, err)
	}

	// A completed run clears the markers and goes quiet.
	if err := e.Run(ctx, LocalToRemote); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if partial, err := rig.engine().HasPartialProgress(ctx); err != nil || partial {
		t.Fatalf("expected no partial progress after completion, got %v (err %v)", partial, err)
	}
}

// failingPersonnelStore wraps a real Store and fails every UpsertPersonnel
// call with a VALIDATION error, standing in for a fatal (non-transient)
// remote failure without needing a real Postgres constraint violation.
type failingPersonnelStore struct {
	Store
}

func (f failingPersonnelStore) UpsertPersonnel(ctx context.Context, p domain.Personnel) (domain.Personnel, error) {
	return domain.Personnel{}, errs.New(errs.Validation, "simulated fatal destination failure")
}

func TestRunRollsBackDestinationOnFatalFailure(t *testing.T) {
	ctx := context.Background()
	local := localstore.New(kv.NewMemoryStore())
	remote := localstore.New(kv.NewMemoryStore())
	flags := kv.NewMemoryStore()
	e := New(local, failingPersonnelStore{remote}, flags)

	existing, err := remote.CreatePlayer(ctx, domain.Player{Name: "Already There"})
	if err != nil {
		t.Fatalf("CreatePlayer (remote seed): %v", err)
	}
	if _, err := local.CreatePlayer(ctx, domain.Player{Name: "Valid"}); err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}
	if _, err := local.AddPersonnelMember(ctx, domain.Personnel{Name: "Coach"}); err != nil {
		t.Fatalf("AddPersonnelMember: %v", err)
	}

	runErr := e.Run(ctx, LocalToRemote)
	if runErr == nil {
		t.Fatalf("expected Run to fail when the destination rejects personnel")
	}

	players, err := remote.GetPlayers(ctx)
	if err != nil {
		t.Fatalf("GetPlayers: %v", err)
	}
	if len(players) != 1 || players[0].ID != existing.ID {
		t.Fatalf("expected rollback to restore the destination to its pre-run snapshot, got %+v", players)
	}

	done, err := e.IsCompleted(ctx)
	if err != nil || done {
		t.Fatalf("expected a rolled-back run to not be marked completed, got %v (err %v)", done, err)
	}
}
