package localstore

import (
	"context"
	"testing"

	"github.com/relentnet/matchops-sync/internal/domain"
	"github.com/relentnet/matchops-sync/internal/errs"
	"github.com/relentnet/matchops-sync/internal/kv"
)

func newTestStore() *LocalDataStore {
	return New(kv.NewMemoryStore())
}

func TestCreatePlayerTrimsAndStampsTimestamps(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	p, err := s.CreatePlayer(ctx, domain.Player{Name: "  Alex Morgan  "})
	if err != nil {
		t.Fatalf("CreatePlayer: %v", err)
	}
	if p.Name != "Alex Morgan" {
		t.Errorf("expected trimmed name, got %q", p.Name)
	}
	if p.ID == "" || p.CreatedAt == "" || p.UpdatedAt == "" {
		t.Errorf("expected id/timestamps to be stamped, got %+v", p)
	}
}

func TestCreatePlayerRejectsEmptyName(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.CreatePlayer(ctx, domain.Player{Name: "   "})
	if !errs.Is(err, errs.Validation) {
		t.Fatalf("expected Validation error, got %v", err)
	}
}

func TestUpdatePlayerOnMissingIDReturnsNilNil(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	got, err := s.UpdatePlayer(ctx, "does-not-exist", domain.Player{Name: "X"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing id, got %+v", got)
	}
}

func TestCreateTeamEnforcesCompositeUniqueness(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	team := domain.Team{Name: "Thunder", GameType: "7v7", BoundSeasonID: "season-1"}
	if _, err := s.CreateTeam(ctx, team); err != nil {
		t.Fatalf("first CreateTeam: %v", err)
	}
	_, err := s.CreateTeam(ctx, domain.Team{Name: "thunder ", GameType: "7v7", BoundSeasonID: "season-1"})
	if !errs.Is(err, errs.AlreadyExists) {
		t.Fatalf("expected AlreadyExists for case/space-insensitive duplicate, got %v", err)
	}
}

func TestCreateTeamRejectsSeriesWithoutTournament(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.CreateTeam(ctx, domain.Team{Name: "Rapids", BoundTournamentSeriesID: "series-1"})
	if !errs.Is(err, errs.Validation) {
		t.Fatalf("expected Validation error for series without tournament, got %v", err)
	}
}

func TestGameEventAddUpdateRemoveIsPositional(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	g, err := s.CreateGame(ctx, domain.Game{TeamName: "Home"})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}

	g1, err := s.AddGameEvent(ctx, g.ID, domain.GameEvent{Type: "goal", Time: 10})
	if err != nil || g1 == nil {
		t.Fatalf("AddGameEvent: %v, %v", g1, err)
	}
	g2, err := s.AddGameEvent(ctx, g.ID, domain.GameEvent{Type: "goal", Time: 20})
	if err != nil || g2 == nil {
		t.Fatalf("AddGameEvent: %v, %v", g2, err)
	}
	if len(g2.GameEvents) != 2 {
		t.Fatalf("expected 2 events, got %d", len(g2.GameEvents))
	}

	updated, err := s.UpdateGameEvent(ctx, g.ID, 0, domain.GameEvent{Type: "goal", Time: 11})
	if err != nil {
		t.Fatalf("UpdateGameEvent: %v", err)
	}
	if updated.GameEvents[0].Time != 11 {
		t.Fatalf("expected updated event time 11, got %d", updated.GameEvents[0].Time)
	}

	// Out-of-range index returns nil without mutating the event list.
	noop, err := s.UpdateGameEvent(ctx, g.ID, 99, domain.GameEvent{Type: "goal", Time: 999})
	if err != nil {
		t.Fatalf("UpdateGameEvent out of range: %v", err)
	}
	if noop != nil {
		t.Fatalf("expected nil for out-of-range index, got %+v", noop)
	}
	unchanged, err := s.GetGameByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetGameByID: %v", err)
	}
	if len(unchanged.GameEvents) != 2 || unchanged.GameEvents[1].Time != 20 {
		t.Fatalf("expected untouched events, got %+v", unchanged.GameEvents)
	}

	removed, err := s.RemoveGameEvent(ctx, g.ID, 0)
	if err != nil {
		t.Fatalf("RemoveGameEvent: %v", err)
	}
	if len(removed.GameEvents) != 1 || removed.GameEvents[0].Time != 20 {
		t.Fatalf("expected single remaining event at time 20, got %+v", removed.GameEvents)
	}
}

func TestRemovePersonnelMemberScrubsGameEventReferences(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	coach, err := s.AddPersonnelMember(ctx, domain.Personnel{Name: "Coach Carter", Role: domain.RoleCoach})
	if err != nil {
		t.Fatalf("AddPersonnelMember: %v", err)
	}

	g, err := s.CreateGame(ctx, domain.Game{TeamName: "Home"})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	if _, err := s.AddGameEvent(ctx, g.ID, domain.GameEvent{Type: "substitution", PersonnelID: coach.ID}); err != nil {
		t.Fatalf("AddGameEvent: %v", err)
	}

	if err := s.RemovePersonnelMember(ctx, coach.ID); err != nil {
		t.Fatalf("RemovePersonnelMember: %v", err)
	}

	got, err := s.GetGameByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetGameByID: %v", err)
	}
	if got.GameEvents[0].PersonnelID != "" {
		t.Errorf("expected personnel reference scrubbed, got %q", got.GameEvents[0].PersonnelID)
	}

	member, err := s.GetPersonnelByID(ctx, coach.ID)
	if err != nil {
		t.Fatalf("GetPersonnelByID: %v", err)
	}
	if member != nil {
		t.Errorf("expected personnel record deleted, got %+v", member)
	}
}

func TestUpdateSettingsPatchesWithoutClobberingOtherFields(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	if err := s.SaveSettings(ctx, domain.AppSettings{Language: "en", LastHomeTeamName: "Thunder"}); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	updated, err := s.UpdateSettings(ctx, map[string]any{"language": "fr"})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if updated.Language != "fr" {
		t.Errorf("expected language updated to fr, got %q", updated.Language)
	}
	if updated.LastHomeTeamName != "Thunder" {
		t.Errorf("expected unrelated field preserved, got %q", updated.LastHomeTeamName)
	}
}

func TestSaveWarmupPlanForcesIsDefaultFalse(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	saved, err := s.SaveWarmupPlan(ctx, domain.WarmupPlan{
		IsDefault: true,
		Sections:  []domain.WarmupSection{{Title: "Passing", Items: []string{"rondo"}}},
	})
	if err != nil {
		t.Fatalf("SaveWarmupPlan: %v", err)
	}
	if saved.IsDefault {
		t.Fatalf("expected isDefault forced false on save, got %+v", saved)
	}
	if saved.ID != "default" || saved.Version != 1 || saved.LastModified == "" {
		t.Fatalf("expected normalized singleton plan, got %+v", saved)
	}

	got, err := s.GetWarmupPlan(ctx)
	if err != nil || got == nil || got.IsDefault {
		t.Fatalf("expected stored plan with isDefault false, got %+v (err %v)", got, err)
	}
}

func TestTimerStateIsLocalOnlyRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	if got, _ := s.GetTimerState(ctx); got != nil {
		t.Fatalf("expected nil timer state initially, got %+v", got)
	}
	if err := s.SaveTimerState(ctx, domain.TimerState{GameID: "g1", TimeElapsedInSeconds: 42}); err != nil {
		t.Fatalf("SaveTimerState: %v", err)
	}
	got, err := s.GetTimerState(ctx)
	if err != nil || got == nil || got.TimeElapsedInSeconds != 42 {
		t.Fatalf("expected round-tripped timer state, got %+v, %v", got, err)
	}
	if err := s.ClearTimerState(ctx); err != nil {
		t.Fatalf("ClearTimerState: %v", err)
	}
	if got, _ := s.GetTimerState(ctx); got != nil {
		t.Fatalf("expected nil timer state after clear, got %+v", got)
	}
}
