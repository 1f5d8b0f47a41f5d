package localstore

import (
	"context"
	"sort"

	"github.com/relentnet/matchops-sync/internal/domain"
	"github.com/relentnet/matchops-sync/internal/errs"
)

const maxTeamNameLength = 100

func (s *LocalDataStore) readTeams(ctx context.Context) (map[string]domain.Team, error) {
	return readCollection(ctx, s, keyTeams, map[string]domain.Team{})
}

func (s *LocalDataStore) GetTeams(ctx context.Context, includeArchived bool) ([]domain.Team, error) {
	teams, err := s.readTeams(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Team, 0, len(teams))
	for _, t := range teams {
		if !includeArchived && t.IsArchived {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (s *LocalDataStore) GetTeamByID(ctx context.Context, id string) (*domain.Team, error) {
	teams, err := s.readTeams(ctx)
	if err != nil {
		return nil, err
	}
	t, ok := teams[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// validateTeam enforces name bounds and the rule that a series binding
// requires a tournament binding.
func validateTeam(t *domain.Team) error {
	t.Name = domain.NormalizeName(t.Name)
	if err := domain.ValidateName(t.Name, maxTeamNameLength); err != nil {
		return errs.Wrap(errs.Validation, "team name invalid", err)
	}
	if t.BoundTournamentSeriesID != "" && t.BoundTournamentID == "" {
		return errs.Wrap(errs.Validation, "team binding invalid", domain.ErrSeriesRequiresTournament)
	}
	return nil
}

func findTeamByUniqueKey(teams map[string]domain.Team, key, excludeID string) bool {
	for id, t := range teams {
		if id == excludeID {
			continue
		}
		if t.UniqueKey() == key {
			return true
		}
	}
	return false
}

func (s *LocalDataStore) CreateTeam(ctx context.Context, t domain.Team) (domain.Team, error) {
	return synclockWithKey(s, ctx, keyTeams, func() (domain.Team, error) {
		if err := validateTeam(&t); err != nil {
			return domain.Team{}, err
		}
		teams, err := s.readTeams(ctx)
		if err != nil {
			return domain.Team{}, err
		}
		if findTeamByUniqueKey(teams, t.UniqueKey(), "") {
			return domain.Team{}, errs.New(errs.AlreadyExists, "a team with this name and binding already exists")
		}
		now := nowISO()
		t.ID = newID("team")
		t.CreatedAt = now
		t.UpdatedAt = now
		teams[t.ID] = t
		if err := writeCollection(ctx, s, keyTeams, teams); err != nil {
			return domain.Team{}, err
		}
		return t, nil
	})
}

func (s *LocalDataStore) UpdateTeam(ctx context.Context, id string, patch domain.Team) (*domain.Team, error) {
	return synclockWithKey(s, ctx, keyTeams, func() (*domain.Team, error) {
		teams, err := s.readTeams(ctx)
		if err != nil {
			return nil, err
		}
		existing, ok := teams[id]
		if !ok {
			return nil, nil
		}
		merged := existing
		if patch.Name != "" {
			merged.Name = patch.Name
		}
		merged.Color = patch.Color
		merged.Notes = patch.Notes
		merged.AgeGroup = patch.AgeGroup
		merged.GameType = patch.GameType
		merged.IsArchived = patch.IsArchived
		merged.BoundSeasonID = patch.BoundSeasonID
		merged.BoundTournamentID = patch.BoundTournamentID
		merged.BoundTournamentSeriesID = patch.BoundTournamentSeriesID
		if err := validateTeam(&merged); err != nil {
			return nil, err
		}
		if findTeamByUniqueKey(teams, merged.UniqueKey(), id) {
			return nil, errs.New(errs.AlreadyExists, "a team with this name and binding already exists")
		}
		merged.UpdatedAt = nowISO()
		teams[id] = merged
		if err := writeCollection(ctx, s, keyTeams, teams); err != nil {
			return nil, err
		}
		return &merged, nil
	})
}

func (s *LocalDataStore) DeleteTeam(ctx context.Context, id string) error {
	_, err := synclockWithKey(s, ctx, keyTeams, func() (struct{}, error) {
		teams, err := s.readTeams(ctx)
		if err != nil {
			return struct{}{}, err
		}
		delete(teams, id)
		return struct{}{}, writeCollection(ctx, s, keyTeams, teams)
	})
	return err
}

func (s *LocalDataStore) UpsertTeam(ctx context.Context, t domain.Team) (domain.Team, error) {
	return synclockWithKey(s, ctx, keyTeams, func() (domain.Team, error) {
		if err := validateTeam(&t); err != nil {
			return domain.Team{}, err
		}
		teams, err := s.readTeams(ctx)
		if err != nil {
			return domain.Team{}, err
		}
		if findTeamByUniqueKey(teams, t.UniqueKey(), t.ID) {
			return domain.Team{}, errs.New(errs.AlreadyExists, "a team with this name and binding already exists")
		}
		now := nowISO()
		if t.ID == "" {
			t.ID = newID("team")
			t.CreatedAt = now
		} else if existing, ok := teams[t.ID]; ok {
			t.CreatedAt = existing.CreatedAt
		} else {
			t.CreatedAt = now
		}
		t.UpdatedAt = now
		teams[t.ID] = t
		if err := writeCollection(ctx, s, keyTeams, teams); err != nil {
			return domain.Team{}, err
		}
		return t, nil
	})
}
