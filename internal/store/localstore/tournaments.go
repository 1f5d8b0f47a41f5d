package localstore

import (
	"context"
	"sort"

	"github.com/relentnet/matchops-sync/internal/domain"
	"github.com/relentnet/matchops-sync/internal/errs"
)

const maxTournamentNameLength = 100

func (s *LocalDataStore) readTournaments(ctx context.Context) (map[string]domain.Tournament, error) {
	return readCollection(ctx, s, keyTournaments, map[string]domain.Tournament{})
}

func (s *LocalDataStore) GetTournaments(ctx context.Context, includeArchived bool) ([]domain.Tournament, error) {
	tournaments, err := s.readTournaments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Tournament, 0, len(tournaments))
	for _, t := range tournaments {
		if !includeArchived && t.IsArchived {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func findTournamentByUniqueKey(tournaments map[string]domain.Tournament, key, excludeID string) bool {
	for id, t := range tournaments {
		if id == excludeID {
			continue
		}
		if t.UniqueKey() == key {
			return true
		}
	}
	return false
}

func (s *LocalDataStore) CreateTournament(ctx context.Context, t domain.Tournament) (domain.Tournament, error) {
	return synclockWithKey(s, ctx, keyTournaments, func() (domain.Tournament, error) {
		t.Name = domain.NormalizeName(t.Name)
		if err := domain.ValidateName(t.Name, maxTournamentNameLength); err != nil {
			return domain.Tournament{}, errs.Wrap(errs.Validation, "tournament name invalid", err)
		}
		tournaments, err := s.readTournaments(ctx)
		if err != nil {
			return domain.Tournament{}, err
		}
		if findTournamentByUniqueKey(tournaments, t.UniqueKey(), "") {
			return domain.Tournament{}, errs.New(errs.AlreadyExists, "a tournament with this name and binding already exists")
		}
		now := nowISO()
		t.ID = newID("tournament")
		t.CreatedAt = now
		t.UpdatedAt = now
		tournaments[t.ID] = t
		if err := writeCollection(ctx, s, keyTournaments, tournaments); err != nil {
			return domain.Tournament{}, err
		}
		return t, nil
	})
}

func (s *LocalDataStore) UpdateTournament(ctx context.Context, id string, full domain.Tournament) (*domain.Tournament, error) {
	return synclockWithKey(s, ctx, keyTournaments, func() (*domain.Tournament, error) {
		tournaments, err := s.readTournaments(ctx)
		if err != nil {
			return nil, err
		}
		existing, ok := tournaments[id]
		if !ok {
			return nil, nil
		}
		full.Name = domain.NormalizeName(full.Name)
		if err := domain.ValidateName(full.Name, maxTournamentNameLength); err != nil {
			return nil, errs.Wrap(errs.Validation, "tournament name invalid", err)
		}
		if findTournamentByUniqueKey(tournaments, full.UniqueKey(), id) {
			return nil, errs.New(errs.AlreadyExists, "a tournament with this name and binding already exists")
		}
		full.ID = id
		full.CreatedAt = existing.CreatedAt
		full.UpdatedAt = nowISO()
		tournaments[id] = full
		if err := writeCollection(ctx, s, keyTournaments, tournaments); err != nil {
			return nil, err
		}
		return &full, nil
	})
}

func (s *LocalDataStore) DeleteTournament(ctx context.Context, id string) error {
	_, err := synclockWithKey(s, ctx, keyTournaments, func() (struct{}, error) {
		tournaments, err := s.readTournaments(ctx)
		if err != nil {
			return struct{}{}, err
		}
		delete(tournaments, id)
		return struct{}{}, writeCollection(ctx, s, keyTournaments, tournaments)
	})
	return err
}
