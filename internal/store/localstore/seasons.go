package localstore

import (
	"context"
	"sort"

	"github.com/relentnet/matchops-sync/internal/domain"
	"github.com/relentnet/matchops-sync/internal/errs"
)

const maxSeasonNameLength = 100

func (s *LocalDataStore) readSeasons(ctx context.Context) (map[string]domain.Season, error) {
	return readCollection(ctx, s, keySeasons, map[string]domain.Season{})
}

func (s *LocalDataStore) GetSeasons(ctx context.Context, includeArchived bool) ([]domain.Season, error) {
	seasons, err := s.readSeasons(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Season, 0, len(seasons))
	for _, sn := range seasons {
		if !includeArchived && sn.IsArchived {
			continue
		}
		out = append(out, sn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func findSeasonByUniqueKey(seasons map[string]domain.Season, key, excludeID string) bool {
	for id, sn := range seasons {
		if id == excludeID {
			continue
		}
		if sn.UniqueKey() == key {
			return true
		}
	}
	return false
}

func (s *LocalDataStore) CreateSeason(ctx context.Context, sn domain.Season) (domain.Season, error) {
	return synclockWithKey(s, ctx, keySeasons, func() (domain.Season, error) {
		sn.Name = domain.NormalizeName(sn.Name)
		if err := domain.ValidateName(sn.Name, maxSeasonNameLength); err != nil {
			return domain.Season{}, errs.Wrap(errs.Validation, "season name invalid", err)
		}
		seasons, err := s.readSeasons(ctx)
		if err != nil {
			return domain.Season{}, err
		}
		if findSeasonByUniqueKey(seasons, sn.UniqueKey(), "") {
			return domain.Season{}, errs.New(errs.AlreadyExists, "a season with this name and binding already exists")
		}
		now := nowISO()
		sn.ID = newID("season")
		sn.CreatedAt = now
		sn.UpdatedAt = now
		seasons[sn.ID] = sn
		if err := writeCollection(ctx, s, keySeasons, seasons); err != nil {
			return domain.Season{}, err
		}
		return sn, nil
	})
}

func (s *LocalDataStore) UpdateSeason(ctx context.Context, id string, full domain.Season) (*domain.Season, error) {
	return synclockWithKey(s, ctx, keySeasons, func() (*domain.Season, error) {
		seasons, err := s.readSeasons(ctx)
		if err != nil {
			return nil, err
		}
		existing, ok := seasons[id]
		if !ok {
			return nil, nil
		}
		full.Name = domain.NormalizeName(full.Name)
		if err := domain.ValidateName(full.Name, maxSeasonNameLength); err != nil {
			return nil, errs.Wrap(errs.Validation, "season name invalid", err)
		}
		if findSeasonByUniqueKey(seasons, full.UniqueKey(), id) {
			return nil, errs.New(errs.AlreadyExists, "a season with this name and binding already exists")
		}
		full.ID = id
		full.CreatedAt = existing.CreatedAt
		full.UpdatedAt = nowISO()
		seasons[id] = full
		if err := writeCollection(ctx, s, keySeasons, seasons); err != nil {
			return nil, err
		}
		return &full, nil
	})
}

func (s *LocalDataStore) DeleteSeason(ctx context.Context, id string) error {
	_, err := synclockWithKey(s, ctx, keySeasons, func() (struct{}, error) {
		seasons, err := s.readSeasons(ctx)
		if err != nil {
			return struct{}{}, err
		}
		delete(seasons, id)
		return struct{}{}, writeCollection(ctx, s, keySeasons, seasons)
	})
	return err
}
