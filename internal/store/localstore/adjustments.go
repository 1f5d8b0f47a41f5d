package localstore

import (
	"context"
	"sort"

	"github.com/relentnet/matchops-sync/internal/domain"
)

func (s *LocalDataStore) readAdjustments(ctx context.Context) (map[string]domain.PlayerAdjustment, error) {
	return readCollection(ctx, s, keyPlayerAdjustments, map[string]domain.PlayerAdjustment{})
}

func (s *LocalDataStore) GetPlayerAdjustments(ctx context.Context, playerID string) ([]domain.PlayerAdjustment, error) {
	adjustments, err := s.readAdjustments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PlayerAdjustment, 0)
	for _, a := range adjustments {
		if a.PlayerID == playerID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppliedAt < out[j].AppliedAt })
	return out, nil
}

func (s *LocalDataStore) AddPlayerAdjustment(ctx context.Context, a domain.PlayerAdjustment) (domain.PlayerAdjustment, error) {
	return synclockWithKey(s, ctx, keyPlayerAdjustments, func() (domain.PlayerAdjustment, error) {
		adjustments, err := s.readAdjustments(ctx)
		if err != nil {
			return domain.PlayerAdjustment{}, err
		}
		a.ID = newID("adj")
		a.AppliedAt = nowISO()
		adjustments[a.ID] = a
		if err := writeCollection(ctx, s, keyPlayerAdjustments, adjustments); err != nil {
			return domain.PlayerAdjustment{}, err
		}
		return a, nil
	})
}

func (s *LocalDataStore) UpdatePlayerAdjustment(ctx context.Context, playerID, adjID string, patch domain.PlayerAdjustment) (*domain.PlayerAdjustment, error) {
	return synclockWithKey(s, ctx, keyPlayerAdjustments, func() (*domain.PlayerAdjustment, error) {
		adjustments, err := s.readAdjustments(ctx)
		if err != nil {
			return nil, err
		}
		existing, ok := adjustments[adjID]
		if !ok || existing.PlayerID != playerID {
			return nil, nil
		}
		existing.GamesPlayedDelta = patch.GamesPlayedDelta
		existing.GoalsDelta = patch.GoalsDelta
		existing.AssistsDelta = patch.AssistsDelta
		adjustments[adjID] = existing
		if err := writeCollection(ctx, s, keyPlayerAdjustments, adjustments); err != nil {
			return nil, err
		}
		return &existing, nil
	})
}

func (s *LocalDataStore) DeletePlayerAdjustment(ctx context.Context, playerID, adjID string) error {
	_, err := synclockWithKey(s, ctx, keyPlayerAdjustments, func() (struct{}, error) {
		adjustments, err := s.readAdjustments(ctx)
		if err != nil {
			return struct{}{}, err
		}
		if existing, ok := adjustments[adjID]; ok && existing.PlayerID == playerID {
			delete(adjustments, adjID)
		}
		return struct{}{}, writeCollection(ctx, s, keyPlayerAdjustments, adjustments)
	})
	return err
}
