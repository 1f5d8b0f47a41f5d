package localstore

import (
	"context"

	"github.com/relentnet/matchops-sync/internal/domain"
)

const warmupPlanID = "default"

func (s *LocalDataStore) GetWarmupPlan(ctx context.Context) (*domain.WarmupPlan, error) {
	raw, found, err := s.kv.Get(ctx, keyWarmupPlan)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	plan, err := decodeWarmupPlan(raw)
	if err != nil {
		return nil, nil
	}
	return plan, nil
}

func (s *LocalDataStore) SaveWarmupPlan(ctx context.Context, plan domain.WarmupPlan) (domain.WarmupPlan, error) {
	return synclockWithKey(s, ctx, keyWarmupPlan, func() (domain.WarmupPlan, error) {
		existing, err := s.GetWarmupPlan(ctx)
		if err != nil {
			return domain.WarmupPlan{}, err
		}
		plan.ID = warmupPlanID
		plan.IsDefault = false
		if existing != nil {
			plan.Version = existing.Version + 1
		} else {
			plan.Version = 1
		}
		now := nowISO()
		plan.LastModified = now
		plan.UpdatedAt = now
		if err := writeCollection(ctx, s, keyWarmupPlan, plan); err != nil {
			return domain.WarmupPlan{}, err
		}
		return plan, nil
	})
}

func (s *LocalDataStore) DeleteWarmupPlan(ctx context.Context) error {
	_, err := synclockWithKey(s, ctx, keyWarmupPlan, func() (struct{}, error) {
		return struct{}{}, s.kv.Remove(ctx, keyWarmupPlan)
	})
	return err
}

func decodeWarmupPlan(raw []byte) (*domain.WarmupPlan, error) {
	var plan domain.WarmupPlan
	if err := decodeJSON(raw, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}
