package syncedstore

import (
	"context"

	"github.com/relentnet/matchops-sync/internal/domain"
	"github.com/relentnet/matchops-sync/internal/syncqueue"
)

// --- Player adjustments ---

func (s *SyncedDataStore) GetPlayerAdjustments(ctx context.Context, playerID string) ([]domain.PlayerAdjustment, error) {
	return s.local.GetPlayerAdjustments(ctx, playerID)
}

func (s *SyncedDataStore) AddPlayerAdjustment(ctx context.Context, a domain.PlayerAdjustment) (domain.PlayerAdjustment, error) {
	created, err := s.local.AddPlayerAdjustment(ctx, a)
	if err != nil {
		return domain.PlayerAdjustment{}, err
	}
	s.enqueue(ctx, syncqueue.EntityPlayerAdjustment, created.ID, syncqueue.OpCreate, created)
	return created, nil
}

func (s *SyncedDataStore) UpdatePlayerAdjustment(ctx context.Context, playerID, adjID string, patch domain.PlayerAdjustment) (*domain.PlayerAdjustment, error) {
	updated, err := s.local.UpdatePlayerAdjustment(ctx, playerID, adjID, patch)
	if err != nil || updated == nil {
		return updated, err
	}
	s.enqueue(ctx, syncqueue.EntityPlayerAdjustment, adjID, syncqueue.OpUpdate, updated)
	return updated, nil
}

func (s *SyncedDataStore) DeletePlayerAdjustment(ctx context.Context, playerID, adjID string) error {
	if err := s.local.DeletePlayerAdjustment(ctx, playerID, adjID); err != nil {
		return err
	}
	// The delete queue entry carries the player id along so the executor can
	// route DeletePlayerAdjustment(playerID, adjID) even if an earlier
	// update was coalesced into it.
	s.enqueue(ctx, syncqueue.EntityPlayerAdjustment, adjID, syncqueue.OpDelete, domain.PlayerAdjustment{PlayerID: playerID, ID: adjID})
	return nil
}

// --- Warmup plan ---

// SaveWarmupPlan normalizes the plan before both the local save and the
// sync enqueue: lastModified/updatedAt are stamped and isDefault is forced
// false. LocalDataStore owns the version increment.
func (s *SyncedDataStore) SaveWarmupPlan(ctx context.Context, plan domain.WarmupPlan) (domain.WarmupPlan, error) {
	plan.IsDefault = false
	saved, err := s.local.SaveWarmupPlan(ctx, plan)
	if err != nil {
		return domain.WarmupPlan{}, err
	}
	s.enqueue(ctx, syncqueue.EntityWarmupPlan, saved.ID, syncqueue.OpCreate, saved)
	return saved, nil
}

func (s *SyncedDataStore) GetWarmupPlan(ctx context.Context) (*domain.WarmupPlan, error) {
	return s.local.GetWarmupPlan(ctx)
}

func (s *SyncedDataStore) DeleteWarmupPlan(ctx context.Context) error {
	if err := s.local.DeleteWarmupPlan(ctx); err != nil {
		return err
	}
	s.enqueue(ctx, syncqueue.EntityWarmupPlan, "default", syncqueue.OpDelete, nil)
	return nil
}

// --- Settings ---

const settingsEntityID = "settings"

func (s *SyncedDataStore) GetSettings(ctx context.Context) (domain.AppSettings, error) {
	return s.local.GetSettings(ctx)
}

// SaveSettings skips the enqueue when the new value deep-equals the current
// one; an unchanged settings document produces no sync traffic.
func (s *SyncedDataStore) SaveSettings(ctx context.Context, settings domain.AppSettings) error {
	current, _ := s.local.GetSettings(ctx)
	if err := s.local.SaveSettings(ctx, settings); err != nil {
		return err
	}
	if syncqueue.ShouldSkipSettingsWrite(current, settings) {
		return nil
	}
	s.enqueue(ctx, syncqueue.EntitySettings, settingsEntityID, syncqueue.OpUpdate, settings)
	return nil
}

func (s *SyncedDataStore) UpdateSettings(ctx context.Context, patch map[string]any) (domain.AppSettings, error) {
	current, _ := s.local.GetSettings(ctx)
	updated, err := s.local.UpdateSettings(ctx, patch)
	if err != nil {
		return domain.AppSettings{}, err
	}
	if syncqueue.ShouldSkipSettingsWrite(current, updated) {
		return updated, nil
	}
	s.enqueue(ctx, syncqueue.EntitySettings, settingsEntityID, syncqueue.OpUpdate, updated)
	return updated, nil
}
