package syncedstore

import (
	"context"

	"github.com/relentnet/matchops-sync/internal/domain"
)

// TimerState passes through to local only and is never enqueued.

func (s *SyncedDataStore) GetTimerState(ctx context.Context) (*domain.TimerState, error) {
	return s.local.GetTimerState(ctx)
}

func (s *SyncedDataStore) SaveTimerState(ctx context.Context, t domain.TimerState) error {
	return s.local.SaveTimerState(ctx, t)
}

func (s *SyncedDataStore) ClearTimerState(ctx context.Context) error {
	return s.local.ClearTimerState(ctx)
}
