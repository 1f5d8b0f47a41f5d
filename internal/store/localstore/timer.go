package localstore

import (
	"context"

	"github.com/relentnet/matchops-sync/internal/domain"
)

// Timer state is local-only: it is never read from or written through the
// sync queue, so no key lock is needed beyond the plain
// kv.Store guarantee.

func (s *LocalDataStore) GetTimerState(ctx context.Context) (*domain.TimerState, error) {
	raw, found, err := s.kv.Get(ctx, keyTimerState)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	var t domain.TimerState
	if err := decodeJSON(raw, &t); err != nil {
		return nil, nil
	}
	return &t, nil
}

func (s *LocalDataStore) SaveTimerState(ctx context.Context, t domain.TimerState) error {
	return writeCollection(ctx, s, keyTimerState, t)
}

func (s *LocalDataStore) ClearTimerState(ctx context.Context) error {
	return s.kv.Remove(ctx, keyTimerState)
}
