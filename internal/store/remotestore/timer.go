package remotestore

import (
	"context"

	"github.com/relentnet/matchops-sync/internal/domain"
)

// Timer state is local-only by contract: the remote store never
// persists it, so reads always miss and writes are no-ops.

func (r *RemoteDataStore) GetTimerState(ctx context.Context) (*domain.TimerState, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	return nil, nil
}

func (r *RemoteDataStore) SaveTimerState(ctx context.Context, _ domain.TimerState) error {
	return r.checkCallPreconditions()
}

func (r *RemoteDataStore) ClearTimerState(ctx context.Context) error {
	return r.checkCallPreconditions()
}
