package syncedstore

import (
	"context"

	"github.com/relentnet/matchops-sync/internal/domain"
	"github.com/relentnet/matchops-sync/internal/syncqueue"
)

func (s *SyncedDataStore) GetGames(ctx context.Context) (map[string]domain.Game, error) {
	return s.local.GetGames(ctx)
}

func (s *SyncedDataStore) GetGameByID(ctx context.Context, id string) (*domain.Game, error) {
	return s.local.GetGameByID(ctx, id)
}

func (s *SyncedDataStore) CreateGame(ctx context.Context, partial domain.Game) (domain.Game, error) {
	created, err := s.local.CreateGame(ctx, partial)
	if err != nil {
		return domain.Game{}, err
	}
	s.enqueue(ctx, syncqueue.EntityGame, created.ID, syncqueue.OpCreate, created)
	return created, nil
}

func (s *SyncedDataStore) SaveGame(ctx context.Context, id string, full domain.Game) (*domain.Game, error) {
	saved, err := s.local.SaveGame(ctx, id, full)
	if err != nil || saved == nil {
		return saved, err
	}
	s.enqueue(ctx, syncqueue.EntityGame, id, syncqueue.OpUpdate, saved)
	return saved, nil
}

// SaveAllGames enqueues one update per game id.
func (s *SyncedDataStore) SaveAllGames(ctx context.Context, games map[string]domain.Game) error {
	if err := s.local.SaveAllGames(ctx, games); err != nil {
		return err
	}
	for id, g := range games {
		s.enqueue(ctx, syncqueue.EntityGame, id, syncqueue.OpUpdate, g)
	}
	return nil
}

func (s *SyncedDataStore) DeleteGame(ctx context.Context, id string) error {
	if err := s.local.DeleteGame(ctx, id); err != nil {
		return err
	}
	s.enqueue(ctx, syncqueue.EntityGame, id, syncqueue.OpDelete, nil)
	return nil
}

// AddGameEvent, UpdateGameEvent, and RemoveGameEvent all re-enqueue the
// whole updated game document as an update — the executor only ever sees
// whole-entity traffic, never a positional event op.

func (s *SyncedDataStore) AddGameEvent(ctx context.Context, gameID string, event domain.GameEvent) (*domain.Game, error) {
	g, err := s.local.AddGameEvent(ctx, gameID, event)
	if err != nil || g == nil {
		return g, err
	}
	s.enqueue(ctx, syncqueue.EntityGame, gameID, syncqueue.OpUpdate, g)
	return g, nil
}

func (s *SyncedDataStore) UpdateGameEvent(ctx context.Context, gameID string, index int, event domain.GameEvent) (*domain.Game, error) {
	g, err := s.local.UpdateGameEvent(ctx, gameID, index, event)
	if err != nil || g == nil {
		return g, err
	}
	s.enqueue(ctx, syncqueue.EntityGame, gameID, syncqueue.OpUpdate, g)
	return g, nil
}

func (s *SyncedDataStore) RemoveGameEvent(ctx context.Context, gameID string, index int) (*domain.Game, error) {
	g, err := s.local.RemoveGameEvent(ctx, gameID, index)
	if err != nil || g == nil {
		return g, err
	}
	s.enqueue(ctx, syncqueue.EntityGame, gameID, syncqueue.OpUpdate, g)
	return g, nil
}
