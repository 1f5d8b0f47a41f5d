package localstore

import (
	"context"

	"github.com/relentnet/matchops-sync/internal/domain"
)

// AddGameEvent appends event to the game's timeline and returns the updated
// game; a missing gameID returns (nil, nil).
func (s *LocalDataStore) AddGameEvent(ctx context.Context, gameID string, event domain.GameEvent) (*domain.Game, error) {
	return synclockWithKey(s, ctx, keyGames, func() (*domain.Game, error) {
		games, err := s.readGames(ctx)
		if err != nil {
			return nil, err
		}
		g, ok := games[gameID]
		if !ok {
			return nil, nil
		}
		g.GameEvents = append(g.GameEvents, event)
		g.UpdatedAt = nowISO()
		games[gameID] = g
		if err := writeCollection(ctx, s, keyGames, games); err != nil {
			return nil, err
		}
		return &g, nil
	})
}

// UpdateGameEvent replaces the event at the given positional index. Identity
// is purely positional; an out-of-range index returns nil without mutating
// anything, same as a missing game id.
func (s *LocalDataStore) UpdateGameEvent(ctx context.Context, gameID string, index int, event domain.GameEvent) (*domain.Game, error) {
	return synclockWithKey(s, ctx, keyGames, func() (*domain.Game, error) {
		games, err := s.readGames(ctx)
		if err != nil {
			return nil, err
		}
		g, ok := games[gameID]
		if !ok {
			return nil, nil
		}
		if index < 0 || index >= len(g.GameEvents) {
			return nil, nil
		}
		g.GameEvents[index] = event
		g.UpdatedAt = nowISO()
		games[gameID] = g
		if err := writeCollection(ctx, s, keyGames, games); err != nil {
			return nil, err
		}
		return &g, nil
	})
}

// RemoveGameEvent deletes the event at the given positional index, shifting
// later events down by one. An out-of-range index returns nil without
// mutation.
func (s *LocalDataStore) RemoveGameEvent(ctx context.Context, gameID string, index int) (*domain.Game, error) {
	return synclockWithKey(s, ctx, keyGames, func() (*domain.Game, error) {
		games, err := s.readGames(ctx)
		if err != nil {
			return nil, err
		}
		g, ok := games[gameID]
		if !ok {
			return nil, nil
		}
		if index < 0 || index >= len(g.GameEvents) {
			return nil, nil
		}
		g.GameEvents = append(g.GameEvents[:index], g.GameEvents[index+1:]...)
		g.UpdatedAt = nowISO()
		games[gameID] = g
		if err := writeCollection(ctx, s, keyGames, games); err != nil {
			return nil, err
		}
		return &g, nil
	})
}
