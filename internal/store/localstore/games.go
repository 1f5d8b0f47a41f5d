package localstore

import (
	"context"

	"github.com/relentnet/matchops-sync/internal/domain"
)

func (s *LocalDataStore) readGames(ctx context.Context) (map[string]domain.Game, error) {
	return readCollection(ctx, s, keyGames, map[string]domain.Game{})
}

func (s *LocalDataStore) GetGames(ctx context.Context) (map[string]domain.Game, error) {
	return s.readGames(ctx)
}

func (s *LocalDataStore) GetGameByID(ctx context.Context, id string) (*domain.Game, error) {
	games, err := s.readGames(ctx)
	if err != nil {
		return nil, err
	}
	g, ok := games[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (s *LocalDataStore) CreateGame(ctx context.Context, partial domain.Game) (domain.Game, error) {
	return synclockWithKey(s, ctx, keyGames, func() (domain.Game, error) {
		games, err := s.readGames(ctx)
		if err != nil {
			return domain.Game{}, err
		}
		now := nowISO()
		partial.ID = newID("game")
		partial.Version = 1
		partial.CreatedAt = now
		partial.UpdatedAt = now
		if partial.GameEvents == nil {
			partial.GameEvents = []domain.GameEvent{}
		}
		games[partial.ID] = partial
		if err := writeCollection(ctx, s, keyGames, games); err != nil {
			return domain.Game{}, err
		}
		return partial, nil
	})
}

// SaveGame fully replaces the document for id, preserving id/createdAt and
// bumping version/updatedAt. A missing id returns (nil, nil).
func (s *LocalDataStore) SaveGame(ctx context.Context, id string, full domain.Game) (*domain.Game, error) {
	return synclockWithKey(s, ctx, keyGames, func() (*domain.Game, error) {
		games, err := s.readGames(ctx)
		if err != nil {
			return nil, err
		}
		existing, ok := games[id]
		if !ok {
			return nil, nil
		}
		full.ID = id
		full.CreatedAt = existing.CreatedAt
		full.Version = existing.Version + 1
		full.UpdatedAt = nowISO()
		if full.GameEvents == nil {
			full.GameEvents = []domain.GameEvent{}
		}
		games[id] = full
		if err := writeCollection(ctx, s, keyGames, games); err != nil {
			return nil, err
		}
		return &full, nil
	})
}

// SaveAllGames replaces the entire games collection in one atomic write;
// the sync layer is responsible for enqueueing one update per changed game
// id.
func (s *LocalDataStore) SaveAllGames(ctx context.Context, games map[string]domain.Game) error {
	_, err := synclockWithKey(s, ctx, keyGames, func() (struct{}, error) {
		return struct{}{}, writeCollection(ctx, s, keyGames, games)
	})
	return err
}

func (s *LocalDataStore) DeleteGame(ctx context.Context, id string) error {
	_, err := synclockWithKey(s, ctx, keyGames, func() (struct{}, error) {
		games, err := s.readGames(ctx)
		if err != nil {
			return struct{}{}, err
		}
		delete(games, id)
		return struct{}{}, writeCollection(ctx, s, keyGames, games)
	})
	return err
}
