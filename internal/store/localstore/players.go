package localstore

import (
	"context"
	"sort"

	"github.com/relentnet/matchops-sync/internal/domain"
	"github.com/relentnet/matchops-sync/internal/errs"
)

const maxPlayerNameLength = 100

func (s *LocalDataStore) readPlayers(ctx context.Context) (map[string]domain.Player, error) {
	return readCollection(ctx, s, keyPlayers, map[string]domain.Player{})
}

func (s *LocalDataStore) GetPlayers(ctx context.Context) ([]domain.Player, error) {
	players, err := s.readPlayers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Player, 0, len(players))
	for _, p := range players {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (s *LocalDataStore) CreatePlayer(ctx context.Context, p domain.Player) (domain.Player, error) {
	return synclockWithKey(s, ctx, keyPlayers, func() (domain.Player, error) {
		p.Name = domain.NormalizeName(p.Name)
		if err := domain.ValidateName(p.Name, maxPlayerNameLength); err != nil {
			return domain.Player{}, errs.Wrap(errs.Validation, "player name invalid", err)
		}
		players, err := s.readPlayers(ctx)
		if err != nil {
			return domain.Player{}, err
		}
		now := nowISO()
		p.ID = newID("player")
		p.CreatedAt = now
		p.UpdatedAt = now
		players[p.ID] = p
		if err := writeCollection(ctx, s, keyPlayers, players); err != nil {
			return domain.Player{}, err
		}
		return p, nil
	})
}

func (s *LocalDataStore) UpdatePlayer(ctx context.Context, id string, patch domain.Player) (*domain.Player, error) {
	return synclockWithKey(s, ctx, keyPlayers, func() (*domain.Player, error) {
		players, err := s.readPlayers(ctx)
		if err != nil {
			return nil, err
		}
		existing, ok := players[id]
		if !ok {
			return nil, nil
		}
		if patch.Name != "" {
			name := domain.NormalizeName(patch.Name)
			if err := domain.ValidateName(name, maxPlayerNameLength); err != nil {
				return nil, errs.Wrap(errs.Validation, "player name invalid", err)
			}
			existing.Name = name
		}
		existing.Nickname = patch.Nickname
		existing.JerseyNumber = patch.JerseyNumber
		existing.IsGoalie = patch.IsGoalie
		existing.ReceivedFairPlayCard = patch.ReceivedFairPlayCard
		existing.Color = patch.Color
		existing.Notes = patch.Notes
		existing.UpdatedAt = nowISO()
		players[id] = existing
		if err := writeCollection(ctx, s, keyPlayers, players); err != nil {
			return nil, err
		}
		return &existing, nil
	})
}

func (s *LocalDataStore) DeletePlayer(ctx context.Context, id string) error {
	_, err := synclockWithKey(s, ctx, keyPlayers, func() (struct{}, error) {
		players, err := s.readPlayers(ctx)
		if err != nil {
			return struct{}{}, err
		}
		delete(players, id)
		return struct{}{}, writeCollection(ctx, s, keyPlayers, players)
	})
	return err
}

func (s *LocalDataStore) UpsertPlayer(ctx context.Context, p domain.Player) (domain.Player, error) {
	return synclockWithKey(s, ctx, keyPlayers, func() (domain.Player, error) {
		players, err := s.readPlayers(ctx)
		if err != nil {
			return domain.Player{}, err
		}
		p.Name = domain.NormalizeName(p.Name)
		if err := domain.ValidateName(p.Name, maxPlayerNameLength); err != nil {
			return domain.Player{}, errs.Wrap(errs.Validation, "player name invalid", err)
		}
		now := nowISO()
		if p.ID == "" {
			p.ID = newID("player")
			p.CreatedAt = now
		} else if existing, ok := players[p.ID]; ok {
			p.CreatedAt = existing.CreatedAt
		} else {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		players[p.ID] = p
		if err := writeCollection(ctx, s, keyPlayers, players); err != nil {
			return domain.Player{}, err
		}
		return p, nil
	})
}
