package remotestore

import (
	"context"

	"github.com/google/uuid"

	"github.com/relentnet/matchops-sync/internal/domain"
	"github.com/relentnet/matchops-sync/internal/errs"
)

func (r *RemoteDataStore) GetPlayers(ctx context.Context) ([]domain.Player, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	return withRetry(ctx, func(ctx context.Context) ([]domain.Player, error) {
		rows, err := r.pool.Query(ctx, `
			SELECT id, name, nickname, jersey_number, is_goalie, received_fair_play_card, color, notes,
			       created_at, updated_at
			FROM players WHERE user_id = $1 ORDER BY created_at DESC
		`, r.userID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		players := make([]domain.Player, 0)
		for rows.Next() {
			var p domain.Player
			var createdAt, updatedAt timeValue
			if err := rows.Scan(&p.ID, &p.Name, &p.Nickname, &p.JerseyNumber, &p.IsGoalie,
				&p.ReceivedFairPlayCard, &p.Color, &p.Notes, &createdAt, &updatedAt); err != nil {
				return nil, err
			}
			p.CreatedAt, p.UpdatedAt = createdAt.String(), updatedAt.String()
			players = append(players, p)
		}
		return players, rows.Err()
	})
}

func (r *RemoteDataStore) CreatePlayer(ctx context.Context, p domain.Player) (domain.Player, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return domain.Player{}, err
	}
	p.Name = domain.NormalizeName(p.Name)
	if err := domain.ValidateName(p.Name, maxNameLen); err != nil {
		return domain.Player{}, errs.Wrap(errs.Validation, "player name invalid", err)
	}
	p.ID = "player_" + uuid.NewString()
	return withRetry(ctx, func(ctx context.Context) (domain.Player, error) {
		var createdAt, updatedAt timeValue
		err := r.pool.QueryRow(ctx, `
			INSERT INTO players (id, user_id, name, nickname, jersey_number, is_goalie, received_fair_play_card, color, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			RETURNING created_at, updated_at
		`, p.ID, r.userID, p.Name, p.Nickname, p.JerseyNumber, p.IsGoalie, p.ReceivedFairPlayCard, p.Color, p.Notes,
		).Scan(&createdAt, &updatedAt)
		if err != nil {
			return domain.Player{}, err
		}
		p.CreatedAt, p.UpdatedAt = createdAt.String(), updatedAt.String()
		return p, nil
	})
}

func (r *RemoteDataStore) UpdatePlayer(ctx context.Context, id string, patch domain.Player) (*domain.Player, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	if patch.Name != "" {
		patch.Name = domain.NormalizeName(patch.Name)
		if err := domain.ValidateName(patch.Name, maxNameLen); err != nil {
			return nil, errs.Wrap(errs.Validation, "player name invalid", err)
		}
	}
	return withRetry(ctx, func(ctx context.Context) (*domain.Player, error) {
		var p domain.Player
		var createdAt, updatedAt timeValue
		err := r.pool.QueryRow(ctx, `
			UPDATE players SET
				name = COALESCE(NULLIF($3, ''), name),
				nickname = $4, jersey_number = $5, is_goalie = $6, received_fair_play_card = $7,
				color = $8, notes = $9, updated_at = now()
			WHERE id = $1 AND user_id = $2
			RETURNING id, name, nickname, jersey_number, is_goalie, received_fair_play_card, color, notes, created_at, updated_at
		`, id, r.userID, patch.Name, patch.Nickname, patch.JerseyNumber, patch.IsGoalie, patch.ReceivedFairPlayCard,
			patch.Color, patch.Notes,
		).Scan(&p.ID, &p.Name, &p.Nickname, &p.JerseyNumber, &p.IsGoalie, &p.ReceivedFairPlayCard,
			&p.Color, &p.Notes, &createdAt, &updatedAt)
		if isNoRows(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		p.CreatedAt, p.UpdatedAt = createdAt.String(), updatedAt.String()
		return &p, nil
	})
}

func (r *RemoteDataStore) DeletePlayer(ctx context.Context, id string) error {
	if err := r.checkCallPreconditions(); err != nil {
		return err
	}
	_, err := withRetry(ctx, func(ctx context.Context) (struct{}, error) {
		_, err := r.pool.Exec(ctx, `DELETE FROM players WHERE id = $1 AND user_id = $2`, id, r.userID)
		return struct{}{}, err
	})
	return err
}

func (r *RemoteDataStore) UpsertPlayer(ctx context.Context, p domain.Player) (domain.Player, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return domain.Player{}, err
	}
	p.Name = domain.NormalizeName(p.Name)
	if err := domain.ValidateName(p.Name, maxNameLen); err != nil {
		return domain.Player{}, errs.Wrap(errs.Validation, "player name invalid", err)
	}
	if p.ID == "" {
		p.ID = "player_" + uuid.NewString()
	}
	return withRetry(ctx, func(ctx context.Context) (domain.Player, error) {
		var createdAt, updatedAt timeValue
		err := r.pool.QueryRow(ctx, `
			INSERT INTO players (id, user_id, name, nickname, jersey_number, is_goalie, received_fair_play_card, color, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, nickname = EXCLUDED.nickname, jersey_number = EXCLUDED.jersey_number,
				is_goalie = EXCLUDED.is_goalie, received_fair_play_card = EXCLUDED.received_fair_play_card,
				color = EXCLUDED.color, notes = EXCLUDED.notes, updated_at = now()
			RETURNING created_at, updated_at
		`, p.ID, r.userID, p.Name, p.Nickname, p.JerseyNumber, p.IsGoalie, p.ReceivedFairPlayCard, p.Color, p.Notes,
		).Scan(&createdAt, &updatedAt)
		if err != nil {
			return domain.Player{}, err
		}
		p.CreatedAt, p.UpdatedAt = createdAt.String(), updatedAt.String()
		return p, nil
	})
}
