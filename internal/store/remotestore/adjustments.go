package remotestore

import (
	"context"

	"github.com/google/uuid"

	"github.com/relentnet/matchops-sync/internal/domain"
)

func (r *RemoteDataStore) GetPlayerAdjustments(ctx context.Context, playerID string) ([]domain.PlayerAdjustment, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	return withRetry(ctx, func(ctx context.Context) ([]domain.PlayerAdjustment, error) {
		rows, err := r.pool.Query(ctx, `
			SELECT id, player_id, games_played_delta, goals_delta, assists_delta, applied_at
			FROM player_adjustments WHERE player_id = $1 AND user_id = $2 ORDER BY applied_at ASC
		`, playerID, r.userID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		out := make([]domain.PlayerAdjustment, 0)
		for rows.Next() {
			var a domain.PlayerAdjustment
			var appliedAt timeValue
			if err := rows.Scan(&a.ID, &a.PlayerID, &a.GamesPlayedDelta, &a.GoalsDelta, &a.AssistsDelta, &appliedAt); err != nil {
				return nil, err
			}
			a.AppliedAt = appliedAt.String()
			out = append(out, a)
		}
		return out, rows.Err()
	})
}

func (r *RemoteDataStore) AddPlayerAdjustment(ctx context.Context, a domain.PlayerAdjustment) (domain.PlayerAdjustment, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return domain.PlayerAdjustment{}, err
	}
	a.ID = "adj_" + uuid.NewString()
	return withRetry(ctx, func(ctx context.Context) (domain.PlayerAdjustment, error) {
		var appliedAt timeValue
		err := r.pool.QueryRow(ctx, `
			INSERT INTO player_adjustments (id, user_id, player_id, games_played_delta, goals_delta, assists_delta)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING applied_at
		`, a.ID, r.userID, a.PlayerID, a.GamesPlayedDelta, a.GoalsDelta, a.AssistsDelta).Scan(&appliedAt)
		if err != nil {
			return domain.PlayerAdjustment{}, err
		}
		a.AppliedAt = appliedAt.String()
		return a, nil
	})
}

func (r *RemoteDataStore) UpdatePlayerAdjustment(ctx context.Context, playerID, adjID string, patch domain.PlayerAdjustment) (*domain.PlayerAdjustment, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	return withRetry(ctx, func(ctx context.Context) (*domain.PlayerAdjustment, error) {
		var a domain.PlayerAdjustment
		var appliedAt timeValue
		err := r.pool.QueryRow(ctx, `
			UPDATE player_adjustments SET games_played_delta=$4, goals_delta=$5, assists_delta=$6
			WHERE id = $1 AND player_id = $2 AND user_id = $3
			RETURNING id, player_id, games_played_delta, goals_delta, assists_delta, applied_at
		`, adjID, playerID, r.userID, patch.GamesPlayedDelta, patch.GoalsDelta, patch.AssistsDelta,
		).Scan(&a.ID, &a.PlayerID, &a.GamesPlayedDelta, &a.GoalsDelta, &a.AssistsDelta, &appliedAt)
		if isNoRows(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		a.AppliedAt = appliedAt.String()
		return &a, nil
	})
}

func (r *RemoteDataStore) DeletePlayerAdjustment(ctx context.Context, playerID, adjID string) error {
	if err := r.checkCallPreconditions(); err != nil {
		return err
	}
	_, err := withRetry(ctx, func(ctx context.Context) (struct{}, error) {
		_, err := r.pool.Exec(ctx, `DELETE FROM player_adjustments WHERE id = $1 AND player_id = $2 AND user_id = $3`,
			adjID, playerID, r.userID)
		return struct{}{}, err
	})
	return err
}
