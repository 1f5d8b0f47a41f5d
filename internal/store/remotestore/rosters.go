package remotestore

import (
	"context"

	"github.com/relentnet/matchops-sync/internal/domain"
)

func (r *RemoteDataStore) GetTeamRoster(ctx context.Context, teamID string) ([]domain.TeamPlayer, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	return withRetry(ctx, func(ctx context.Context) ([]domain.TeamPlayer, error) {
		rows, err := r.pool.Query(ctx, `
			SELECT team_id, player_id, name, nickname, jersey_number, is_goalie, received_fair_play_card, color, notes
			FROM team_rosters WHERE team_id = $1 AND user_id = $2
		`, teamID, r.userID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		out := make([]domain.TeamPlayer, 0)
		for rows.Next() {
			var tp domain.TeamPlayer
			if err := rows.Scan(&tp.TeamID, &tp.PlayerID, &tp.Name, &tp.Nickname, &tp.JerseyNumber,
				&tp.IsGoalie, &tp.ReceivedFairPlayCard, &tp.Color, &tp.Notes); err != nil {
				return nil, err
			}
			out = append(out, tp)
		}
		return out, rows.Err()
	})
}

// SetTeamRoster fully replaces the roster for teamID in one transaction.
func (r *RemoteDataStore) SetTeamRoster(ctx context.Context, teamID string, roster []domain.TeamPlayer) error {
	if err := r.checkCallPreconditions(); err != nil {
		return err
	}
	_, err := withRetry(ctx, func(ctx context.Context) (struct{}, error) {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return struct{}{}, err
		}
		defer tx.Rollback(ctx)

		if _, err := tx.Exec(ctx, `DELETE FROM team_rosters WHERE team_id = $1 AND user_id = $2`, teamID, r.userID); err != nil {
			return struct{}{}, err
		}
		for _, tp := range roster {
			if _, err := tx.Exec(ctx, `
				INSERT INTO team_rosters (team_id, user_id, player_id, name, nickname, jersey_number,
				                          is_goalie, received_fair_play_card, color, notes)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			`, teamID, r.userID, tp.PlayerID, tp.Name, tp.Nickname, tp.JerseyNumber,
				tp.IsGoalie, tp.ReceivedFairPlayCard, tp.Color, tp.Notes); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, tx.Commit(ctx)
	})
	return err
}

func (r *RemoteDataStore) GetAllTeamRosters(ctx context.Context) (map[string][]domain.TeamPlayer, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	return withRetry(ctx, func(ctx context.Context) (map[string][]domain.TeamPlayer, error) {
		rows, err := r.pool.Query(ctx, `
			SELECT team_id, player_id, name, nickname, jersey_number, is_goalie, received_fair_play_card, color, notes
			FROM team_rosters WHERE user_id = $1
		`, r.userID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		out := make(map[string][]domain.TeamPlayer)
		for rows.Next() {
			var tp domain.TeamPlayer
			if err := rows.Scan(&tp.TeamID, &tp.PlayerID, &tp.Name, &tp.Nickname, &tp.JerseyNumber,
				&tp.IsGoalie, &tp.ReceivedFairPlayCard, &tp.Color, &tp.Notes); err != nil {
				return nil, err
			}
			out[tp.TeamID] = append(out[tp.TeamID], tp)
		}
		return out, rows.Err()
	})
}
