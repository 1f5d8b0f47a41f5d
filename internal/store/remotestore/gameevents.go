package remotestore

import (
	"context"
	"encoding/json"

	"github.com/relentnet/matchops-sync/internal/domain"
)

// Game events are read-modify-written inside a single transaction with a row
// lock (SELECT ... FOR UPDATE), the Postgres analogue of localstore's
// key-locked read-modify-write. Identity is purely positional: an
// out-of-range index returns nil without mutation, same as a missing game
// id.

func (r *RemoteDataStore) AddGameEvent(ctx context.Context, gameID string, event domain.GameEvent) (*domain.Game, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	return withRetry(ctx, func(ctx context.Context) (*domain.Game, error) {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return nil, err
		}
		defer tx.Rollback(ctx)

		row := tx.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1 AND user_id = $2 FOR UPDATE`, gameID, r.userID)
		g, err := scanGame(row)
		if isNoRows(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		g.GameEvents = append(g.GameEvents, event)
		eventsRaw, _ := json.Marshal(g.GameEvents)

		var updatedAt timeValue
		if err := tx.QueryRow(ctx, `
			UPDATE games SET game_events = $3, updated_at = now() WHERE id = $1 AND user_id = $2
			RETURNING updated_at
		`, gameID, r.userID, eventsRaw).Scan(&updatedAt); err != nil {
			return nil, err
		}
		g.UpdatedAt = updatedAt.String()
		return &g, tx.Commit(ctx)
	})
}

func (r *RemoteDataStore) UpdateGameEvent(ctx context.Context, gameID string, index int, event domain.GameEvent) (*domain.Game, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	return withRetry(ctx, func(ctx context.Context) (*domain.Game, error) {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return nil, err
		}
		defer tx.Rollback(ctx)

		row := tx.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1 AND user_id = $2 FOR UPDATE`, gameID, r.userID)
		g, err := scanGame(row)
		if isNoRows(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if index < 0 || index >= len(g.GameEvents) {
			return nil, nil
		}

		g.GameEvents[index] = event
		eventsRaw, _ := json.Marshal(g.GameEvents)

		var updatedAt timeValue
		if err := tx.QueryRow(ctx, `
			UPDATE games SET game_events = $3, updated_at = now() WHERE id = $1 AND user_id = $2
			RETURNING updated_at
		`, gameID, r.userID, eventsRaw).Scan(&updatedAt); err != nil {
			return nil, err
		}
		g.UpdatedAt = updatedAt.String()
		return &g, tx.Commit(ctx)
	})
}

func (r *RemoteDataStore) RemoveGameEvent(ctx context.Context, gameID string, index int) (*domain.Game, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	return withRetry(ctx, func(ctx context.Context) (*domain.Game, error) {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return nil, err
		}
		defer tx.Rollback(ctx)

		row := tx.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1 AND user_id = $2 FOR UPDATE`, gameID, r.userID)
		g, err := scanGame(row)
		if isNoRows(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if index < 0 || index >= len(g.GameEvents) {
			return nil, nil
		}

		g.GameEvents = append(g.GameEvents[:index], g.GameEvents[index+1:]...)
		eventsRaw, _ := json.Marshal(g.GameEvents)

		var updatedAt timeValue
		if err := tx.QueryRow(ctx, `
			UPDATE games SET game_events = $3, updated_at = now() WHERE id = $1 AND user_id = $2
			RETURNING updated_at
		`, gameID, r.userID, eventsRaw).Scan(&updatedAt); err != nil {
			return nil, err
		}
		g.UpdatedAt = updatedAt.String()
		return &g, tx.Commit(ctx)
	})
}
