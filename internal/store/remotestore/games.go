package remotestore

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/relentnet/matchops-sync/internal/domain"
	"github.com/relentnet/matchops-sync/internal/errs"
)

func scanGame(row rowScanner) (domain.Game, error) {
	var g domain.Game
	var eventsRaw, availableRaw, onFieldRaw, selectedRaw []byte
	var seasonID, tournamentID *string
	var createdAt, updatedAt timeValue
	err := row.Scan(&g.ID, &g.TeamName, &g.OpponentName, &g.GameDate, &g.HomeScore, &g.AwayScore,
		&g.CurrentPeriod, &g.GameStatus, &eventsRaw, &availableRaw, &onFieldRaw, &selectedRaw,
		&g.PeriodDurationMinutes, &g.NumberOfPeriods, &seasonID, &tournamentID, &g.HomeOrAway, &g.Location,
		&g.Version, &createdAt, &updatedAt)
	if err != nil {
		return domain.Game{}, err
	}
	_ = json.Unmarshal(eventsRaw, &g.GameEvents)
	_ = json.Unmarshal(availableRaw, &g.AvailablePlayerIDs)
	_ = json.Unmarshal(onFieldRaw, &g.PlayersOnFieldIDs)
	_ = json.Unmarshal(selectedRaw, &g.SelectedPlayerIDs)
	if g.GameEvents == nil {
		g.GameEvents = []domain.GameEvent{}
	}
	g.SeasonID, g.TournamentID = denull(seasonID), denull(tournamentID)
	g.CreatedAt, g.UpdatedAt = createdAt.String(), updatedAt.String()
	return g, nil
}

const gameColumns = `id, team_name, opponent_name, game_date, home_score, away_score, current_period,
	game_status, game_events, available_player_ids, players_on_field_ids, selected_player_ids,
	period_duration_minutes, number_of_periods, season_id, tournament_id, home_or_away, location,
	version, created_at, updated_at`

func (r *RemoteDataStore) GetGames(ctx context.Context) (map[string]domain.Game, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	return withRetry(ctx, func(ctx context.Context) (map[string]domain.Game, error) {
		rows, err := r.pool.Query(ctx, `SELECT `+gameColumns+` FROM games WHERE user_id = $1 ORDER BY created_at DESC`, r.userID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		out := make(map[string]domain.Game)
		for rows.Next() {
			g, err := scanGame(rows)
			if err != nil {
				return nil, err
			}
			out[g.ID] = g
		}
		return out, rows.Err()
	})
}

func (r *RemoteDataStore) GetGameByID(ctx context.Context, id string) (*domain.Game, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	return withRetry(ctx, func(ctx context.Context) (*domain.Game, error) {
		row := r.pool.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1 AND user_id = $2`, id, r.userID)
		g, err := scanGame(row)
		if isNoRows(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &g, nil
	})
}

func (r *RemoteDataStore) CreateGame(ctx context.Context, partial domain.Game) (domain.Game, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return domain.Game{}, err
	}
	partial.ID = "game_" + uuid.NewString()
	partial.Version = 1
	if partial.GameEvents == nil {
		partial.GameEvents = []domain.GameEvent{}
	}
	eventsRaw, _ := json.Marshal(partial.GameEvents)
	availableRaw, _ := json.Marshal(partial.AvailablePlayerIDs)
	onFieldRaw, _ := json.Marshal(partial.PlayersOnFieldIDs)
	selectedRaw, _ := json.Marshal(partial.SelectedPlayerIDs)

	return withRetry(ctx, func(ctx context.Context) (domain.Game, error) {
		row := r.pool.QueryRow(ctx, `
			INSERT INTO games (id, user_id, team_name, opponent_name, game_date, home_score, away_score,
			                   current_period, game_status, game_events, available_player_ids,
			                   players_on_field_ids, selected_player_ids, period_duration_minutes,
			                   number_of_periods, season_id, tournament_id, home_or_away, location, version)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
			RETURNING `+gameColumns+`
		`, partial.ID, r.userID, partial.TeamName, partial.OpponentName, partial.GameDate, partial.HomeScore,
			partial.AwayScore, partial.CurrentPeriod, partial.GameStatus, eventsRaw, availableRaw, onFieldRaw,
			selectedRaw, partial.PeriodDurationMinutes, partial.NumberOfPeriods, nullable(partial.SeasonID),
			nullable(partial.TournamentID), partial.HomeOrAway, partial.Location, partial.Version)
		return scanGame(row)
	})
}

// SaveGame performs an optimistic-locked conditional update: the write is
// conditioned on version matching the caller's cached value; a 0-row update
// is disambiguated into NOT_FOUND (nil, nil) or CONFLICT carrying a backup
// of the current server state.
func (r *RemoteDataStore) SaveGame(ctx context.Context, id string, full domain.Game) (*domain.Game, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	if full.GameEvents == nil {
		full.GameEvents = []domain.GameEvent{}
	}
	eventsRaw, _ := json.Marshal(full.GameEvents)
	availableRaw, _ := json.Marshal(full.AvailablePlayerIDs)
	onFieldRaw, _ := json.Marshal(full.PlayersOnFieldIDs)
	selectedRaw, _ := json.Marshal(full.SelectedPlayerIDs)
	expectedVersion := full.Version

	return withRetry(ctx, func(ctx context.Context) (*domain.Game, error) {
		row := r.pool.QueryRow(ctx, `
			UPDATE games SET team_name=$4, opponent_name=$5, game_date=$6, home_score=$7, away_score=$8,
			       current_period=$9, game_status=$10, game_events=$11, available_player_ids=$12,
			       players_on_field_ids=$13, selected_player_ids=$14, period_duration_minutes=$15,
			       number_of_periods=$16, season_id=$17, tournament_id=$18, home_or_away=$19, location=$20,
			       version = version + 1, updated_at = now()
			WHERE id = $1 AND user_id = $2 AND version = $3
			RETURNING `+gameColumns+`
		`, id, r.userID, expectedVersion, full.TeamName, full.OpponentName, full.GameDate, full.HomeScore,
			full.AwayScore, full.CurrentPeriod, full.GameStatus, eventsRaw, availableRaw, onFieldRaw,
			selectedRaw, full.PeriodDurationMinutes, full.NumberOfPeriods, nullable(full.SeasonID),
			nullable(full.TournamentID), full.HomeOrAway, full.Location)
		updated, err := scanGame(row)
		if err == nil {
			return &updated, nil
		}
		if !isNoRows(err) {
			return nil, err
		}

		// The conditional update matched no row: either the game does not
		// exist, or the version has moved on. Disambiguate by re-reading.
		currentRow := r.pool.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1 AND user_id = $2`, id, r.userID)
		current, readErr := scanGame(currentRow)
		if isNoRows(readErr) {
			return nil, nil
		}
		if readErr != nil {
			return nil, readErr
		}
		return nil, errs.New(errs.Conflict, "game version is stale").WithBackup(current)
	})
}

func (r *RemoteDataStore) SaveAllGames(ctx context.Context, games map[string]domain.Game) error {
	if err := r.checkCallPreconditions(); err != nil {
		return err
	}
	for id, g := range games {
		if _, err := r.SaveGame(ctx, id, g); err != nil {
			if errs.Is(err, errs.Conflict) {
				continue
			}
			return err
		}
	}
	return nil
}

func (r *RemoteDataStore) DeleteGame(ctx context.Context, id string) error {
	if err := r.checkCallPreconditions(); err != nil {
		return err
	}
	_, err := withRetry(ctx, func(ctx context.Context) (struct{}, error) {
		_, err := r.pool.Exec(ctx, `DELETE FROM games WHERE id = $1 AND user_id = $2`, id, r.userID)
		return struct{}{}, err
	})
	return err
}
