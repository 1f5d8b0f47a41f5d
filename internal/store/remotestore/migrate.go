package remotestore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/relentnet/matchops-sync/internal/domain"
)

// The methods in this file exist only for the migration engine:
// id-preserving upserts for the entity types whose normal DataStore surface
// only supports server-minted ids, plus a whole-account snapshot/restore pair
// used for rollback on a fatal mid-migration failure.

func (r *RemoteDataStore) GetAllPlayerAdjustments(ctx context.Context) ([]domain.PlayerAdjustment, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	return withRetry(ctx, func(ctx context.Context) ([]domain.PlayerAdjustment, error) {
		rows, err := r.pool.Query(ctx, `
			SELECT id, player_id, games_played_delta, goals_delta, assists_delta, applied_at
			FROM player_adjustments WHERE user_id = $1 ORDER BY applied_at ASC
		`, r.userID)
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

func (r *RemoteDataStore) UpsertSeason(ctx context.Context, s domain.Season) (domain.Season, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return domain.Season{}, err
	}
	return withRetry(ctx, func(ctx context.Context) (domain.Season, error) {
		var createdAt, updatedAt timeValue
		err := r.pool.QueryRow(ctx, `
			INSERT INTO seasons (id, user_id, name, start_date, end_date, club_season, game_type, gender,
			                     age_group, league_id, custom_league_name, is_archived)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date,
				club_season = EXCLUDED.club_season, game_type = EXCLUDED.game_type, gender = EXCLUDED.gender,
				age_group = EXCLUDED.age_group, league_id = EXCLUDED.league_id,
				custom_league_name = EXCLUDED.custom_league_name, is_archived = EXCLUDED.is_archived,
				updated_at = now()
			RETURNING created_at, updated_at
		`, s.ID, r.userID, s.Name, s.StartDate, s.EndDate, s.ClubSeason, s.GameType, s.Gender,
			s.AgeGroup, s.LeagueID, s.CustomLeagueName, s.IsArchived,
		).Scan(&createdAt, &updatedAt)
		if err != nil {
			return domain.Season{}, err
		}
		s.CreatedAt, s.UpdatedAt = createdAt.String(), updatedAt.String()
		return s, nil
	})
}

func (r *RemoteDataStore) UpsertTournament(ctx context.Context, t domain.Tournament) (domain.Tournament, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return domain.Tournament{}, err
	}
	return withRetry(ctx, func(ctx context.Context) (domain.Tournament, error) {
		var createdAt, updatedAt timeValue
		err := r.pool.QueryRow(ctx, `
			INSERT INTO tournaments (id, user_id, name, start_date, end_date, location, level, series,
			                        club_season, game_type, gender, age_group, is_archived)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date,
				location = EXCLUDED.location, level = EXCLUDED.level, series = EXCLUDED.series,
				club_season = EXCLUDED.club_season, game_type = EXCLUDED.game_type, gender = EXCLUDED.gender,
				age_group = EXCLUDED.age_group, is_archived = EXCLUDED.is_archived, updated_at = now()
			RETURNING created_at, updated_at
		`, t.ID, r.userID, t.Name, t.StartDate, t.EndDate, t.Location, t.Level, t.Series,
			t.ClubSeason, t.GameType, t.Gender, t.AgeGroup, t.IsArchived,
		).Scan(&createdAt, &updatedAt)
		if err != nil {
			return domain.Tournament{}, err
		}
		t.CreatedAt, t.UpdatedAt = createdAt.String(), updatedAt.String()
		return t, nil
	})
}

func (r *RemoteDataStore) UpsertPersonnel(ctx context.Context, p domain.Personnel) (domain.Personnel, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return domain.Personnel{}, err
	}
	certRaw, _ := json.Marshal(p.Certifications)
	return withRetry(ctx, func(ctx context.Context) (domain.Personnel, error) {
		var createdAt, updatedAt timeValue
		err := r.pool.QueryRow(ctx, `
			INSERT INTO personnel (id, user_id, name, role, email, phone, certifications, notes)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, role = EXCLUDED.role, email = EXCLUDED.email, phone = EXCLUDED.phone,
				certifications = EXCLUDED.certifications, notes = EXCLUDED.notes, updated_at = now()
			RETURNING created_at, updated_at
		`, p.ID, r.userID, p.Name, p.Role, p.Email, p.Phone, certRaw, p.Notes,
		).Scan(&createdAt, &updatedAt)
		if err != nil {
			return domain.Personnel{}, err
		}
		p.CreatedAt, p.UpdatedAt = createdAt.String(), updatedAt.String()
		return p, nil
	})
}

// UpsertGame inserts or overwrites a game verbatim by its source id, bypassing
// the optimistic-lock version check SaveGame enforces — migration is not a
// concurrent write path, it owns the destination for the duration of the run.
func (r *RemoteDataStore) UpsertGame(ctx context.Context, g domain.Game) (domain.Game, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return domain.Game{}, err
	}
	if g.GameEvents == nil {
		g.GameEvents = []domain.GameEvent{}
	}
	if g.Version < 1 {
		g.Version = 1
	}
	eventsRaw, _ := json.Marshal(g.GameEvents)
	availableRaw, _ := json.Marshal(g.AvailablePlayerIDs)
	onFieldRaw, _ := json.Marshal(g.PlayersOnFieldIDs)
	selectedRaw, _ := json.Marshal(g.SelectedPlayerIDs)

	return withRetry(ctx, func(ctx context.Context) (domain.Game, error) {
		row := r.pool.QueryRow(ctx, `
			INSERT INTO games (id, user_id, team_name, opponent_name, game_date, home_score, away_score,
			                   current_period, game_status, game_events, available_player_ids,
			                   players_on_field_ids, selected_player_ids, period_duration_minutes,
			                   number_of_periods, season_id, tournament_id, home_or_away, location, version)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
			ON CONFLICT (id) DO UPDATE SET
				team_name = EXCLUDED.team_name, opponent_name = EXCLUDED.opponent_name,
				game_date = EXCLUDED.game_date, home_score = EXCLUDED.home_score, away_score = EXCLUDED.away_score,
				current_period = EXCLUDED.current_period, game_status = EXCLUDED.game_status,
				game_events = EXCLUDED.game_events, available_player_ids = EXCLUDED.available_player_ids,
				players_on_field_ids = EXCLUDED.players_on_field_ids, selected_player_ids = EXCLUDED.selected_player_ids,
				period_duration_minutes = EXCLUDED.period_duration_minutes, number_of_periods = EXCLUDED.number_of_periods,
				season_id = EXCLUDED.season_id, tournament_id = EXCLUDED.tournament_id,
				home_or_away = EXCLUDED.home_or_away, location = EXCLUDED.location, version = EXCLUDED.version,
				updated_at = now()
			RETURNING `+gameColumns+`
		`, g.ID, r.userID, g.TeamName, g.OpponentName, g.GameDate, g.HomeScore,
			g.AwayScore, g.CurrentPeriod, g.GameStatus, eventsRaw, availableRaw, onFieldRaw,
			selectedRaw, g.PeriodDurationMinutes, g.NumberOfPeriods, nullable(g.SeasonID),
			nullable(g.TournamentID), g.HomeOrAway, g.Location, g.Version)
		return scanGame(row)
	})
}

func (r *RemoteDataStore) UpsertPlayerAdjustment(ctx context.Context, a domain.PlayerAdjustment) (domain.PlayerAdjustment, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return domain.PlayerAdjustment{}, err
	}
	return withRetry(ctx, func(ctx context.Context) (domain.PlayerAdjustment, error) {
		var appliedAt timeValue
		err := r.pool.QueryRow(ctx, `
			INSERT INTO player_adjustments (id, user_id, player_id, games_played_delta, goals_delta, assists_delta)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (id) DO UPDATE SET
				player_id = EXCLUDED.player_id, games_played_delta = EXCLUDED.games_played_delta,
				goals_delta = EXCLUDED.goals_delta, assists_delta = EXCLUDED.assists_delta
			RETURNING applied_at
		`, a.ID, r.userID, a.PlayerID, a.GamesPlayedDelta, a.GoalsDelta, a.AssistsDelta).Scan(&appliedAt)
		if err != nil {
			return domain.PlayerAdjustment{}, err
		}
		a.AppliedAt = appliedAt.String()
		return a, nil
	})
}

// Snapshot captures every row owned by this user across all ten
// collections, for Restore to reinstate verbatim if a migration run fails
// fatally.
type Snapshot struct {
	Players      []domain.Player
	Teams        []domain.Team
	Rosters      map[string][]domain.TeamPlayer
	Seasons      []domain.Season
	Tournaments  []domain.Tournament
	Personnel    []domain.Personnel
	Games        map[string]domain.Game
	Adjustments  []domain.PlayerAdjustment
	WarmupPlan   *domain.WarmupPlan
	Settings     domain.AppSettings
}

// Snapshot returns an opaque any so LocalDataStore and RemoteDataStore can
// satisfy the same migration.Store interface despite capturing state in
// entirely different shapes; Restore type-asserts it back.
func (r *RemoteDataStore) Snapshot(ctx context.Context) (any, error) {
	var snap Snapshot
	var err error
	if snap.Players, err = r.GetPlayers(ctx); err != nil {
		return nil, err
	}
	if snap.Teams, err = r.GetTeams(ctx, true); err != nil {
		return nil, err
	}
	if snap.Rosters, err = r.GetAllTeamRosters(ctx); err != nil {
		return nil, err
	}
	if snap.Seasons, err = r.GetSeasons(ctx, true); err != nil {
		return nil, err
	}
	if snap.Tournaments, err = r.GetTournaments(ctx, true); err != nil {
		return nil, err
	}
	if snap.Personnel, err = r.GetAllPersonnel(ctx); err != nil {
		return nil, err
	}
	if snap.Games, err = r.GetGames(ctx); err != nil {
		return nil, err
	}
	if snap.Adjustments, err = r.GetAllPlayerAdjustments(ctx); err != nil {
		return nil, err
	}
	if snap.WarmupPlan, err = r.GetWarmupPlan(ctx); err != nil {
		return nil, err
	}
	if snap.Settings, err = r.GetSettings(ctx); err != nil {
		return nil, err
	}
	return snap, nil
}

// Restore replaces everything this user owns with the contents of snapshot,
// in one transaction: delete-all-for-user across every table, then bulk
// reinsert.
func (r *RemoteDataStore) Restore(ctx context.Context, snapshot any) error {
	if err := r.checkCallPreconditions(); err != nil {
		return err
	}
	snap, ok := snapshot.(Snapshot)
	if !ok {
		return fmt.Errorf("remotestore: Restore given a snapshot of type %T, want remotestore.Snapshot", snapshot)
	}
	_, err := withRetry(ctx, func(ctx context.Context) (struct{}, error) {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return struct{}{}, err
		}
		defer tx.Rollback(ctx)

		for _, table := range []string{"players", "teams", "team_rosters", "seasons", "tournaments",
			"personnel", "games", "player_adjustments", "warmup_plans", "settings"} {
			if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE user_id = $1`, r.userID); err != nil {
				return struct{}{}, err
			}
		}

		for _, p := range snap.Players {
			if _, err := tx.Exec(ctx, `
				INSERT INTO players (id, user_id, name, nickname, jersey_number, is_goalie, received_fair_play_card, color, notes, created_at, updated_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			`, p.ID, r.userID, p.Name, p.Nickname, p.JerseyNumber, p.IsGoalie, p.ReceivedFairPlayCard, p.Color, p.Notes,
				parseTimeOrNow(p.CreatedAt), parseTimeOrNow(p.UpdatedAt)); err != nil {
				return struct{}{}, err
			}
		}
		for _, t := range snap.Teams {
			if _, err := tx.Exec(ctx, `
				INSERT INTO teams (id, user_id, name, color, notes, age_group, game_type, is_archived,
				                   bound_season_id, bound_tournament_id, bound_tournament_series_id, created_at, updated_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
			`, t.ID, r.userID, t.Name, t.Color, t.Notes, t.AgeGroup, t.GameType, t.IsArchived,
				nullable(t.BoundSeasonID), nullable(t.BoundTournamentID), nullable(t.BoundTournamentSeriesID),
				parseTimeOrNow(t.CreatedAt), parseTimeOrNow(t.UpdatedAt)); err != nil {
				return struct{}{}, err
			}
		}
		for teamID, roster := range snap.Rosters {
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
		}
		for _, s := range snap.Seasons {
			if _, err := tx.Exec(ctx, `
				INSERT INTO seasons (id, user_id, name, start_date, end_date, club_season, game_type, gender,
				                     age_group, league_id, custom_league_name, is_archived, created_at, updated_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
			`, s.ID, r.userID, s.Name, s.StartDate, s.EndDate, s.ClubSeason, s.GameType, s.Gender,
				s.AgeGroup, s.LeagueID, s.CustomLeagueName, s.IsArchived,
				parseTimeOrNow(s.CreatedAt), parseTimeOrNow(s.UpdatedAt)); err != nil {
				return struct{}{}, err
			}
		}
		for _, t := range snap.Tournaments {
			if _, err := tx.Exec(ctx, `
				INSERT INTO tournaments (id, user_id, name, start_date, end_date, location, level, series,
				                         club_season, game_type, gender, age_group, is_archived, created_at, updated_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
			`, t.ID, r.userID, t.Name, t.StartDate, t.EndDate, t.Location, t.Level, t.Series,
				t.ClubSeason, t.GameType, t.Gender, t.AgeGroup, t.IsArchived,
				parseTimeOrNow(t.CreatedAt), parseTimeOrNow(t.UpdatedAt)); err != nil {
				return struct{}{}, err
			}
		}
		for _, p := range snap.Personnel {
			certRaw, _ := json.Marshal(p.Certifications)
			if _, err := tx.Exec(ctx, `
				INSERT INTO personnel (id, user_id, name, role, email, phone, certifications, notes, created_at, updated_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			`, p.ID, r.userID, p.Name, p.Role, p.Email, p.Phone, certRaw, p.Notes,
				parseTimeOrNow(p.CreatedAt), parseTimeOrNow(p.UpdatedAt)); err != nil {
				return struct{}{}, err
			}
		}
		for _, g := range snap.Games {
			eventsRaw, _ := json.Marshal(g.GameEvents)
			availableRaw, _ := json.Marshal(g.AvailablePlayerIDs)
			onFieldRaw, _ := json.Marshal(g.PlayersOnFieldIDs)
			selectedRaw, _ := json.Marshal(g.SelectedPlayerIDs)
			if _, err := tx.Exec(ctx, `
				INSERT INTO games (id, user_id, team_name, opponent_name, game_date, home_score, away_score,
				                   current_period, game_status, game_events, available_player_ids,
				                   players_on_field_ids, selected_player_ids, period_duration_minutes,
				                   number_of_periods, season_id, tournament_id, home_or_away, location, version,
				                   created_at, updated_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
			`, g.ID, r.userID, g.TeamName, g.OpponentName, g.GameDate, g.HomeScore, g.AwayScore,
				g.CurrentPeriod, g.GameStatus, eventsRaw, availableRaw, onFieldRaw, selectedRaw,
				g.PeriodDurationMinutes, g.NumberOfPeriods, nullable(g.SeasonID), nullable(g.TournamentID),
				g.HomeOrAway, g.Location, g.Version, parseTimeOrNow(g.CreatedAt), parseTimeOrNow(g.UpdatedAt)); err != nil {
				return struct{}{}, err
			}
		}
		for _, a := range snap.Adjustments {
			if _, err := tx.Exec(ctx, `
				INSERT INTO player_adjustments (id, user_id, player_id, games_played_delta, goals_delta, assists_delta, applied_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7)
			`, a.ID, r.userID, a.PlayerID, a.GamesPlayedDelta, a.GoalsDelta, a.AssistsDelta, parseTimeOrNow(a.AppliedAt)); err != nil {
				return struct{}{}, err
			}
		}
		if snap.WarmupPlan != nil {
			sectionsRaw, _ := json.Marshal(snap.WarmupPlan.Sections)
			if _, err := tx.Exec(ctx, `
				INSERT INTO warmup_plans (user_id, version, last_modified, is_default, sections, updated_at)
				VALUES ($1,$2,$3,$4,$5,$6)
			`, r.userID, snap.WarmupPlan.Version, parseTimeOrNow(snap.WarmupPlan.LastModified),
				snap.WarmupPlan.IsDefault, sectionsRaw, parseTimeOrNow(snap.WarmupPlan.UpdatedAt)); err != nil {
				return struct{}{}, err
			}
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO settings (user_id, language, current_game_id, last_home_team_name, has_seen_app_guide,
			                      use_demand_correction, has_configured_season_dates, club_season_start, club_season_end)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, r.userID, snap.Settings.Language, snap.Settings.CurrentGameID, snap.Settings.LastHomeTeamName,
			snap.Settings.HasSeenAppGuide, snap.Settings.UseDemandCorrection, snap.Settings.HasConfiguredSeasonDates,
			snap.Settings.ClubSeasonStart, snap.Settings.ClubSeasonEnd); err != nil {
			return struct{}{}, err
		}

		return struct{}{}, tx.Commit(ctx)
	})
	if err == nil {
		r.settingsCache.invalidate(ctx)
	}
	return err
}
