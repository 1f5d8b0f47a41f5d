package remotestore

import (
	"context"

	"github.com/google/uuid"

	"github.com/relentnet/matchops-sync/internal/domain"
	"github.com/relentnet/matchops-sync/internal/errs"
)

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func denull(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func (r *RemoteDataStore) GetTeams(ctx context.Context, includeArchived bool) ([]domain.Team, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	return withRetry(ctx, func(ctx context.Context) ([]domain.Team, error) {
		query := `
			SELECT id, name, color, notes, age_group, game_type, is_archived,
			       bound_season_id, bound_tournament_id, bound_tournament_series_id, created_at, updated_at
			FROM teams WHERE user_id = $1`
		if !includeArchived {
			query += ` AND is_archived = false`
		}
		query += ` ORDER BY created_at DESC`

		rows, err := r.pool.Query(ctx, query, r.userID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		teams := make([]domain.Team, 0)
		for rows.Next() {
			var t domain.Team
			var seasonID, tournamentID, seriesID *string
			var createdAt, updatedAt timeValue
			if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.Notes, &t.AgeGroup, &t.GameType, &t.IsArchived,
				&seasonID, &tournamentID, &seriesID, &createdAt, &updatedAt); err != nil {
				return nil, err
			}
			t.BoundSeasonID, t.BoundTournamentID, t.BoundTournamentSeriesID = denull(seasonID), denull(tournamentID), denull(seriesID)
			t.CreatedAt, t.UpdatedAt = createdAt.String(), updatedAt.String()
			teams = append(teams, t)
		}
		return teams, rows.Err()
	})
}

func (r *RemoteDataStore) GetTeamByID(ctx context.Context, id string) (*domain.Team, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	return withRetry(ctx, func(ctx context.Context) (*domain.Team, error) {
		var t domain.Team
		var seasonID, tournamentID, seriesID *string
		var createdAt, updatedAt timeValue
		err := r.pool.QueryRow(ctx, `
			SELECT id, name, color, notes, age_group, game_type, is_archived,
			       bound_season_id, bound_tournament_id, bound_tournament_series_id, created_at, updated_at
			FROM teams WHERE id = $1 AND user_id = $2
		`, id, r.userID).Scan(&t.ID, &t.Name, &t.Color, &t.Notes, &t.AgeGroup, &t.GameType, &t.IsArchived,
			&seasonID, &tournamentID, &seriesID, &createdAt, &updatedAt)
		if isNoRows(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		t.BoundSeasonID, t.BoundTournamentID, t.BoundTournamentSeriesID = denull(seasonID), denull(tournamentID), denull(seriesID)
		t.CreatedAt, t.UpdatedAt = createdAt.String(), updatedAt.String()
		return &t, nil
	})
}

// teamExistsWithKey is the advisory pre-read half of uniqueness enforcement:
// scan the user's teams (archived included) for a case-insensitive composite
// key match. The server's unique index is the final authority and raises the
// same error class on a race.
func (r *RemoteDataStore) teamExistsWithKey(ctx context.Context, key, excludeID string) (bool, error) {
	teams, err := r.GetTeams(ctx, true)
	if err != nil {
		return false, err
	}
	for _, existing := range teams {
		if existing.ID != excludeID && existing.UniqueKey() == key {
			return true, nil
		}
	}
	return false, nil
}

func validateRemoteTeam(t *domain.Team) error {
	t.Name = domain.NormalizeName(t.Name)
	if err := domain.ValidateName(t.Name, maxNameLen); err != nil {
		return errs.Wrap(errs.Validation, "team name invalid", err)
	}
	if t.BoundTournamentSeriesID != "" && t.BoundTournamentID == "" {
		return errs.Wrap(errs.Validation, "team binding invalid", domain.ErrSeriesRequiresTournament)
	}
	return nil
}

func (r *RemoteDataStore) CreateTeam(ctx context.Context, t domain.Team) (domain.Team, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return domain.Team{}, err
	}
	if err := validateRemoteTeam(&t); err != nil {
		return domain.Team{}, err
	}
	if exists, err := r.teamExistsWithKey(ctx, t.UniqueKey(), ""); err != nil {
		return domain.Team{}, err
	} else if exists {
		return domain.Team{}, errs.New(errs.AlreadyExists, "a team with this name and binding already exists")
	}
	t.ID = "team_" + uuid.NewString()
	return withRetry(ctx, func(ctx context.Context) (domain.Team, error) {
		var createdAt, updatedAt timeValue
		err := r.pool.QueryRow(ctx, `
			INSERT INTO teams (id, user_id, name, color, notes, age_group, game_type, is_archived,
			                   bound_season_id, bound_tournament_id, bound_tournament_series_id)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			RETURNING created_at, updated_at
		`, t.ID, r.userID, t.Name, t.Color, t.Notes, t.AgeGroup, t.GameType, t.IsArchived,
			nullable(t.BoundSeasonID), nullable(t.BoundTournamentID), nullable(t.BoundTournamentSeriesID),
		).Scan(&createdAt, &updatedAt)
		if err != nil {
			return domain.Team{}, err
		}
		t.CreatedAt, t.UpdatedAt = createdAt.String(), updatedAt.String()
		return t, nil
	})
}

func (r *RemoteDataStore) UpdateTeam(ctx context.Context, id string, patch domain.Team) (*domain.Team, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	if err := validateRemoteTeam(&patch); err != nil {
		return nil, err
	}
	if exists, err := r.teamExistsWithKey(ctx, patch.UniqueKey(), id); err != nil {
		return nil, err
	} else if exists {
		return nil, errs.New(errs.AlreadyExists, "a team with this name and binding already exists")
	}
	return withRetry(ctx, func(ctx context.Context) (*domain.Team, error) {
		var t domain.Team
		var seasonID, tournamentID, seriesID *string
		var createdAt, updatedAt timeValue
		err := r.pool.QueryRow(ctx, `
			UPDATE teams SET name = $3, color = $4, notes = $5, age_group = $6, game_type = $7,
			       is_archived = $8, bound_season_id = $9, bound_tournament_id = $10,
			       bound_tournament_series_id = $11, updated_at = now()
			WHERE id = $1 AND user_id = $2
			RETURNING id, name, color, notes, age_group, game_type, is_archived,
			          bound_season_id, bound_tournament_id, bound_tournament_series_id, created_at, updated_at
		`, id, r.userID, patch.Name, patch.Color, patch.Notes, patch.AgeGroup, patch.GameType, patch.IsArchived,
			nullable(patch.BoundSeasonID), nullable(patch.BoundTournamentID), nullable(patch.BoundTournamentSeriesID),
		).Scan(&t.ID, &t.Name, &t.Color, &t.Notes, &t.AgeGroup, &t.GameType, &t.IsArchived,
			&seasonID, &tournamentID, &seriesID, &createdAt, &updatedAt)
		if isNoRows(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		t.BoundSeasonID, t.BoundTournamentID, t.BoundTournamentSeriesID = denull(seasonID), denull(tournamentID), denull(seriesID)
		t.CreatedAt, t.UpdatedAt = createdAt.String(), updatedAt.String()
		return &t, nil
	})
}

func (r *RemoteDataStore) DeleteTeam(ctx context.Context, id string) error {
	if err := r.checkCallPreconditions(); err != nil {
		return err
	}
	_, err := withRetry(ctx, func(ctx context.Context) (struct{}, error) {
		_, err := r.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1 AND user_id = $2`, id, r.userID)
		return struct{}{}, err
	})
	return err
}

func (r *RemoteDataStore) UpsertTeam(ctx context.Context, t domain.Team) (domain.Team, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return domain.Team{}, err
	}
	if err := validateRemoteTeam(&t); err != nil {
		return domain.Team{}, err
	}
	if t.ID == "" {
		t.ID = "team_" + uuid.NewString()
	}
	return withRetry(ctx, func(ctx context.Context) (domain.Team, error) {
		var createdAt, updatedAt timeValue
		err := r.pool.QueryRow(ctx, `
			INSERT INTO teams (id, user_id, name, color, notes, age_group, game_type, is_archived,
			                   bound_season_id, bound_tournament_id, bound_tournament_series_id)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, color = EXCLUDED.color, notes = EXCLUDED.notes,
				age_group = EXCLUDED.age_group, game_type = EXCLUDED.game_type, is_archived = EXCLUDED.is_archived,
				bound_season_id = EXCLUDED.bound_season_id, bound_tournament_id = EXCLUDED.bound_tournament_id,
				bound_tournament_series_id = EXCLUDED.bound_tournament_series_id, updated_at = now()
			RETURNING created_at, updated_at
		`, t.ID, r.userID, t.Name, t.Color, t.Notes, t.AgeGroup, t.GameType, t.IsArchived,
			nullable(t.BoundSeasonID), nullable(t.BoundTournamentID), nullable(t.BoundTournamentSeriesID),
		).Scan(&createdAt, &updatedAt)
		if err != nil {
			return domain.Team{}, err
		}
		t.CreatedAt, t.UpdatedAt = createdAt.String(), updatedAt.String()
		return t, nil
	})
}
