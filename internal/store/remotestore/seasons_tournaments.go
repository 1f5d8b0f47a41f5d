package remotestore

import (
	"context"

	"github.com/google/uuid"

	"github.com/relentnet/matchops-sync/internal/domain"
	"github.com/relentnet/matchops-sync/internal/errs"
)

func (r *RemoteDataStore) GetSeasons(ctx context.Context, includeArchived bool) ([]domain.Season, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	return withRetry(ctx, func(ctx context.Context) ([]domain.Season, error) {
		query := `
			SELECT id, name, start_date, end_date, club_season, game_type, gender, age_group,
			       league_id, custom_league_name, is_archived, created_at, updated_at
			FROM seasons WHERE user_id = $1`
		if !includeArchived {
			query += ` AND is_archived = false`
		}
		query += ` ORDER BY created_at DESC`

		rows, err := r.pool.Query(ctx, query, r.userID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		out := make([]domain.Season, 0)
		for rows.Next() {
			var s domain.Season
			var createdAt, updatedAt timeValue
			if err := rows.Scan(&s.ID, &s.Name, &s.StartDate, &s.EndDate, &s.ClubSeason, &s.GameType,
				&s.Gender, &s.AgeGroup, &s.LeagueID, &s.CustomLeagueName, &s.IsArchived, &createdAt, &updatedAt); err != nil {
				return nil, err
			}
			s.CreatedAt, s.UpdatedAt = createdAt.String(), updatedAt.String()
			out = append(out, s)
		}
		return out, rows.Err()
	})
}

func (r *RemoteDataStore) seasonExistsWithKey(ctx context.Context, key, excludeID string) (bool, error) {
	seasons, err := r.GetSeasons(ctx, true)
	if err != nil {
		return false, err
	}
	for _, existing := range seasons {
		if existing.ID != excludeID && existing.UniqueKey() == key {
			return true, nil
		}
	}
	return false, nil
}

func (r *RemoteDataStore) CreateSeason(ctx context.Context, s domain.Season) (domain.Season, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return domain.Season{}, err
	}
	s.Name = domain.NormalizeName(s.Name)
	if err := domain.ValidateName(s.Name, maxNameLen); err != nil {
		return domain.Season{}, errs.Wrap(errs.Validation, "season name invalid", err)
	}
	if exists, err := r.seasonExistsWithKey(ctx, s.UniqueKey(), ""); err != nil {
		return domain.Season{}, err
	} else if exists {
		return domain.Season{}, errs.New(errs.AlreadyExists, "a season with this name and binding already exists")
	}
	s.ID = "season_" + uuid.NewString()
	return withRetry(ctx, func(ctx context.Context) (domain.Season, error) {
		var createdAt, updatedAt timeValue
		err := r.pool.QueryRow(ctx, `
			INSERT INTO seasons (id, user_id, name, start_date, end_date, club_season, game_type, gender,
			                     age_group, league_id, custom_league_name, is_archived)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
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

func (r *RemoteDataStore) UpdateSeason(ctx context.Context, id string, full domain.Season) (*domain.Season, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	full.Name = domain.NormalizeName(full.Name)
	if err := domain.ValidateName(full.Name, maxNameLen); err != nil {
		return nil, errs.Wrap(errs.Validation, "season name invalid", err)
	}
	if exists, err := r.seasonExistsWithKey(ctx, full.UniqueKey(), id); err != nil {
		return nil, err
	} else if exists {
		return nil, errs.New(errs.AlreadyExists, "a season with this name and binding already exists")
	}
	return withRetry(ctx, func(ctx context.Context) (*domain.Season, error) {
		var s domain.Season
		var createdAt, updatedAt timeValue
		err := r.pool.QueryRow(ctx, `
			UPDATE seasons SET name=$3, start_date=$4, end_date=$5, club_season=$6, game_type=$7,
			       gender=$8, age_group=$9, league_id=$10, custom_league_name=$11, is_archived=$12, updated_at=now()
			WHERE id = $1 AND user_id = $2
			RETURNING id, name, start_date, end_date, club_season, game_type, gender, age_group,
			          league_id, custom_league_name, is_archived, created_at, updated_at
		`, id, r.userID, full.Name, full.StartDate, full.EndDate, full.ClubSeason, full.GameType,
			full.Gender, full.AgeGroup, full.LeagueID, full.CustomLeagueName, full.IsArchived,
		).Scan(&s.ID, &s.Name, &s.StartDate, &s.EndDate, &s.ClubSeason, &s.GameType, &s.Gender,
			&s.AgeGroup, &s.LeagueID, &s.CustomLeagueName, &s.IsArchived, &createdAt, &updatedAt)
		if isNoRows(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		s.CreatedAt, s.UpdatedAt = createdAt.String(), updatedAt.String()
		return &s, nil
	})
}

func (r *RemoteDataStore) DeleteSeason(ctx context.Context, id string) error {
	if err := r.checkCallPreconditions(); err != nil {
		return err
	}
	_, err := withRetry(ctx, func(ctx context.Context) (struct{}, error) {
		_, err := r.pool.Exec(ctx, `DELETE FROM seasons WHERE id = $1 AND user_id = $2`, id, r.userID)
		return struct{}{}, err
	})
	return err
}

func (r *RemoteDataStore) GetTournaments(ctx context.Context, includeArchived bool) ([]domain.Tournament, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	return withRetry(ctx, func(ctx context.Context) ([]domain.Tournament, error) {
		query := `
			SELECT id, name, start_date, end_date, location, level, series, club_season, game_type,
			       gender, age_group, is_archived, created_at, updated_at
			FROM tournaments WHERE user_id = $1`
		if !includeArchived {
			query += ` AND is_archived = false`
		}
		query += ` ORDER BY created_at DESC`

		rows, err := r.pool.Query(ctx, query, r.userID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		out := make([]domain.Tournament, 0)
		for rows.Next() {
			var t domain.Tournament
			var createdAt, updatedAt timeValue
			if err := rows.Scan(&t.ID, &t.Name, &t.StartDate, &t.EndDate, &t.Location, &t.Level, &t.Series,
				&t.ClubSeason, &t.GameType, &t.Gender, &t.AgeGroup, &t.IsArchived, &createdAt, &updatedAt); err != nil {
				return nil, err
			}
			t.CreatedAt, t.UpdatedAt = createdAt.String(), updatedAt.String()
			out = append(out, t)
		}
		return out, rows.Err()
	})
}

func (r *RemoteDataStore) tournamentExistsWithKey(ctx context.Context, key, excludeID string) (bool, error) {
	tournaments, err := r.GetTournaments(ctx, true)
	if err != nil {
		return false, err
	}
	for _, existing := range tournaments {
		if existing.ID != excludeID && existing.UniqueKey() == key {
			return true, nil
		}
	}
	return false, nil
}

func (r *RemoteDataStore) CreateTournament(ctx context.Context, t domain.Tournament) (domain.Tournament, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return domain.Tournament{}, err
	}
	t.Name = domain.NormalizeName(t.Name)
	if err := domain.ValidateName(t.Name, maxNameLen); err != nil {
		return domain.Tournament{}, errs.Wrap(errs.Validation, "tournament name invalid", err)
	}
	if exists, err := r.tournamentExistsWithKey(ctx, t.UniqueKey(), ""); err != nil {
		return domain.Tournament{}, err
	} else if exists {
		return domain.Tournament{}, errs.New(errs.AlreadyExists, "a tournament with this name and binding already exists")
	}
	t.ID = "tournament_" + uuid.NewString()
	return withRetry(ctx, func(ctx context.Context) (domain.Tournament, error) {
		var createdAt, updatedAt timeValue
		err := r.pool.QueryRow(ctx, `
			INSERT INTO tournaments (id, user_id, name, start_date, end_date, location, level, series,
			                         club_season, game_type, gender, age_group, is_archived)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
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

func (r *RemoteDataStore) UpdateTournament(ctx context.Context, id string, full domain.Tournament) (*domain.Tournament, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	full.Name = domain.NormalizeName(full.Name)
	if err := domain.ValidateName(full.Name, maxNameLen); err != nil {
		return nil, errs.Wrap(errs.Validation, "tournament name invalid", err)
	}
	if exists, err := r.tournamentExistsWithKey(ctx, full.UniqueKey(), id); err != nil {
		return nil, err
	} else if exists {
		return nil, errs.New(errs.AlreadyExists, "a tournament with this name and binding already exists")
	}
	return withRetry(ctx, func(ctx context.Context) (*domain.Tournament, error) {
		var t domain.Tournament
		var createdAt, updatedAt timeValue
		err := r.pool.QueryRow(ctx, `
			UPDATE tournaments SET name=$3, start_date=$4, end_date=$5, location=$6, level=$7, series=$8,
			       club_season=$9, game_type=$10, gender=$11, age_group=$12, is_archived=$13, updated_at=now()
			WHERE id = $1 AND user_id = $2
			RETURNING id, name, start_date, end_date, location, level, series, club_season, game_type,
			          gender, age_group, is_archived, created_at, updated_at
		`, id, r.userID, full.Name, full.StartDate, full.EndDate, full.Location, full.Level, full.Series,
			full.ClubSeason, full.GameType, full.Gender, full.AgeGroup, full.IsArchived,
		).Scan(&t.ID, &t.Name, &t.StartDate, &t.EndDate, &t.Location, &t.Level, &t.Series,
			&t.ClubSeason, &t.GameType, &t.Gender, &t.AgeGroup, &t.IsArchived, &createdAt, &updatedAt)
		if isNoRows(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		t.CreatedAt, t.UpdatedAt = createdAt.String(), updatedAt.String()
		return &t, nil
	})
}

func (r *RemoteDataStore) DeleteTournament(ctx context.Context, id string) error {
	if err := r.checkCallPreconditions(); err != nil {
		return err
	}
	_, err := withRetry(ctx, func(ctx context.Context) (struct{}, error) {
		_, err := r.pool.Exec(ctx, `DELETE FROM tournaments WHERE id = $1 AND user_id = $2`, id, r.userID)
		return struct{}{}, err
	})
	return err
}
