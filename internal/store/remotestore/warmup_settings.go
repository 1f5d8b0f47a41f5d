package remotestore

import (
	"context"
	"encoding/json"

	"github.com/relentnet/matchops-sync/internal/domain"
)

func (r *RemoteDataStore) GetWarmupPlan(ctx context.Context) (*domain.WarmupPlan, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return nil, err
	}
	return withRetry(ctx, func(ctx context.Context) (*domain.WarmupPlan, error) {
		var plan domain.WarmupPlan
		var sectionsRaw []byte
		var lastModified, updatedAt timeValue
		err := r.pool.QueryRow(ctx, `
			SELECT version, last_modified, is_default, sections, updated_at FROM warmup_plans WHERE user_id = $1
		`, r.userID).Scan(&plan.Version, &lastModified, &plan.IsDefault, &sectionsRaw, &updatedAt)
		if isNoRows(err) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		_ = json.Unmarshal(sectionsRaw, &plan.Sections)
		plan.ID = "default"
		plan.LastModified, plan.UpdatedAt = lastModified.String(), updatedAt.String()
		return &plan, nil
	})
}

func (r *RemoteDataStore) SaveWarmupPlan(ctx context.Context, plan domain.WarmupPlan) (domain.WarmupPlan, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return domain.WarmupPlan{}, err
	}
	plan.IsDefault = false
	sectionsRaw, _ := json.Marshal(plan.Sections)
	return withRetry(ctx, func(ctx context.Context) (domain.WarmupPlan, error) {
		var lastModified, updatedAt timeValue
		err := r.pool.QueryRow(ctx, `
			INSERT INTO warmup_plans (user_id, version, is_default, sections)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (user_id) DO UPDATE SET
				version = warmup_plans.version + 1, is_default = EXCLUDED.is_default,
				sections = EXCLUDED.sections, last_modified = now(), updated_at = now()
			RETURNING version, last_modified, updated_at
		`, r.userID, plan.Version, plan.IsDefault, sectionsRaw).Scan(&plan.Version, &lastModified, &updatedAt)
		if err != nil {
			return domain.WarmupPlan{}, err
		}
		plan.ID = "default"
		plan.LastModified, plan.UpdatedAt = lastModified.String(), updatedAt.String()
		return plan, nil
	})
}

func (r *RemoteDataStore) DeleteWarmupPlan(ctx context.Context) error {
	if err := r.checkCallPreconditions(); err != nil {
		return err
	}
	_, err := withRetry(ctx, func(ctx context.Context) (struct{}, error) {
		_, err := r.pool.Exec(ctx, `DELETE FROM warmup_plans WHERE user_id = $1`, r.userID)
		return struct{}{}, err
	})
	return err
}

func (r *RemoteDataStore) GetSettings(ctx context.Context) (domain.AppSettings, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return domain.AppSettings{}, err
	}
	if cached, ok := r.settingsCache.get(ctx); ok {
		return cached, nil
	}
	return withRetry(ctx, func(ctx context.Context) (domain.AppSettings, error) {
		var s domain.AppSettings
		err := r.pool.QueryRow(ctx, `
			SELECT language, current_game_id, last_home_team_name, has_seen_app_guide, use_demand_correction,
			       has_configured_season_dates, club_season_start, club_season_end
			FROM settings WHERE user_id = $1
		`, r.userID).Scan(&s.Language, &s.CurrentGameID, &s.LastHomeTeamName, &s.HasSeenAppGuide,
			&s.UseDemandCorrection, &s.HasConfiguredSeasonDates, &s.ClubSeasonStart, &s.ClubSeasonEnd)
		if isNoRows(err) {
			s = domain.AppSettings{Language: "en"}
			r.settingsCache.set(ctx, s)
			return s, nil
		}
		if err != nil {
			return domain.AppSettings{}, err
		}
		r.settingsCache.set(ctx, s)
		return s, nil
	})
}

func (r *RemoteDataStore) SaveSettings(ctx context.Context, s domain.AppSettings) error {
	if err := r.checkCallPreconditions(); err != nil {
		return err
	}
	_, err := withRetry(ctx, func(ctx context.Context) (struct{}, error) {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO settings (user_id, language, current_game_id, last_home_team_name, has_seen_app_guide,
			                      use_demand_correction, has_configured_season_dates, club_season_start, club_season_end)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			ON CONFLICT (user_id) DO UPDATE SET
				language = EXCLUDED.language, current_game_id = EXCLUDED.current_game_id,
				last_home_team_name = EXCLUDED.last_home_team_name, has_seen_app_guide = EXCLUDED.has_seen_app_guide,
				use_demand_correction = EXCLUDED.use_demand_correction,
				has_configured_season_dates = EXCLUDED.has_configured_season_dates,
				club_season_start = EXCLUDED.club_season_start, club_season_end = EXCLUDED.club_season_end
		`, r.userID, s.Language, s.CurrentGameID, s.LastHomeTeamName, s.HasSeenAppGuide,
			s.UseDemandCorrection, s.HasConfiguredSeasonDates, s.ClubSeasonStart, s.ClubSeasonEnd)
		return struct{}{}, err
	})
	if err != nil {
		return err
	}
	r.settingsCache.invalidate(ctx)
	return nil
}

func (r *RemoteDataStore) UpdateSettings(ctx context.Context, patch map[string]any) (domain.AppSettings, error) {
	if err := r.checkCallPreconditions(); err != nil {
		return domain.AppSettings{}, err
	}
	current, err := r.GetSettings(ctx)
	if err != nil {
		return domain.AppSettings{}, err
	}
	raw, err := json.Marshal(current)
	if err != nil {
		return domain.AppSettings{}, err
	}
	var merged map[string]any
	if err := json.Unmarshal(raw, &merged); err != nil {
		return domain.AppSettings{}, err
	}
	for k, v := range patch {
		merged[k] = v
	}
	mergedRaw, err := json.Marshal(merged)
	if err != nil {
		return domain.AppSettings{}, err
	}
	var result domain.AppSettings
	if err := json.Unmarshal(mergedRaw, &result); err != nil {
		return domain.AppSettings{}, err
	}
	if err := r.SaveSettings(ctx, result); err != nil {
		return domain.AppSettings{}, err
	}
	return result, nil
}
