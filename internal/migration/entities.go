package migration

import (
	"context"

	"github.com/relentnet/matchops-sync/internal/syncqueue"
)

type entityStep struct {
	entityType syncqueue.EntityType
	copy       func(ctx context.Context, src, dst Store) error
}

// entityOrder lists every entity type migration copies. Order has no bearing
// on correctness — none of the tables the destination writes to enforce a
// foreign key across these collections — it only fixes iteration order for
// clearProgress.
var entityOrder = []syncqueue.EntityType{
	syncqueue.EntityPlayer,
	syncqueue.EntityTeam,
	syncqueue.EntityTeamRoster,
	syncqueue.EntitySeason,
	syncqueue.EntityTournament,
	syncqueue.EntityPersonnel,
	syncqueue.EntityGame,
	syncqueue.EntityPlayerAdjustment,
	syncqueue.EntityWarmupPlan,
	syncqueue.EntitySettings,
}

var entitySteps = []entityStep{
	{syncqueue.EntityPlayer, copyPlayers},
	{syncqueue.EntityTeam, copyTeams},
	{syncqueue.EntityTeamRoster, copyTeamRosters},
	{syncqueue.EntitySeason, copySeasons},
	{syncqueue.EntityTournament, copyTournaments},
	{syncqueue.EntityPersonnel, copyPersonnel},
	{syncqueue.EntityGame, copyGames},
	{syncqueue.EntityPlayerAdjustment, copyPlayerAdjustments},
	{syncqueue.EntityWarmupPlan, copyWarmupPlan},
	{syncqueue.EntitySettings, copySettings},
}

func copyPlayers(ctx context.Context, src, dst Store) error {
	players, err := src.GetPlayers(ctx)
	if err != nil {
		return err
	}
	for _, p := range players {
		if _, err := dst.UpsertPlayer(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func copyTeams(ctx context.Context, src, dst Store) error {
	teams, err := src.GetTeams(ctx, true)
	if err != nil {
		return err
	}
	for _, t := range teams {
		if _, err := dst.UpsertTeam(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func copyTeamRosters(ctx context.Context, src, dst Store) error {
	rosters, err := src.GetAllTeamRosters(ctx)
	if err != nil {
		return err
	}
	for teamID, roster := range rosters {
		if err := dst.SetTeamRoster(ctx, teamID, roster); err != nil {
			return err
		}
	}
	return nil
}

func copySeasons(ctx context.Context, src, dst Store) error {
	seasons, err := src.GetSeasons(ctx, true)
	if err != nil {
		return err
	}
	for _, s := range seasons {
		if _, err := dst.UpsertSeason(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func copyTournaments(ctx context.Context, src, dst Store) error {
	tournaments, err := src.GetTournaments(ctx, true)
	if err != nil {
		return err
	}
	for _, t := range tournaments {
		if _, err := dst.UpsertTournament(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

func copyPersonnel(ctx context.Context, src, dst Store) error {
	personnel, err := src.GetAllPersonnel(ctx)
	if err != nil {
		return err
	}
	for _, p := range personnel {
		if _, err := dst.UpsertPersonnel(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func copyGames(ctx context.Context, src, dst Store) error {
	games, err := src.GetGames(ctx)
	if err != nil {
		return err
	}
	for _, g := range games {
		if _, err := dst.UpsertGame(ctx, g); err != nil {
			return err
		}
	}
	return nil
}

func copyPlayerAdjustments(ctx context.Context, src, dst Store) error {
	adjustments, err := src.GetAllPlayerAdjustments(ctx)
	if err != nil {
		return err
	}
	for _, a := range adjustments {
		if _, err := dst.UpsertPlayerAdjustment(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func copyWarmupPlan(ctx context.Context, src, dst Store) error {
	plan, err := src.GetWarmupPlan(ctx)
	if err != nil {
		return err
	}
	if plan == nil {
		return nil
	}
	_, err = dst.SaveWarmupPlan(ctx, *plan)
	return err
}

func copySettings(ctx context.Context, src, dst Store) error {
	settings, err := src.GetSettings(ctx)
	if err != nil {
		return err
	}
	return dst.SaveSettings(ctx, settings)
}
