package localstore

import (
	"context"

	"github.com/relentnet/matchops-sync/internal/domain"
)

func (s *LocalDataStore) readRosters(ctx context.Context) (map[string][]domain.TeamPlayer, error) {
	return readCollection(ctx, s, keyTeamRosters, map[string][]domain.TeamPlayer{})
}

func (s *LocalDataStore) GetTeamRoster(ctx context.Context, teamID string) ([]domain.TeamPlayer, error) {
	return synclockWithKey(s, ctx, keyTeamRosters, func() ([]domain.TeamPlayer, error) {
		rosters, err := s.readRosters(ctx)
		if err != nil {
			return nil, err
		}
		return rosters[teamID], nil
	})
}

func (s *LocalDataStore) SetTeamRoster(ctx context.Context, teamID string, roster []domain.TeamPlayer) error {
	_, err := synclockWithKey(s, ctx, keyTeamRosters, func() (struct{}, error) {
		rosters, err := s.readRosters(ctx)
		if err != nil {
			return struct{}{}, err
		}
		if roster == nil {
			delete(rosters, teamID)
		} else {
			rosters[teamID] = roster
		}
		return struct{}{}, writeCollection(ctx, s, keyTeamRosters, rosters)
	})
	return err
}

func (s *LocalDataStore) GetAllTeamRosters(ctx context.Context) (map[string][]domain.TeamPlayer, error) {
	return s.readRosters(ctx)
}
