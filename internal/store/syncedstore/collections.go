package syncedstore

import (
	"context"

	"github.com/relentnet/matchops-sync/internal/domain"
	"github.com/relentnet/matchops-sync/internal/syncqueue"
)

// --- Seasons ---

func (s *SyncedDataStore) GetSeasons(ctx context.Context, includeArchived bool) ([]domain.Season, error) {
	return s.local.GetSeasons(ctx, includeArchived)
}

func (s *SyncedDataStore) CreateSeason(ctx context.Context, sn domain.Season) (domain.Season, error) {
	created, err := s.local.CreateSeason(ctx, sn)
	if err != nil {
		return domain.Season{}, err
	}
	s.enqueue(ctx, syncqueue.EntitySeason, created.ID, syncqueue.OpCreate, created)
	return created, nil
}

func (s *SyncedDataStore) UpdateSeason(ctx context.Context, id string, full domain.Season) (*domain.Season, error) {
	updated, err := s.local.UpdateSeason(ctx, id, full)
	if err != nil || updated == nil {
		return updated, err
	}
	s.enqueue(ctx, syncqueue.EntitySeason, id, syncqueue.OpUpdate, updated)
	return updated, nil
}

func (s *SyncedDataStore) DeleteSeason(ctx context.Context, id string) error {
	if err := s.local.DeleteSeason(ctx, id); err != nil {
		return err
	}
	s.enqueue(ctx, syncqueue.EntitySeason, id, syncqueue.OpDelete, nil)
	return nil
}

// --- Tournaments ---

func (s *SyncedDataStore) GetTournaments(ctx context.Context, includeArchived bool) ([]domain.Tournament, error) {
	return s.local.GetTournaments(ctx, includeArchived)
}

func (s *SyncedDataStore) CreateTournament(ctx context.Context, t domain.Tournament) (domain.Tournament, error) {
	created, err := s.local.CreateTournament(ctx, t)
	if err != nil {
		return domain.Tournament{}, err
	}
	s.enqueue(ctx, syncqueue.EntityTournament, created.ID, syncqueue.OpCreate, created)
	return created, nil
}

func (s *SyncedDataStore) UpdateTournament(ctx context.Context, id string, full domain.Tournament) (*domain.Tournament, error) {
	updated, err := s.local.UpdateTournament(ctx, id, full)
	if err != nil || updated == nil {
		return updated, err
	}
	s.enqueue(ctx, syncqueue.EntityTournament, id, syncqueue.OpUpdate, updated)
	return updated, nil
}

func (s *SyncedDataStore) DeleteTournament(ctx context.Context, id string) error {
	if err := s.local.DeleteTournament(ctx, id); err != nil {
		return err
	}
	s.enqueue(ctx, syncqueue.EntityTournament, id, syncqueue.OpDelete, nil)
	return nil
}

// --- Personnel ---

func (s *SyncedDataStore) GetAllPersonnel(ctx context.Context) ([]domain.Personnel, error) {
	return s.local.GetAllPersonnel(ctx)
}

func (s *SyncedDataStore) GetPersonnelByID(ctx context.Context, id string) (*domain.Personnel, error) {
	return s.local.GetPersonnelByID(ctx, id)
}

func (s *SyncedDataStore) AddPersonnelMember(ctx context.Context, p domain.Personnel) (domain.Personnel, error) {
	created, err := s.local.AddPersonnelMember(ctx, p)
	if err != nil {
		return domain.Personnel{}, err
	}
	s.enqueue(ctx, syncqueue.EntityPersonnel, created.ID, syncqueue.OpCreate, created)
	return created, nil
}

func (s *SyncedDataStore) UpdatePersonnelMember(ctx context.Context, id string, patch domain.Personnel) (*domain.Personnel, error) {
	updated, err := s.local.UpdatePersonnelMember(ctx, id, patch)
	if err != nil || updated == nil {
		return updated, err
	}
	s.enqueue(ctx, syncqueue.EntityPersonnel, id, syncqueue.OpUpdate, updated)
	return updated, nil
}

// RemovePersonnelMember cascades locally and,
// on success, enqueues the single personnel delete — the games that lost
// their reference are not individually re-enqueued, since the remote
// cascade is driven by the same delete on the executor side.
func (s *SyncedDataStore) RemovePersonnelMember(ctx context.Context, id string) error {
	if err := s.local.RemovePersonnelMember(ctx, id); err != nil {
		return err
	}
	s.enqueue(ctx, syncqueue.EntityPersonnel, id, syncqueue.OpDelete, nil)
	return nil
}
