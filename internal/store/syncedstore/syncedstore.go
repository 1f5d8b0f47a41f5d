// Package syncedstore implements SyncedDataStore: the local-first wrapper
// around LocalDataStore and the sync queue. Reads delegate to LocalDataStore
// only; writes delegate to LocalDataStore first and, on success, enqueue a
// sync op — a queue failure never fails the caller, it is only logged.
package syncedstore

import (
	"context"
	"log"

	"github.com/relentnet/matchops-sync/internal/domain"
	"github.com/relentnet/matchops-sync/internal/store"
	"github.com/relentnet/matchops-sync/internal/store/localstore"
	"github.com/relentnet/matchops-sync/internal/syncengine"
	"github.com/relentnet/matchops-sync/internal/syncqueue"
)

// SyncedDataStore owns a LocalDataStore, a sync Queue, and a sync Engine,
// and implements the full store.DataStore contract.
type SyncedDataStore struct {
	local  *localstore.LocalDataStore
	queue  *syncqueue.Queue
	engine *syncengine.Engine
}

// New builds a SyncedDataStore over an already-opened LocalDataStore, a
// Queue sharing that store's backing KV, and an Engine wired to the queue.
// The engine is not started; callers call StartSync once an executor has
// been injected.
func New(local *localstore.LocalDataStore, queue *syncqueue.Queue, engine *syncengine.Engine) *SyncedDataStore {
	return &SyncedDataStore{local: local, queue: queue, engine: engine}
}

func (s *SyncedDataStore) Initialize(ctx context.Context) error { return s.local.Initialize(ctx) }

func (s *SyncedDataStore) Close(ctx context.Context) error {
	s.engine.Stop()
	return s.local.Close(ctx)
}

func (s *SyncedDataStore) BackendName() store.BackendName { return store.BackendSynced }

func (s *SyncedDataStore) IsAvailable() bool { return s.local.IsAvailable() }

// SetExecutor injects the function the engine uses to drain the queue
// against a RemoteDataStore.
func (s *SyncedDataStore) SetExecutor(fn syncengine.ExecuteFunc) { s.engine.SetExecutor(fn) }

// StartSync begins draining the queue.
func (s *SyncedDataStore) StartSync(ctx context.Context) { s.engine.Start(ctx) }

// StopSync halts the drain loop, cancelling any in-flight call.
func (s *SyncedDataStore) StopSync() { s.engine.Stop() }

// GetSyncStatus returns the engine's current observable status.
func (s *SyncedDataStore) GetSyncStatus() syncengine.Status { return s.engine.Status() }

// OnSyncStatusChange registers a status listener and returns an unsubscribe
// function.
func (s *SyncedDataStore) OnSyncStatusChange(fn func(syncengine.Status)) func() {
	return s.engine.OnStatusChange(fn)
}

// ClearAllUserData stops the engine, clears the queue, then clears the
// local store — used on sign-out or account deletion.
func (s *SyncedDataStore) ClearAllUserData(ctx context.Context) error {
	s.engine.Stop()
	if err := s.queue.Clear(ctx); err != nil {
		return err
	}
	return s.local.ClearAll(ctx)
}

// enqueue schedules a sync op for the entity write that already succeeded
// locally. A queue failure is logged, never propagated.
func (s *SyncedDataStore) enqueue(ctx context.Context, entityType syncqueue.EntityType, entityID string, op syncqueue.Operation, data any) {
	if _, err := s.queue.Enqueue(ctx, entityType, entityID, op, data); err != nil {
		log.Printf("[SyncedStore] failed to enqueue %s/%s %s: %v", entityType, entityID, op, err)
		return
	}
	s.engine.Notify()
}

// --- Players ---

func (s *SyncedDataStore) GetPlayers(ctx context.Context) ([]domain.Player, error) {
	return s.local.GetPlayers(ctx)
}

func (s *SyncedDataStore) CreatePlayer(ctx context.Context, p domain.Player) (domain.Player, error) {
	created, err := s.local.CreatePlayer(ctx, p)
	if err != nil {
		return domain.Player{}, err
	}
	s.enqueue(ctx, syncqueue.EntityPlayer, created.ID, syncqueue.OpCreate, created)
	return created, nil
}

func (s *SyncedDataStore) UpdatePlayer(ctx context.Context, id string, patch domain.Player) (*domain.Player, error) {
	updated, err := s.local.UpdatePlayer(ctx, id, patch)
	if err != nil || updated == nil {
		return updated, err
	}
	s.enqueue(ctx, syncqueue.EntityPlayer, id, syncqueue.OpUpdate, updated)
	return updated, nil
}

func (s *SyncedDataStore) DeletePlayer(ctx context.Context, id string) error {
	if err := s.local.DeletePlayer(ctx, id); err != nil {
		return err
	}
	s.enqueue(ctx, syncqueue.EntityPlayer, id, syncqueue.OpDelete, nil)
	return nil
}

func (s *SyncedDataStore) UpsertPlayer(ctx context.Context, p domain.Player) (domain.Player, error) {
	saved, err := s.local.UpsertPlayer(ctx, p)
	if err != nil {
		return domain.Player{}, err
	}
	s.enqueue(ctx, syncqueue.EntityPlayer, saved.ID, syncqueue.OpCreate, saved)
	return saved, nil
}

// --- Teams ---

func (s *SyncedDataStore) GetTeams(ctx context.Context, includeArchived bool) ([]domain.Team, error) {
	return s.local.GetTeams(ctx, includeArchived)
}

func (s *SyncedDataStore) GetTeamByID(ctx context.Context, id string) (*domain.Team, error) {
	return s.local.GetTeamByID(ctx, id)
}

func (s *SyncedDataStore) CreateTeam(ctx context.Context, t domain.Team) (domain.Team, error) {
	created, err := s.local.CreateTeam(ctx, t)
	if err != nil {
		return domain.Team{}, err
	}
	s.enqueue(ctx, syncqueue.EntityTeam, created.ID, syncqueue.OpCreate, created)
	return created, nil
}

func (s *SyncedDataStore) UpdateTeam(ctx context.Context, id string, patch domain.Team) (*domain.Team, error) {
	updated, err := s.local.UpdateTeam(ctx, id, patch)
	if err != nil || updated == nil {
		return updated, err
	}
	s.enqueue(ctx, syncqueue.EntityTeam, id, syncqueue.OpUpdate, updated)
	return updated, nil
}

func (s *SyncedDataStore) DeleteTeam(ctx context.Context, id string) error {
	if err := s.local.DeleteTeam(ctx, id); err != nil {
		return err
	}
	s.enqueue(ctx, syncqueue.EntityTeam, id, syncqueue.OpDelete, nil)
	return nil
}

func (s *SyncedDataStore) UpsertTeam(ctx context.Context, t domain.Team) (domain.Team, error) {
	saved, err := s.local.UpsertTeam(ctx, t)
	if err != nil {
		return domain.Team{}, err
	}
	s.enqueue(ctx, syncqueue.EntityTeam, saved.ID, syncqueue.OpCreate, saved)
	return saved, nil
}

// --- Team rosters ---

func (s *SyncedDataStore) GetTeamRoster(ctx context.Context, teamID string) ([]domain.TeamPlayer, error) {
	return s.local.GetTeamRoster(ctx, teamID)
}

func (s *SyncedDataStore) SetTeamRoster(ctx context.Context, teamID string, roster []domain.TeamPlayer) error {
	if err := s.local.SetTeamRoster(ctx, teamID, roster); err != nil {
		return err
	}
	s.enqueue(ctx, syncqueue.EntityTeamRoster, teamID, syncqueue.OpCreate, roster)
	return nil
}

func (s *SyncedDataStore) GetAllTeamRosters(ctx context.Context) (map[string][]domain.TeamPlayer, error) {
	return s.local.GetAllTeamRosters(ctx)
}

var _ store.DataStore = (*SyncedDataStore)(nil)
