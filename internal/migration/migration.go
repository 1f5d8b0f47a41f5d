// Package migration implements the migration engine: bidirectional bulk
// copy between a LocalDataStore and a RemoteDataStore, run once when a user
// first signs in to cloud (local -> remote) or reverts to local-only use
// (remote -> local).
package migration

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/relentnet/matchops-sync/internal/domain"
	"github.com/relentnet/matchops-sync/internal/errs"
	"github.com/relentnet/matchops-sync/internal/kv"
	"github.com/relentnet/matchops-sync/internal/syncqueue"
	"golang.org/x/sync/errgroup"
)

// Direction identifies which store is being read from and which is being
// written to.
type Direction string

const (
	LocalToRemote Direction = "localToRemote"
	RemoteToLocal Direction = "remoteToLocal"
)

// Store is the narrow surface migration needs from each side of a run. Both
// *localstore.LocalDataStore and *remotestore.RemoteDataStore satisfy it
// structurally, so either concrete type can be wired directly into New.
type Store interface {
	Initialize(ctx context.Context) error
	Close(ctx context.Context) error

	GetPlayers(ctx context.Context) ([]domain.Player, error)
	UpsertPlayer(ctx context.Context, p domain.Player) (domain.Player, error)

	GetTeams(ctx context.Context, includeArchived bool) ([]domain.Team, error)
	UpsertTeam(ctx context.Context, t domain.Team) (domain.Team, error)

	GetAllTeamRosters(ctx context.Context) (map[string][]domain.TeamPlayer, error)
	SetTeamRoster(ctx context.Context, teamID string, roster []domain.TeamPlayer) error

	GetSeasons(ctx context.Context, includeArchived bool) ([]domain.Season, error)
	UpsertSeason(ctx context.Context, s domain.Season) (domain.Season, error)

	GetTournaments(ctx context.Context, includeArchived bool) ([]domain.Tournament, error)
	UpsertTournament(ctx context.Context, t domain.Tournament) (domain.Tournament, error)

	GetAllPersonnel(ctx context.Context) ([]domain.Personnel, error)
	UpsertPersonnel(ctx context.Context, p domain.Personnel) (domain.Personnel, error)

	GetGames(ctx context.Context) (map[string]domain.Game, error)
	UpsertGame(ctx context.Context, g domain.Game) (domain.Game, error)

	GetAllPlayerAdjustments(ctx context.Context) ([]domain.PlayerAdjustment, error)
	UpsertPlayerAdjustment(ctx context.Context, a domain.PlayerAdjustment) (domain.PlayerAdjustment, error)

	GetWarmupPlan(ctx context.Context) (*domain.WarmupPlan, error)
	SaveWarmupPlan(ctx context.Context, plan domain.WarmupPlan) (domain.WarmupPlan, error)

	GetSettings(ctx context.Context) (domain.AppSettings, error)
	SaveSettings(ctx context.Context, s domain.AppSettings) error

	Snapshot(ctx context.Context) (any, error)
	Restore(ctx context.Context, snapshot any) error
}

const (
	progressKeyPrefix = "migration_progress_"
	completedKey      = "migration_completed"
)

// Engine drives one bidirectional migration run for a single user. flags is
// the same bbolt-backed kv.Store the user's LocalDataStore is built over;
// progress markers and the one-time completion flag persist there so they
// survive a process crash. The "in-progress" flag is kept in memory only,
// never written to flags: it answers "is a run active in this process right
// now", while an interrupted run is detected on the next start by the
// persisted progress markers existing without the completion flag.
type Engine struct {
	local  Store
	remote Store
	flags  kv.Store

	mu         sync.Mutex
	inProgress bool
}

// New builds an Engine over an already-initialized local and remote store,
// sharing the local user's kv.Store for progress/completion bookkeeping.
func New(local, remote Store, flags kv.Store) *Engine {
	return &Engine{local: local, remote: remote, flags: flags}
}

// InProgress reports whether a run is active in this process. It never
// reports true across a restart; use HasPartialProgress to detect an
// interrupted prior run.
func (e *Engine) InProgress() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inProgress
}

// HasPartialProgress reports whether a prior run left per-entity progress
// markers behind without reaching completion — the signal a caller checks on
// startup to detect an interrupted migration.
func (e *Engine) HasPartialProgress(ctx context.Context) (bool, error) {
	if done, err := e.IsCompleted(ctx); err != nil || done {
		return false, err
	}
	for _, et := range entityOrder {
		if done, err := e.isEntityDone(ctx, et); err != nil {
			return false, err
		} else if done {
			return true, nil
		}
	}
	return false, nil
}

// IsCompleted reports whether a migration has already run to completion for
// this user; Run refuses to repeat until the flag is cleared.
func (e *Engine) IsCompleted(ctx context.Context) (bool, error) {
	_, found, err := e.flags.Get(ctx, completedKey)
	return found, err
}

// ClearCompleted removes the one-time completion flag, allowing Run to
// execute again.
func (e *Engine) ClearCompleted(ctx context.Context) error {
	return e.flags.Remove(ctx, completedKey)
}

func (e *Engine) markCompleted(ctx context.Context) error {
	return e.flags.Set(ctx, completedKey, []byte("1"))
}

func (e *Engine) progressKey(entityType syncqueue.EntityType) string {
	return progressKeyPrefix + string(entityType)
}

func (e *Engine) isEntityDone(ctx context.Context, entityType syncqueue.EntityType) (bool, error) {
	_, found, err := e.flags.Get(ctx, e.progressKey(entityType))
	return found, err
}

func (e *Engine) markEntityDone(ctx context.Context, entityType syncqueue.EntityType) error {
	return e.flags.Set(ctx, e.progressKey(entityType), []byte("1"))
}

func (e *Engine) clearProgress(ctx context.Context) error {
	for _, et := range entityOrder {
		if err := e.flags.Remove(ctx, e.progressKey(et)); err != nil {
			return err
		}
	}
	return nil
}

// Run copies everything from the source side of dir to the destination side.
// It refuses to run twice for the same user (IsCompleted), resumes from
// whatever per-entity-type progress markers survived a prior crash, and
// restores the destination to its pre-run snapshot on any non-transient
// failure. Run owns both stores: they are closed when it returns, whatever
// the outcome, so an Engine is good for exactly one run and a resume takes a
// new Engine over fresh handles.
func (e *Engine) Run(ctx context.Context, dir Direction) error {
	defer func() {
		if cerr := e.local.Close(ctx); cerr != nil {
			log.Printf("[Migration] failed to close local store: %v", cerr)
		}
		if cerr := e.remote.Close(ctx); cerr != nil {
			log.Printf("[Migration] failed to close remote store: %v", cerr)
		}
	}()

	if done, err := e.IsCompleted(ctx); err != nil {
		return err
	} else if done {
		return errs.New(errs.AlreadyExists, "migration already completed for this user")
	}

	e.mu.Lock()
	e.inProgress = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.inProgress = false
		e.mu.Unlock()
	}()

	src, dst := e.local, e.remote
	if dir == RemoteToLocal {
		src, dst = e.remote, e.local
	}

	snapshot, err := dst.Snapshot(ctx)
	if err != nil {
		return errs.Wrap(errs.Backend, "migration: failed to snapshot destination before copy", err)
	}

	if err := e.copyAll(ctx, src, dst); err != nil {
		if errs.IsTransient(err) {
			log.Printf("[Migration] run paused by a transient failure, progress markers preserved for resume: %v", err)
			return err
		}
		log.Printf("[Migration] fatal failure, rolling back destination: %v", err)
		if rerr := dst.Restore(ctx, snapshot); rerr != nil {
			log.Printf("[Migration] rollback itself failed, destination may be inconsistent: %v", rerr)
			return fmt.Errorf("migration failed (%w) and rollback failed: %v", err, rerr)
		}
		if cerr := e.clearProgress(ctx); cerr != nil {
			log.Printf("[Migration] failed to clear progress markers after rollback: %v", cerr)
		}
		return err
	}

	// Progress markers only have meaning mid-run; clear them so a future
	// re-run (after ClearCompleted) starts from scratch and so
	// HasPartialProgress goes quiet.
	if err := e.clearProgress(ctx); err != nil {
		return err
	}
	if err := e.markCompleted(ctx); err != nil {
		return err
	}
	return nil
}

// copyAll fans the ten entity-type copies out concurrently (golang.org/x/sync
// errgroup) since none of the collections reference each other through a
// foreign key the destination enforces; each copy skips itself if its
// progress marker already shows done from a prior, interrupted run.
func (e *Engine) copyAll(ctx context.Context, src, dst Store) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(len(entityOrder))
	for _, step := range entitySteps {
		step := step
		g.Go(func() error {
			done, err := e.isEntityDone(ctx, step.entityType)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
			if err := step.copy(ctx, src, dst); err != nil {
				return fmt.Errorf("migration: copying %s: %w", step.entityType, err)
			}
			return e.markEntityDone(ctx, step.entityType)
		})
	}
	return g.Wait()
}
