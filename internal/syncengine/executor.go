// Package syncengine implements the sync engine and executor: a
// single-writer loop draining the durable queue against a remote DataStore,
// with retry/drop/surface failure classification and Redis-broadcast status
// events.
package syncengine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/relentnet/matchops-sync/internal/domain"
	"github.com/relentnet/matchops-sync/internal/errs"
	"github.com/relentnet/matchops-sync/internal/store"
	"github.com/relentnet/matchops-sync/internal/syncqueue"
)

// Executor maps (entityType, operation) queue entries onto the
// corresponding RemoteDataStore call. Game-event index normalization is
// hidden behind this boundary: SyncedDataStore always enqueues the
// whole game document on an event mutation, so the executor only ever sees
// whole-entity create/update/delete traffic, never positional event ops.
type Executor struct {
	remote store.DataStore
}

// NewExecutor builds an Executor dispatching onto remote.
func NewExecutor(remote store.DataStore) *Executor {
	return &Executor{remote: remote}
}

// decode converts a queue entry's JSON-shaped Data payload (a map after a
// round trip through the KV document) into the concrete domain type T.
func decode[T any](data any) (T, error) {
	var out T
	raw, err := json.Marshal(data)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Execute runs one queue entry against the remote store. The returned error,
// if any, is expected to be classified with errs.IsTransient by the engine.
func (ex *Executor) Execute(ctx context.Context, e syncqueue.Entry) error {
	switch e.EntityType {
	case syncqueue.EntityPlayer:
		return ex.execPlayer(ctx, e)
	case syncqueue.EntityTeam:
		return ex.execTeam(ctx, e)
	case syncqueue.EntityTeamRoster:
		return ex.execTeamRoster(ctx, e)
	case syncqueue.EntitySeason:
		return ex.execSeason(ctx, e)
	case syncqueue.EntityTournament:
		return ex.execTournament(ctx, e)
	case syncqueue.EntityPersonnel:
		return ex.execPersonnel(ctx, e)
	case syncqueue.EntityGame:
		return ex.execGame(ctx, e)
	case syncqueue.EntityPlayerAdjustment:
		return ex.execPlayerAdjustment(ctx, e)
	case syncqueue.EntityWarmupPlan:
		return ex.execWarmupPlan(ctx, e)
	case syncqueue.EntitySettings:
		return ex.execSettings(ctx, e)
	default:
		return errs.New(errs.Validation, fmt.Sprintf("unknown queue entity type %q", e.EntityType))
	}
}

func (ex *Executor) execPlayer(ctx context.Context, e syncqueue.Entry) error {
	switch e.Operation {
	case syncqueue.OpCreate, syncqueue.OpUpdate:
		p, err := decode[domain.Player](e.Data)
		if err != nil {
			return errs.Wrap(errs.Validation, "malformed player payload", err)
		}
		_, err = ex.remote.UpsertPlayer(ctx, p)
		return err
	case syncqueue.OpDelete:
		return ex.remote.DeletePlayer(ctx, e.EntityID)
	}
	return unknownOp(e)
}

func (ex *Executor) execTeam(ctx context.Context, e syncqueue.Entry) error {
	switch e.Operation {
	case syncqueue.OpCreate, syncqueue.OpUpdate:
		t, err := decode[domain.Team](e.Data)
		if err != nil {
			return errs.Wrap(errs.Validation, "malformed team payload", err)
		}
		_, err = ex.remote.UpsertTeam(ctx, t)
		return err
	case syncqueue.OpDelete:
		return ex.remote.DeleteTeam(ctx, e.EntityID)
	}
	return unknownOp(e)
}

func (ex *Executor) execTeamRoster(ctx context.Context, e syncqueue.Entry) error {
	switch e.Operation {
	case syncqueue.OpCreate, syncqueue.OpUpdate:
		roster, err := decode[[]domain.TeamPlayer](e.Data)
		if err != nil {
			return errs.Wrap(errs.Validation, "malformed roster payload", err)
		}
		return ex.remote.SetTeamRoster(ctx, e.EntityID, roster)
	case syncqueue.OpDelete:
		return ex.remote.SetTeamRoster(ctx, e.EntityID, nil)
	}
	return unknownOp(e)
}

func (ex *Executor) execSeason(ctx context.Context, e syncqueue.Entry) error {
	switch e.Operation {
	case syncqueue.OpCreate:
		s, err := decode[domain.Season](e.Data)
		if err != nil {
			return errs.Wrap(errs.Validation, "malformed season payload", err)
		}
		_, err = ex.remote.CreateSeason(ctx, s)
		return err
	case syncqueue.OpUpdate:
		s, err := decode[domain.Season](e.Data)
		if err != nil {
			return errs.Wrap(errs.Validation, "malformed season payload", err)
		}
		_, err = ex.remote.UpdateSeason(ctx, e.EntityID, s)
		return err
	case syncqueue.OpDelete:
		return ex.remote.DeleteSeason(ctx, e.EntityID)
	}
	return unknownOp(e)
}

func (ex *Executor) execTournament(ctx context.Context, e syncqueue.Entry) error {
	switch e.Operation {
	case syncqueue.OpCreate:
		t, err := decode[domain.Tournament](e.Data)
		if err != nil {
			return errs.Wrap(errs.Validation, "malformed tournament payload", err)
		}
		_, err = ex.remote.CreateTournament(ctx, t)
		return err
	case syncqueue.OpUpdate:
		t, err := decode[domain.Tournament](e.Data)
		if err != nil {
			return errs.Wrap(errs.Validation, "malformed tournament payload", err)
		}
		_, err = ex.remote.UpdateTournament(ctx, e.EntityID, t)
		return err
	case syncqueue.OpDelete:
		return ex.remote.DeleteTournament(ctx, e.EntityID)
	}
	return unknownOp(e)
}

func (ex *Executor) execPersonnel(ctx context.Context, e syncqueue.Entry) error {
	switch e.Operation {
	case syncqueue.OpCreate:
		p, err := decode[domain.Personnel](e.Data)
		if err != nil {
			return errs.Wrap(errs.Validation, "malformed personnel payload", err)
		}
		_, err = ex.remote.AddPersonnelMember(ctx, p)
		return err
	case syncqueue.OpUpdate:
		p, err := decode[domain.Personnel](e.Data)
		if err != nil {
			return errs.Wrap(errs.Validation, "malformed personnel payload", err)
		}
		_, err = ex.remote.UpdatePersonnelMember(ctx, e.EntityID, p)
		return err
	case syncqueue.OpDelete:
		return ex.remote.RemovePersonnelMember(ctx, e.EntityID)
	}
	return unknownOp(e)
}

// execGame handles the whole-game-document traffic produced both by direct
// game writes and by game-event mutations.
func (ex *Executor) execGame(ctx context.Context, e syncqueue.Entry) error {
	switch e.Operation {
	case syncqueue.OpCreate:
		g, err := decode[domain.Game](e.Data)
		if err != nil {
			return errs.Wrap(errs.Validation, "malformed game payload", err)
		}
		_, err = ex.remote.CreateGame(ctx, g)
		return err
	case syncqueue.OpUpdate:
		g, err := decode[domain.Game](e.Data)
		if err != nil {
			return errs.Wrap(errs.Validation, "malformed game payload", err)
		}
		_, err = ex.remote.SaveGame(ctx, e.EntityID, g)
		return err
	case syncqueue.OpDelete:
		return ex.remote.DeleteGame(ctx, e.EntityID)
	}
	return unknownOp(e)
}

func (ex *Executor) execPlayerAdjustment(ctx context.Context, e syncqueue.Entry) error {
	switch e.Operation {
	case syncqueue.OpCreate:
		a, err := decode[domain.PlayerAdjustment](e.Data)
		if err != nil {
			return errs.Wrap(errs.Validation, "malformed adjustment payload", err)
		}
		_, err = ex.remote.AddPlayerAdjustment(ctx, a)
		return err
	case syncqueue.OpUpdate:
		a, err := decode[domain.PlayerAdjustment](e.Data)
		if err != nil {
			return errs.Wrap(errs.Validation, "malformed adjustment payload", err)
		}
		_, err = ex.remote.UpdatePlayerAdjustment(ctx, a.PlayerID, e.EntityID, a)
		return err
	case syncqueue.OpDelete:
		a, err := decode[domain.PlayerAdjustment](e.Data)
		if err != nil || a.PlayerID == "" {
			// The remote contract requires the player id, which the delete
			// payload carries; without it the delete cannot be routed.
			return errs.Wrap(errs.Validation, "adjustment delete missing player id", err)
		}
		return ex.remote.DeletePlayerAdjustment(ctx, a.PlayerID, e.EntityID)
	}
	return unknownOp(e)
}

func (ex *Executor) execWarmupPlan(ctx context.Context, e syncqueue.Entry) error {
	switch e.Operation {
	case syncqueue.OpCreate, syncqueue.OpUpdate:
		plan, err := decode[domain.WarmupPlan](e.Data)
		if err != nil {
			return errs.Wrap(errs.Validation, "malformed warmup plan payload", err)
		}
		_, err = ex.remote.SaveWarmupPlan(ctx, plan)
		return err
	case syncqueue.OpDelete:
		return ex.remote.DeleteWarmupPlan(ctx)
	}
	return unknownOp(e)
}

func (ex *Executor) execSettings(ctx context.Context, e syncqueue.Entry) error {
	switch e.Operation {
	case syncqueue.OpCreate, syncqueue.OpUpdate:
		s, err := decode[domain.AppSettings](e.Data)
		if err != nil {
			return errs.Wrap(errs.Validation, "malformed settings payload", err)
		}
		return ex.remote.SaveSettings(ctx, s)
	case syncqueue.OpDelete:
		// Settings have no delete semantics; a coalesced delete entry should
		// never reach the queue for this entity type.
		return nil
	}
	return unknownOp(e)
}

func unknownOp(e syncqueue.Entry) error {
	return errs.New(errs.Validation, fmt.Sprintf("unsupported operation %q for entity type %q", e.Operation, e.EntityType))
}
