// Package app composes the per-user data stack: the user-scoped KV file,
// backend-mode resolution, and either a plain LocalDataStore or a
// SyncedDataStore draining into a RemoteDataStore. One user session is open
// at a time; OpenUserStore on sign-in and CloseUserStore on sign-out never
// overlap.
package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/relentnet/matchops-sync/internal/config"
	"github.com/relentnet/matchops-sync/internal/kv"
	"github.com/relentnet/matchops-sync/internal/migration"
	"github.com/relentnet/matchops-sync/internal/store"
	"github.com/relentnet/matchops-sync/internal/store/localstore"
	"github.com/relentnet/matchops-sync/internal/store/remotestore"
	"github.com/relentnet/matchops-sync/internal/store/syncedstore"
	"github.com/relentnet/matchops-sync/internal/syncengine"
	"github.com/relentnet/matchops-sync/internal/synclock"
	"github.com/relentnet/matchops-sync/internal/syncqueue"
)

// Deps carries the process-wide connections a cloud-mode session needs.
// Pool and Redis may be nil for local-only use.
type Deps struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
}

// UserSession is one signed-in user's open data stack.
type UserSession struct {
	UserID string

	backing kv.Store
	ds      store.DataStore
	mode    config.Mode
	synced  *syncedstore.SyncedDataStore
}

// Store returns the session's DataStore: a SyncedDataStore in cloud mode, a
// LocalDataStore otherwise.
func (s *UserSession) Store() store.DataStore { return s.ds }

// Mode returns the effective backend mode the session resolved at open time.
func (s *UserSession) Mode() config.Mode { return s.mode }

var (
	sessionMu sync.Mutex
	current   *UserSession
)

// kvDir resolves where per-user KV files live.
func kvDir() string {
	if dir := os.Getenv("LOCAL_KV_DIR"); dir != "" {
		return dir
	}
	return "."
}

// openUserKV opens (creating if needed) the user-scoped bbolt file. A legacy
// pre-scoping database file is adopted in place the first time a user signs
// in without a scoped file of their own.
func openUserKV(userID string) (kv.Store, error) {
	name, err := kv.DatabaseName(userID)
	if err != nil {
		return nil, err
	}
	dir := kvDir()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("app: create kv dir: %w", err)
	}

	path := filepath.Join(dir, name+".db")
	legacy := filepath.Join(dir, kv.LegacyDatabaseName+".db")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if _, lerr := os.Stat(legacy); lerr == nil {
			if rerr := os.Rename(legacy, path); rerr != nil {
				log.Printf("[App] failed to adopt legacy database: %v", rerr)
			} else {
				log.Printf("[App] adopted legacy database for user %s", userID)
			}
		}
	}
	return kv.OpenBoltStore(path)
}

// OpenUserStore opens the data stack for userID, resolving the effective
// backend mode from the user's stored preference and the process
// environment. In cloud mode the sync engine is started immediately with an
// executor bound to the remote store.
func OpenUserStore(ctx context.Context, userID string, deps Deps) (*UserSession, error) {
	sessionMu.Lock()
	defer sessionMu.Unlock()
	if current != nil {
		return nil, fmt.Errorf("app: a user store is already open for %s", current.UserID)
	}

	backing, err := openUserKV(userID)
	if err != nil {
		return nil, err
	}

	resolver := config.New(backing)
	mode := resolver.GetBackendMode(ctx, userID)

	local := localstore.New(backing)
	session := &UserSession{UserID: userID, backing: backing, mode: mode}

	if mode == config.ModeCloud && deps.Pool != nil {
		remote := remotestore.New(deps.Pool, deps.Redis, userID, nil, nil)
		if err := remote.Initialize(ctx); err != nil {
			_ = backing.Close()
			return nil, err
		}

		queue := syncqueue.New(backing, synclock.New())
		engine := syncengine.New(queue, nil)
		engine.SetBroadcaster(syncengine.NewRedisBroadcaster(deps.Redis, userID))
		synced := syncedstore.New(local, queue, engine)
		synced.SetExecutor(syncengine.NewExecutor(remote).Execute)
		synced.StartSync(ctx)

		session.ds = synced
		session.synced = synced
	} else {
		session.ds = local
	}

	current = session
	return session, nil
}

// CloseUserStore shuts the open session down: stop sync, close the KV file.
// Best-effort; it never fails the sign-out.
func CloseUserStore(ctx context.Context) {
	sessionMu.Lock()
	defer sessionMu.Unlock()
	if current == nil {
		return
	}
	if current.synced != nil {
		current.synced.StopSync()
	}
	if err := current.ds.Close(ctx); err != nil {
		log.Printf("[App] failed to close user store: %v", err)
	}
	current = nil
}

// MigrateToCloud copies the user's local data into the remote store the
// first time cloud mode is enabled. Call it before OpenUserStore: the
// migration engine closes both stores when the run ends, and closing the
// remote store closes its pool, so deps here must carry a dedicated pool,
// not the one a later session will use. Every path below ends with the KV
// handle and the pool closed. A completed prior run, or a user whose
// effective mode is local, makes this a no-op.
func MigrateToCloud(ctx context.Context, userID string, deps Deps) error {
	if deps.Pool == nil {
		return fmt.Errorf("app: migration requires a database pool")
	}
	sessionMu.Lock()
	open := current != nil
	sessionMu.Unlock()
	if open {
		deps.Pool.Close()
		return fmt.Errorf("app: close the open user store before migrating")
	}

	backing, err := openUserKV(userID)
	if err != nil {
		deps.Pool.Close()
		return err
	}

	if config.New(backing).GetBackendMode(ctx, userID) != config.ModeCloud {
		deps.Pool.Close()
		return backing.Close()
	}

	remote := remotestore.New(deps.Pool, deps.Redis, userID, nil, nil)
	if err := remote.Initialize(ctx); err != nil {
		_ = remote.Close(ctx)
		_ = backing.Close()
		return err
	}

	eng := migration.New(localstore.New(backing), remote, backing)
	if done, err := eng.IsCompleted(ctx); err != nil || done {
		_ = remote.Close(ctx)
		_ = backing.Close()
		return err
	}
	return eng.Run(ctx, migration.LocalToRemote)
}
