// Package remotestore implements RemoteDataStore: the DataStore contract
// against PostgreSQL, with a Redis-backed settings cache and Postgres
// serialization-failure detection driving optimistic lock CONFLICTs.
package remotestore

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/relentnet/matchops-sync/internal/errs"
	"github.com/relentnet/matchops-sync/internal/store"
)

const (
	maxRetries   = 3
	retryBaseDelay = 100 * time.Millisecond
	settingsCacheTTL = 30 * time.Second
)

// OnlineChecker reports whether the process currently believes it has
// network connectivity.
type OnlineChecker func() bool

// SessionValidator reports whether the cached user session is still valid.
// RemoteDataStore consults it on every operation; a revoked session turns
// every call into an AUTH failure.
type SessionValidator func() bool

// RemoteDataStore implements store.DataStore against Postgres, scoped to a
// single authenticated user for its lifetime.
type RemoteDataStore struct {
	pool   *pgxpool.Pool
	redis  *redis.Client
	userID string

	online       OnlineChecker
	sessionValid SessionValidator

	initialized bool

	settingsCache *settingsCache
}

// New builds a RemoteDataStore for userID. online and sessionValid may be
// nil, in which case the store always considers itself online and the
// session always valid (suitable for tests and for callers that enforce
// these checks upstream).
func New(pool *pgxpool.Pool, redisClient *redis.Client, userID string, online OnlineChecker, sessionValid SessionValidator) *RemoteDataStore {
	if online == nil {
		online = func() bool { return true }
	}
	if sessionValid == nil {
		sessionValid = func() bool { return true }
	}
	return &RemoteDataStore{
		pool:          pool,
		redis:         redisClient,
		userID:        userID,
		online:        online,
		sessionValid:  sessionValid,
		settingsCache: newSettingsCache(redisClient, userID),
	}
}

// Initialize is idempotent; it pings the pool once and caches the result.
func (r *RemoteDataStore) Initialize(ctx context.Context) error {
	if r.initialized {
		return nil
	}
	if err := r.pool.Ping(ctx); err != nil {
		return errs.Wrap(errs.Network, "failed to reach remote database", err)
	}
	r.initialized = true
	return nil
}

// Close drops the settings cache before releasing the pool so nothing
// cached for this user outlives the session.
func (r *RemoteDataStore) Close(ctx context.Context) error {
	r.settingsCache.invalidate(ctx)
	r.pool.Close()
	return nil
}

func (r *RemoteDataStore) BackendName() store.BackendName { return store.BackendRemote }

func (r *RemoteDataStore) IsAvailable() bool {
	return r.initialized && r.online()
}

// checkCallPreconditions enforces NOT_INITIALIZED / NETWORK / AUTH ahead of
// every operation.
func (r *RemoteDataStore) checkCallPreconditions() error {
	if !r.initialized {
		return errs.New(errs.NotInitialized, "remote store not initialized")
	}
	if !r.online() {
		return errs.New(errs.Network, "offline")
	}
	if !r.sessionValid() {
		return errs.New(errs.Auth, "session is no longer valid")
	}
	return nil
}

// classifyPgError maps a Postgres error into the closed taxonomy.
// A 40001 serialization failure is the sole trigger for CONFLICT; everything
// else not otherwise recognized is BACKEND, retried once then surfaced.
func classifyPgError(err error) *errs.Error {
	if err == nil {
		return nil
	}
	var already *errs.Error
	if errors.As(err, &already) {
		return already
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001":
			return errs.Wrap(errs.Conflict, "optimistic lock conflict", err)
		case "23505":
			return errs.Wrap(errs.AlreadyExists, "duplicate key", err)
		case "57014", "53300":
			return errs.Wrap(errs.RateLimited, "database is overloaded", err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.Network, "remote call timed out", err)
	}
	return errs.Wrap(errs.Backend, "unclassified remote error", err)
}

// withRetry retries fn on classified-transient failures with exponential
// backoff and jitter, capped at maxRetries attempts, respecting ctx
// cancellation. An unclassified BACKEND error gets a single retry.
func withRetry[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, errs.Wrap(errs.Network, "context cancelled before remote call", err)
		}
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		typed := classifyPgError(err)
		if !errs.IsTransient(typed) {
			return zero, typed
		}
		if attempt == maxRetries-1 || (typed.Code == errs.Backend && attempt >= 1) {
			break
		}
		delay := retryBaseDelay * time.Duration(1<<attempt)
		jitter := time.Duration(rand.Int63n(int64(retryBaseDelay)))
		select {
		case <-time.After(delay + jitter):
		case <-ctx.Done():
			return zero, errs.Wrap(errs.Network, "context cancelled during retry backoff", ctx.Err())
		}
		log.Printf("[RemoteStore] retrying after transient error (attempt %d/%d): %v", attempt+1, maxRetries, err)
	}
	return zero, classifyPgError(lastErr)
}

var _ store.DataStore = (*RemoteDataStore)(nil)
