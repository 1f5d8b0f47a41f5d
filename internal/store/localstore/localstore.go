// Package localstore implements LocalDataStore: the DataStore
// contract laid directly over a per-user KV store and a key-level advisory
// lock. Storage layout is one KV key per logical collection — every write
// that touches a collection reads, modifies, and writes the entire document
// under WithKeyLock(collectionKey).
package localstore

import (
	"context"
	"encoding/json"
	"log"

	"github.com/relentnet/matchops-sync/internal/kv"
	"github.com/relentnet/matchops-sync/internal/store"
	"github.com/relentnet/matchops-sync/internal/synclock"
)

// Collection keys — one KV entry per logical collection.
const (
	keyPlayers           = "players"
	keyTeams             = "teams"
	keyTeamRosters       = "team_rosters"
	keySeasons           = "seasons"
	keyTournaments       = "tournaments"
	keyPersonnel         = "personnel"
	keyGames             = "games"
	keyPlayerAdjustments = "player_adjustments"
	keyWarmupPlan        = "warmup_plan"
	keySettings          = "settings"
	keyTimerState        = "timer_state"
)

// LocalDataStore implements store.DataStore directly over a kv.Store and a
// synclock.KeyLock.
type LocalDataStore struct {
	kv   kv.Store
	lock *synclock.KeyLock
}

// New builds a LocalDataStore over an already-opened, user-scoped kv.Store.
func New(backing kv.Store) *LocalDataStore {
	return &LocalDataStore{kv: backing, lock: synclock.New()}
}

func (s *LocalDataStore) Initialize(context.Context) error { return nil }

func (s *LocalDataStore) Close(context.Context) error { return s.kv.Close() }

func (s *LocalDataStore) BackendName() store.BackendName { return store.BackendLocal }

func (s *LocalDataStore) IsAvailable() bool { return s.kv.IsAvailable() }

// ClearAll wipes every collection in the user's KV database. Used by
// SyncedDataStore.ClearAllUserData on sign-out/account deletion.
func (s *LocalDataStore) ClearAll(ctx context.Context) error {
	return s.kv.Clear(ctx)
}

// readCollection reads and JSON-decodes a collection document. On parse
// failure it logs and returns the caller-supplied empty value — a corrupt document
// degrades to an empty collection on read, while writes still fail loudly.
func readCollection[T any](ctx context.Context, s *LocalDataStore, key string, empty T) (T, error) {
	raw, found, err := s.kv.Get(ctx, key)
	if err != nil {
		return empty, err
	}
	if !found {
		return empty, nil
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		log.Printf("[LocalStore] Corrupt collection %q, degrading to empty: %v", key, err)
		return empty, nil
	}
	return out, nil
}

func decodeJSON(raw []byte, out any) error {
	return json.Unmarshal(raw, out)
}

func writeCollection[T any](ctx context.Context, s *LocalDataStore, key string, value T) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, key, raw)
}

// synclockWithKey serializes read-modify-write sequences on a single
// collection key. ctx is accepted for call-site symmetry with the
// rest of the store API; the lock itself is in-process only and carries no
// cancellation.
func synclockWithKey[T any](s *LocalDataStore, ctx context.Context, key string, fn func() (T, error)) (T, error) {
	return synclock.WithKeyLock(s.lock, key, fn)
}

// synclockWithTwoKeys serializes a read-modify-write sequence that spans two
// collection keys, locking in a fixed order.
func synclockWithTwoKeys[T any](s *LocalDataStore, ctx context.Context, keyA, keyB string, fn func() (T, error)) (T, error) {
	return synclock.WithTwoKeyLocks(s.lock, keyA, keyB, fn)
}

var _ store.DataStore = (*LocalDataStore)(nil)
