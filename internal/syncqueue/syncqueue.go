// Package syncqueue implements the durable FIFO sync queue: a
// single JSON document, held under one KV key, of pending remote operations
// with in-queue deduplication and coalescing.
package syncqueue

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/relentnet/matchops-sync/internal/kv"
	"github.com/relentnet/matchops-sync/internal/synclock"
)

// EntityType enumerates the kinds of record the queue can carry.
type EntityType string

const (
	EntityPlayer           EntityType = "player"
	EntityTeam             EntityType = "team"
	EntityTeamRoster       EntityType = "teamRoster"
	EntitySeason           EntityType = "season"
	EntityTournament       EntityType = "tournament"
	EntityPersonnel        EntityType = "personnel"
	EntityGame             EntityType = "game"
	EntityPlayerAdjustment EntityType = "playerAdjustment"
	EntityWarmupPlan       EntityType = "warmupPlan"
	EntitySettings         EntityType = "settings"
)

// Operation enumerates the three queued write shapes. Upserts are always
// encoded as Create, so the create+delete=nothing coalescing rule stays
// correct regardless of how the caller phrased the original write.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Entry is one pending remote operation.
type Entry struct {
	ID         string     `json:"id"`
	EntityType EntityType `json:"entityType"`
	EntityID   string     `json:"entityId"`
	Operation  Operation  `json:"operation"`
	Data       any        `json:"data,omitempty"`
	EnqueuedAt string     `json:"enqueuedAt"`
	Attempts   int        `json:"attempts"`
	LastError  string     `json:"lastError,omitempty"`
}

const queueKey = "sync_queue"

// Queue is a durable FIFO persisted in a kv.Store, guarded by a single key
// lock so enqueue's scan-then-write is atomic within the process.
type Queue struct {
	kv   kv.Store
	lock *synclock.KeyLock

	statsMu     sync.Mutex
	statsAt     time.Time
	cachedStats Stats
}

// Stats is the cached pending/failed summary exposed to callers.
type Stats struct {
	PendingCount int
	FailedCount  int
}

const statsTTL = time.Second

// New builds a Queue over backing, sharing lock with the rest of the user's
// DataStore so collection writes and queue writes never interleave
// incoherently under the same process.
func New(backing kv.Store, lock *synclock.KeyLock) *Queue {
	return &Queue{kv: backing, lock: lock}
}

func (q *Queue) readAll(ctx context.Context) ([]Entry, error) {
	raw, found, err := q.kv.Get(ctx, queueKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return []Entry{}, nil
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return []Entry{}, nil
	}
	return entries, nil
}

func (q *Queue) writeAll(ctx context.Context, entries []Entry) error {
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return q.kv.Set(ctx, queueKey, raw)
}

// Enqueue applies the coalescing rules against any existing
// pending entry for (entityType, entityId), then appends/replaces/drops as
// appropriate. It returns the surviving entry, or nil if the net effect was
// to remove the entry entirely (create+delete).
func (q *Queue) Enqueue(ctx context.Context, entityType EntityType, entityID string, op Operation, data any) (*Entry, error) {
	return synclock.WithKeyLock(q.lock, queueKey, func() (*Entry, error) {
		entries, err := q.readAll(ctx)
		if err != nil {
			return nil, err
		}

		existingIdx := -1
		for i, e := range entries {
			if e.EntityType == entityType && e.EntityID == entityID {
				existingIdx = i
				break
			}
		}

		if existingIdx == -1 {
			entry := Entry{
				ID:         uuid.NewString(),
				EntityType: entityType,
				EntityID:   entityID,
				Operation:  op,
				Data:       data,
				EnqueuedAt: nowISO(),
			}
			entries = append(entries, entry)
			if err := q.writeAll(ctx, entries); err != nil {
				return nil, err
			}
			q.invalidateStats()
			return &entry, nil
		}

		prior := entries[existingIdx]
		result, remove := coalesce(prior, op, data)
		if remove {
			entries = append(entries[:existingIdx], entries[existingIdx+1:]...)
			if err := q.writeAll(ctx, entries); err != nil {
				return nil, err
			}
			q.invalidateStats()
			return nil, nil
		}
		entries[existingIdx] = result
		if err := q.writeAll(ctx, entries); err != nil {
			return nil, err
		}
		q.invalidateStats()
		return &entries[existingIdx], nil
	})
}

// coalesce merges a new op arriving on top of an existing pending entry for
// the same entity: update+update keeps the later data, create+update stays
// a create with the later data, create+delete cancels out, update+delete
// keeps only the delete.
func coalesce(prior Entry, op Operation, data any) (result Entry, remove bool) {
	switch {
	case prior.Operation == OpUpdate && op == OpUpdate:
		prior.Data = data
		prior.Operation = OpUpdate
		return prior, false
	case prior.Operation == OpCreate && op == OpUpdate:
		prior.Data = data
		prior.Operation = OpCreate
		return prior, false
	case prior.Operation == OpCreate && op == OpDelete:
		return Entry{}, true
	case prior.Operation == OpUpdate && op == OpDelete:
		prior.Operation = OpDelete
		prior.Data = data
		return prior, false
	default:
		// create-after-create, delete-after-anything-but-the-two-cases-above,
		// etc: the newest operation simply supersedes the prior one.
		prior.Operation = op
		prior.Data = data
		return prior, false
	}
}

// Peek returns the head entry without removing it, or nil if the queue is
// empty.
func (q *Queue) Peek(ctx context.Context) (*Entry, error) {
	entries, err := q.readAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	head := entries[0]
	return &head, nil
}

// Remove deletes the entry with the given id (used on successful drain or on
// a non-retryable drop).
func (q *Queue) Remove(ctx context.Context, id string) error {
	_, err := synclock.WithKeyLock(q.lock, queueKey, func() (struct{}, error) {
		entries, err := q.readAll(ctx)
		if err != nil {
			return struct{}{}, err
		}
		out := entries[:0]
		for _, e := range entries {
			if e.ID != id {
				out = append(out, e)
			}
		}
		if err := q.writeAll(ctx, out); err != nil {
			return struct{}{}, err
		}
		q.invalidateStats()
		return struct{}{}, nil
	})
	return err
}

// ReinsertWithError updates attempts/lastError on an entry and moves it to
// the tail, used by the engine's retry path.
func (q *Queue) ReinsertWithError(ctx context.Context, id string, failureErr string) error {
	_, err := synclock.WithKeyLock(q.lock, queueKey, func() (struct{}, error) {
		entries, err := q.readAll(ctx)
		if err != nil {
			return struct{}{}, err
		}
		idx := -1
		for i, e := range entries {
			if e.ID == id {
				idx = i
				break
			}
		}
		if idx == -1 {
			return struct{}{}, nil
		}
		entry := entries[idx]
		entry.Attempts++
		entry.LastError = failureErr
		entries = append(entries[:idx], entries[idx+1:]...)
		entries = append(entries, entry)
		if err := q.writeAll(ctx, entries); err != nil {
			return struct{}{}, err
		}
		q.invalidateStats()
		return struct{}{}, nil
	})
	return err
}

// Clear empties the queue (used by ClearAllUserData).
func (q *Queue) Clear(ctx context.Context) error {
	_, err := synclock.WithKeyLock(q.lock, queueKey, func() (struct{}, error) {
		q.invalidateStats()
		return struct{}{}, q.writeAll(ctx, []Entry{})
	})
	return err
}

// ShouldSkipSettingsWrite reports whether a pending settings write should
// be skipped because next deep-equals current. encoding/json serializes map
// keys in sorted order, which gives a canonical form for the comparison.
func ShouldSkipSettingsWrite(current, next any) bool {
	curRaw, err1 := json.Marshal(current)
	nextRaw, err2 := json.Marshal(next)
	if err1 != nil || err2 != nil {
		return false
	}
	return string(curRaw) == string(nextRaw)
}

func (q *Queue) invalidateStats() {
	q.statsMu.Lock()
	defer q.statsMu.Unlock()
	q.statsAt = time.Time{}
}

const failedAttemptThreshold = 1

// GetStats returns pendingCount/failedCount with a short TTL cache to avoid
// repeated full scans.
func (q *Queue) GetStats(ctx context.Context) (Stats, error) {
	q.statsMu.Lock()
	if time.Since(q.statsAt) < statsTTL && !q.statsAt.IsZero() {
		cached := q.cachedStats
		q.statsMu.Unlock()
		return cached, nil
	}
	q.statsMu.Unlock()

	entries, err := q.readAll(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{}
	for _, e := range entries {
		stats.PendingCount++
		if e.Attempts >= failedAttemptThreshold && e.LastError != "" {
			stats.FailedCount++
		}
	}

	q.statsMu.Lock()
	q.cachedStats = stats
	q.statsAt = time.Now()
	q.statsMu.Unlock()
	return stats, nil
}

// All returns every pending entry ordered by EnqueuedAt, for diagnostics and
// tests. ReinsertWithError keeps an entry's EnqueuedAt, so after a retry this
// order can differ from the drain order Peek follows.
func (q *Queue) All(ctx context.Context) ([]Entry, error) {
	entries, err := q.readAll(ctx)
	if err != nil {
		return nil, err
	}
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].EnqueuedAt < sorted[j].EnqueuedAt })
	return sorted, nil
}

func nowISO() string { return time.Now().UTC().Format(time.RFC3339Nano) }
