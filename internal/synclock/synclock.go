// Package synclock provides a key-level advisory lock: an in-process
// mapping of key -> mutex that serializes read-modify-write sequences on a
// single logical document (a whole collection key in LocalDataStore). It
// offers no cross-process guarantee; the containing application enforces
// single-instance usage at the product level.
package synclock

import "sync"

// KeyLock lazily creates one *sync.Mutex per key and never removes it — the
// keyspace here is a small, fixed set of collection keys per user, so the map
// cannot grow unbounded.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns a ready-to-use KeyLock.
func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*sync.Mutex)}
}

func (k *KeyLock) mutexFor(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// WithKeyLock runs fn while holding the lock for key. At most one fn runs per
// key at a time within the process; concurrent callers for the same key
// queue. A panic or error inside fn still releases the lock.
func WithKeyLock[T any](k *KeyLock, key string, fn func() (T, error)) (T, error) {
	m := k.mutexFor(key)
	m.Lock()
	defer m.Unlock()
	return fn()
}

// WithTwoKeyLocks acquires locks for keyA then keyB (in that fixed order, to
// avoid lock-ordering deadlocks) and runs fn holding both. Used by the
// Personnel cascade delete: lock personnel key, then games key.
func WithTwoKeyLocks[T any](k *KeyLock, keyA, keyB string, fn func() (T, error)) (T, error) {
	ma := k.mutexFor(keyA)
	mb := k.mutexFor(keyB)
	ma.Lock()
	defer ma.Unlock()
	mb.Lock()
	defer mb.Unlock()
	return fn()
}
