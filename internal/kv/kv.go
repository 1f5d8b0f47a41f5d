// Package kv is the key/value adapter: a persistent store keyed
// by string holding opaque byte values, plus an in-memory fallback for tests
// and degraded environments. Every operation is safe for concurrent use;
// read-modify-write ordering on a single key is the caller's responsibility
// (see package synclock).
package kv

import "context"

// Store is the contract both the bbolt-backed adapter and the in-memory
// fallback satisfy.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
	IsAvailable() bool
	Close() error
}
