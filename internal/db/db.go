// Package db defines the key-value store behind the query-embedding cache.
// Implementations live in db/redis (shared, networked) and db/bolt (single-process file).
package db

import (
	"context"
	"time"
)

// Store is a cache backend with a connection lifecycle.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides byte-valued key operations.
// Get returns ErrKeyNotFound for missing or expired keys.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// SetWithTTL stores value; a non-positive ttl never expires.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
