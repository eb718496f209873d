// Package kv provides the key-value store behind the deployment lock.
// Backends are swappable (Valkey/Redis, in-memory) without changing the lock.
package kv

import (
	"context"
	"time"
)

// Store defines the minimal key-value operations a lease needs.
type Store interface {
	// Get retrieves a value by key. Returns ErrNotFound if key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// SetNX sets a value only if the key doesn't exist (atomic).
	// Returns true if the key was set, false if it already existed.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// CompareAndDelete removes key only while it still holds value (atomic).
	// Returns true if the key was removed.
	CompareAndDelete(ctx context.Context, key string, value []byte) (bool, error)

	// Close closes the connection to the store.
	Close() error
}
