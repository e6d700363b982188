// Package cache wraps the data source repository with a TTL cache backed by
// a pluggable store.
package cache

import (
	"context"
	"time"
)

// Store is the key-value backend behind the cache facade. Implementations
// must be safe for concurrent use; last-writer-wins on a key is acceptable.
type Store interface {
	// Get returns the value for key and whether a fresh entry was found.
	// An expired entry counts as absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Close releases any resources held by the store.
	Close() error
}
