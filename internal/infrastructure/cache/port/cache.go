package port

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by adapters to signal a cache miss in a typed way so
// callers can separate misses from transport errors.
var ErrMiss = errors.New("cache: miss")

// Cache is the minimal key-value contract the gateway uses to memoize
// identity lookups during handshakes. Implementations must be
// concurrency-safe and context-aware.
type Cache interface {
	// Get fetches the value for key, returning ErrMiss when absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key. Zero or negative TTL means no expiration.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Ping verifies connectivity with the cache backend.
	Ping(ctx context.Context) error

	// Close releases any resources held by the cache.
	Close() error
}
