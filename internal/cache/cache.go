package cache

import (
	"context"
	"time"
)

// Cache is the byte-value cache contract shared by the Redis, memory, and
// fallback implementations. The resolver uses it to memoize path lookups;
// the session store uses it for session records.
type Cache interface {
	// Get retrieves a value, returning ErrCacheNotFound on a miss
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a TTL (0 = the configured default)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key; deleting an absent key is not an error
	Delete(ctx context.Context, key string) error

	// Exists reports whether the key is present
	Exists(ctx context.Context, key string) (bool, error)

	// Clear removes all entries under this cache's prefix
	Clear(ctx context.Context) error

	// Ping checks whether the cache backend is reachable
	Ping(ctx context.Context) error

	// Close releases the backend connection
	Close() error
}

// Config holds common cache configuration
type Config struct {
	// DefaultTTL applies when Set is called with ttl 0
	DefaultTTL time.Duration

	// Prefix namespaces all keys from this cache
	Prefix string

	// Enabled toggles the cache; a disabled cache misses on every read
	Enabled bool
}

// DefaultConfig returns a default cache configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultTTL: 5 * time.Minute,
		Prefix:     "content:",
		Enabled:    true,
	}
}

// CacheError wraps a failed cache operation with its context
type CacheError struct {
	Op  string
	Key string
	Err error
}

func (e *CacheError) Error() string {
	if e.Key != "" {
		return "cache " + e.Op + " " + e.Key + ": " + e.Err.Error()
	}
	return "cache " + e.Op + ": " + e.Err.Error()
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

var (
	errKeyNotFound = sentinelError("key not found")
	errDisabled    = sentinelError("cache disabled")
)

// ErrCacheNotFound is returned on a read miss
var ErrCacheNotFound = &CacheError{Op: "get", Err: errKeyNotFound}

// ErrCacheDisabled is returned from every operation on a disabled cache
var ErrCacheDisabled = &CacheError{Op: "operation", Err: errDisabled}

type sentinelError string

func (e sentinelError) Error() string {
	return string(e)
}
