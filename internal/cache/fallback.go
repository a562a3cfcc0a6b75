package cache

import (
	"context"
	"log/slog"
	"time"
)

// FallbackCache fronts a Redis primary with an in-memory fallback, so path
// lookups and sessions keep working when Redis is down.
type FallbackCache struct {
	primary  Cache
	fallback Cache
	logger   *slog.Logger
}

// FallbackConfig holds fallback cache configuration
type FallbackConfig struct {
	// Redis is the primary backend configuration
	Redis *RedisConfig

	// Memory is the fallback backend configuration
	Memory *Config

	// Logger for structured logging (optional, uses slog.Default if nil)
	Logger *slog.Logger
}

// DefaultFallbackConfig returns a default fallback configuration
func DefaultFallbackConfig() *FallbackConfig {
	return &FallbackConfig{
		Redis:  DefaultRedisConfig(),
		Memory: DefaultConfig(),
	}
}

// NewFallbackCache creates a fallback cache. A Redis connection failure is
// logged and downgraded to memory-only operation rather than an error.
func NewFallbackCache(config *FallbackConfig) *FallbackCache {
	if config == nil {
		config = DefaultFallbackConfig()
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var primary Cache
	redisCache, err := NewRedisCache(config.Redis)
	if err != nil {
		logger.Warn("redis cache unavailable, using memory cache only", "error", err)
	} else {
		primary = redisCache
		logger.Info("fallback cache initialized with redis primary")
	}

	return &FallbackCache{
		primary:  primary,
		fallback: NewMemoryCache(config.Memory),
		logger:   logger,
	}
}

// Get reads from the primary, falling back to memory on any primary error
func (fc *FallbackCache) Get(ctx context.Context, key string) ([]byte, error) {
	if fc.primary != nil {
		value, err := fc.primary.Get(ctx, key)
		if err == nil {
			return value, nil
		}
		if err == ErrCacheNotFound {
			return nil, err
		}
	}
	return fc.fallback.Get(ctx, key)
}

// Set writes to the primary when available and always to the fallback
func (fc *FallbackCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if fc.primary != nil {
		if err := fc.primary.Set(ctx, key, value, ttl); err != nil {
			fc.logger.Warn("primary cache set failed", "key", key, "error", err)
		}
	}
	return fc.fallback.Set(ctx, key, value, ttl)
}

// Delete removes the key from both backends
func (fc *FallbackCache) Delete(ctx context.Context, key string) error {
	if fc.primary != nil {
		if err := fc.primary.Delete(ctx, key); err != nil {
			fc.logger.Warn("primary cache delete failed", "key", key, "error", err)
		}
	}
	return fc.fallback.Delete(ctx, key)
}

// Exists checks the primary first, then the fallback
func (fc *FallbackCache) Exists(ctx context.Context, key string) (bool, error) {
	if fc.primary != nil {
		ok, err := fc.primary.Exists(ctx, key)
		if err == nil {
			return ok, nil
		}
	}
	return fc.fallback.Exists(ctx, key)
}

// Clear clears both backends
func (fc *FallbackCache) Clear(ctx context.Context) error {
	if fc.primary != nil {
		if err := fc.primary.Clear(ctx); err != nil {
			fc.logger.Warn("primary cache clear failed", "error", err)
		}
	}
	return fc.fallback.Clear(ctx)
}

// Ping reports primary health when a primary exists, fallback health
// otherwise
func (fc *FallbackCache) Ping(ctx context.Context) error {
	if fc.primary != nil {
		return fc.primary.Ping(ctx)
	}
	return fc.fallback.Ping(ctx)
}

// Close closes both backends
func (fc *FallbackCache) Close() error {
	if fc.primary != nil {
		if err := fc.primary.Close(); err != nil {
			fc.logger.Warn("primary cache close failed", "error", err)
		}
	}
	return fc.fallback.Close()
}
