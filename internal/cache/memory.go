package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryCache implements Cache in process memory with TTL support. It backs
// development setups and serves as the fallback when Redis is unavailable.
type MemoryCache struct {
	config *Config
	items  map[string]*memoryItem
	mu     sync.RWMutex
	stopCh chan struct{}
	once   sync.Once
}

type memoryItem struct {
	value      []byte
	expiration time.Time
	hasExpiry  bool
}

// NewMemoryCache creates an in-memory cache and starts its expiry sweeper
func NewMemoryCache(config *Config) *MemoryCache {
	if config == nil {
		config = DefaultConfig()
	}

	mc := &MemoryCache{
		config: config,
		items:  make(map[string]*memoryItem),
		stopCh: make(chan struct{}),
	}

	go mc.sweepExpired()

	return mc
}

// Get retrieves a value from the cache
func (mc *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if !mc.config.Enabled {
		return nil, ErrCacheDisabled
	}

	key = mc.prefixKey(key)

	mc.mu.RLock()
	item, exists := mc.items[key]
	mc.mu.RUnlock()

	if !exists {
		return nil, ErrCacheNotFound
	}
	if item.hasExpiry && time.Now().After(item.expiration) {
		mc.mu.Lock()
		delete(mc.items, key)
		mc.mu.Unlock()
		return nil, ErrCacheNotFound
	}

	return item.value, nil
}

// Set stores a value with optional TTL
func (mc *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !mc.config.Enabled {
		return ErrCacheDisabled
	}

	key = mc.prefixKey(key)
	if ttl == 0 {
		ttl = mc.config.DefaultTTL
	}

	item := &memoryItem{
		value:     value,
		hasExpiry: ttl > 0,
	}
	if item.hasExpiry {
		item.expiration = time.Now().Add(ttl)
	}

	mc.mu.Lock()
	mc.items[key] = item
	mc.mu.Unlock()

	return nil
}

// Delete removes a value from the cache
func (mc *MemoryCache) Delete(ctx context.Context, key string) error {
	if !mc.config.Enabled {
		return ErrCacheDisabled
	}

	key = mc.prefixKey(key)

	mc.mu.Lock()
	delete(mc.items, key)
	mc.mu.Unlock()

	return nil
}

// Exists checks if a key is present and unexpired
func (mc *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	_, err := mc.Get(ctx, key)
	if err != nil {
		if err == ErrCacheNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Clear removes all entries under the cache's prefix
func (mc *MemoryCache) Clear(ctx context.Context) error {
	if !mc.config.Enabled {
		return ErrCacheDisabled
	}

	mc.mu.Lock()
	for key := range mc.items {
		if strings.HasPrefix(key, mc.config.Prefix) {
			delete(mc.items, key)
		}
	}
	mc.mu.Unlock()

	return nil
}

// Ping always succeeds for the in-memory cache
func (mc *MemoryCache) Ping(ctx context.Context) error {
	return nil
}

// Close stops the expiry sweeper
func (mc *MemoryCache) Close() error {
	mc.once.Do(func() {
		close(mc.stopCh)
	})
	return nil
}

// sweepExpired periodically drops expired entries so the map does not grow
// unbounded under write-heavy load
func (mc *MemoryCache) sweepExpired() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-mc.stopCh:
			return
		case <-ticker.C:
			now := time.Now()
			mc.mu.Lock()
			for key, item := range mc.items {
				if item.hasExpiry && now.After(item.expiration) {
					delete(mc.items, key)
				}
			}
			mc.mu.Unlock()
		}
	}
}

func (mc *MemoryCache) prefixKey(key string) string {
	return mc.config.Prefix + key
}
