package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"content_system/internal/cache"
)

// RateLimitConfig holds configuration for rate limiting middleware using
// the token bucket algorithm. The front controller sits in front of every
// page render, so the limiter keys on client IP by default.
type RateLimitConfig struct {
	// Logger for structured logging (optional, uses slog.Default if nil)
	Logger *slog.Logger

	// Capacity is the maximum number of tokens in the bucket
	// Default: 60
	Capacity int

	// RefillRate is the number of tokens added per second
	// Default: 20.0
	RefillRate float64

	// Message to return when rate limit is exceeded
	// Default: "Too many requests"
	Message string

	// KeyGenerator generates the key for rate limiting
	// Default: uses client IP
	KeyGenerator func(r *http.Request) string

	// Store defines the storage mechanism for rate limiting
	// Default: in-memory store
	Store TokenBucketStore
}

// DefaultRateLimitConfig returns a default rate limit configuration
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Capacity:   60,
		RefillRate: 20.0,
		Message:    "Too many requests",
	}
}

// TokenBucket represents a token bucket state
type TokenBucket struct {
	Tokens     float64   `json:"tokens"`
	LastRefill time.Time `json:"last_refill"`
}

// TokenBucketStore defines the interface for token bucket storage
type TokenBucketStore interface {
	// Allow checks if a request is allowed and updates the bucket
	Allow(ctx context.Context, key string, capacity int, refillRate float64) (allowed bool, remaining int, retryAfter time.Duration, err error)
}

// refill advances the bucket to now and consumes one token if available
func (b *TokenBucket) take(now time.Time, capacity int, refillRate float64) (allowed bool, remaining int, retryAfter time.Duration) {
	elapsed := now.Sub(b.LastRefill).Seconds()
	b.Tokens += elapsed * refillRate
	if b.Tokens > float64(capacity) {
		b.Tokens = float64(capacity)
	}
	b.LastRefill = now

	if b.Tokens >= 1.0 {
		b.Tokens -= 1.0
		return true, int(b.Tokens), 0
	}

	needed := 1.0 - b.Tokens
	return false, 0, time.Duration(needed / refillRate * float64(time.Second))
}

// MemoryTokenBucketStore implements an in-memory token bucket store
type MemoryTokenBucketStore struct {
	mu      sync.Mutex
	buckets map[string]*TokenBucket
}

// NewMemoryTokenBucketStore creates a new in-memory token bucket store
func NewMemoryTokenBucketStore() *MemoryTokenBucketStore {
	store := &MemoryTokenBucketStore{
		buckets: make(map[string]*TokenBucket),
	}

	go store.cleanup()

	return store
}

// Allow checks if a request is allowed using token bucket algorithm
func (m *MemoryTokenBucketStore) Allow(ctx context.Context, key string, capacity int, refillRate float64) (bool, int, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	bucket, exists := m.buckets[key]
	if !exists {
		bucket = &TokenBucket{Tokens: float64(capacity), LastRefill: now}
		m.buckets[key] = bucket
	}

	allowed, remaining, retryAfter := bucket.take(now, capacity, refillRate)
	return allowed, remaining, retryAfter, nil
}

// cleanup removes buckets that have been idle long enough to be full again
func (m *MemoryTokenBucketStore) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()
		cutoff := time.Now().Add(-10 * time.Minute)
		for key, bucket := range m.buckets {
			if bucket.LastRefill.Before(cutoff) {
				delete(m.buckets, key)
			}
		}
		m.mu.Unlock()
	}
}

// CacheTokenBucketStore stores buckets in the shared cache so limits hold
// across instances
type CacheTokenBucketStore struct {
	Cache cache.Cache

	// TTL bounds how long an idle bucket survives
	// Default: 10m
	TTL time.Duration
}

// NewCacheTokenBucketStore creates a cache-backed token bucket store
func NewCacheTokenBucketStore(c cache.Cache) *CacheTokenBucketStore {
	return &CacheTokenBucketStore{Cache: c, TTL: 10 * time.Minute}
}

// Allow checks if a request is allowed using token bucket algorithm
func (s *CacheTokenBucketStore) Allow(ctx context.Context, key string, capacity int, refillRate float64) (bool, int, time.Duration, error) {
	cacheKey := "ratelimit:" + key
	now := time.Now()

	bucket := TokenBucket{Tokens: float64(capacity), LastRefill: now}
	if raw, err := s.Cache.Get(ctx, cacheKey); err == nil {
		if err := json.Unmarshal(raw, &bucket); err != nil {
			bucket = TokenBucket{Tokens: float64(capacity), LastRefill: now}
		}
	} else if !errors.Is(err, cache.ErrCacheNotFound) {
		return false, 0, 0, fmt.Errorf("failed to read rate limit bucket: %w", err)
	}

	allowed, remaining, retryAfter := bucket.take(now, capacity, refillRate)

	raw, err := json.Marshal(bucket)
	if err != nil {
		return false, 0, 0, fmt.Errorf("failed to encode rate limit bucket: %w", err)
	}
	if err := s.Cache.Set(ctx, cacheKey, raw, s.TTL); err != nil {
		return false, 0, 0, fmt.Errorf("failed to write rate limit bucket: %w", err)
	}

	return allowed, remaining, retryAfter, nil
}

// defaultKeyGenerator keys buckets on the client IP
func defaultKeyGenerator(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit returns a middleware enforcing a token bucket per client
func RateLimit(config *RateLimitConfig) func(next http.Handler) http.Handler {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	if config.Capacity <= 0 {
		config.Capacity = 60
	}
	if config.RefillRate <= 0 {
		config.RefillRate = 20.0
	}
	if config.Message == "" {
		config.Message = "Too many requests"
	}
	if config.KeyGenerator == nil {
		config.KeyGenerator = defaultKeyGenerator
	}
	if config.Store == nil {
		config.Store = NewMemoryTokenBucketStore()
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := config.KeyGenerator(r)

			allowed, remaining, retryAfter, err := config.Store.Allow(r.Context(), key, config.Capacity, config.RefillRate)
			if err != nil {
				// fail open: a broken limiter store must not take
				// page serving down with it
				logger.Warn("rate limit store failed", "key", key, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.Capacity))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

			if !allowed {
				logger.Warn("rate limit exceeded", "key", key, "path", r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
				http.Error(w, config.Message, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
