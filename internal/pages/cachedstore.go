package pages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"content_system/internal/cache"
)

// CachedStore memoizes path lookups in front of another Store. Path
// resolution dominates request cost (the backtracking walker may issue
// several lookups per request), so hits and misses are both cached: a
// negative entry keeps adversarial not-found traffic off the database.
type CachedStore struct {
	inner  Store
	cache  cache.Cache
	logger *slog.Logger

	// HitTTL is the lifetime of positive path entries
	HitTTL time.Duration

	// MissTTL is the lifetime of negative path entries, kept short so new
	// pages appear promptly
	MissTTL time.Duration

	// OnPathLookup, when set, observes whether each lookup was served from
	// the cache
	OnPathLookup func(hit bool)
}

// NewCachedStore wraps a store with path-lookup memoization
func NewCachedStore(inner Store, c cache.Cache, logger *slog.Logger) *CachedStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedStore{
		inner:   inner,
		cache:   c,
		logger:  logger,
		HitTTL:  time.Minute,
		MissTTL: 15 * time.Second,
	}
}

// cachedPage is the serialized cache entry; Miss marks a negative entry
type cachedPage struct {
	Miss bool `json:"miss,omitempty"`
	Page Page `json:"page"`
}

// LookupByPath consults the cache before the inner store. Cache failures
// degrade to direct lookups rather than request failures.
func (s *CachedStore) LookupByPath(ctx context.Context, path string, statusCeiling Status) (Page, error) {
	key := fmt.Sprintf("path:%d:%s", statusCeiling, CanonicalPath(path))

	if raw, err := s.cache.Get(ctx, key); err == nil {
		var entry cachedPage
		if err := json.Unmarshal(raw, &entry); err == nil {
			s.observe(true)
			if entry.Miss {
				return NullPage, nil
			}
			return entry.Page, nil
		}
	} else if !errors.Is(err, cache.ErrCacheNotFound) {
		s.logger.Debug("path cache read failed", "key", key, "error", err)
	}

	s.observe(false)
	pg, err := s.inner.LookupByPath(ctx, path, statusCeiling)
	if err != nil {
		return NullPage, err
	}

	entry := cachedPage{Page: pg, Miss: !pg.Exists()}
	ttl := s.HitTTL
	if entry.Miss {
		ttl = s.MissTTL
	}
	if raw, err := json.Marshal(entry); err == nil {
		if err := s.cache.Set(ctx, key, raw, ttl); err != nil {
			s.logger.Debug("path cache write failed", "key", key, "error", err)
		}
	}

	return pg, nil
}

func (s *CachedStore) observe(hit bool) {
	if s.OnPathLookup != nil {
		s.OnPathLookup(hit)
	}
}

// LookupByName passes through to the inner store
func (s *CachedStore) LookupByName(ctx context.Context, name string, uniqueOnly bool) (Page, error) {
	return s.inner.LookupByName(ctx, name, uniqueOnly)
}

// LookupByID passes through to the inner store
func (s *CachedStore) LookupByID(ctx context.Context, id int64) (Page, error) {
	return s.inner.LookupByID(ctx, id)
}

// TemplateByID passes through to the inner store
func (s *CachedStore) TemplateByID(ctx context.Context, id int64) (Template, error) {
	return s.inner.TemplateByID(ctx, id)
}

// Invalidate drops the cached entry for a path at the resolver's status
// ceiling. It is the hook for the editing subsystem, which owns the content
// tree and calls it after moving or renaming a page; the resolver itself
// never needs it because the short TTLs bound staleness on their own.
func (s *CachedStore) Invalidate(ctx context.Context, path string) {
	key := fmt.Sprintf("path:%d:%s", StatusMaxQueryable, CanonicalPath(path))
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Debug("path cache invalidate failed", "key", key, "error", err)
	}
}
