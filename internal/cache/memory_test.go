package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *MemoryCache {
	t.Helper()
	mc := NewMemoryCache(DefaultConfig())
	t.Cleanup(func() { mc.Close() })
	return mc
}

func TestMemoryCacheSetGet(t *testing.T) {
	mc := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "greeting", []byte("hello"), time.Minute))

	got, err := mc.Get(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

func TestMemoryCacheMiss(t *testing.T) {
	mc := newTestCache(t)

	_, err := mc.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "flash", []byte("x"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := mc.Get(ctx, "flash")
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestMemoryCacheDelete(t *testing.T) {
	mc := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "gone", []byte("x"), time.Minute))
	require.NoError(t, mc.Delete(ctx, "gone"))

	_, err := mc.Get(ctx, "gone")
	assert.ErrorIs(t, err, ErrCacheNotFound)

	// deleting an absent key is not an error
	assert.NoError(t, mc.Delete(ctx, "never-was"))
}

func TestMemoryCacheExists(t *testing.T) {
	mc := newTestCache(t)
	ctx := context.Background()

	ok, err := mc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mc.Set(ctx, "k", []byte("v"), time.Minute))
	ok, err = mc.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCacheClear(t *testing.T) {
	mc := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, mc.Set(ctx, "b", []byte("2"), time.Minute))
	require.NoError(t, mc.Clear(ctx))

	_, err := mc.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheNotFound)
	_, err = mc.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheNotFound)
}

func TestMemoryCacheDisabled(t *testing.T) {
	config := DefaultConfig()
	config.Enabled = false
	mc := NewMemoryCache(config)
	defer mc.Close()
	ctx := context.Background()

	assert.ErrorIs(t, mc.Set(ctx, "k", []byte("v"), time.Minute), ErrCacheDisabled)
	_, err := mc.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheDisabled)
}

func TestMemoryCacheDefaultTTL(t *testing.T) {
	config := DefaultConfig()
	config.DefaultTTL = time.Millisecond
	mc := NewMemoryCache(config)
	defer mc.Close()
	ctx := context.Background()

	// ttl 0 inherits the configured default
	require.NoError(t, mc.Set(ctx, "k", []byte("v"), 0))
	time.Sleep(5 * time.Millisecond)

	_, err := mc.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheNotFound)
}
