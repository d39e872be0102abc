package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingCache struct{ err error }

func (f failingCache) Get(context.Context, string, interface{}) error { return f.err }
func (f failingCache) Set(context.Context, string, interface{}, time.Duration) error {
	return f.err
}
func (f failingCache) DeleteByPattern(context.Context, string) error { return f.err }

func TestRememberLoadsOnceThenHits(t *testing.T) {
	store := newMemoryCache()
	cache := NewCacheService(store, NewMetricsService(), time.Minute, zap.NewNop(), true)
	loads := 0
	load := func() ([]string, error) {
		loads++
		return []string{"a", "b"}, nil
	}

	got, hit, err := remember(context.Background(), cache, "list:roles:x", load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []string{"a", "b"}, got)

	got, hit, err = remember(context.Background(), cache, "list:roles:x", load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 1, loads)
}

func TestRememberSkipsDisabledCacheAndEmptyKey(t *testing.T) {
	store := newMemoryCache()
	disabled := NewCacheService(store, nil, 0, nil, false)
	loads := 0
	load := func() (int, error) { loads++; return 7, nil }

	for i := 0; i < 2; i++ {
		_, hit, err := remember(context.Background(), disabled, "k", load)
		require.NoError(t, err)
		assert.False(t, hit)
	}
	enabled := NewCacheService(store, nil, 0, nil, true)
	_, _, _ = remember(context.Background(), enabled, "", load)
	assert.Equal(t, 3, loads)
	assert.Empty(t, store.values)

	var nilCache *CacheService
	v, hit, err := remember(context.Background(), nilCache, "k", load)
	assert.Equal(t, 7, v)
	assert.False(t, hit)
	assert.NoError(t, err)
}

func TestRememberFallsThroughStoreFailures(t *testing.T) {
	cache := NewCacheService(failingCache{err: errors.New("redis down")}, nil, 0, zap.NewNop(), true)
	v, hit, err := remember(context.Background(), cache, "k", func() (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "fresh", v)
}

func TestRememberPropagatesLoadError(t *testing.T) {
	store := newMemoryCache()
	cache := NewCacheService(store, nil, 0, nil, true)
	_, _, err := remember(context.Background(), cache, "k", func() (int, error) { return 0, errors.New("boom") })
	assert.EqualError(t, err, "boom")
	assert.Empty(t, store.values)
}

func TestCacheServiceInvalidate(t *testing.T) {
	store := newMemoryCache()
	cache := NewCacheService(store, nil, 0, nil, true)
	require.NoError(t, cache.Set(context.Background(), "list:students:1", 1, 0))
	require.NoError(t, cache.Set(context.Background(), "other", 2, 0))

	require.NoError(t, cache.Invalidate(context.Background(), "list:*"))
	assert.Equal(t, []string{"list:*"}, store.deleted)
	assert.NotContains(t, store.values, "list:students:1")
	assert.Contains(t, store.values, "other")

	failing := NewCacheService(failingCache{err: errors.New("down")}, nil, 0, nil, true)
	assert.Error(t, failing.Invalidate(context.Background(), "list:*"))
}
