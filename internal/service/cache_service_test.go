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

type brokenCacheRepo struct{}

func (brokenCacheRepo) Get(context.Context, string, interface{}) error { return errors.New("conn reset") }
func (brokenCacheRepo) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("conn reset")
}
func (brokenCacheRepo) Delete(context.Context, ...string) error      { return errors.New("conn reset") }
func (brokenCacheRepo) DeleteByPattern(context.Context, string) error { return errors.New("conn reset") }

type cachedPayload struct {
	Value int `json:"value"`
}

func TestReadThroughLoadsOnceThenServesCache(t *testing.T) {
	cache := NewCacheService(newMemoryCacheRepo(), NewMetricsService(), time.Minute, zap.NewNop(), true)
	loads := 0
	load := func(context.Context) (*cachedPayload, error) {
		loads++
		return &cachedPayload{Value: 7}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := readThrough(context.Background(), cache, "k", 0, load)
		require.NoError(t, err)
		assert.Equal(t, 7, got.Value)
	}
	assert.Equal(t, 1, loads)
}

func TestReadThroughSurvivesBrokenStore(t *testing.T) {
	cache := NewCacheService(brokenCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	got, err := readThrough(context.Background(), cache, "k", 0, func(context.Context) (*cachedPayload, error) {
		return &cachedPayload{Value: 3}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, got.Value)
}

func TestReadThroughPropagatesLoadError(t *testing.T) {
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, zap.NewNop(), true)
	_, err := readThrough(context.Background(), cache, "k", 0, func(context.Context) (*cachedPayload, error) {
		return nil, errors.New("db down")
	})
	require.EqualError(t, err, "db down")

	hit, err := cache.Get(context.Background(), "k", &cachedPayload{})
	require.NoError(t, err)
	assert.False(t, hit, "failed loads are not cached")
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemoryCacheRepo()
	disabled := NewCacheService(repo, nil, 0, nil, false)
	assert.False(t, disabled.Enabled())
	require.NoError(t, disabled.Set(context.Background(), "k", cachedPayload{Value: 1}, 0))
	assert.Empty(t, repo.items)

	assert.False(t, NewCacheService(nil, nil, 0, nil, true).Enabled())
	var nilCache *CacheService
	hit, err := nilCache.Get(context.Background(), "k", &cachedPayload{})
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceInvalidatePattern(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "stats:client:c1:a", cachedPayload{Value: 1}, 0))
	require.NoError(t, cache.Set(ctx, "stats:client:c1:b", cachedPayload{Value: 2}, 0))
	require.NoError(t, cache.Set(ctx, "stats:client:c2:a", cachedPayload{Value: 3}, 0))

	require.NoError(t, cache.Invalidate(ctx, "stats:client:c1:*"))
	assert.Len(t, repo.items, 1)
	assert.Error(t, NewCacheService(brokenCacheRepo{}, nil, 0, nil, true).Delete(ctx, "x"))
}
