package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCacheTestService(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCacheService(rdb, "sp:tree:", 10*time.Minute, zap.NewNop()), mr
}

func TestCacheRoundTrip(t *testing.T) {
	svc, _ := newCacheTestService(t)
	ctx := context.Background()

	payload := []int64{1, 2, 3}
	svc.Set(ctx, 10, CacheKindDescendants, payload)

	var got []int64
	require.True(t, svc.Get(ctx, 10, CacheKindDescendants, &got))
	assert.Equal(t, payload, got)

	var miss []int64
	assert.False(t, svc.Get(ctx, 10, CacheKindAncestors, &miss))
	assert.False(t, svc.Get(ctx, 99, CacheKindDescendants, &miss))
}

func TestCacheInvalidateNode(t *testing.T) {
	svc, mr := newCacheTestService(t)
	ctx := context.Background()

	for _, kind := range cacheKinds {
		svc.Set(ctx, 7, kind, "cached")
	}
	svc.Set(ctx, 8, CacheKindPath, "other")

	svc.InvalidateNode(ctx, 7)

	var out string
	for _, kind := range cacheKinds {
		assert.False(t, svc.Get(ctx, 7, kind, &out), "kind %s should be evicted", kind)
	}
	require.True(t, svc.Get(ctx, 8, CacheKindPath, &out))
	assert.Equal(t, "other", out)
	assert.True(t, mr.Exists("sp:tree:8:path"))
}

func TestCacheInvalidateDescendantsOf(t *testing.T) {
	svc, _ := newCacheTestService(t)
	ctx := context.Background()

	svc.Set(ctx, 5, CacheKindDescendants, "d")
	svc.Set(ctx, 5, CacheKindAncestors, "a")
	svc.Set(ctx, 5, CacheKindStats, "s")

	svc.InvalidateDescendantsOf(ctx, 5)

	var out string
	assert.False(t, svc.Get(ctx, 5, CacheKindDescendants, &out))
	assert.True(t, svc.Get(ctx, 5, CacheKindAncestors, &out))
	assert.True(t, svc.Get(ctx, 5, CacheKindStats, &out))
}

func TestCacheNilClientPassThrough(t *testing.T) {
	svc := NewCacheService(nil, "", 0, nil)
	ctx := context.Background()

	svc.Set(ctx, 1, CacheKindDescendants, "ignored")
	var out string
	assert.False(t, svc.Get(ctx, 1, CacheKindDescendants, &out))

	// 失效在无缓存时也是空操作, 不 panic
	svc.InvalidateNode(ctx, 1)
	svc.InvalidateDescendantsOf(ctx, 1)
}

func TestCacheTTL(t *testing.T) {
	svc, mr := newCacheTestService(t)
	ctx := context.Background()

	svc.Set(ctx, 3, CacheKindStats, map[string]int64{"CHANNEL": 2})
	mr.FastForward(11 * time.Minute)

	var out map[string]int64
	assert.False(t, svc.Get(ctx, 3, CacheKindStats, &out))
}
