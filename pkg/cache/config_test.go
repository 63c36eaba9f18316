package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryOptions(t *testing.T) {
	cfg := &MemoryConfig{MaxSize: 1000, CleanupInterval: 5 * time.Minute}
	WithMemoryCleanup(0)(cfg)
	WithMemoryMaxSize(-1)(cfg)
	assert.Equal(t, 5*time.Minute, cfg.CleanupInterval)
	assert.Equal(t, 1000, cfg.MaxSize)

	WithMemoryCleanup(time.Minute)(cfg)
	assert.Equal(t, time.Minute, cfg.CleanupInterval)
}

func TestWithRedisPool(t *testing.T) {
	cfg := &RedisConfig{}
	WithRedisPool(20, 4, 3*time.Second)(cfg)
	assert.Equal(t, 20, cfg.PoolSize)
	assert.Equal(t, 4, cfg.MinIdleConns)
	assert.Equal(t, 3*time.Second, cfg.PoolTimeout)
}

func TestLayeredMemoryOptions(t *testing.T) {
	ctx := context.Background()
	remote := NewMemoryCache()
	t.Cleanup(func() { _ = remote.Close() })
	lc := NewLayeredCache(remote, WithLayeredMemory(WithMemoryMaxSize(1), WithMemoryCleanup(time.Minute)))
	t.Cleanup(func() { _ = lc.Close() })

	require.NoError(t, lc.Set(ctx, "a", 1, 0))
	require.NoError(t, lc.Set(ctx, "b", 2, 0))
	assert.Equal(t, 1, lc.memCache.Len())

	var v int
	require.NoError(t, lc.Get(ctx, "a", &v))
	assert.Equal(t, 1, v)
}
