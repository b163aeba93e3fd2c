package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/readhabit/readhabit-web/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rc, err := NewRedisCache(config.RedisConfig{Address: mr.Addr(), PoolSize: 2, MaxRetries: 1})
	require.NoError(t, err)
	t.Cleanup(func() { rc.Close() })

	return rc, mr
}

func exerciseCache(t *testing.T, c Cache) {
	ctx := context.Background()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	ok, err := c.SetNX(ctx, "once", []byte("1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "once", []byte("2"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err = c.Get(ctx, "once")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCache(t *testing.T) {
	mc := NewMemoryCache(0)
	defer mc.Close()

	exerciseCache(t, mc)
}

func TestMemoryCacheExpiry(t *testing.T) {
	mc := NewMemoryCache(0)
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "short", []byte("x"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := mc.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, err := mc.SetNX(ctx, "short", []byte("y"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "expired key must be claimable again")
}

func TestMemoryCacheSweepsExpiredEntries(t *testing.T) {
	mc := NewMemoryCache(5 * time.Millisecond)
	defer mc.Close()
	ctx := context.Background()

	require.NoError(t, mc.Set(ctx, "gone", []byte("x"), time.Millisecond))
	require.NoError(t, mc.Set(ctx, "kept", []byte("x"), time.Minute))

	assert.Eventually(t, func() bool {
		mc.mu.Lock()
		defer mc.mu.Unlock()
		_, present := mc.entries["gone"]
		return !present
	}, time.Second, 5*time.Millisecond)

	_, err := mc.Get(ctx, "kept")
	assert.NoError(t, err)
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	mc := NewMemoryCache(0)
	defer mc.Close()
	ctx := context.Background()

	value := []byte("abc")
	require.NoError(t, mc.Set(ctx, "k", value, time.Minute))
	value[0] = 'z'

	got, err := mc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestMemoryCacheCloseTwice(t *testing.T) {
	mc := NewMemoryCache(0)
	assert.NoError(t, mc.Close())
	assert.NoError(t, mc.Close())
}

func TestRedisCache(t *testing.T) {
	rc, _ := newRedisCache(t)
	exerciseCache(t, rc)
}

func TestRedisCacheKeyPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	rc, err := NewRedisCache(config.RedisConfig{Address: mr.Addr(), KeyPrefix: "readhabit-web:"})
	require.NoError(t, err)
	defer rc.Close()

	require.NoError(t, rc.Set(context.Background(), "replay:oauth_state:abc", []byte("1"), time.Minute))

	assert.True(t, mr.Exists("readhabit-web:replay:oauth_state:abc"))
	assert.False(t, mr.Exists("replay:oauth_state:abc"))
}

func TestRedisCacheSetNXExpiry(t *testing.T) {
	rc, mr := newRedisCache(t)
	ctx := context.Background()

	ok, err := rc.SetNX(ctx, "state", []byte("1"), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Minute)

	ok, err = rc.SetNX(ctx, "state", []byte("1"), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNew(t *testing.T) {
	c, err := New(config.CacheConfig{Type: "memory"})
	require.NoError(t, err)
	c.Close()

	_, err = New(config.CacheConfig{Type: "redis"})
	assert.Error(t, err)

	_, err = New(config.CacheConfig{Type: "memcached"})
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	c, err = New(config.CacheConfig{Type: "redis", Redis: &config.RedisConfig{Address: mr.Addr()}})
	require.NoError(t, err)
	c.Close()
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisCache(config.RedisConfig{Address: addr})
	assert.Error(t, err)
}
