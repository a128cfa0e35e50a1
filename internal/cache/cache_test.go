package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkloudou/lakeops/trace"
)

func counter(value string, calls *atomic.Int32) func() ([]byte, error) {
	return func() ([]byte, error) {
		calls.Add(1)
		return []byte(value), nil
	}
}

func TestNoOpCache(t *testing.T) {
	var calls atomic.Int32
	c := NewNoOpCache()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		data, err := c.Take(ctx, "k", counter("v", &calls))
		require.NoError(t, err)
		assert.Equal(t, "v", string(data))
	}
	assert.Equal(t, int32(3), calls.Load())
	assert.NoError(t, c.Invalidate(ctx, "k"))
}

func TestMemoryCacheHitAndInvalidate(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close()
	ctx := trace.WithTrace(context.Background(), "test")
	var calls atomic.Int32

	data, err := c.Take(ctx, "k", counter("v1", &calls))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	data, err = c.Take(ctx, "k", counter("v2", &calls))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data), "second Take should hit")
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, c.Invalidate(ctx, "k"))
	data, err = c.Take(ctx, "k", counter("v2", &calls))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
	assert.Equal(t, int32(2), calls.Load())

	names := make([]string, 0)
	for _, span := range trace.FromContext(ctx).GetSpans() {
		names = append(names, span.Name)
	}
	assert.Contains(t, names, "MemoryCache.Hit")
	assert.Contains(t, names, "MemoryCache.Loaded")
}

func TestMemoryCacheTTL(t *testing.T) {
	c := NewMemoryCache(time.Millisecond)
	defer c.Close()
	ctx := context.Background()
	var calls atomic.Int32

	_, err := c.Take(ctx, "k", counter("v", &calls))
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	_, err = c.Take(ctx, "k", counter("v", &calls))
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	time.Sleep(5 * time.Millisecond)
	c.cleanup()
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCacheLoaderError(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close()
	boom := errors.New("boom")

	_, err := c.Take(context.Background(), "k", func() ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len(), "failed loads are not cached")
}

func TestMemoryCacheSingleFlight(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close()
	var calls atomic.Int32
	release := make(chan struct{})

	loader := func() ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("v"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := c.Take(context.Background(), "k", loader)
			assert.NoError(t, err)
			assert.Equal(t, "v", string(data))
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestMemoryCacheStaleLoadDropped(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	_, err := c.Take(ctx, "k", func() ([]byte, error) {
		// a write lands while the old value is being loaded
		require.NoError(t, c.Invalidate(ctx, "k"))
		return []byte("old"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisCache(t *testing.T) {
	client := newTestRedis(t)
	c := NewRedisCache(client, "memory:test", time.Minute, logr.Discard())
	defer c.Close()
	ctx := context.Background()
	var calls atomic.Int32

	data, err := c.Take(ctx, "users/1.json", counter("v1", &calls))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))

	stored, err := client.Get(ctx, "memory:test:cache:users/1.json").Result()
	require.NoError(t, err)
	assert.Equal(t, "v1", stored)

	data, err = c.Take(ctx, "users/1.json", counter("v2", &calls))
	require.NoError(t, err)
	assert.Equal(t, "v1", string(data))
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, c.Invalidate(ctx, "users/1.json"))
	data, err = c.Take(ctx, "users/1.json", counter("v2", &calls))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	hit, miss := c.stat.flush()
	assert.Equal(t, uint64(1), hit)
	assert.Equal(t, uint64(2), miss)
	assert.Equal(t, 1, countKeys(client, "memory:test:cache:*"))
}

func TestRedisCacheFallback(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	c := NewRedisCache(client, "p", time.Minute, logr.Discard())
	defer c.Close()

	mr.Close()
	data, err := c.Take(context.Background(), "k", func() ([]byte, error) { return []byte("v"), nil })
	require.NoError(t, err)
	assert.Equal(t, "v", string(data))
}

func TestNewRedisCacheWithURL(t *testing.T) {
	_, err := NewRedisCacheWithURL("not a url", "p", time.Minute, logr.Discard())
	assert.Error(t, err)
}
