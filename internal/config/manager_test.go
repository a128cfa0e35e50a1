package config

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hkloudou/lakeops/internal/cache"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func TestConfigManager(t *testing.T) {
	mr, rdb := newTestRedis(t)
	ctx := context.Background()
	mgr := NewManager(rdb)

	_, err := mgr.Load(ctx)
	assert.ErrorIs(t, err, ErrNotConfigured)

	cfg := &Config{
		Name:      "test-lakeops",
		Storage:   "memory",
		Bucket:    "test-bucket",
		AccessKey: "test-key",
		SecretKey: "test-secret",
		CacheTTL:  60,
	}
	require.NoError(t, mgr.Save(ctx, cfg))
	assert.True(t, mr.Exists(SettingKey))

	loaded, err := mgr.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestConfigManagerBadJSON(t *testing.T) {
	mr, rdb := newTestRedis(t)
	require.NoError(t, mr.Set(SettingKey, "{"))

	_, err := NewManager(rdb).Load(context.Background())
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "lakeops", cfg.Name)
	assert.Equal(t, "memory", cfg.Storage)
}

func TestCreateStorage(t *testing.T) {
	stor, err := (&Config{Name: "m", Storage: "memory"}).CreateStorage()
	require.NoError(t, err)
	assert.Equal(t, "memory:m", stor.RedisPrefix())

	stor, err = (&Config{Name: "f", Storage: "file", BasePath: t.TempDir()}).CreateStorage()
	require.NoError(t, err)
	assert.Equal(t, "file:f", stor.RedisPrefix())

	_, err = (&Config{Storage: "file"}).CreateStorage()
	assert.Error(t, err)

	_, err = (&Config{Storage: "s3"}).CreateStorage()
	assert.ErrorContains(t, err, "unknown storage type")
}

func TestCreateCache(t *testing.T) {
	_, rdb := newTestRedis(t)

	c, err := (&Config{}).CreateCache(nil, "p", logr.Discard())
	require.NoError(t, err)
	assert.IsType(t, &cache.NoOpCache{}, c)

	c, err = (&Config{Cache: "memory"}).CreateCache(nil, "p", logr.Discard())
	require.NoError(t, err)
	require.IsType(t, &cache.MemoryCache{}, c)
	c.(*cache.MemoryCache).Close()

	c, err = (&Config{Cache: "redis"}).CreateCache(rdb, "p", logr.Discard())
	require.NoError(t, err)
	require.IsType(t, &cache.RedisCache{}, c)
	c.(*cache.RedisCache).Close()

	_, err = (&Config{Cache: "redis"}).CreateCache(nil, "p", logr.Discard())
	assert.Error(t, err)

	_, err = (&Config{Cache: "disk"}).CreateCache(nil, "p", logr.Discard())
	assert.Error(t, err)
}
