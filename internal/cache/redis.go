package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-logr/logr"
	"github.com/redis/go-redis/v9"
)

// RedisCache implements Cache using Redis. Redis failures fall back to the
// loader; the cache is never required for correctness.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	stat   *CacheStat
	log    logr.Logger
}

// NewRedisCache creates a Redis cache whose keys live under prefix + ":cache:".
func NewRedisCache(client *redis.Client, prefix string, ttl time.Duration, log logr.Logger) *RedisCache {
	c := &RedisCache{
		client: client,
		prefix: prefix + ":cache:",
		ttl:    ttl,
		log:    log,
	}
	c.stat = NewCacheStat(prefix, log, 10*time.Second, func() int {
		return countKeys(client, c.prefix+"*")
	})
	return c
}

// NewRedisCacheWithURL creates a Redis cache from a redis:// URL
func NewRedisCacheWithURL(metaURL, prefix string, ttl time.Duration, log logr.Logger) (*RedisCache, error) {
	redisOpt, err := redis.ParseURL(metaURL)
	if err != nil {
		return nil, err
	}
	return NewRedisCache(redis.NewClient(redisOpt), prefix, ttl, log), nil
}

// Take implements Cache
func (c *RedisCache) Take(ctx context.Context, key string, loader func() ([]byte, error)) ([]byte, error) {
	cacheKey := c.prefix + key

	cached, err := c.client.GetEx(ctx, cacheKey, c.ttl).Bytes()
	if err == nil {
		c.stat.IncrementHit()
		return cached, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.log.Error(err, "redis cache read failed", "key", key)
		return loader()
	}

	c.stat.IncrementMiss()
	data, err := loader()
	if err != nil {
		return nil, err
	}
	if err := c.client.Set(ctx, cacheKey, data, c.ttl).Err(); err != nil {
		c.log.Error(err, "redis cache write failed", "key", key)
	}
	return data, nil
}

// Invalidate implements Cache
func (c *RedisCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	cacheKeys := make([]string, len(keys))
	for i, key := range keys {
		cacheKeys[i] = c.prefix + key
	}
	return c.client.Del(ctx, cacheKeys...).Err()
}

// Close stops the stat loop. The Redis client is left open.
func (c *RedisCache) Close() {
	c.stat.Close()
}

// countKeys counts keys matching a pattern
func countKeys(client *redis.Client, pattern string) int {
	ctx := context.Background()
	var cursor uint64
	var count int

	for {
		keys, next, err := client.Scan(ctx, cursor, pattern, 1000).Result()
		if err != nil {
			return 0
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return count
}
