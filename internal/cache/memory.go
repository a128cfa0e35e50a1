package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hkloudou/lakeops/internal/xsync"
	"github.com/hkloudou/lakeops/trace"
)

// MemoryCache implements Cache using an in-memory map with TTL
type MemoryCache struct {
	mu     sync.RWMutex
	data   map[string]*cacheEntry
	ttl    time.Duration
	flight xsync.SingleFlight[[]byte]
	gen    uint64 // bumped by Invalidate; loads started before it are not stored
	stop   chan struct{}
	once   sync.Once
}

type cacheEntry struct {
	value      []byte
	expireTime time.Time
}

// NewMemoryCache creates a memory cache and starts its cleanup loop.
// Call Close to stop the loop.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	c := &MemoryCache{
		data:   make(map[string]*cacheEntry),
		ttl:    ttl,
		flight: xsync.NewSingleFlight[[]byte](),
		stop:   make(chan struct{}),
	}
	go c.cleanupLoop(time.Minute)
	return c
}

// Take implements Cache. Concurrent misses on one key share a single load.
func (c *MemoryCache) Take(ctx context.Context, key string, loader func() ([]byte, error)) ([]byte, error) {
	tr := trace.FromContext(ctx)

	if value, ok := c.lookup(key); ok {
		tr.RecordSpan("MemoryCache.Hit", map[string]any{"key": key, "size": len(value)})
		return value, nil
	}

	return c.flight.Do(key, func() ([]byte, error) {
		if value, ok := c.lookup(key); ok {
			return value, nil
		}
		tr.RecordSpan("MemoryCache.Miss", map[string]any{"key": key})

		c.mu.RLock()
		gen := c.gen
		c.mu.RUnlock()

		data, err := loader()
		if err != nil {
			tr.RecordSpan("MemoryCache.LoaderFailed", map[string]any{"error": err.Error()})
			return nil, err
		}

		c.mu.Lock()
		if c.gen == gen {
			c.data[key] = &cacheEntry{value: data, expireTime: time.Now().Add(c.ttl)}
		}
		c.mu.Unlock()

		tr.RecordSpan("MemoryCache.Loaded", map[string]any{"size": len(data)})
		return data, nil
	})
}

// Invalidate implements Cache
func (c *MemoryCache) Invalidate(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	for _, key := range keys {
		delete(c.data, key)
		c.flight.Forget(key)
	}
	return nil
}

// Len returns the number of entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Close stops the cleanup loop.
func (c *MemoryCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *MemoryCache) lookup(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok || !time.Now().Before(entry.expireTime) {
		return nil, false
	}
	return entry.value, true
}

func (c *MemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

// cleanup removes expired entries
func (c *MemoryCache) cleanup() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.data {
		if now.After(entry.expireTime) {
			delete(c.data, key)
		}
	}
}
