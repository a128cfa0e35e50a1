// Package cache keeps loaded document bytes in front of a storage backend.
package cache

import "context"

// Cache is a read-through cache for []byte data
type Cache interface {
	// Take returns the cached value for key. On a miss it calls loader,
	// caches the result and returns it.
	Take(ctx context.Context, key string, loader func() ([]byte, error)) ([]byte, error)

	// Invalidate drops keys so the next Take reloads them.
	Invalidate(ctx context.Context, keys ...string) error
}

// NoOpCache always calls the loader
type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Take(ctx context.Context, key string, loader func() ([]byte, error)) ([]byte, error) {
	return loader()
}

func (c *NoOpCache) Invalidate(ctx context.Context, keys ...string) error {
	return nil
}
