package cache

import (
	"context"
	"time"
)

// NullCache disables artifact caching. Every rendered SVG, codec export and
// analysis result is recomputed on each request. The CLI installs it for
// one-shot runs with --no-cache or cache.disabled in the config.
type NullCache struct{}

// NewNullCache creates a cache that never stores artifacts.
func NewNullCache() Cache {
	return &NullCache{}
}

// Get always misses, forcing the pipeline to recompute the artifact.
func (c *NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards the artifact.
func (c *NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

// Delete does nothing.
func (c *NullCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Close does nothing.
func (c *NullCache) Close() error {
	return nil
}

// Ensure NullCache implements Cache.
var _ Cache = (*NullCache)(nil)
