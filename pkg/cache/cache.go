// Package cache provides content-addressed caching for pipeline artifacts.
//
// Enrichment, codecs and rendering are pure functions of the IR, so their
// outputs are cached under hashes of their inputs: the same IR always maps
// to the same key. The file cache backs CLI usage; the null cache disables
// caching for tests and one-shot runs.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque artifact bytes under string keys.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was present
	// and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with an optional TTL. A zero TTL never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any backend resources.
	Close() error
}
