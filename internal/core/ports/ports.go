package ports

import (
	"context"
	"time"
)

// CacheService defines the interface for a cache backend. The registry
// uses it to persist its last good model snapshot so a restart within the
// TTL window does not need a live fetch.
type CacheService interface {
	// Get retrieves a value from the cache.
	// The implementation should unmarshal the data into the 'dest' pointer.
	Get(ctx context.Context, key string, dest interface{}) error

	// Set stores a value in the cache with a TTL.
	// The implementation should marshal the value.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error
}

// ImageStore persists generated image bytes and serves them back.
type ImageStore interface {
	// SaveImage writes the image and returns a public URL for it.
	SaveImage(ctx context.Context, data []byte, extension string) (string, error)

	// GetImage resolves a URL (local or remote) back to raw bytes.
	GetImage(ctx context.Context, url string) ([]byte, error)
}
