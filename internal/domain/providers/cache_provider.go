package providers

import (
	"context"
)

// CacheStats is the cache snapshot merged into the dashboard payload
type CacheStats struct {
	Size        int64   `json:"size"`
	HitRate     float64 `json:"hitRate"`
	MemoryUsage string  `json:"memoryUsage"`
}

// CacheProvider defines the interface for caching operations
type CacheProvider interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)

	// Stats reports the cache's published snapshot
	Stats(ctx context.Context) (CacheStats, error)
}
