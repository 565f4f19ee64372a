package cache

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adaeze/reposcout/internal/domain/providers"
	redisclient "github.com/adaeze/reposcout/internal/infrastructure/clients/redis"
)

// RedisAdapter implements the CacheProvider interface using Redis. Hit and
// miss counters for the stats snapshot are kept in-process; size and memory
// come from the server.
type RedisAdapter struct {
	client *redisclient.Client

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisAdapter creates a new Redis cache adapter
func NewRedisAdapter(client *redisclient.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

var _ providers.CacheProvider = (*RedisAdapter)(nil)

// Get retrieves a value from cache
func (a *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := a.client.Client().Get(ctx, key).Bytes()
	if err == redis.Nil {
		a.misses.Add(1)
		return nil, fmt.Errorf("key not found: %s", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}
	a.hits.Add(1)
	return result, nil
}

// Set stores a value in cache with expiration
func (a *RedisAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	expiration := time.Duration(expirationSeconds) * time.Second
	if err := a.client.Client().Set(ctx, key, value, expiration).Err(); err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}
	return nil
}

// Delete removes a value from cache
func (a *RedisAdapter) Delete(ctx context.Context, key string) error {
	if err := a.client.Client().Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}
	return nil
}

// Exists checks if a key exists in cache
func (a *RedisAdapter) Exists(ctx context.Context, key string) (bool, error) {
	result, err := a.client.Client().Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existence in cache: %w", err)
	}
	return result > 0, nil
}

// Stats reports the cache snapshot merged into the dashboard payload
func (a *RedisAdapter) Stats(ctx context.Context) (providers.CacheStats, error) {
	size, err := a.client.Client().DBSize(ctx).Result()
	if err != nil {
		return providers.CacheStats{}, fmt.Errorf("failed to read cache size: %w", err)
	}

	memory := ""
	if info, err := a.client.Client().Info(ctx, "memory").Result(); err == nil {
		memory = parseUsedMemory(info)
	}

	hits := a.hits.Load()
	misses := a.misses.Load()
	hitRate := 0.0
	if hits+misses > 0 {
		hitRate = math.Round(float64(hits)/float64(hits+misses)*10000) / 100
	}

	return providers.CacheStats{
		Size:        size,
		HitRate:     hitRate,
		MemoryUsage: memory,
	}, nil
}

// parseUsedMemory extracts used_memory_human from a redis INFO memory block
func parseUsedMemory(info string) string {
	for _, line := range strings.Split(info, "\r\n") {
		if v, ok := strings.CutPrefix(line, "used_memory_human:"); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
