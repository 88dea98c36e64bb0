package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "reqguard:latest:"

// RedisVersionCache shares resolved versions between function instances.
type RedisVersionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisVersionCache wraps an existing client.
func NewRedisVersionCache(client *redis.Client, ttl time.Duration) *RedisVersionCache {
	return &RedisVersionCache{client: client, ttl: ttl}
}

func (it *RedisVersionCache) Get(ctx context.Context, name string) (string, bool, error) {
	version, err := it.client.Get(ctx, keyPrefix+name).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cached version of %s: %w", name, err)
	}
	return version, true, nil
}

func (it *RedisVersionCache) Set(ctx context.Context, name, version string) error {
	if err := it.client.Set(ctx, keyPrefix+name, version, it.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache version of %s: %w", name, err)
	}
	return nil
}
