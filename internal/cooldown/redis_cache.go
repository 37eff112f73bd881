package cooldown

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "cooldown:"

// RedisCache is a Cache shared across processes through Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps the given client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

var _ Cache = (*RedisCache)(nil)

// Arm sets the flag with a server-side TTL.
func (c *RedisCache) Arm(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Set(ctx, keyPrefix+key, "1", ttl).Err()
}

// Active reports whether the flag is still present.
func (c *RedisCache) Active(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, keyPrefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
