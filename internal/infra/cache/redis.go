package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache реализует domain.Cache через Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedis создаёт кэш.
func NewRedis(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Once выполняет функцию, если ключ ещё не задан.
func (c *RedisCache) Once(key string, ttl time.Duration, fn func() error) error {
	ok, err := c.Acquire(key, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := fn(); err != nil {
		_ = c.client.Del(context.Background(), key).Err()
		return err
	}
	return nil
}

// Acquire атомарно захватывает ключ на ttl.
func (c *RedisCache) Acquire(key string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(context.Background(), key, "1", ttl).Result()
}
