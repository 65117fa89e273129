package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

var _ Cache = (*RedisCache)(nil)

type RedisCache struct {
	redisClient *redis.Client
	keyPrefix   string
}

func NewRedisCache(redisClient *redis.Client, keyPrefix string) *RedisCache {
	return &RedisCache{
		redisClient: redisClient,
		keyPrefix:   keyPrefix,
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := c.redisClient.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("redis get [%s]: %w", key, err)
	}
	return value, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.redisClient.Set(ctx, c.keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set [%s]: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.redisClient.Del(ctx, c.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del [%s]: %w", key, err)
	}
	return nil
}
