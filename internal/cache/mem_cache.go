package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coocood/freecache"
)

var _ Cache = (*MemCache)(nil)

// MemCache keeps slots in process memory. freecache works with whole
// seconds, so ttls are rounded up to at least one second.
type MemCache struct {
	cache *freecache.Cache
}

func NewMemCache(sizeBytes int) *MemCache {
	return &MemCache{
		cache: freecache.NewCache(sizeBytes),
	}
}

func (c *MemCache) Get(_ context.Context, key string) ([]byte, error) {
	value, err := c.cache.Get([]byte(key))
	if err != nil {
		if errors.Is(err, freecache.ErrNotFound) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("freecache get [%s]: %w", key, err)
	}
	return value, nil
}

func (c *MemCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	expireSeconds := 0
	if ttl > 0 {
		expireSeconds = int((ttl + time.Second - 1) / time.Second)
	}
	if err := c.cache.Set([]byte(key), value, expireSeconds); err != nil {
		return fmt.Errorf("freecache set [%s]: %w", key, err)
	}
	return nil
}

func (c *MemCache) Delete(_ context.Context, key string) error {
	c.cache.Del([]byte(key))
	return nil
}
