package repository

import (
	"context"
	"time"
)

// layeredCache reads through front into back and writes to both.
type layeredCache struct {
	front CacheRepository
	back  CacheRepository
	// ttl applied when promoting a back entry into front
	promoteTTL time.Duration
}

// NewLayeredCache combines a fast front cache with a persistent back cache.
// Hits in back are copied into front with promoteTTL.
func NewLayeredCache(front, back CacheRepository, promoteTTL time.Duration) CacheRepository {
	return &layeredCache{front: front, back: back, promoteTTL: promoteTTL}
}

func (c *layeredCache) Get(ctx context.Context, namespace, key string) ([]byte, bool, error) {
	if value, ok, err := c.front.Get(ctx, namespace, key); err != nil || ok {
		return value, ok, err
	}
	value, ok, err := c.back.Get(ctx, namespace, key)
	if err != nil || !ok {
		return nil, false, err
	}
	if err := c.front.Set(ctx, namespace, key, value, c.promoteTTL); err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (c *layeredCache) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	if err := c.back.Set(ctx, namespace, key, value, ttl); err != nil {
		return err
	}
	return c.front.Set(ctx, namespace, key, value, ttl)
}

func (c *layeredCache) Purge(ctx context.Context, namespace string) error {
	if err := c.back.Purge(ctx, namespace); err != nil {
		return err
	}
	return c.front.Purge(ctx, namespace)
}
