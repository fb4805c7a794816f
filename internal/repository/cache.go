package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// CacheRepository stores encoded values by namespace and key.
// A zero ttl stores the value without expiry. Implementations are safe for concurrent use.
type CacheRepository interface {
	Get(ctx context.Context, namespace, key string) ([]byte, bool, error)
	Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error
	Purge(ctx context.Context, namespace string) error
}

// GetOrCompute returns the cached value under namespace and key, or computes,
// stores and returns it. Errors from compute are returned and nothing is stored.
// Concurrent callers may compute the same key more than once.
func GetOrCompute[T any](
	ctx context.Context,
	cache CacheRepository,
	namespace, key string,
	ttl time.Duration,
	compute func(ctx context.Context) (T, error),
) (T, error) {
	var zero T
	if cache != nil {
		data, ok, err := cache.Get(ctx, namespace, key)
		if err != nil {
			return zero, fmt.Errorf("failed to read cache %s: %w", namespace, err)
		}
		if ok {
			var cached T
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}
	value, err := compute(ctx)
	if err != nil {
		return zero, err
	}
	if cache == nil {
		return value, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return zero, fmt.Errorf("failed to encode cache value: %w", err)
	}
	if err := cache.Set(ctx, namespace, key, data, ttl); err != nil {
		return zero, fmt.Errorf("failed to write cache %s: %w", namespace, err)
	}
	return value, nil
}

func expiryFor(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func expired(now, expiresAt time.Time) bool {
	return !expiresAt.IsZero() && !now.Before(expiresAt)
}
