package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryCacheSize bounds the memory cache when no size is configured.
const DefaultMemoryCacheSize = 1000

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

type memoryCache struct {
	entries *lru.Cache[string, memoryEntry]
	now     func() time.Time
}

// NewMemoryCache creates an LRU bounded cache holding at most size entries.
func NewMemoryCache(size int) (CacheRepository, error) {
	if size <= 0 {
		size = DefaultMemoryCacheSize
	}
	entries, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	return &memoryCache{entries: entries, now: time.Now}, nil
}

func (c *memoryCache) Get(_ context.Context, namespace, key string) ([]byte, bool, error) {
	id := memoryKey(namespace, key)
	entry, ok := c.entries.Get(id)
	if !ok {
		return nil, false, nil
	}
	if expired(c.now(), entry.expiresAt) {
		c.entries.Remove(id)
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (c *memoryCache) Set(_ context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	c.entries.Add(memoryKey(namespace, key), memoryEntry{value: stored, expiresAt: expiryFor(c.now(), ttl)})
	return nil
}

func (c *memoryCache) Purge(_ context.Context, namespace string) error {
	prefix := namespace + "\x00"
	for _, id := range c.entries.Keys() {
		if strings.HasPrefix(id, prefix) {
			c.entries.Remove(id)
		}
	}
	return nil
}

func memoryKey(namespace, key string) string {
	return namespace + "\x00" + key
}
