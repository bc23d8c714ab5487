package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type CacheItem[V any] struct {
	Data      V
	ExpiresAt time.Time
}

// TTLCache is a size-bounded LRU whose entries also expire after a fixed TTL.
type TTLCache[V any] struct {
	lruCache *lru.Cache[string, CacheItem[V]]
	ttl      time.Duration
}

// NewTTLCache creates a cache holding at most size entries.
func NewTTLCache[V any](size int, ttl time.Duration) (*TTLCache[V], error) {
	if size <= 0 {
		size = 500
	}
	l, err := lru.New[string, CacheItem[V]](size)
	if err != nil {
		return nil, err
	}
	return &TTLCache[V]{lruCache: l, ttl: ttl}, nil
}

func (c *TTLCache[V]) Set(key string, data V) {
	c.lruCache.Add(key, CacheItem[V]{
		Data:      data,
		ExpiresAt: time.Now().Add(c.ttl),
	})
}

// Get returns the cached value, or false if it is missing or expired.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	val, ok := c.lruCache.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if time.Now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		var zero V
		return zero, false
	}
	return val.Data, true
}

func (c *TTLCache[V]) Delete(key string) {
	c.lruCache.Remove(key)
}

func (c *TTLCache[V]) Purge() {
	c.lruCache.Purge()
}

// Len reports the number of entries, expired ones included.
func (c *TTLCache[V]) Len() int {
	return c.lruCache.Len()
}
