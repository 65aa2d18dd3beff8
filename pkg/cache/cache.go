// Package cache wraps ccache for read-mostly lookups such as the feature and property type
// catalogs.
package cache

import (
	"time"

	"github.com/karlseguin/ccache/v3"

	"listings_backend/pkg/logger"
)

// Cache is a typed, size-bounded in-process cache with a fixed TTL.
type Cache[T any] struct {
	store *ccache.Cache[T]
	ttl   time.Duration
	name  string
}

func New[T any](name string, maxSize int64, ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		store: ccache.New(ccache.Configure[T]().MaxSize(maxSize)),
		ttl:   ttl,
		name:  name,
	}
}

// Get returns the cached value for key, loading and storing it on a miss or expiry.
// Load errors are returned and nothing is cached.
func (c *Cache[T]) Get(key string, load func() (T, error)) (T, error) {
	if item := c.store.Get(key); item != nil && !item.Expired() {
		return item.Value(), nil
	}

	value, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	c.store.Set(key, value, c.ttl)
	logger.Default().WithField("cache", c.name).Debugf("cache set: key=%s", key)
	return value, nil
}

// Invalidate drops every key. Catalog writes are rare enough that a full flush is fine.
func (c *Cache[T]) Invalidate() {
	c.store.Clear()
}

func (c *Cache[T]) Delete(key string) {
	c.store.Delete(key)
}

func (c *Cache[T]) Stop() {
	c.store.Stop()
}
