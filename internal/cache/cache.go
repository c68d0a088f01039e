package cache

import (
	"sync"
	"time"
)

// item is a cached value with its expiry
type item[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is an in-memory TTL cache for API responses
type Cache[V any] struct {
	items map[string]item[V]
	ttl   time.Duration
	now   func() time.Time
	mutex sync.RWMutex
}

// New creates a cache whose entries live for ttl. A non-positive ttl disables caching.
func New[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		items: make(map[string]item[V]),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get retrieves an unexpired value
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mutex.RLock()
	it, exists := c.items[key]
	c.mutex.RUnlock()

	var zero V
	if !exists {
		return zero, false
	}

	if !c.now().Before(it.expiresAt) {
		c.mutex.Lock()
		// another writer may have refreshed the entry meanwhile
		if cur, ok := c.items[key]; ok && !c.now().Before(cur.expiresAt) {
			delete(c.items, key)
		}
		c.mutex.Unlock()
		return zero, false
	}

	return it.value, true
}

// Set stores a value with the cache TTL
func (c *Cache[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with an explicit TTL
func (c *Cache[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[key] = item[V]{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}

// Delete removes an item from the cache
func (c *Cache[V]) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.items, key)
}

// Clear removes all items from the cache
func (c *Cache[V]) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items = make(map[string]item[V])
}

// Len returns the number of stored entries, expired ones included
func (c *Cache[V]) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}
