// Package cache provides small thread-safe lookup caches for hot paths.
package cache

import "sync"

// Cache is a thread-safe map used to avoid repeated expensive lookups.
// Latency in these calls is critical; the substep loop queries on every
// wheel update.
type Cache[K comparable, V any] struct {
	m     sync.Mutex
	items map[K]V
}

func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{items: make(map[K]V)}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *Cache[K, V]) Put(key K, value V) {
	c.m.Lock()
	defer c.m.Unlock()
	c.items[key] = value
}

func (c *Cache[K, V]) Len() int {
	c.m.Lock()
	defer c.m.Unlock()
	return len(c.items)
}

func (c *Cache[K, V]) Reset() {
	c.m.Lock()
	defer c.m.Unlock()
	c.items = make(map[K]V)
}

// SafeCounter is a thread-safe counter
type SafeCounter struct {
	mu sync.Mutex
	v  int
}

func (c *SafeCounter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *SafeCounter) Set(v int) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *SafeCounter) Inc() {
	c.mu.Lock()
	c.v++
	c.mu.Unlock()
}
