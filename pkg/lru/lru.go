// Package lru provides a small fixed-capacity cache with
// least-recently-used eviction.
package lru

import (
	"container/list"
	"sync"
)

// Cache maps K to V and holds at most capacity entries. Reads and writes
// refresh an entry's recency; the stalest entry is dropped when a new one
// would overflow the capacity. Safe for concurrent use.
type Cache[K comparable, V any] struct {
	capacity int
	mu       sync.Mutex
	order    *list.List
	items    map[K]*list.Element
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// New returns a cache holding at most capacity entries. A capacity at or
// below zero falls back to 1000.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Cache[K, V]{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[K]*list.Element),
	}
}

// Get returns the cached value and refreshes its recency.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		return elem.Value.(*entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Put stores the value, evicting the least recently used entry when the
// cache is full.
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*entry[K, V]).value = value
		return
	}

	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, value: value})
	c.evict()
}

// GetOrCreate returns the cached value, building and storing it with
// factory on a miss. The factory runs under the cache lock, keep it fast.
func (c *Cache[K, V]) GetOrCreate(key K, factory func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		return elem.Value.(*entry[K, V]).value
	}

	value := factory()
	c.items[key] = c.order.PushFront(&entry[K, V]{key: key, value: value})
	c.evict()
	return value
}

func (c *Cache[K, V]) evict() {
	for c.order.Len() > c.capacity {
		elem := c.order.Back()
		if elem == nil {
			return
		}
		c.order.Remove(elem)
		delete(c.items, elem.Value.(*entry[K, V]).key)
	}
}

func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache[K, V]) Capacity() int { return c.capacity }

// Clear drops every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[K]*list.Element)
}
