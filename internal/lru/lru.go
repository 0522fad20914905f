// Package lru provides a capacity-bounded cache with an eviction callback.
//
// The cache is not internally synchronized: each instance assumes a single
// cooperative owner, matching how it is used to bound transformed-content
// memory per content kind.
package lru

import (
	"container/list"
	"errors"
)

// ErrInvalidCapacity is returned when a cache is constructed with a
// non-positive capacity.
var ErrInvalidCapacity = errors.New("lru: capacity must be greater than 0")

// EvictFunc is called synchronously for an entry before it is removed,
// whether by capacity pressure, replacement, Delete or Clear.
type EvictFunc[K comparable, V any] func(key K, value V)

type entry[K comparable, V any] struct {
	key   K
	value V
}

// Cache is an LRU mapping from K to V. The zero value is not usable;
// construct with New.
type Cache[K comparable, V any] struct {
	capacity int
	onEvict  EvictFunc[K, V]
	items    map[K]*list.Element
	order    *list.List // front = least recently used, back = most recent
}

// Entry is a key/value pair as returned by Entries.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// New creates a cache holding at most capacity entries. onEvict may be nil.
func New[K comparable, V any](capacity int, onEvict EvictFunc[K, V]) (*Cache[K, V], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Cache[K, V]{
		capacity: capacity,
		onEvict:  onEvict,
		items:    make(map[K]*list.Element, capacity),
		order:    list.New(),
	}, nil
}

// Get returns the value for key and promotes it to most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	el, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToBack(el)
	return el.Value.(*entry[K, V]).value, true
}

// Set inserts or replaces the value for key as the most recently used
// entry. Replacing fires the eviction callback for the old value first;
// inserting past capacity evicts exactly one least-recently-used entry.
func (c *Cache[K, V]) Set(key K, value V) {
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[K, V])
		if c.onEvict != nil {
			c.onEvict(e.key, e.value)
		}
		e.value = value
		c.order.MoveToBack(el)
		return
	}
	if c.order.Len() == c.capacity {
		c.evictOldest()
	}
	c.items[key] = c.order.PushBack(&entry[K, V]{key: key, value: value})
}

// Has reports whether key is present without affecting recency.
func (c *Cache[K, V]) Has(key K) bool {
	_, ok := c.items[key]
	return ok
}

// Delete removes key, firing the eviction callback if it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	el, ok := c.items[key]
	if !ok {
		return false
	}
	e := el.Value.(*entry[K, V])
	if c.onEvict != nil {
		c.onEvict(e.key, e.value)
	}
	c.order.Remove(el)
	delete(c.items, key)
	return true
}

// Clear fires the eviction callback for every entry and empties the cache.
func (c *Cache[K, V]) Clear() {
	if c.onEvict != nil {
		for _, el := range c.items {
			e := el.Value.(*entry[K, V])
			c.onEvict(e.key, e.value)
		}
	}
	c.items = make(map[K]*list.Element, c.capacity)
	c.order.Init()
}

// Len returns the number of entries currently cached.
func (c *Cache[K, V]) Len() int {
	return c.order.Len()
}

// Entries returns all entries, most recently used first.
func (c *Cache[K, V]) Entries() []Entry[K, V] {
	out := make([]Entry[K, V], 0, c.order.Len())
	for el := c.order.Back(); el != nil; el = el.Prev() {
		e := el.Value.(*entry[K, V])
		out = append(out, Entry[K, V]{Key: e.key, Value: e.value})
	}
	return out
}

func (c *Cache[K, V]) evictOldest() {
	el := c.order.Front()
	if el == nil {
		return
	}
	e := el.Value.(*entry[K, V])
	if c.onEvict != nil {
		c.onEvict(e.key, e.value)
	}
	c.order.Remove(el)
	delete(c.items, e.key)
}
