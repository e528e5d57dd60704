// Package rescache implements the bounded search-result cache.
//
// Entries map a normalized query to the ordered ids it produced. Eviction
// is insertion ordered: when the cache exceeds its capacity the oldest
// inserted queries go first, regardless of how recently they were read.
package rescache

import (
	"container/list"
	"slices"
	"sync"
	"sync/atomic"
)

// DefaultMaxEntries is the default capacity.
const DefaultMaxEntries = 100

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	max     int
	entries map[string]*list.Element
	order   *list.List // front = oldest insertion

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type entry struct {
	query string
	ids   []string
}

// New creates a cache holding at most maxEntries queries.
// maxEntries <= 0 uses DefaultMaxEntries.
func New(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{
		max:     maxEntries,
		entries: make(map[string]*list.Element, maxEntries),
		order:   list.New(),
	}
}

// Get returns the ordered ids cached for the normalized query.
// The returned slice must be treated as read-only.
func (c *Cache) Get(query string) ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[query]; ok {
		c.hits.Add(1)
		return el.Value.(*entry).ids, true
	}
	c.misses.Add(1)
	return nil, false
}

// Put stores ids for query. Re-putting an existing query replaces its ids
// but keeps its original insertion position.
func (c *Cache) Put(query string, ids []string) {
	ids = slices.Clone(ids)

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[query]; ok {
		el.Value.(*entry).ids = ids
		return
	}

	c.entries[query] = c.order.PushBack(&entry{query: query, ids: ids})
	for c.order.Len() > c.max {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).query)
		c.evictions.Add(1)
	}
}

// Clear drops all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element, c.max)
	c.order.Init()
}

// Len returns the number of cached queries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the configured maximum number of entries.
func (c *Cache) Capacity() int { return c.max }

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses, evictions int64) {
	return c.hits.Load(), c.misses.Load(), c.evictions.Load()
}
