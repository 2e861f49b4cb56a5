// Package cache implements the TTL cache that sits between the dashboard
// aggregator and the provider adapters. Entries past their TTL are kept
// and served as a fallback when a refresh fails, so a flaky upstream
// degrades to slightly old data instead of an empty dashboard.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Entry holds a cached value with its insertion time and TTL.
type Entry struct {
	Value      any
	InsertedAt time.Time
	TTL        time.Duration
}

// Fresh reports whether the entry is still within its TTL at now.
func (e Entry) Fresh(now time.Time) bool {
	return now.Sub(e.InsertedAt) < e.TTL
}

type lruItem struct {
	key   string
	entry Entry
}

// Cache is a thread-safe keyed store shared process-wide across requests.
// Keys encode only the provider and its normalized arguments, so identical
// argument sets from different users reuse one fetch. Stale entries are
// readable until evicted by the LRU cap; only a successful refresh
// overwrites them.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	ll         *list.List // front = most recently used
	maxEntries int        // 0 means unbounded

	group singleflight.Group

	now func() time.Time // test hook
}

// New creates a cache. maxEntries bounds the number of retained entries
// (0 = unbounded); eviction is least-recently-used.
func New(maxEntries int) *Cache {
	return &Cache{
		entries:    make(map[string]*list.Element),
		ll:         list.New(),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Lookup returns the entry for key, whether it is fresh, and whether it
// exists at all. A stale entry is returned with fresh=false.
func (c *Cache) Lookup(key string) (Entry, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return Entry{}, false, false
	}
	c.ll.MoveToFront(el)
	entry := el.Value.(*lruItem).entry
	return entry, entry.Fresh(c.now()), true
}

// Put stores value under key with the given TTL, overwriting any
// previous entry and refreshing its insertion time.
func (c *Cache) Put(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := Entry{Value: value, InsertedAt: c.now(), TTL: ttl}
	if el, ok := c.entries[key]; ok {
		el.Value.(*lruItem).entry = entry
		c.ll.MoveToFront(el)
		return
	}
	c.entries[key] = c.ll.PushFront(&lruItem{key: key, entry: entry})

	if c.maxEntries > 0 && c.ll.Len() > c.maxEntries {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.entries, oldest.Value.(*lruItem).key)
		}
	}
}

// Len returns the number of retained entries, stale ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Flush removes all entries.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.ll.Init()
}

// GetOrFetch returns the cached value for key if it is fresh; otherwise it
// invokes fetch exactly once across concurrent callers of the same key.
// A successful fetch overwrites the entry and is returned. A failed fetch
// never erases an existing entry: if a stale value exists it is returned
// with a nil error, and only when there is nothing to fall back on does
// the fetch error surface to the caller.
func GetOrFetch[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if entry, fresh, ok := c.Lookup(key); ok && fresh {
		return entry.Value.(T), nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Another caller may have refreshed the entry while this one
		// waited on the flight.
		if entry, fresh, ok := c.Lookup(key); ok && fresh {
			return entry.Value.(T), nil
		}

		value, err := fetch(ctx)
		if err != nil {
			if entry, _, ok := c.Lookup(key); ok {
				return entry.Value.(T), nil
			}
			return nil, err
		}
		c.Put(key, value, ttl)
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
