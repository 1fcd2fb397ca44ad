package cache

import "sync"

// Cache is a thread-safe LRU map with a soft limit. When an insert
// takes it over the limit, the least recently used entry is evicted.
//
// Cache must not be copied after creation.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[V]
	limit   int
	tick    uint64

	hits, misses, evictions uint64
}

type entry[V any] struct {
	value V
	atime uint64
}

// New creates a cache holding at most limit entries. A limit of 0
// means unlimited.
func New[K comparable, V any](limit int) *Cache[K, V] {
	return &Cache[K, V]{entries: make(map[K]*entry[V]), limit: max(limit, 0)}
}

// Get returns the value stored under key.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.tick++
	e.atime = c.tick
	return e.value, true
}

// Set stores value under key.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value)
}

// GetOrCreate returns the value under key, calling create on a miss.
// create runs with the cache locked, so concurrent callers never build
// the same value twice. Errors are returned and not cached.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		c.hits++
		c.tick++
		e.atime = c.tick
		return e.value, nil
	}
	c.misses++
	v, err := create()
	if err != nil {
		var zero V
		return zero, err
	}
	c.setLocked(key, v)
	return v, nil
}

func (c *Cache[K, V]) setLocked(key K, value V) {
	c.tick++
	if e, ok := c.entries[key]; ok {
		e.value, e.atime = value, c.tick
		return
	}
	c.entries[key] = &entry[V]{value: value, atime: c.tick}
	if c.limit > 0 && len(c.entries) > c.limit {
		c.evictLocked()
	}
}

// evictLocked drops the least recently used entry.
func (c *Cache[K, V]) evictLocked() {
	var (
		oldest K
		atime  uint64
		found  bool
	)
	for k, e := range c.entries {
		if !found || e.atime < atime {
			oldest, atime, found = k, e.atime, true
		}
	}
	if found {
		delete(c.entries, oldest)
		c.evictions++
	}
}

// Delete removes key and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok
}

// Clear removes every entry. Counters are kept.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats is a snapshot of the cache counters.
type Stats struct {
	Len       int
	Limit     int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns hits over lookups, or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	n := s.Hits + s.Misses
	if n == 0 {
		return 0
	}
	return float64(s.Hits) / float64(n)
}

// Stats returns the current counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Len:       len(c.entries),
		Limit:     c.limit,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
