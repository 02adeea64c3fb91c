package ranking

import (
	"sync"

	"github.com/okian/followrank/internal/domain/model"
)

// Default cache configuration constants.
const (
	defaultCacheSize = 1024
)

// CacheKey identifies one recomputation input.
type CacheKey struct {
	SnapshotVersion string
	Category        string
	Page            int
	PageSize        int
}

// Cache memoizes bundles by their full input key. It is a pure memoization:
// a hit returns exactly what Assemble would return for the same key.
// Entries are evicted oldest first once the size limit is reached.
type Cache struct {
	mu      sync.Mutex
	entries map[CacheKey]Bundle
	order   []CacheKey
	limit   int

	hits    uint64
	misses  uint64
	observe func(hit bool)
}

// CacheOption applies a configuration option to the Cache.
type CacheOption func(*Cache)

// WithCacheSize bounds the number of cached bundles.
func WithCacheSize(size int) CacheOption {
	return func(c *Cache) {
		if size > 0 {
			c.limit = size
		}
	}
}

// WithCacheObserver registers fn to be told about every lookup.
func WithCacheObserver(fn func(hit bool)) CacheOption {
	return func(c *Cache) {
		c.observe = fn
	}
}

// NewCache creates an empty cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{limit: defaultCacheSize}
	for _, opt := range opts {
		opt(c)
	}
	c.entries = make(map[CacheKey]Bundle, c.limit)
	return c
}

// Get returns a copy of the cached bundle for key.
func (c *Cache) Get(key CacheKey) (Bundle, bool) {
	c.mu.Lock()
	b, ok := c.entries[key]
	if ok {
		c.hits++
		b = b.Clone()
	} else {
		c.misses++
	}
	c.mu.Unlock()

	if c.observe != nil {
		c.observe(ok)
	}
	return b, ok
}

// Put stores a copy of b under key.
func (c *Cache) Put(key CacheKey, b Bundle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = b.Clone()
		return
	}
	if len(c.order) >= c.limit {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = b.Clone()
	c.order = append(c.order, key)
}

// Reset drops every entry, typically after a snapshot replacement.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[CacheKey]Bundle, c.limit)
	c.order = nil
}

// Len returns the number of cached bundles.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns hit and miss counters.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// AssembleCached is Assemble backed by c. A nil cache disables memoization.
func AssembleCached(c *Cache, snapshot *model.Snapshot, state ViewState, pageSize int) (Bundle, error) {
	if err := ValidatePageSize(pageSize); err != nil {
		return Bundle{}, err
	}
	return assembleCached(c, snapshot, state, pageSize), nil
}

// assembleCached assumes pageSize > 0.
func assembleCached(c *Cache, snapshot *model.Snapshot, state ViewState, pageSize int) Bundle {
	if snapshot == nil {
		snapshot = model.EmptySnapshot()
	}
	state = state.normalized()
	if c == nil {
		return assemble(snapshot, state, pageSize)
	}

	key := CacheKey{
		SnapshotVersion: snapshot.Version(),
		Category:        state.Category,
		Page:            state.Page,
		PageSize:        pageSize,
	}
	if b, ok := c.Get(key); ok {
		return b
	}
	b := assemble(snapshot, state, pageSize)
	c.Put(key, b)
	return b
}
