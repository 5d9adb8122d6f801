package feature

import (
	"strconv"
	"sync"

	gocache "github.com/patrickmn/go-cache"
)

// Cache keeps feature rows keyed by record id for the lifetime of a review.
// It is bound to one corpus fingerprint and flushes itself when bound to a
// different corpus; entries never expire otherwise.
type Cache struct {
	mu          sync.Mutex
	items       *gocache.Cache
	fingerprint string
	extractor   string
	dim         int
}

// NewCache creates an empty feature cache.
func NewCache() *Cache {
	return &Cache{items: gocache.New(gocache.NoExpiration, 0)}
}

// Bind ties the cache to a corpus and extractor, flushing it on change.
func (c *Cache) Bind(fingerprint, extractor string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fingerprint == fingerprint && c.extractor == extractor {
		return
	}
	c.items.Flush()
	c.fingerprint = fingerprint
	c.extractor = extractor
	c.dim = 0
}

// Store saves the rows of m under ids; ids[i] owns m.Rows[i].
func (c *Cache) Store(ids []int, m Matrix) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dim = m.Dim
	for i, id := range ids {
		c.items.Set(strconv.Itoa(id), m.Rows[i], gocache.NoExpiration)
	}
}

// Get returns the cached row of id.
func (c *Cache) Get(id int) (Vector, bool) {
	v, ok := c.items.Get(strconv.Itoa(id))
	if !ok {
		return Vector{}, false
	}
	return v.(Vector), true
}

// Lookup returns the cached rows for ids, in order, together with the ids
// that are missing. When any id is missing the returned matrix is partial.
func (c *Cache) Lookup(ids []int) (Matrix, []int) {
	c.mu.Lock()
	dim := c.dim
	c.mu.Unlock()

	m := Matrix{Rows: make([]Vector, len(ids)), Dim: dim}
	var missing []int
	for i, id := range ids {
		v, ok := c.Get(id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		m.Rows[i] = v
	}
	return m, missing
}

// Len returns the number of cached rows.
func (c *Cache) Len() int {
	return c.items.ItemCount()
}
