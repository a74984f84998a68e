package template

import (
	"os"
	"sync"
	"sync/atomic"
)

// Cache memoizes decoded templates by name. Entries are never evicted and a
// name is decoded at most once; failed decodes are not stored, so a later
// call may succeed.
type Cache struct {
	decoder Decoder
	mu      sync.RWMutex
	entries map[string]*Template
	hits    atomic.Uint64
	misses  atomic.Uint64
}

// CacheStats reports cache usage.
type CacheStats struct {
	Entries int
	Hits    uint64
	Misses  uint64
}

// NewCache returns an empty cache using d, or StdDecoder when d is nil.
func NewCache(d Decoder) *Cache {
	if d == nil {
		d = StdDecoder
	}
	return &Cache{decoder: d, entries: make(map[string]*Template)}
}

// GetOrDecode returns the template cached under name, decoding raw on the
// first call. Concurrent first calls for the same name decode once.
func (c *Cache) GetOrDecode(name string, raw []byte) (*Template, error) {
	if t := c.lookup(name); t != nil {
		return t, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if t := c.entries[name]; t != nil {
		c.hits.Add(1)
		return t, nil
	}
	c.misses.Add(1)
	t, err := decode(c.decoder, name, raw)
	if err != nil {
		return nil, err
	}
	c.entries[name] = t
	return t, nil
}

// GetOrLoad is GetOrDecode with the bytes read from path, keyed by name.
// The file is only read on a miss.
func (c *Cache) GetOrLoad(name, path string) (*Template, error) {
	if t := c.lookup(name); t != nil {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return c.GetOrDecode(name, raw)
}

func (c *Cache) lookup(name string) *Template {
	c.mu.RLock()
	t := c.entries[name]
	c.mu.RUnlock()
	if t != nil {
		c.hits.Add(1)
	}
	return t
}

// Len returns the number of cached templates.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) Stats() CacheStats {
	return CacheStats{Entries: c.Len(), Hits: c.hits.Load(), Misses: c.misses.Load()}
}
