// Package cache implements the in-process read-through response cache:
// TTL-bounded entries keyed by entity type and query shape, with prefix
// invalidation triggered by lifecycle mutations.
//
// The cache is constructed once per process and injected; tests build their
// own isolated instances.
package cache

import (
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type entry struct {
	value     []byte
	expiresAt time.Time // zero => no expiry
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Stats is a snapshot of cache counters, exposed over the cache-control API.
type Stats struct {
	Entries     int     `json:"entries"`
	Hits        uint64  `json:"hits"`
	Misses      uint64  `json:"misses"`
	HitRate     float64 `json:"hit_rate"`
	Evictions   uint64  `json:"evictions"`
	Expirations uint64  `json:"expirations"`
}

// Cache is a mutex-protected TTL map. Expiry is lazy: entries are checked on
// read and dropped on invalidation; there is no background sweeper.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry

	hits        uint64
	misses      uint64
	evictions   uint64
	expirations uint64

	now func() time.Time // test seam
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the raw cached value for key, or found=false on a miss or an
// expired entry. Never touches the backing store.
func (c *Cache) Get(key string) ([]byte, bool) {
	now := c.now()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && !e.expired(now) {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return e.value, true
	}

	c.mu.Lock()
	c.misses++
	if ok {
		// Expired entry still present: drop it now.
		if cur, still := c.entries[key]; still && cur.expired(now) {
			delete(c.entries, key)
			c.expirations++
		}
	}
	c.mu.Unlock()
	return nil, false
}

// Set stores value under key with the given TTL. A zero or negative TTL
// means caching is disabled for this key; the call is a no-op.
func (c *Cache) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// GetJSON unmarshals the cached value for key into dest.
func (c *Cache) GetJSON(key string, dest any) bool {
	raw, ok := c.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// A corrupt entry behaves like a miss and is evicted.
		c.Invalidate(key)
		return false
	}
	return true
}

// SetJSON marshals v and stores it under key. Marshal failures are silently
// skipped: the cache only ever holds successful responses.
func (c *Cache) SetJSON(key string, v any, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.Set(key, raw, ttl)
}

// Invalidate removes one exact key and returns the number of entries evicted
// (0 or 1).
func (c *Cache) Invalidate(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return 0
	}
	delete(c.entries, key)
	c.evictions++
	return 1
}

// InvalidatePrefix removes every entry whose key starts with prefix and
// returns the number evicted. Used for namespace invalidation, e.g. all
// "book:" keys after an availability change.
func (c *Cache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			n++
		}
	}
	c.evictions += uint64(n)
	return n
}

// Clear drops every entry.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]entry)
	c.evictions += uint64(n)
	return n
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Stats{
		Entries:     len(c.entries),
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s
}
