package weather

import (
	"container/list"
	"sync"
	"time"
)

// DefaultTTL is the nominal lifetime of a live cache entry.
const DefaultTTL = 30 * time.Minute

// DefaultStalenessMultiplier bounds how far past TTL an expired entry stays
// usable as a degraded fallback.
const DefaultStalenessMultiplier = 3

type cacheEntry struct {
	key       string
	snapshot  Snapshot
	expiresAt time.Time
	elem      *list.Element
}

// Cache is a TTL cache keyed by POI id that shields the upstream provider
// from redundant calls. Entries past TTL are invisible to Get but remain
// reachable through GetStale until the staleness window closes; when the
// entry count exceeds the ceiling, the least recently used entries are
// evicted first.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	lru        *list.List // front = most recently used
	ttl        time.Duration
	staleAfter time.Duration
	maxEntries int

	now func() time.Time // injectable clock for tests
}

// NewCache creates a Cache. Non-positive arguments fall back to defaults;
// stalenessMultiplier scales the TTL into the usability window for GetStale.
func NewCache(ttl time.Duration, stalenessMultiplier int, maxEntries int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if stalenessMultiplier <= 0 {
		stalenessMultiplier = DefaultStalenessMultiplier
	}
	if maxEntries <= 0 {
		maxEntries = 2048
	}
	return &Cache{
		entries:    make(map[string]*cacheEntry),
		lru:        list.New(),
		ttl:        ttl,
		staleAfter: time.Duration(stalenessMultiplier) * ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// TTL returns the configured nominal TTL.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the live (non-expired) snapshot for key, if present.
func (c *Cache) Get(key string) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || c.now().After(e.expiresAt) {
		return Snapshot{}, false
	}
	c.lru.MoveToFront(e.elem)
	return e.snapshot, true
}

// GetStale returns an expired snapshot still inside the staleness window,
// marked SourceStale. A still-live entry comes back unchanged. Entries beyond
// the window are not retrievable: showing them would be misleading, so the
// caller omits the POI instead.
func (c *Cache) GetStale(key string) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Snapshot{}, false
	}
	now := c.now()
	if now.After(e.expiresAt.Add(c.staleAfter - c.ttl)) {
		return Snapshot{}, false
	}
	c.lru.MoveToFront(e.elem)
	s := e.snapshot
	if now.After(e.expiresAt) {
		s.Source = SourceStale
	}
	return s, true
}

// Put stores or refreshes the snapshot for key with a fresh TTL. ObservedAt
// stays monotone per key: a refresh carrying an older observation than the
// stored one keeps the stored observation time.
func (c *Cache) Put(key string, s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if e, ok := c.entries[key]; ok {
		if s.ObservedAt.Before(e.snapshot.ObservedAt) {
			s.ObservedAt = e.snapshot.ObservedAt
		}
		e.snapshot = s
		e.expiresAt = now.Add(c.ttl)
		c.lru.MoveToFront(e.elem)
		return
	}

	e := &cacheEntry{key: key, snapshot: s, expiresAt: now.Add(c.ttl)}
	e.elem = c.lru.PushFront(e)
	c.entries[key] = e

	for len(c.entries) > c.maxEntries {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		victim := oldest.Value.(*cacheEntry)
		c.lru.Remove(oldest)
		delete(c.entries, victim.key)
	}
}

// Len returns the number of entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// SweepExpired removes entries whose staleness window has closed and returns
// how many were dropped. Run periodically by the janitor so unqueried keys
// do not linger until LRU pressure pushes them out.
func (c *Cache) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt.Add(c.staleAfter - c.ttl)) {
			c.lru.Remove(e.elem)
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}
