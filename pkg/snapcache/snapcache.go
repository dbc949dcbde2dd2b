// Package snapcache holds the most recent upstream payload per kind and
// game. Entries are replaced wholesale on refresh and never merged;
// staleness is decided by the reader against its own TTL so the cache
// itself needs no timers.
package snapcache

import (
	"sync"
	"time"

	"github.com/sw33tLie/liquifeed/pkg/records"
)

// Key addresses one snapshot slot.
type Key struct {
	Kind records.Kind
	Game string
}

// Entry is a cached payload plus the time it was captured.
type Entry struct {
	Payload    *records.Payload
	CapturedAt time.Time
}

// Fresh reports whether the entry is younger than ttl at the given time.
// An entry aged exactly ttl is stale. A non-positive ttl disables the
// cache entirely.
func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(e.CapturedAt) < ttl
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]Entry
}

func New() *Cache {
	return &Cache{entries: make(map[Key]Entry)}
}

// Get returns the entry for k, if any. Freshness is the caller's call.
func (c *Cache) Get(k Key) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[k]
	return e, ok
}

// Put replaces the slot for k with the given payload.
func (c *Cache) Put(k Key, p *records.Payload, capturedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[k] = Entry{Payload: p, CapturedAt: capturedAt}
}

// Reset drops every entry and returns how many were held.
func (c *Cache) Reset() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[Key]Entry)
	return n
}

// Len returns the number of held entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
