package cache

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

type simpleEntry struct {
	value      interface{}
	insertedAt time.Time
	expiresAt  time.Time
}

// SimpleResult is what SimpleCache.Get returns. On a miss Value is nil and the
// timestamps are those of the stale entry, or zero if the key was never set.
type SimpleResult struct {
	Value      interface{}
	InsertedAt time.Time
	ExpiresAt  time.Time
}

func (r SimpleResult) Hit() bool {
	return r.Value != nil
}

// SimpleCache is an expiring map for a handful of well-known keys. It has no
// size bound and never removes anything, so it must not be used with an
// unbounded key space.
type SimpleCache struct {
	mu         sync.Mutex
	entries    map[string]simpleEntry
	defaultTTL time.Duration
	clock      clock.Clock
}

// NewSimpleCache builds a SimpleCache. Only WithClock applies to it.
func NewSimpleCache(defaultTTL time.Duration, opts ...Option) *SimpleCache {
	o := buildOptions(opts)
	return &SimpleCache{
		entries:    make(map[string]simpleEntry),
		defaultTTL: defaultTTL,
		clock:      o.clock,
	}
}

func (c *SimpleCache) Get(key string) SimpleResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return SimpleResult{}
	}
	if !c.clock.Now().Before(e.expiresAt) {
		return SimpleResult{InsertedAt: e.insertedAt, ExpiresAt: e.expiresAt}
	}
	return SimpleResult{Value: e.value, InsertedAt: e.insertedAt, ExpiresAt: e.expiresAt}
}

func (c *SimpleCache) Set(key string, value interface{}, ttl *time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := c.defaultTTL
	if ttl != nil {
		d = *ttl
	}
	now := c.clock.Now()
	c.entries[key] = simpleEntry{value: value, insertedAt: now, expiresAt: now.Add(d)}
}

func (c *SimpleCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
