package cache

// cache/cache.go

import (
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/evanjt06/marketcache/internal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// PurgeLimit is how many positions from the head the sweep after each Set
	// inspects.
	PurgeLimit = 10

	// MaxTimerTTL caps proactive eviction timers. Longer-lived entries are
	// left to lazy expiry, capacity pressure and the sweep.
	MaxTimerTTL = 24 * time.Hour
)

var (
	ErrInvalidValueType = internal.ErrInvalidValueType
	ErrClosed           = errors.New("cache is closed")
)

// Result is what Get returns. A miss has a nil Value and zero SizeBytes;
// ExpiresAt is kept when the miss was caused by expiry.
type Result struct {
	Value     interface{}
	SizeBytes int
	ExpiresAt time.Time
}

func (r Result) Hit() bool {
	return r.Value != nil
}

// BoundedCache is a byte-budgeted cache with approximate LRU eviction and
// per-entry TTL. Expired entries are removed when read, by the sweep that
// follows every Set, or by a one-shot timer for TTLs up to MaxTimerTTL.
type BoundedCache struct {
	store      *Store
	maxBytes   int64
	defaultTTL time.Duration

	clock   clock.Clock
	logger  *zap.SugaredLogger
	onEvict EvictionHook
	loads   singleflight.Group

	loadTimeout time.Duration

	// guarded by store.mu
	stats  Stats
	closed bool
}

// constructor
func NewBoundedCache(maxBytes int64, defaultTTL time.Duration, opts ...Option) *BoundedCache {
	if maxBytes < 0 {
		maxBytes = 0
	}
	o := buildOptions(opts)

	return &BoundedCache{
		store:       o.store,
		maxBytes:    maxBytes,
		defaultTTL:  defaultTTL,
		clock:       o.clock,
		logger:      o.logger,
		onEvict:     o.onEvict,
		loadTimeout: o.loadTimeout,
		stats:       Stats{Evictions: make(map[EvictReason]uint64)},
	}
}

func (c *BoundedCache) Get(key string) Result {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.entries[key]
	if !ok {
		c.stats.Misses++
		return Result{}
	}

	ent := elem.Value.(*entry)
	if c.clock.Now().Before(ent.expiresAt) {
		s.order.MoveToBack(elem)
		c.stats.Hits++

		c.logger.Debugw("Moved entry to tail of LRU",
			"key", key,
		)
		return Result{Value: ent.value, SizeBytes: ent.sizeBytes, ExpiresAt: ent.expiresAt}
	}

	// past expiration: drop it but leave its timer, which is a no-op once fired
	s.removeLocked(elem)
	c.stats.Misses++
	c.evicted(ent, EvictExpired)
	return Result{ExpiresAt: ent.expiresAt}
}

// Set stores value under key, replacing any previous entry. ttl nil means the
// cache default. value must already be serialized (string or byte slice).
func (c *BoundedCache) Set(key string, value interface{}, ttl *time.Duration) error {
	_, err := c.set(key, value, ttl)
	return err
}

func (c *BoundedCache) set(key string, value interface{}, ttl *time.Duration) (Result, error) {
	size, err := internal.ByteLength(value)
	if err != nil {
		c.logger.Debugw("Invalid value rejected", "key", key, "error", err)
		return Result{}, err
	}

	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.closed {
		return Result{}, ErrClosed
	}

	c.evictLocked(key, EvictReplaced)

	d := c.defaultTTL
	if ttl != nil {
		d = *ttl
	}
	now := c.clock.Now()

	for s.totalBytes+int64(size) > c.maxBytes && s.order.Len() > 0 {
		head := s.order.Front().Value.(*entry)
		c.evictLocked(head.key, EvictCapacity)
	}

	s.nextGen++
	ent := &entry{
		key:       key,
		value:     value,
		sizeBytes: size,
		expiresAt: now.Add(d),
		gen:       s.nextGen,
	}
	s.pushLocked(ent)
	c.stats.Sets++

	if int64(size) > c.maxBytes {
		c.logger.Warnw("Entry exceeds byte budget on its own",
			"key", key,
			"sizeBytes", size,
			"maxBytes", c.maxBytes,
		)
	}

	if d <= MaxTimerTTL {
		c.armTimerLocked(ent, d)
	}

	c.sweepLocked(now)

	return Result{Value: ent.value, SizeBytes: ent.sizeBytes, ExpiresAt: ent.expiresAt}, nil
}

// Delete removes key. It reports whether an entry was present.
func (c *BoundedCache) Delete(key string) bool {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	return c.evictLocked(key, EvictDeleted)
}

func (c *BoundedCache) Len() int {
	return c.store.Len()
}

func (c *BoundedCache) Bytes() int64 {
	return c.store.TotalBytes()
}

// Keys returns resident keys in eviction order, least recently touched first.
func (c *BoundedCache) Keys() []string {
	return c.store.Keys()
}

func (c *BoundedCache) Store() *Store {
	return c.store
}

func (c *BoundedCache) Stats() Stats {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	return c.stats.clone()
}

// Close cancels the pending timers this cache armed and rejects further Sets.
// Entries stay readable, and timers armed by other caches on a shared store
// keep running. Close is safe to call more than once.
func (c *BoundedCache) Close() error {
	s := c.store
	s.mu.Lock()
	if c.closed {
		s.mu.Unlock()
		return nil
	}
	c.closed = true
	stopped := s.stopOwnedTimersLocked(c)
	s.mu.Unlock()

	c.logger.Debugw("Cache closed", "timersStopped", stopped)
	_ = c.logger.Sync() // flush logs
	return nil
}

// evictLocked fully removes key: its timer, its entry and its bytes.
// Evicting an absent key is a no-op.
func (c *BoundedCache) evictLocked(key string, reason EvictReason) bool {
	s := c.store
	s.stopTimerLocked(key)

	elem, ok := s.entries[key]
	if !ok {
		return false
	}
	c.evicted(s.removeLocked(elem), reason)
	return true
}

func (c *BoundedCache) evicted(ent *entry, reason EvictReason) {
	c.stats.Evictions[reason]++

	c.logger.Debugw("Deleted entry",
		"key", ent.key,
		"reason", reason.String(),
		"sizeBytes", ent.sizeBytes,
		"expiresAt", ent.expiresAt,
	)

	if c.onEvict != nil {
		c.onEvict(ent.key, ent.sizeBytes, reason)
	}
}
