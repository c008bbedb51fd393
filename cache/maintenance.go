package cache

import "time"

// armTimerLocked schedules a one-shot eviction of ent at its expiry. The
// callback carries the entry generation so a timer that outlived its entry
// does nothing.
func (c *BoundedCache) armTimerLocked(ent *entry, d time.Duration) {
	key, gen := ent.key, ent.gen
	t := c.clock.AfterFunc(d, func() {
		c.expire(key, gen)
	})
	c.store.timers[key] = timerHandle{timer: t, gen: gen, owner: c}
}

func (c *BoundedCache) expire(key string, gen uint64) {
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.timers[key]; ok && h.gen == gen {
		delete(s.timers, key)
	}

	elem, ok := s.entries[key]
	if !ok || elem.Value.(*entry).gen != gen {
		c.logger.Debugw("Ignored stale expiry timer", "key", key)
		return
	}
	c.evicted(s.removeLocked(elem), EvictTimer)
}

// sweepLocked inspects the PurgeLimit oldest positions and evicts the expired
// ones among them. It never looks further, however many it removes.
func (c *BoundedCache) sweepLocked(now time.Time) {
	s := c.store
	el := s.order.Front()
	for i := 0; i < PurgeLimit && el != nil; i++ {
		next := el.Next()
		ent := el.Value.(*entry)
		if !now.Before(ent.expiresAt) {
			c.evictLocked(ent.key, EvictSweep)
		}
		el = next
	}
}
