package cache

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
)

type entry struct {
	key       string
	value     interface{}
	sizeBytes int
	expiresAt time.Time
	gen       uint64
}

// timerHandle identifies the deferred eviction armed for one generation of a
// key. A handle whose gen no longer matches the resident entry is stale.
type timerHandle struct {
	timer *clock.Timer
	gen   uint64
	owner *BoundedCache
}

// Store holds the entries, byte counter and timer table of a bounded cache.
// All of it is guarded by one lock.
type Store struct {
	mu sync.Mutex

	entries    map[string]*list.Element
	order      *list.List // Front = least recently touched, Back = most recently touched
	totalBytes int64
	timers     map[string]timerHandle
	nextGen    uint64
}

func NewStore() *Store {
	return &Store{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		timers:  make(map[string]timerHandle),
	}
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

func (s *Store) TotalBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalBytes
}

func (s *Store) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

// Keys returns resident keys from head (next to evict) to tail.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, s.order.Len())
	for el := s.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*entry).key)
	}
	return out
}

// PendingTimers returns how many deferred evictions are still armed.
func (s *Store) PendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Verify checks the byte accounting and timer table against the entries and
// reports every violation found.
func (s *Store) Verify() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if len(s.entries) != s.order.Len() {
		err = multierr.Append(err, fmt.Errorf("index has %d keys, list has %d entries", len(s.entries), s.order.Len()))
	}

	var sum int64
	for el := s.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*entry)
		sum += int64(e.sizeBytes)
		if s.entries[e.key] != el {
			err = multierr.Append(err, fmt.Errorf("key %q is not indexed", e.key))
		}
	}
	if sum != s.totalBytes {
		err = multierr.Append(err, fmt.Errorf("total bytes %d, resident entries hold %d", s.totalBytes, sum))
	}

	for key, h := range s.timers {
		if el, ok := s.entries[key]; ok && el.Value.(*entry).gen != h.gen {
			err = multierr.Append(err, fmt.Errorf("timer for %q armed for generation %d, resident is %d", key, h.gen, el.Value.(*entry).gen))
		}
	}
	return err
}

func (s *Store) pushLocked(e *entry) {
	s.entries[e.key] = s.order.PushBack(e)
	s.totalBytes += int64(e.sizeBytes)
}

func (s *Store) removeLocked(el *list.Element) *entry {
	e := el.Value.(*entry)
	s.order.Remove(el)
	delete(s.entries, e.key)
	s.totalBytes -= int64(e.sizeBytes)
	return e
}

// stopTimerLocked cancels the pending timer for key. Safe on absent keys and
// on timers that already fired.
func (s *Store) stopTimerLocked(key string) {
	if h, ok := s.timers[key]; ok {
		h.timer.Stop()
		delete(s.timers, key)
	}
}

// stopOwnedTimersLocked cancels the timers armed by owner and leaves those of
// other caches sharing the store running.
func (s *Store) stopOwnedTimersLocked(owner *BoundedCache) int {
	n := 0
	for key, h := range s.timers {
		if h.owner != owner {
			continue
		}
		h.timer.Stop()
		delete(s.timers, key)
		n++
	}
	return n
}
