package cache

// EvictReason says why an entry left the store.
type EvictReason int

const (
	EvictReplaced EvictReason = iota // overwritten by Set
	EvictCapacity                    // oldest entry dropped to make room
	EvictSweep                       // found expired by the sweep after a Set
	EvictTimer                       // its deferred timer fired
	EvictExpired                     // found expired by Get
	EvictDeleted                     // removed through Delete
)

func (r EvictReason) String() string {
	switch r {
	case EvictReplaced:
		return "replaced"
	case EvictCapacity:
		return "capacity"
	case EvictSweep:
		return "sweep"
	case EvictTimer:
		return "timer"
	case EvictExpired:
		return "expired"
	case EvictDeleted:
		return "deleted"
	}
	return "unknown"
}

// EvictionHook observes entries leaving the store.
type EvictionHook func(key string, sizeBytes int, reason EvictReason)

// Stats counts cache operations since construction.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Sets      uint64
	Evictions map[EvictReason]uint64
}

func (s Stats) clone() Stats {
	out := s
	out.Evictions = make(map[EvictReason]uint64, len(s.Evictions))
	for r, n := range s.Evictions {
		out.Evictions[r] = n
	}
	return out
}
