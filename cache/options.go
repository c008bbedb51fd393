package cache

import (
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

type options struct {
	store   *Store
	logger  *zap.SugaredLogger
	clock   clock.Clock
	onEvict EvictionHook

	loadTimeout time.Duration
}

// Option configures a BoundedCache or SimpleCache.
type Option func(*options)

// WithStore makes the cache operate on an existing store. Caches sharing a
// store share its lock, its byte accounting and its timer table; each cache
// only cancels its own timers on Close.
func WithStore(store *Store) Option {
	return func(o *options) { o.store = store }
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *options) { o.logger = logger }
}

// WithClock replaces the wall clock, mostly for tests (clock.NewMock).
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithEvictionHook registers fn to be called for every entry leaving the
// store. fn runs with the store locked and must not call back into the cache.
func WithEvictionHook(fn EvictionHook) Option {
	return func(o *options) { o.onEvict = fn }
}

// WithLoadTimeout bounds the upstream load shared by GetOrLoad callers.
// Zero means no bound.
func WithLoadTimeout(d time.Duration) Option {
	return func(o *options) { o.loadTimeout = d }
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.store == nil {
		o.store = NewStore()
	}
	if o.logger == nil {
		o.logger = zap.NewNop().Sugar()
	}
	if o.clock == nil {
		o.clock = clock.New()
	}
	return o
}
