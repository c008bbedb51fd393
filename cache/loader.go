package cache

import (
	"context"
	"fmt"
	"time"
)

// LoadFunc fetches the serialized value for a key from upstream.
type LoadFunc func(ctx context.Context) (interface{}, error)

// GetOrLoad returns the cached value for key or, on a miss, calls load and
// caches its result. Concurrent misses on one key share a single load, which
// is detached from the cancellation of whichever caller started it and bounded
// only by WithLoadTimeout. Each caller stops waiting when its own ctx is done.
// A failed load caches nothing.
func (c *BoundedCache) GetOrLoad(ctx context.Context, key string, ttl *time.Duration, load LoadFunc) (Result, error) {
	if res := c.Get(key); res.Hit() {
		return res, nil
	}

	ch := c.loads.DoChan(key, func() (interface{}, error) {
		loadCtx := context.WithoutCancel(ctx)
		if c.loadTimeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(loadCtx, c.loadTimeout)
			defer cancel()
		}

		value, err := load(loadCtx)
		if err != nil {
			return nil, fmt.Errorf("load %q: %w", key, err)
		}
		c.logger.Debugw("Loaded entry from upstream", "key", key)
		return c.set(key, value, ttl)
	})

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return Result{}, r.Err
		}
		return r.Val.(Result), nil
	}
}
