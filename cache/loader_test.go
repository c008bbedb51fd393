package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/evanjt06/marketcache/cache"
)

func TestGetOrLoadCachesUpstreamValue(t *testing.T) {
	c, _ := newTestCache(64, time.Minute)
	defer c.Close()

	var calls int32
	load := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		return []byte(`{"theme":"dark"}`), nil
	}

	for i := 0; i < 3; i++ {
		res, err := c.GetOrLoad(context.Background(), "config:site", nil, load)
		if err != nil {
			t.Fatalf("GetOrLoad: %v", err)
		}
		if res.SizeBytes != 16 {
			t.Errorf("Expected 16 bytes, got %d", res.SizeBytes)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("Expected one upstream call, got %d", n)
	}
}

func TestGetOrLoadSharesConcurrentLoads(t *testing.T) {
	c, _ := newTestCache(64, time.Minute)
	defer c.Close()

	var calls int32
	release := make(chan struct{})
	load := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "asset-v3", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := c.GetOrLoad(context.Background(), "asset", nil, load)
			if err != nil || res.Value != "asset-v3" {
				t.Errorf("Expected asset-v3, got %+v (%v)", res, err)
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("Expected one upstream call, got %d", n)
	}
}

func TestGetOrLoadErrorCachesNothing(t *testing.T) {
	c, _ := newTestCache(64, time.Minute)
	defer c.Close()

	errUpstream := errors.New("upstream unavailable")
	_, err := c.GetOrLoad(context.Background(), "k", nil, func(ctx context.Context) (interface{}, error) {
		return nil, errUpstream
	})
	if !errors.Is(err, errUpstream) {
		t.Fatalf("Expected upstream error, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Expected nothing cached, got %d entries", c.Len())
	}

	_, err = c.GetOrLoad(context.Background(), "k", nil, func(ctx context.Context) (interface{}, error) {
		return 42, nil
	})
	if !errors.Is(err, cache.ErrInvalidValueType) {
		t.Errorf("Expected ErrInvalidValueType, got %v", err)
	}
}

func TestGetOrLoadHonoursContext(t *testing.T) {
	c, _ := newTestCache(64, time.Minute)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	release := make(chan struct{})
	defer close(release)
	_, err := c.GetOrLoad(ctx, "slow", nil, func(context.Context) (interface{}, error) {
		<-release
		return "late", nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestGetOrLoadSurvivesFirstCallerCancel(t *testing.T) {
	c, _ := newTestCache(64, time.Minute)
	defer c.Close()

	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	load := func(ctx context.Context) (interface{}, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return "asset-v4", nil
	}

	ctx1, cancel1 := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.GetOrLoad(ctx1, "k", nil, load)
		first <- err
	}()
	<-started

	second := make(chan cache.Result, 1)
	secondErr := make(chan error, 1)
	go func() {
		res, err := c.GetOrLoad(context.Background(), "k", nil, load)
		second <- res
		secondErr <- err
	}()

	cancel1()
	if err := <-first; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected first caller to be cancelled, got %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)

	res := <-second
	if err := <-secondErr; err != nil {
		t.Fatalf("Expected second caller to succeed, got %v", err)
	}
	if res.Value != "asset-v4" {
		t.Errorf("Expected asset-v4, got %+v", res)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("Expected one upstream call, got %d", n)
	}
	if !c.Get("k").Hit() {
		t.Error("Expected loaded value to be cached")
	}
}

func TestGetOrLoadTimeoutBoundsSharedLoad(t *testing.T) {
	c, _ := newTestCache(64, time.Minute, cache.WithLoadTimeout(20*time.Millisecond))
	defer c.Close()

	_, err := c.GetOrLoad(context.Background(), "k", nil, func(ctx context.Context) (interface{}, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Expected nothing cached, got %d entries", c.Len())
	}
}
