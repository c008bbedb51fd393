package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/evanjt06/marketcache/cache"
	"github.com/evanjt06/marketcache/internal"
	"go.uber.org/zap/zapcore"
)

type config struct {
	MaxBytes int64
	TTL      time.Duration
	Reads    int
	LogPath  string
	Verbose  bool
}

// assetService stands in for the commerce platform's content API.
type assetService struct {
	calls   int64
	latency time.Duration
}

func (s *assetService) fetch(ctx context.Context, id string) (interface{}, error) {
	atomic.AddInt64(&s.calls, 1)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.latency):
	}
	return []byte(fmt.Sprintf(`{"id":%q,"version":3}`, id)), nil
}

func run(ctx context.Context, out io.Writer, cfg config) error {
	level := zapcore.InfoLevel
	if cfg.Verbose {
		level = zapcore.DebugLevel
	}
	logger, closeLogger, err := internal.NewLogger(cfg.LogPath, level)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer closeLogger()

	c := cache.NewBoundedCache(cfg.MaxBytes, cfg.TTL, cache.WithLogger(logger))
	defer c.Close()

	upstream := &assetService{latency: 5 * time.Millisecond}
	assets := []string{"theme", "footer", "shipping-rules", "theme", "footer"}

	for i := 0; i < cfg.Reads; i++ {
		id := assets[i%len(assets)]
		res, err := c.GetOrLoad(ctx, "asset:"+id, nil, func(ctx context.Context) (interface{}, error) {
			return upstream.fetch(ctx, id)
		})
		if err != nil {
			return err
		}
		logger.Debugw("Served asset", "id", id, "sizeBytes", res.SizeBytes)
	}

	stats := c.Stats()
	fmt.Fprintf(out, "reads=%d upstream=%d hits=%d resident=%d bytes=%d\n",
		cfg.Reads, atomic.LoadInt64(&upstream.calls), stats.Hits, c.Len(), c.Bytes())
	return nil
}

func main() {
	cfg := config{}
	flag.Int64Var(&cfg.MaxBytes, "max-bytes", 1<<20, "byte budget of the cache")
	flag.DurationVar(&cfg.TTL, "ttl", time.Minute, "default entry TTL")
	flag.IntVar(&cfg.Reads, "reads", 20, "number of asset reads to simulate")
	flag.StringVar(&cfg.LogPath, "log", "", "log file (stderr when empty)")
	flag.BoolVar(&cfg.Verbose, "v", false, "debug logging")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
