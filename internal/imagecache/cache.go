// Package imagecache remembers the pixel dimensions of recently prefetched
// images so that the same URI is not probed again within a short window.
//
// Entries older than the timeout are treated as absent even while they are
// still stored; ClearOld purges them.
package imagecache

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTimeout is how long a probed size stays valid.
	DefaultTimeout = 5 * time.Minute
	// DefaultConcurrency bounds PrefetchAll.
	DefaultConcurrency = 4

	scopeName = "github.com/xenking/shoplist/internal/imagecache"
)

// Dimensions is the pixel size of an image.
type Dimensions struct {
	Width  int
	Height int
}

// Loader probes and warms images.
type Loader interface {
	// Size returns the pixel dimensions of the image at uri.
	Size(ctx context.Context, uri string) (Dimensions, error)
	// Prefetch loads the image so later displays are served warm.
	Prefetch(ctx context.Context, uri string) error
}

type entry struct {
	dims      Dimensions
	fetchedAt time.Time
}

// Options configures a Cache.
type Options struct {
	Timeout       time.Duration
	Concurrency   int
	Logger        *zap.Logger
	MeterProvider metric.MeterProvider
}

func (o *Options) setDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.MeterProvider == nil {
		o.MeterProvider = otel.GetMeterProvider()
	}
}

// Cache maps image URIs to their last probed dimensions.
type Cache struct {
	loader      Loader
	timeout     time.Duration
	concurrency int
	lg          *zap.Logger
	now         func() time.Time

	lookups metric.Int64Counter

	mu      sync.Mutex
	entries map[string]entry

	inflight sync.WaitGroup
}

// New creates an empty Cache that probes images through loader.
func New(loader Loader, opts Options) (*Cache, error) {
	opts.setDefaults()

	lookups, err := opts.MeterProvider.Meter(scopeName).Int64Counter("imagecache.lookups",
		metric.WithDescription("Image dimension lookups by result"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create lookups counter")
	}

	return &Cache{
		loader:      loader,
		timeout:     opts.Timeout,
		concurrency: opts.Concurrency,
		lg:          opts.Logger,
		now:         time.Now,
		lookups:     lookups,
		entries:     make(map[string]entry),
	}, nil
}

// Prefetch probes the size of uri, warms the loader and records the size.
// Failures are logged and leave the cache as it was.
func (c *Cache) Prefetch(ctx context.Context, uri string) {
	if uri == "" {
		c.lg.Warn("Empty URI provided to prefetch")
		return
	}
	lg := c.lg.With(zap.String("uri", uri))

	dims, err := c.loader.Size(ctx, uri)
	if err != nil {
		lg.Error("Error probing image size", zap.Error(err))
		return
	}
	if err := c.loader.Prefetch(ctx, uri); err != nil {
		lg.Error("Error prefetching image", zap.Error(err))
		return
	}

	c.mu.Lock()
	c.entries[uri] = entry{dims: dims, fetchedAt: c.now()}
	c.mu.Unlock()

	lg.Debug("Image prefetched", zap.Int("width", dims.Width), zap.Int("height", dims.Height))
}

// PrefetchAsync runs Prefetch in a detached goroutine. The result is always
// applied, even if the caller's context is done by then.
func (c *Cache) PrefetchAsync(ctx context.Context, uri string) {
	ctx = context.WithoutCancel(ctx)
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		c.Prefetch(ctx, uri)
	}()
}

// PrefetchAll prefetches the distinct non-empty uris with bounded
// concurrency. It only fails when ctx is done before all work was started.
func (c *Cache) PrefetchAll(ctx context.Context, uris []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	seen := make(map[string]struct{}, len(uris))
	for _, uri := range uris {
		if uri == "" {
			continue
		}
		if _, ok := seen[uri]; ok {
			continue
		}
		seen[uri] = struct{}{}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c.Prefetch(gctx, uri)
			return nil
		})
	}
	return g.Wait()
}

// PrefetchAllAsync runs PrefetchAll in a detached goroutine tracked by Wait.
func (c *Cache) PrefetchAllAsync(ctx context.Context, uris []string) {
	ctx = context.WithoutCancel(ctx)
	uris = append([]string(nil), uris...)
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		if err := c.PrefetchAll(ctx, uris); err != nil {
			c.lg.Warn("Batch prefetch stopped", zap.Error(err))
		}
	}()
}

// Wait blocks until every PrefetchAsync and PrefetchAllAsync call has
// finished.
func (c *Cache) Wait() {
	c.inflight.Wait()
}

// Dimensions returns the cached size of uri if it was probed less than the
// timeout ago.
func (c *Cache) Dimensions(ctx context.Context, uri string) (Dimensions, bool) {
	if uri == "" {
		return Dimensions{}, false
	}

	c.mu.Lock()
	e, ok := c.entries[uri]
	c.mu.Unlock()

	fresh := ok && c.now().Sub(e.fetchedAt) < c.timeout
	result := "miss"
	switch {
	case fresh:
		result = "hit"
	case ok:
		result = "stale"
	}
	c.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))

	if !fresh {
		return Dimensions{}, false
	}
	return e.dims, true
}

// ClearOld evicts entries older than the timeout and returns how many were
// removed.
func (c *Cache) ClearOld() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for uri, e := range c.entries {
		if now.Sub(e.fetchedAt) > c.timeout {
			delete(c.entries, uri)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, stale ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// RunSweeper calls ClearOld every interval until ctx is done. The cache never
// starts it on its own.
func (c *Cache) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := c.ClearOld(); n > 0 {
				c.lg.Debug("Evicted stale image sizes", zap.Int("count", n))
			}
		}
	}
}
