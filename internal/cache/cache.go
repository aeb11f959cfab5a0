// Package cache keeps decoded color profiles in memory while a run needs them.
//
// Entries expire after an idle window: every Get refreshes the entry, and a
// background janitor drops entries nobody touched for longer than the TTL.
// Concurrent misses on the same path share a single decode; misses on
// different paths decode in parallel.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"

	"github.com/starford/imagesim/internal/models"
)

// DefaultTTL is the idle window after which an untouched profile is evicted.
const DefaultTTL = 3 * time.Minute

// Loader produces the color profile for a path.
type Loader interface {
	Sample(path string) (models.ColorProfile, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(path string) (models.ColorProfile, error)

// Sample calls f(path).
func (f LoaderFunc) Sample(path string) (models.ColorProfile, error) {
	return f(path)
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Loads     int64
	Evictions int64
	Entries   int
}

// Cache maps image paths to color profiles with sliding idle expiration.
type Cache struct {
	loader  Loader
	ttl     time.Duration
	janitor bool

	items  *ttlcache.Cache[string, models.ColorProfile]
	flight singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
	loads  atomic.Int64

	closeOnce sync.Once
	stopped   chan struct{}
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the idle expiration window.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		c.ttl = d
	}
}

// WithJanitor toggles the background eviction loop. It is on by default.
// Without it expired entries stay in memory, though Get no longer returns them.
func WithJanitor(enabled bool) Option {
	return func(c *Cache) {
		c.janitor = enabled
	}
}

// New creates a Cache backed by loader and starts its janitor.
func New(loader Loader, opts ...Option) *Cache {
	c := &Cache{
		loader:  loader,
		ttl:     DefaultTTL,
		janitor: true,
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}

	c.items = ttlcache.New[string, models.ColorProfile](
		ttlcache.WithTTL[string, models.ColorProfile](c.ttl),
	)

	if c.janitor {
		go func() {
			defer close(c.stopped)
			c.items.Start()
		}()
	} else {
		close(c.stopped)
	}
	return c
}

// Get returns the profile for path, decoding it on a miss.
func (c *Cache) Get(ctx context.Context, path string) (models.ColorProfile, error) {
	if p, ok := c.lookup(path); ok {
		c.hits.Add(1)
		return p, nil
	}
	c.misses.Add(1)

	ch := c.flight.DoChan(path, func() (interface{}, error) {
		// A flight that finished between lookup and DoChan already stored the entry.
		if p, ok := c.lookup(path); ok {
			return p, nil
		}
		c.loads.Add(1)
		p, err := c.loader.Sample(path)
		if err != nil {
			return nil, err
		}
		c.items.Set(path, p, ttlcache.DefaultTTL)
		return p, nil
	})

	select {
	case <-ctx.Done():
		return models.ColorProfile{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return models.ColorProfile{}, res.Err
		}
		return res.Val.(models.ColorProfile), nil
	}
}

// lookup returns a live entry and pushes its expiry out by another TTL.
func (c *Cache) lookup(path string) (models.ColorProfile, bool) {
	item := c.items.Get(path)
	if item == nil {
		return models.ColorProfile{}, false
	}
	return item.Value(), true
}

// Len returns the number of cached profiles.
func (c *Cache) Len() int {
	return c.items.Len()
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	m := c.items.Metrics()
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Loads:     c.loads.Load(),
		Evictions: int64(m.Evictions),
		Entries:   c.Len(),
	}
}

// Close stops the janitor. Cached entries stay readable.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		if c.janitor {
			c.items.Stop()
		}
	})
	<-c.stopped
}
