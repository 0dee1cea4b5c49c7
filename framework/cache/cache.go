// Package cache memoizes resolution results per root and policy.
//
// Concurrent requests for the same key share a single resolution pass.
// Failed passes are never stored, so the next request tries again.
package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/km-arc/go-composer/framework/container"
)

// Recorder receives one call per Get: hit is true when the result was
// already stored.
type Recorder interface {
	ObserveCacheRequest(hit bool)
}

// Cache stores successful results keyed by root identity and policy.
type Cache struct {
	mu         sync.RWMutex
	resolver   *container.Resolver
	entries    map[string]*container.Result
	generation uint64

	group    singleflight.Group
	recorder Recorder
	logger   zerolog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithRecorder reports hits and misses to r.
func WithRecorder(r Recorder) Option {
	return func(c *Cache) { c.recorder = r }
}

// WithLogger sets the cache logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// New creates a cache in front of r.
func New(r *container.Resolver, opts ...Option) *Cache {
	c := &Cache{
		resolver: r,
		entries:  make(map[string]*container.Result),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the result for root under policy, resolving it when absent.
//
// A shared pass is not tied to any one caller: a caller whose ctx ends stops
// waiting, while the pass finishes for the others and is stored.
func (c *Cache) Get(ctx context.Context, root string, policy container.Policy) (*container.Result, error) {
	key := root + "|" + policy.String()

	c.mu.RLock()
	res, ok := c.entries[key]
	gen := c.generation
	resolver := c.resolver
	c.mu.RUnlock()

	c.record(ok)
	if ok {
		return res, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", container.ErrCancelled, err)
	}

	// The generation is part of the flight key so callers arriving after an
	// invalidation never join a pass over the previous catalog.
	flight := fmt.Sprintf("%d|%s", gen, key)
	ch := c.group.DoChan(flight, func() (any, error) {
		res, err := resolver.With(container.WithPolicy(policy)).Resolve(context.WithoutCancel(ctx), root)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.generation == gen {
			c.entries[key] = res
		}
		c.mu.Unlock()
		return res, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", container.ErrCancelled, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		c.logger.Debug().Str("root", root).Str("policy", policy.String()).Bool("shared", r.Shared).Msg("cache filled")
		return r.Val.(*container.Result), nil
	}
}

// Invalidate drops every stored result.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*container.Result)
	c.generation++
	c.logger.Debug().Uint64("generation", c.generation).Msg("cache invalidated")
}

// Reset swaps the resolver and invalidates. Used after a catalog reload.
func (c *Cache) Reset(r *container.Resolver) {
	c.mu.Lock()
	c.resolver = r
	c.mu.Unlock()
	c.Invalidate()
}

// Len returns the number of stored results.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) record(hit bool) {
	if c.recorder != nil {
		c.recorder.ObserveCacheRequest(hit)
	}
}
