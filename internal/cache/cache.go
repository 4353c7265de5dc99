// Package cache provides the tag-based read cache in front of the stores.
// The cache is derived, disposable state: every path through it degrades to
// computing directly when the backend misbehaves.
package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Backend is the narrow contract a cache store must satisfy. Implementations
// must tolerate redundant and concurrent Invalidate calls.
type Backend interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, tags []string, ttl time.Duration) error
	Invalidate(ctx context.Context, tags ...string) error
}

// Coordinator wraps a Backend with fail-open semantics. Constructed once per
// process and injected; never reached through ambient state.
type Coordinator struct {
	backend Backend
	log     *zap.Logger
}

func NewCoordinator(backend Backend, log *zap.Logger) *Coordinator {
	return &Coordinator{backend: backend, log: log}
}

// Invalidate drops every entry carrying any of the tags. Backend failures
// are logged, never returned: a cache hiccup must not fail the write that
// triggered the invalidation.
func (c *Coordinator) Invalidate(ctx context.Context, tags ...string) {
	if c == nil || c.backend == nil || len(tags) == 0 {
		return
	}
	if err := c.backend.Invalidate(ctx, tags...); err != nil {
		c.log.Warn("cache invalidate failed", zap.Strings("tags", tags), zap.Error(err))
	}
}

// Remember returns the cached value under key, or computes, stores and
// returns it. Backend errors on either side degrade to a direct compute.
func Remember[V any](ctx context.Context, c *Coordinator, key string, tags []string, ttl time.Duration, compute func(context.Context) (V, error)) (V, error) {
	if c == nil || c.backend == nil {
		return compute(ctx)
	}

	var cached V
	hit, err := c.backend.Get(ctx, key, &cached)
	if err != nil {
		c.log.Warn("cache get failed, computing directly", zap.String("key", key), zap.Error(err))
	} else if hit {
		return cached, nil
	}

	value, err := compute(ctx)
	if err != nil {
		return value, err
	}
	if err := c.backend.Set(ctx, key, value, tags, ttl); err != nil {
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}
