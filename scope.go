package failcache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Scope binds a value type, a key domain, and a TTL together so feature code
// can stop repeating them. All access goes through the facade's public
// operations.
type Scope[T any] struct {
	c      Cache
	domain string
	ttl    time.Duration
	group  singleflight.Group
}

// NewScope builds a scope over c for one key domain. ttl <= 0 resolves the
// cache's per-domain TTL (DomainTTLs, then DefaultTTL).
func NewScope[T any](c Cache, domain string, ttl time.Duration) *Scope[T] {
	if ttl <= 0 {
		if r, ok := c.(interface{ ResolveTTL(string) time.Duration }); ok {
			ttl = r.ResolveTTL(domain)
		}
	}
	return &Scope[T]{c: c, domain: domain, ttl: ttl}
}

// Key returns the namespaced cache key for rawID.
func (s *Scope[T]) Key(rawID string) string {
	return BuildKey(s.domain, rawID)
}

func (s *Scope[T]) Get(ctx context.Context, rawID string) (T, bool) {
	var v T
	if !s.c.GetInto(ctx, s.Key(rawID), &v) {
		var zero T
		return zero, false
	}
	return v, true
}

func (s *Scope[T]) Set(ctx context.Context, rawID string, v T) bool {
	return s.c.Set(ctx, s.Key(rawID), v, s.ttl)
}

func (s *Scope[T]) Delete(ctx context.Context, rawID string) bool {
	return s.c.Delete(ctx, s.Key(rawID))
}

// GetOrCompute returns the cached value for rawID or computes and stores it.
// Concurrent callers for the same key share one compute call; the shared
// error is returned to every waiter and nothing is cached on error.
func (s *Scope[T]) GetOrCompute(ctx context.Context, rawID string, compute func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := s.Get(ctx, rawID); ok {
		return v, nil
	}
	key := s.Key(rawID)
	v, err, _ := s.group.Do(key, func() (any, error) {
		if v, ok := s.Get(ctx, rawID); ok { // filled while we queued
			return v, nil
		}
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		s.c.Set(ctx, key, v, s.ttl)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// GetAs decodes the cached value for key into a T via the configured codec.
func GetAs[T any](ctx context.Context, c Cache, key string) (T, bool) {
	var v T
	if !c.GetInto(ctx, key, &v) {
		var zero T
		return zero, false
	}
	return v, true
}
