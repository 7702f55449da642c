package fallback

import (
	"time"

	gc "github.com/patrickmn/go-cache"
)

// GoCache adapts patrickmn/go-cache. It supports per-entry TTLs, exact entry
// counts and on-demand expiry sweeps, which makes it the closest drop-in for
// MapStore when a deployment already standardizes on go-cache.
//
// The wrapped cache is created with its own janitor disabled (cleanup
// interval 0); the facade's sweeper drives DeleteExpired through Sweep.
type GoCache struct {
	c *gc.Cache
}

var _ Store = (*GoCache)(nil)

func NewGoCache() *GoCache {
	return &GoCache{c: gc.New(gc.NoExpiration, 0)}
}

// NewGoCacheFrom wraps an existing go-cache instance.
func NewGoCacheFrom(c *gc.Cache) *GoCache { return &GoCache{c: c} }

func (s *GoCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		s.c.Delete(key)
		return nil
	}
	s.c.Set(key, cloneBytes(value), ttl)
	return nil
}

func (s *GoCache) Get(key string) ([]byte, bool) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false
	}
	b, _ := v.([]byte)
	if b == nil {
		// drop unexpected entry shape
		s.c.Delete(key)
		return nil, false
	}
	return cloneBytes(b), true
}

func (s *GoCache) Has(key string) bool {
	_, ok := s.c.Get(key)
	return ok
}

func (s *GoCache) Delete(key string) error {
	s.c.Delete(key)
	return nil
}

func (s *GoCache) Clear() error {
	s.c.Flush()
	return nil
}

func (s *GoCache) Sweep() int {
	before := s.c.ItemCount()
	s.c.DeleteExpired()
	removed := before - s.c.ItemCount()
	if removed < 0 {
		removed = 0
	}
	return removed
}

func (s *GoCache) Len() int { return s.c.ItemCount() }

func (s *GoCache) Close() error { return nil }
