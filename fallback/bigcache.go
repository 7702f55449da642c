package fallback

import (
	"errors"
	"time"

	bc "github.com/allegro/bigcache/v3"
)

// BigCache adapts allegro/bigcache as a fallback engine. BigCache has no
// per-entry TTL: every entry lives for the configured LifeWindow, so the
// ttl argument to Set is ignored except for the ttl <= 0 delete contract.
type BigCache struct {
	c *bc.BigCache
}

var _ Store = (*BigCache)(nil)

type BigCacheConfig struct {
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func NewBigCache(cfg BigCacheConfig) (*BigCache, error) {
	if cfg.LifeWindow <= 0 {
		return nil, errors.New("bigcache: LifeWindow must be positive")
	}
	conf := bc.DefaultConfig(cfg.LifeWindow)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.NewBigCache(conf)
	if err != nil {
		return nil, err
	}
	return &BigCache{c: c}, nil
}

func (s *BigCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return s.Delete(key)
	}
	return s.c.Set(key, value)
}

func (s *BigCache) Get(key string) ([]byte, bool) {
	b, err := s.c.Get(key)
	if err != nil {
		return nil, false
	}
	return b, true
}

func (s *BigCache) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

func (s *BigCache) Delete(key string) error {
	err := s.c.Delete(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil
	}
	return err
}

func (s *BigCache) Clear() error {
	return s.c.Reset()
}

// Sweep is a no-op: bigcache drops expired entries on its own CleanWindow.
func (s *BigCache) Sweep() int { return 0 }

func (s *BigCache) Len() int {
	return s.c.Len()
}

func (s *BigCache) Close() error {
	return s.c.Close()
}
