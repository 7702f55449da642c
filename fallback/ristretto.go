package fallback

import (
	"errors"
	"sync/atomic"
	"time"

	rc "github.com/dgraph-io/ristretto"
)

// Ristretto adapts dgraph-io/ristretto as a cost-bounded fallback engine.
//
// Ristretto buffers writes and may drop them under admission pressure; Set
// calls Wait before returning so admitted writes are immediately visible.
// Len is approximate: the admission policy and async eviction make an exact
// live count unobservable, so a best-effort counter is maintained via the
// eviction callback.
type Ristretto struct {
	c *rc.Cache
	n atomic.Int64
}

var _ Store = (*Ristretto)(nil)

type RistrettoConfig struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
}

func NewRistretto(cfg RistrettoConfig) (*Ristretto, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	s := &Ristretto{}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		OnEvict: func(_ *rc.Item) {
			s.n.Add(-1)
		},
	})
	if err != nil {
		return nil, err
	}
	s.c = c
	return s, nil
}

func (s *Ristretto) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		_ = s.Delete(key)
		return nil
	}
	_, existed := s.c.Get(key)
	if s.c.SetWithTTL(key, cloneBytes(value), int64(len(value)), ttl) {
		s.c.Wait()
		if !existed {
			// the admission policy may still have rejected the buffered write
			if _, ok := s.c.Get(key); ok {
				s.n.Add(1)
			}
		}
	}
	return nil
}

func (s *Ristretto) Get(key string) ([]byte, bool) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false
	}
	b, _ := v.([]byte)
	if b == nil {
		// drop unexpected entry shape
		s.c.Del(key)
		return nil, false
	}
	return cloneBytes(b), true
}

func (s *Ristretto) Has(key string) bool {
	_, ok := s.c.Get(key)
	return ok
}

func (s *Ristretto) Delete(key string) error {
	if _, ok := s.c.Get(key); ok {
		s.n.Add(-1)
	}
	s.c.Del(key)
	return nil
}

func (s *Ristretto) Clear() error {
	s.c.Clear()
	s.n.Store(0)
	return nil
}

// Sweep is a no-op: ristretto expires and evicts entries internally.
func (s *Ristretto) Sweep() int { return 0 }

func (s *Ristretto) Len() int {
	n := s.n.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

func (s *Ristretto) Close() error {
	s.c.Close()
	return nil
}
