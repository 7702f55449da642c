package fallback

import (
	"sync"
	"time"
)

type mapEntry struct {
	value     []byte
	expiresAt time.Time
}

// MapStore is the default fallback engine: a mutex-guarded map with absolute
// expiry per entry and an optional entry cap. Reads lazily delete expired
// entries; Sweep reclaims write-only keys that are never read again.
//
// When the cap is reached, a Set of a new key first drops whatever has
// already expired; if the store is still full, the entry closest to expiry
// is evicted to make room.
type MapStore struct {
	mu      sync.Mutex
	entries map[string]mapEntry
	max     int

	now func() time.Time
}

var _ Store = (*MapStore)(nil)

// NewMapStore returns a MapStore holding at most maxEntries entries.
// maxEntries <= 0 means unbounded (TTLs alone bound the store over time).
func NewMapStore(maxEntries int) *MapStore {
	return &MapStore{
		entries: make(map[string]mapEntry),
		max:     maxEntries,
		now:     time.Now,
	}
}

func (s *MapStore) Set(key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ttl <= 0 {
		// no caching: overwrite semantics leave the key absent
		delete(s.entries, key)
		return nil
	}

	now := s.now()
	if _, exists := s.entries[key]; !exists && s.max > 0 && len(s.entries) >= s.max {
		s.purgeExpiredLocked(now)
		if len(s.entries) >= s.max {
			s.evictSoonestLocked()
		}
	}

	s.entries[key] = mapEntry{
		value:     cloneBytes(value),
		expiresAt: now.Add(ttl),
	}
	return nil
}

func (s *MapStore) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	return cloneBytes(e.value), true
}

func (s *MapStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return false
	}
	return true
}

func (s *MapStore) Delete(key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

func (s *MapStore) Clear() error {
	s.mu.Lock()
	s.entries = make(map[string]mapEntry)
	s.mu.Unlock()
	return nil
}

// Sweep takes the lock for one linear pass; no I/O happens inside.
func (s *MapStore) Sweep() int {
	s.mu.Lock()
	removed := s.purgeExpiredLocked(s.now())
	s.mu.Unlock()
	return removed
}

func (s *MapStore) Len() int {
	s.mu.Lock()
	n := len(s.entries)
	s.mu.Unlock()
	return n
}

func (s *MapStore) Close() error { return nil }

func (s *MapStore) purgeExpiredLocked(now time.Time) int {
	removed := 0
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

func (s *MapStore) evictSoonestLocked() {
	var victim string
	var soonest time.Time
	found := false
	for k, e := range s.entries {
		if !found || e.expiresAt.Before(soonest) {
			victim, soonest, found = k, e.expiresAt, true
		}
	}
	if found {
		delete(s.entries, victim)
	}
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
