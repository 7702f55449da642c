// Package fallback implements the in-process tier of the cache: the store
// that serves every read and write while the remote backend is unreachable.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly
// the same []byte that was previously passed to Set for a key (no
// prepended/appended metadata, no re-encoding, no mutation). They must also
// be safe for concurrent use; the facade calls them from many goroutines and
// runs Sweep from a background loop.
package fallback

import "time"

// Store is a bounded byte store with per-entry TTLs.
//
// An entry is observable iff now < its expiry; expired entries read as
// absent whether or not they have been physically removed yet. Set with a
// non-positive ttl must leave the key absent (no caching).
type Store interface {
	// Set stores value under key with the given TTL, overwriting any
	// existing entry. Returns an error only when the engine rejected the
	// write (e.g. entry too large); the default MapStore never does.
	Set(key string, value []byte, ttl time.Duration) error

	// Get returns (value, true) on a live hit and (nil, false) otherwise.
	// Expired entries are removed on the way out (lazy deletion).
	Get(key string) ([]byte, bool)

	// Has reports whether a live entry exists, with the same lazy deletion
	// as Get.
	Has(key string) bool

	// Delete removes a key. Removing an absent key is not an error.
	Delete(key string) error

	// Clear removes all entries unconditionally.
	Clear() error

	// Sweep makes one pass over the store, removes every expired entry and
	// returns how many it removed. Idempotent; safe to run concurrently
	// with reads and writes.
	Sweep() int

	// Len reports the number of physically stored entries.
	Len() int

	// Close releases resources.
	Close() error
}
