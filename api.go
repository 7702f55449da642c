package failcache

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	cd "github.com/unkn0wn-root/failcache/codec"
	fb "github.com/unkn0wn-root/failcache/fallback"
)

// Cache is the high-level cache API the rest of the application talks to.
// Every operation degrades instead of failing: backend trouble routes the
// call to the in-process fallback store and is never surfaced to callers.
type Cache interface {
	// Set stores value under key for ttl. It reports whether any backend
	// accepted the write; false means the value could not be serialized
	// (or, with a size-limited fallback engine, that the write was
	// rejected). ttl <= 0 means "do not cache this" and reports true.
	Set(ctx context.Context, key string, value any, ttl time.Duration) bool

	// Get returns the decoded value for key, or ok=false when absent.
	// The concrete type is whatever the configured codec produces for a
	// generic decode (maps/slices for JSON); use GetInto or GetAs for
	// typed reads.
	Get(ctx context.Context, key string) (any, bool)

	// GetInto decodes the value for key into out (a non-nil pointer).
	GetInto(ctx context.Context, key string, out any) bool

	Has(ctx context.Context, key string) bool

	// Delete removes key from every tier it could live in. It reports
	// whether all attempted removals succeeded.
	Delete(ctx context.Context, key string) bool

	// Clear empties both tiers. A one-sided failure is logged once as a
	// PartialClearError and reported as false.
	Clear(ctx context.Context) bool

	Stats(ctx context.Context) Stats

	// Reconnect grants the remote backend a fresh attempt budget after the
	// reconnect loop gave up. No-op while connected or in fallback-only
	// mode.
	Reconnect()

	Close(ctx context.Context) error
}

// Options tune the cache. The zero value is usable: no remote backend
// (fallback-only mode), JSON codec, default map store, no logging.
type Options struct {
	// Remote backend selection, consulted in order: Client, URL, Addr.
	// All unset => fallback-only mode, permanently disconnected.
	Addr     string // host:port; Username/Password/DB apply to Addr only
	Username string
	Password string
	DB       int
	URL      string // redis:// URL, parsed by go-redis

	// Client injects a pre-built client. CloseClient controls whether
	// Close releases it; set true only when the cache exclusively owns it.
	Client      goredis.UniversalClient
	CloseClient bool

	OpTimeout      time.Duration // per remote call; 0 => 3s
	MaxRetries     int           // attempts per disconnection episode; 0 => 10
	RetryBaseDelay time.Duration // attempt n waits min(n*base, max); 0 => 1s
	RetryMaxDelay  time.Duration // 0 => 30s

	Fallback fb.Store // nil => MapStore(MaxFallbackEntries)

	// MaxFallbackEntries caps the default MapStore. 0 => 10000, negative
	// => unbounded. Ignored when Fallback is set.
	MaxFallbackEntries int

	SweepInterval time.Duration // expired-entry sweep period; 0 => 5m

	DefaultTTL time.Duration            // scope TTL of last resort; 0 => 10m
	DomainTTLs map[string]time.Duration // per-domain scope TTLs

	// MirrorWrites also writes every remote Set to the fallback store, so
	// a later outage can serve recent entries. Off by default: mirrored
	// entries can go stale independently.
	MirrorWrites bool

	Codec  cd.Codec // nil => codec.JSON{}
	Logger Logger   // nil => NopLogger
	Hooks  Hooks    // nil => NopHooks
}

// New builds the cache and starts its background loops (fallback sweeper
// and, when a backend is configured, the remote reconnect loop). It never
// dials, so construction succeeds even while the backend is down.
func New(opts Options) (Cache, error) {
	return newCache(opts)
}
