package failcache

import rm "github.com/unkn0wn-root/failcache/remote"

// Stats is a point-in-time snapshot of both tiers.
type Stats struct {
	// RemoteConnected reports whether the remote tier currently serves
	// calls. Always false in fallback-only mode.
	RemoteConnected bool

	// RemoteState is the reconnect machine's state. Disconnected in
	// fallback-only mode.
	RemoteState rm.State

	// FallbackEntries is the fallback store's current entry count.
	// Expired entries count until a read or sweep drops them.
	FallbackEntries int

	// RemoteMemory carries best-effort INFO memory diagnostics while
	// connected; nil otherwise (diagnostic failures are swallowed).
	RemoteMemory *rm.MemoryInfo
}
