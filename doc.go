// Package failcache implements a two-tier cache that stays available when
// its remote backend is not. Reads and writes prefer the remote store
// (Redis) while it is reachable and degrade to a bounded in-process fallback
// store the moment it is not; no backend trouble ever reaches callers as an
// error.
//
// Components:
//   - remote.Client: state-gated redis client with a single reconnect loop
//     (Disconnected -> Connecting -> Connected, capped increasing delays,
//     finite attempt budget per outage).
//   - fallback.Store: in-process byte store with per-entry TTL (mutex-guarded
//     map by default; go-cache, bigcache, and ristretto engines available).
//   - codec.Codec: (de)serializes values <-> []byte (JSON by default).
//   - Scope[T]: per-domain typed view with singleflight compute-through.
//
// Keys:
//
//	<domain>:<hash>  - BuildKey(domain, rawID); rawID never appears verbatim
//
// Routing:
//
//	Set    -> remote while connected, else fallback (mirroring is opt-in)
//	Get    -> remote, then fallback on miss or failure
//	Delete -> both tiers, always
//	Clear  -> remote FLUSHDB + fallback clear; one-sided failure logged once
package failcache
