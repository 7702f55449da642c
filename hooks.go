package failcache

import rm "github.com/unkn0wn-root/failcache/remote"

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The cache calls them on hot paths.
type Hooks interface {
	// Remote connection state moved. cause is non-nil when an error forced
	// the transition (connection loss, spent attempt budget).
	StateChange(from, to rm.State, cause error)

	// The reconnect loop spent its whole attempt budget and parked; only
	// Reconnect restarts it.
	ReconnectGiveUp(attempts int, last error)

	// A stored entry could not be decoded and was deleted on read.
	// reason ∈ {"decode"}
	SelfHeal(key, reason string)

	// Clear left entries behind on at least one tier.
	PartialClear(err error)

	// A sweep pass finished; removed is the number of expired entries
	// dropped from the fallback store.
	SweepDone(removed int)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) StateChange(rm.State, rm.State, error) {}
func (NopHooks) ReconnectGiveUp(int, error)            {}
func (NopHooks) SelfHeal(string, string)               {}
func (NopHooks) PartialClear(error)                    {}
func (NopHooks) SweepDone(int)                         {}
