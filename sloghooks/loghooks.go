package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/failcache"
	rm "github.com/unkn0wn-root/failcache/remote"
)

type Options struct {
	// Sampling to avoid floods on the read path; 0/1 = log all.
	SelfHealEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr atomic.Uint64
}

var _ failcache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) StateChange(from, to rm.State, cause error) {
	if h.l == nil {
		return
	}
	switch {
	case from == rm.Connected && to == rm.Disconnected:
		h.l.Error("failcache.state_change",
			"from", from.String(),
			"to", to.String(),
			"cause", cause)
	case to == rm.Connected:
		h.l.Info("failcache.state_change",
			"from", from.String(),
			"to", to.String())
	default:
		h.l.Debug("failcache.state_change",
			"from", from.String(),
			"to", to.String())
	}
}

func (h *Hooks) ReconnectGiveUp(attempts int, last error) {
	if h.l == nil {
		return
	}
	h.l.Warn("failcache.reconnect_give_up",
		"attempts", attempts,
		"last", last)
}

func (h *Hooks) SelfHeal(key, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("failcache.self_heal",
		"key", h.redact(key),
		"reason", reason)
}

func (h *Hooks) PartialClear(err error) {
	if h.l == nil {
		return
	}
	h.l.Error("failcache.partial_clear",
		"err", err)
}

func (h *Hooks) SweepDone(removed int) {
	if h.l == nil || removed == 0 {
		return
	}
	h.l.Debug("failcache.sweep_done",
		"removed", removed)
}
