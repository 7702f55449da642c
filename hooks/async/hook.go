// usage:
//
// import (
//
//	"log/slog"
//
//	"github.com/unkn0wn-root/failcache"
//	"github.com/unkn0wn-root/failcache/hooks/async"
//	"github.com/unkn0wn-root/failcache/sloghooks"
//
// )
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    SelfHealEvery: 10, // sample logs: ~every 10th self-heal
//	})
//
// hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
// defer hooks.Close()
//
//	cache, _ := failcache.New(failcache.Options{
//	    Addr:  "127.0.0.1:6379",
//	    Hooks: hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/failcache"
	rm "github.com/unkn0wn-root/failcache/remote"
)

type Hooks struct {
	inner   failcache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Uint64
}

var _ failcache.Hooks = (*Hooks)(nil)

func New(inner failcache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

func (h *Hooks) try(f func()) {
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

// Dropped reports how many events were discarded because the queue was full.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) SelfHeal(k, r string)   { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) PartialClear(err error) { h.try(func() { h.inner.PartialClear(err) }) }
func (h *Hooks) SweepDone(removed int)  { h.try(func() { h.inner.SweepDone(removed) }) }
func (h *Hooks) StateChange(from, to rm.State, cause error) {
	h.try(func() { h.inner.StateChange(from, to, cause) })
}
func (h *Hooks) ReconnectGiveUp(attempts int, last error) {
	h.try(func() { h.inner.ReconnectGiveUp(attempts, last) })
}
