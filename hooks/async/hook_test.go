package asynchook

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/unkn0wn-root/failcache"
	rm "github.com/unkn0wn-root/failcache/remote"
)

// blockingHooks parks the worker on the first event until released.
type blockingHooks struct {
	failcache.NopHooks
	entered chan struct{}
	release chan struct{}
	heals   atomic.Int32
}

func (b *blockingHooks) SelfHeal(key, reason string) {
	b.entered <- struct{}{}
	<-b.release
	b.heals.Add(1)
}

type recordingHooks struct {
	failcache.NopHooks
	states chan [2]rm.State
}

func (r *recordingHooks) StateChange(from, to rm.State, cause error) {
	r.states <- [2]rm.State{from, to}
}

func TestFullQueueDropsAndCounts(t *testing.T) {
	inner := &blockingHooks{
		entered: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
	h := New(inner, 1, 2)

	h.SelfHeal("k1", "decode")
	select {
	case <-inner.entered: // the worker holds k1, the queue is empty again
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the first event")
	}

	// two fit the queue, two overflow
	h.SelfHeal("k2", "decode")
	h.SelfHeal("k3", "decode")
	h.SelfHeal("k4", "decode")
	h.SelfHeal("k5", "decode")

	if got := h.Dropped(); got != 2 {
		t.Fatalf("Dropped()=%d want 2", got)
	}

	close(inner.release)
	h.Close()
	if got := inner.heals.Load(); got != 3 {
		t.Fatalf("delivered=%d events, want 3", got)
	}
	if got := h.Dropped(); got != 2 {
		t.Fatalf("Dropped()=%d after drain, want 2", got)
	}
}

func TestForwardsEventsToInner(t *testing.T) {
	inner := &recordingHooks{states: make(chan [2]rm.State, 1)}
	h := New(inner, 1, 4)
	defer h.Close()

	h.StateChange(rm.Connected, rm.Disconnected, errors.New("lost"))

	select {
	case got := <-inner.states:
		if got != [2]rm.State{rm.Connected, rm.Disconnected} {
			t.Fatalf("StateChange forwarded %v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event never reached the inner hooks")
	}
}
