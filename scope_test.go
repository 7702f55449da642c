package failcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestScopeRoundTripAndKeying(t *testing.T) {
	ctx := context.Background()
	cc := newTestCache(t, nil)
	users := NewScope[user](cc, "user", time.Minute)

	if _, ok := users.Get(ctx, "1"); ok {
		t.Fatal("hit before any Set")
	}
	v := user{ID: "1", Name: "Ada"}
	if !users.Set(ctx, "1", v) {
		t.Fatal("Set rejected")
	}
	got, ok := users.Get(ctx, "1")
	if !ok || got != v {
		t.Fatalf("got=%+v ok=%v", got, ok)
	}

	// scope keys are plain BuildKey keys, reachable through the facade too
	if users.Key("1") != BuildKey("user", "1") {
		t.Fatalf("Key=%q", users.Key("1"))
	}
	var direct user
	if !cc.GetInto(ctx, BuildKey("user", "1"), &direct) || direct != v {
		t.Fatalf("direct read=%+v", direct)
	}

	if !users.Delete(ctx, "1") {
		t.Fatal("Delete reported failure")
	}
	if _, ok := users.Get(ctx, "1"); ok {
		t.Fatal("value survived Delete")
	}
}

func TestScopeResolvesDomainTTL(t *testing.T) {
	cc := newTestCache(t, func(o *Options) {
		o.DefaultTTL = time.Hour
		o.DomainTTLs = map[string]time.Duration{"user": 5 * time.Minute}
	})

	if s := NewScope[user](cc, "user", 0); s.ttl != 5*time.Minute {
		t.Fatalf("ttl=%v want the domain ttl", s.ttl)
	}
	if s := NewScope[user](cc, "other", 0); s.ttl != time.Hour {
		t.Fatalf("ttl=%v want the default ttl", s.ttl)
	}
	if s := NewScope[user](cc, "user", time.Second); s.ttl != time.Second {
		t.Fatalf("ttl=%v want the explicit ttl", s.ttl)
	}
}

func TestGetOrComputeCachesTheResult(t *testing.T) {
	ctx := context.Background()
	cc := newTestCache(t, nil)
	users := NewScope[user](cc, "user", time.Minute)

	calls := 0
	v, err := users.GetOrCompute(ctx, "1", func(context.Context) (user, error) {
		calls++
		return user{ID: "1", Name: "Ada"}, nil
	})
	if err != nil || v.Name != "Ada" {
		t.Fatalf("v=%+v err=%v", v, err)
	}
	if _, err := users.GetOrCompute(ctx, "1", func(context.Context) (user, error) {
		calls++
		return user{}, nil
	}); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("compute ran %d times, want 1", calls)
	}
}

func TestGetOrComputeErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	cc := newTestCache(t, nil)
	users := NewScope[user](cc, "user", time.Minute)

	boom := errors.New("upstream down")
	calls := 0
	if _, err := users.GetOrCompute(ctx, "1", func(context.Context) (user, error) {
		calls++
		return user{}, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("err=%v want %v", err, boom)
	}

	v, err := users.GetOrCompute(ctx, "1", func(context.Context) (user, error) {
		calls++
		return user{ID: "1", Name: "Ada"}, nil
	})
	if err != nil || v.Name != "Ada" {
		t.Fatalf("v=%+v err=%v", v, err)
	}
	if calls != 2 {
		t.Fatalf("compute ran %d times, want 2 (error then success)", calls)
	}
}

func TestGetOrComputeSharesOneFlight(t *testing.T) {
	ctx := context.Background()
	cc := newTestCache(t, nil)
	users := NewScope[user](cc, "user", time.Minute)

	gate := make(chan struct{})
	var calls atomic.Int32
	var wg sync.WaitGroup
	results := make(chan user, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := users.GetOrCompute(ctx, "42", func(context.Context) (user, error) {
				calls.Add(1)
				<-gate
				return user{ID: "42", Name: "Grace"}, nil
			})
			if err != nil {
				t.Errorf("GetOrCompute: %v", err)
				return
			}
			results <- v
		}()
	}

	time.Sleep(50 * time.Millisecond) // let callers pile onto the flight
	close(gate)
	wg.Wait()
	close(results)

	if n := calls.Load(); n != 1 {
		t.Fatalf("compute ran %d times, want 1", n)
	}
	count := 0
	for v := range results {
		count++
		if v.Name != "Grace" {
			t.Fatalf("waiter got %+v", v)
		}
	}
	if count != 8 {
		t.Fatalf("%d waiters returned, want 8", count)
	}
}

func TestGetAsDecodesTyped(t *testing.T) {
	ctx := context.Background()
	cc := newTestCache(t, nil)

	k := BuildKey("user", "9")
	if !cc.Set(ctx, k, user{ID: "9", Name: "Eve"}, time.Minute) {
		t.Fatal("Set rejected")
	}
	v, ok := GetAs[user](ctx, cc, k)
	if !ok || v.Name != "Eve" {
		t.Fatalf("v=%+v ok=%v", v, ok)
	}
	if _, ok := GetAs[user](ctx, cc, BuildKey("user", "absent")); ok {
		t.Fatal("hit for a key never written")
	}
}
