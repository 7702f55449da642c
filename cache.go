package failcache

import (
	"context"
	"errors"
	"sync"
	"time"

	cd "github.com/unkn0wn-root/failcache/codec"
	fb "github.com/unkn0wn-root/failcache/fallback"
	rm "github.com/unkn0wn-root/failcache/remote"
)

const (
	defaultTTL        = 10 * time.Minute
	defaultSweep      = 5 * time.Minute
	defaultMaxEntries = 10000
)

type cache struct {
	remote   *rm.Client // nil in fallback-only mode
	fallback fb.Store
	codec    cd.Codec
	log      Logger
	hooks    Hooks

	defaultTTL   time.Duration
	domainTTLs   map[string]time.Duration
	mirrorWrites bool

	// background sweep
	ticker    *time.Ticker
	stopCh    chan struct{}
	closeWg   sync.WaitGroup
	closeOnce sync.Once
}

var _ Cache = (*cache)(nil)

func newCache(opts Options) (*cache, error) {
	c := &cache{
		domainTTLs:   opts.DomainTTLs,
		mirrorWrites: opts.MirrorWrites,
	}
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	c.codec = coalesce[cd.Codec](opts.Codec, cd.JSON{})
	c.defaultTTL = coalesce[time.Duration](opts.DefaultTTL, defaultTTL)

	c.fallback = opts.Fallback
	if c.fallback == nil {
		max := opts.MaxFallbackEntries
		if max == 0 {
			max = defaultMaxEntries
		}
		c.fallback = fb.NewMapStore(max)
	}

	if opts.Client != nil || opts.URL != "" || opts.Addr != "" {
		rc, err := rm.New(rm.Config{
			Addr:          opts.Addr,
			Username:      opts.Username,
			Password:      opts.Password,
			DB:            opts.DB,
			URL:           opts.URL,
			Client:        opts.Client,
			CloseClient:   opts.CloseClient,
			OpTimeout:     opts.OpTimeout,
			MaxRetries:    opts.MaxRetries,
			BaseDelay:     opts.RetryBaseDelay,
			MaxDelay:      opts.RetryMaxDelay,
			OnStateChange: c.onStateChange,
			OnAttempt:     c.onAttempt,
			OnExhausted:   c.onExhausted,
		})
		if err != nil {
			_ = c.fallback.Close()
			return nil, err
		}
		c.remote = rc
	} else {
		c.log.Info("no remote backend configured; running on the fallback store only", nil)
	}

	c.ticker = time.NewTicker(coalesce[time.Duration](opts.SweepInterval, defaultSweep))
	c.stopCh = make(chan struct{})
	c.closeWg.Add(1)
	go c.sweepLoop()
	return c, nil
}

func (c *cache) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		close(c.stopCh)
		c.closeWg.Wait()
		c.ticker.Stop()
	})
	var errs []error
	if c.remote != nil {
		if err := c.remote.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := c.fallback.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *cache) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if ttl <= 0 {
		return true // caching disabled for this value
	}
	payload, err := c.codec.Marshal(value)
	if err != nil {
		c.log.Warn("set dropped: value not serializable", Fields{"key": key, "err": err})
		return false
	}

	stored := false
	if c.remoteConnected() {
		if err := c.remote.Set(ctx, key, payload, ttl); err == nil {
			stored = true
		}
		// a failed remote write lands on the fallback below
	}
	if !stored || c.mirrorWrites {
		if err := c.fallback.Set(key, payload, ttl); err == nil {
			stored = true
		} else {
			c.log.Warn("fallback store rejected write", Fields{"key": key, "err": err})
		}
	}
	return stored
}

func (c *cache) Get(ctx context.Context, key string) (any, bool) {
	var v any
	if !c.GetInto(ctx, key, &v) {
		return nil, false
	}
	return v, true
}

func (c *cache) GetInto(ctx context.Context, key string, out any) bool {
	if c.remoteConnected() {
		raw, ok, err := c.remote.Get(ctx, key)
		if err == nil && ok {
			if decErr := c.codec.Unmarshal(raw, out); decErr == nil {
				return true
			}
			_ = c.remote.Del(ctx, key) // self-heal corrupt
			c.hooks.SelfHeal(key, "decode")
		}
		// miss or error: try the local tier
	}
	raw, ok := c.fallback.Get(key)
	if !ok {
		return false
	}
	if err := c.codec.Unmarshal(raw, out); err != nil {
		_ = c.fallback.Delete(key) // self-heal
		c.hooks.SelfHeal(key, "decode")
		return false
	}
	return true
}

func (c *cache) Has(ctx context.Context, key string) bool {
	if c.remoteConnected() {
		if ok, err := c.remote.Has(ctx, key); err == nil && ok {
			return true
		}
	}
	return c.fallback.Has(key)
}

func (c *cache) Delete(ctx context.Context, key string) bool {
	ok := true
	if c.remoteConnected() {
		if err := c.remote.Del(ctx, key); err != nil && !errors.Is(err, rm.ErrNotConnected) {
			ok = false
		}
	}
	if err := c.fallback.Delete(key); err != nil {
		ok = false
	}
	return ok
}

func (c *cache) Clear(ctx context.Context) bool {
	var remoteErr error
	if c.remoteConnected() {
		if err := c.remote.FlushDB(ctx); err != nil && !errors.Is(err, rm.ErrNotConnected) {
			remoteErr = err
		}
	}
	fallbackErr := c.fallback.Clear()
	if remoteErr == nil && fallbackErr == nil {
		return true
	}
	err := &PartialClearError{RemoteErr: remoteErr, FallbackErr: fallbackErr}
	c.hooks.PartialClear(err)
	c.log.Error("clear left stale entries behind", Fields{"err": err})
	return false
}

func (c *cache) Stats(ctx context.Context) Stats {
	st := Stats{FallbackEntries: c.fallback.Len()}
	if c.remote == nil {
		return st
	}
	st.RemoteState = c.remote.State()
	st.RemoteConnected = st.RemoteState == rm.Connected
	if st.RemoteConnected {
		if mi, err := c.remote.Memory(ctx); err == nil {
			st.RemoteMemory = &mi
		}
	}
	return st
}

func (c *cache) Reconnect() {
	if c.remote != nil {
		c.remote.Reconnect()
	}
}

// ResolveTTL returns the write TTL for a domain: its DomainTTLs entry when
// present, DefaultTTL otherwise. Scopes discover it by type assertion.
func (c *cache) ResolveTTL(domain string) time.Duration {
	if d, ok := c.domainTTLs[domain]; ok && d > 0 {
		return d
	}
	return c.defaultTTL
}

func (c *cache) remoteConnected() bool {
	return c.remote != nil && c.remote.Connected()
}

func (c *cache) onStateChange(from, to rm.State, cause error) {
	c.hooks.StateChange(from, to, cause)
	switch {
	case from == rm.Connected && to == rm.Disconnected:
		c.log.Error("remote connection lost; serving from fallback", Fields{"cause": cause})
	case to == rm.Connected:
		c.log.Info("remote connected", nil)
	default:
		c.log.Debug("remote state changed", Fields{"from": from.String(), "to": to.String()})
	}
}

func (c *cache) onAttempt(attempt int, err error) {
	c.log.Debug("remote probe failed", Fields{"attempt": attempt, "err": err})
}

func (c *cache) onExhausted(attempts int, last error) {
	c.hooks.ReconnectGiveUp(attempts, last)
	c.log.Warn("remote reconnect budget spent; fallback-only until Reconnect", Fields{"attempts": attempts, "last": last})
}

func (c *cache) sweepLoop() {
	defer c.closeWg.Done()
	for {
		select {
		case <-c.ticker.C:
			removed := c.fallback.Sweep()
			c.hooks.SweepDone(removed)
			if removed > 0 {
				c.log.Debug("swept expired fallback entries", Fields{"removed": removed})
			}
		case <-c.stopCh:
			return
		}
	}
}
