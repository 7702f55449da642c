// Package remote maintains the connection to the remote cache backend.
//
// A Client wraps a go-redis universal client behind a small state machine
// (Disconnected, Connecting, Connected). Operations never dial: while the
// client is not Connected they return ErrNotConnected without touching the
// network, and a single background loop owns every connection attempt. Each
// operation runs under its own derived timeout so a slow backend cannot
// stall callers beyond a bounded window.
package remote

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/failcache/internal/redisinfo"
)

var (
	// ErrNotConnected is returned by every operation while the backend is
	// unreachable. Callers treat it as "skip this tier", not as a failure.
	ErrNotConnected = errors.New("remote: not connected")

	// ErrNoBackend is returned by New when the config names no backend.
	ErrNoBackend = errors.New("remote: no address, URL, or client configured")
)

const (
	defaultOpTimeout  = 3 * time.Second
	defaultMaxRetries = 10
	defaultBaseDelay  = time.Second
	defaultMaxDelay   = 30 * time.Second
)

// Config selects the backend and tunes the reconnect policy. Exactly one of
// Client, URL, or Addr must be set; they are consulted in that order.
type Config struct {
	// Addr is a host:port. Username/Password/DB apply only with Addr.
	Addr     string
	Username string
	Password string
	DB       int

	// URL is a redis:// or rediss:// URL, parsed by go-redis.
	URL string

	// Client is a pre-built client. CloseClient controls whether Close
	// releases it; clients built internally from Addr/URL are always owned.
	Client      goredis.UniversalClient
	CloseClient bool

	// OpTimeout bounds every remote call, probes included. Default 3s.
	OpTimeout time.Duration

	// MaxRetries is the attempt budget per disconnection episode; when it
	// is spent the client stays Disconnected until Reconnect. Default 10.
	// Attempt n is preceded by a min(n*BaseDelay, MaxDelay) wait.
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// OnStateChange observes every transition. cause is non-nil when an
	// error forced the transition (connection loss, exhausted budget). It
	// may be called from operation goroutines and must not block.
	OnStateChange func(from, to State, cause error)

	// OnAttempt observes every failed probe inside an episode, before the
	// next wait. attempt is 1-based. Must not block.
	OnAttempt func(attempt int, err error)

	// OnExhausted fires once per episode that spends its whole budget.
	OnExhausted func(attempts int, last error)
}

// Client is a state-gated view of one redis backend. Safe for concurrent
// use.
type Client struct {
	rdb         goredis.UniversalClient
	closeClient bool

	opTimeout  time.Duration
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration

	onStateChange func(from, to State, cause error)
	onAttempt     func(attempt int, err error)
	onExhausted   func(attempts int, last error)

	state atomic.Int32

	kick      chan struct{}
	stopCh    chan struct{}
	closeWg   sync.WaitGroup
	closeOnce sync.Once

	// test seams
	after func(time.Duration) <-chan time.Time
	probe func(ctx context.Context) error
}

// MemoryInfo is a best-effort snapshot of the backend's INFO memory section.
type MemoryInfo struct {
	UsedBytes int64
	PeakBytes int64
	MaxBytes  int64
	UsedHuman string
}

// New builds the client and starts its reconnect loop. The first connection
// attempt is scheduled immediately; New itself never dials, so construction
// is fast even when the backend is down.
func New(cfg Config) (*Client, error) {
	c, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	c.start()
	return c, nil
}

func newClient(cfg Config) (*Client, error) {
	var rdb goredis.UniversalClient
	closeClient := cfg.CloseClient
	switch {
	case cfg.Client != nil:
		rdb = cfg.Client
	case cfg.URL != "":
		opt, err := goredis.ParseURL(cfg.URL)
		if err != nil {
			return nil, err
		}
		opt.MaxRetries = -1 // the reconnect loop owns retry policy
		rdb = goredis.NewClient(opt)
		closeClient = true
	case cfg.Addr != "":
		rdb = goredis.NewClient(&goredis.Options{
			Addr:       cfg.Addr,
			Username:   cfg.Username,
			Password:   cfg.Password,
			DB:         cfg.DB,
			MaxRetries: -1,
		})
		closeClient = true
	default:
		return nil, ErrNoBackend
	}

	c := &Client{
		rdb:           rdb,
		closeClient:   closeClient,
		opTimeout:     cfg.OpTimeout,
		maxRetries:    cfg.MaxRetries,
		baseDelay:     cfg.BaseDelay,
		maxDelay:      cfg.MaxDelay,
		onStateChange: cfg.OnStateChange,
		onAttempt:     cfg.OnAttempt,
		onExhausted:   cfg.OnExhausted,
		kick:          make(chan struct{}, 1),
		stopCh:        make(chan struct{}),
		after:         time.After,
	}
	if c.opTimeout <= 0 {
		c.opTimeout = defaultOpTimeout
	}
	if c.maxRetries <= 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.baseDelay <= 0 {
		c.baseDelay = defaultBaseDelay
	}
	if c.maxDelay <= 0 {
		c.maxDelay = defaultMaxDelay
	}
	c.probe = func(ctx context.Context) error {
		return c.rdb.Ping(ctx).Err()
	}
	return c, nil
}

func (c *Client) start() {
	c.closeWg.Add(1)
	go c.run()
	c.kick <- struct{}{}
}

// State reports the current connection state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Connected reports whether operations would currently reach the backend.
func (c *Client) Connected() bool {
	return c.State() == Connected
}

// Get returns the value for key. A redis nil reply is a miss, not an error.
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if !c.Connected() {
		return nil, false, ErrNotConnected
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		c.observe(err)
		return nil, false, err
	}
	return b, true, nil
}

func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		c.observe(err)
		return err
	}
	return nil
}

func (c *Client) Has(ctx context.Context, key string) (bool, error) {
	if !c.Connected() {
		return false, ErrNotConnected
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		c.observe(err)
		return false, err
	}
	return n > 0, nil
}

func (c *Client) Del(ctx context.Context, key string) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.observe(err)
		return err
	}
	return nil
}

// FlushDB clears the backend's current database.
func (c *Client) FlushDB(ctx context.Context) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	if err := c.rdb.FlushDB(ctx).Err(); err != nil {
		c.observe(err)
		return err
	}
	return nil
}

// Memory fetches the INFO memory section. Diagnostic only.
func (c *Client) Memory(ctx context.Context) (MemoryInfo, error) {
	if !c.Connected() {
		return MemoryInfo{}, ErrNotConnected
	}
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	raw, err := c.rdb.Info(ctx, "memory").Result()
	if err != nil {
		c.observe(err)
		return MemoryInfo{}, err
	}
	fields := redisinfo.Parse(raw)
	mi := MemoryInfo{UsedHuman: fields["used_memory_human"]}
	if v, ok := redisinfo.Int(fields, "used_memory"); ok {
		mi.UsedBytes = v
	}
	if v, ok := redisinfo.Int(fields, "used_memory_peak"); ok {
		mi.PeakBytes = v
	}
	if v, ok := redisinfo.Int(fields, "maxmemory"); ok {
		mi.MaxBytes = v
	}
	return mi, nil
}

// Close stops the reconnect loop and releases the underlying client when
// this Client owns it. Safe to call multiple times.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopCh)
		c.closeWg.Wait()
	})
	if c.closeClient {
		if err := c.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}

func (c *Client) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, c.opTimeout)
}

// observe classifies an operation error and, for connection-class failures,
// flips Connected -> Disconnected exactly once and wakes the reconnect loop.
func (c *Client) observe(err error) {
	if !isConnError(err) {
		return
	}
	if c.transition(Connected, Disconnected, err) {
		c.wake()
	}
}

func isConnError(err error) bool {
	if err == nil || err == goredis.Nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, goredis.ErrClosed) {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
