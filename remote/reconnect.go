package remote

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v5"
)

// timerFunc adapts the after seam to retry-go's Timer.
type timerFunc func(time.Duration) <-chan time.Time

func (f timerFunc) After(d time.Duration) <-chan time.Time { return f(d) }

// run is the only goroutine that dials. Each wakeup starts one reconnection
// episode; between episodes the loop sleeps until an operation loses the
// connection or an operator calls Reconnect.
func (c *Client) run() {
	defer c.closeWg.Done()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-c.stopCh
		cancel()
	}()
	for {
		select {
		case <-c.stopCh:
			return
		case <-c.kick:
			c.episode(ctx)
		}
	}
}

// episode spends one attempt budget trying to reach the backend. retry-go
// drives the attempt loop: attempt n is preceded by a min(n*baseDelay,
// maxDelay) wait and probes under the op timeout. Success parks the machine
// in Connected; a spent budget parks it in Disconnected until the next
// Reconnect.
func (c *Client) episode(ctx context.Context) {
	if !c.transition(Disconnected, Connecting, nil) {
		return // already connected, stale wakeup
	}

	// retry-go fires the first attempt immediately, so the first wait of
	// the schedule happens here.
	select {
	case <-ctx.Done():
		return
	case <-c.after(c.delay(1)):
	}

	err := retry.New(
		retry.Context(ctx),
		retry.Attempts(uint(c.maxRetries)),
		retry.DelayType(func(n uint, _ error, _ retry.DelayContext) time.Duration {
			// n is the failed attempt (1-based); the wait precedes n+1
			return c.delay(int(n) + 1)
		}),
		retry.WithTimer(timerFunc(c.after)),
		retry.OnRetry(func(n uint, err error) {
			if c.onAttempt != nil {
				c.onAttempt(int(n)+1, err) // OnRetry counts from 0
			}
		}),
		retry.LastErrorOnly(true),
	).Do(func() error {
		pctx, cancel := context.WithTimeout(ctx, c.opTimeout)
		defer cancel()
		return c.probe(pctx)
	})
	if err == nil {
		c.transition(Connecting, Connected, nil)
		return
	}
	if ctx.Err() != nil {
		return // Close aborted the episode
	}
	c.transition(Connecting, Disconnected, err)
	if c.onExhausted != nil {
		c.onExhausted(c.maxRetries, err)
	}
}

// Reconnect schedules a fresh episode with a full attempt budget. It is the
// only way out of Disconnected once a budget has been spent. No-op while
// Connected or already reconnecting.
func (c *Client) Reconnect() {
	c.wake()
}

func (c *Client) wake() {
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

// transition moves the state from -> to atomically; only the winning caller
// notifies the observer, so each transition is reported exactly once.
func (c *Client) transition(from, to State, cause error) bool {
	if !c.state.CompareAndSwap(int32(from), int32(to)) {
		return false
	}
	if c.onStateChange != nil {
		c.onStateChange(from, to, cause)
	}
	return true
}

func (c *Client) delay(attempt int) time.Duration {
	d := time.Duration(attempt) * c.baseDelay
	if d > c.maxDelay {
		return c.maxDelay
	}
	return d
}
