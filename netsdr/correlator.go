package netsdr

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Correlator owns the one-request-in-flight contract over the control
// channel. The protocol carries no request identifiers, so a reply is
// paired with its command purely by position: the next inbound frame
// after a send answers that send. A mutex serializes the whole
// send-and-await scope, which makes the single-outstanding discipline a
// guarantee of this type rather than a convention callers must follow.
type Correlator struct {
	transport ControlTransport
	timeout   time.Duration

	mu    sync.Mutex
	stale atomic.Uint64
}

// NewCorrelator wraps the given control transport. A zero timeout selects
// DefaultReplyTimeout.
func NewCorrelator(t ControlTransport, timeout time.Duration) *Correlator {
	if timeout <= 0 {
		timeout = DefaultReplyTimeout
	}
	return &Correlator{transport: t, timeout: timeout}
}

// ReplyTimeout reports the bound applied to each await.
func (c *Correlator) ReplyTimeout() time.Duration { return c.timeout }

// StaleFrames reports how many unsolicited or late frames have been
// discarded before sends. A non-zero value usually means an earlier
// await timed out and the reply arrived afterwards.
func (c *Correlator) StaleFrames() uint64 { return c.stale.Load() }

// SendAndAwaitReply transmits one control frame and suspends until the
// next inbound frame arrives, returning its payload. The await is bounded
// by the configured reply timeout and fails immediately when the channel
// closes or ctx is cancelled; it never hangs and a pending await never
// carries over into a later send.
func (c *Correlator) SendAndAwaitReply(ctx context.Context, frame []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.transport.Connected() {
		return nil, ErrNotConnected
	}

	// Frames queued from before this send cannot be the answer to it.
	c.drainStale()

	if err := c.transport.Send(ctx, frame); err != nil {
		return nil, fmt.Errorf("send control frame: %w", err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case reply, ok := <-c.transport.Messages():
		if !ok {
			return nil, ErrClosed
		}
		return reply, nil
	case <-timer.C:
		return nil, fmt.Errorf("no control reply within %s: %w", c.timeout, ErrReplyTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Correlator) drainStale() {
	for {
		select {
		case _, ok := <-c.transport.Messages():
			if !ok {
				return
			}
			c.stale.Add(1)
		default:
			return
		}
	}
}
