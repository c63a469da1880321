package netsdr

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Options tunes a Client. The zero value selects the defaults.
type Options struct {
	// SampleRate is the IQ output rate configured during pre-setup.
	// DefaultSampleRate when zero.
	SampleRate uint32

	// ReplyTimeout bounds every control-reply await.
	// DefaultReplyTimeout when zero.
	ReplyTimeout time.Duration
}

// Client sequences connection setup, correlates control-channel replies,
// and gates IQ streaming on the control connection.
//
// Its state is the product of two independently owned flags:
//
//	{Disconnected, Connected} x {IQStopped, IQStarted}
//
// The connection axis is owned by the control transport and only read
// here, freshly before every send. The streaming axis (IQStarted) is
// owned by the Client alone and is not derived from any transport
// value. Channel-dependent operations called while disconnected are
// silent no-ops, not errors. Losing or dropping the control connection
// does not clear IQStarted; see Disconnect.
type Client struct {
	control ControlTransport
	data    DataTransport
	corr    *Correlator

	sampleRate uint32
	iqStarted  atomic.Bool
}

// NewClient wires a Client over the given transports.
func NewClient(control ControlTransport, data DataTransport, opts Options) *Client {
	rate := opts.SampleRate
	if rate == 0 {
		rate = DefaultSampleRate
	}
	return &Client{
		control:    control,
		data:       data,
		corr:       NewCorrelator(control, opts.ReplyTimeout),
		sampleRate: rate,
	}
}

// Connect establishes the control channel and runs the three-command
// pre-setup sequence, each command acknowledged before the next is sent.
// Calling while already connected is a no-op. A pre-setup failure is
// returned as-is with no rollback: the connection stays however the
// transport reports it.
func (c *Client) Connect(ctx context.Context) error {
	if c.control.Connected() {
		return nil
	}
	if err := c.control.Connect(ctx); err != nil {
		return fmt.Errorf("connect control channel: %w", err)
	}
	for i, frame := range PreSetupSequence(c.sampleRate) {
		if _, err := c.corr.SendAndAwaitReply(ctx, frame); err != nil {
			return fmt.Errorf("pre-setup command %d of 3: %w", i+1, err)
		}
	}
	return nil
}

// Disconnect tears down the control channel. Safe to call while already
// disconnected. It deliberately leaves the data listener and the
// IQStarted flag alone: disconnecting the control channel never
// implicitly stops streaming. Stopping the stream is the caller's
// explicit job via StopIQ.
func (c *Client) Disconnect() {
	c.control.Disconnect()
}

// StartIQ asks the receiver to start IQ capture and then starts the data
// listener. No-op while disconnected. Calling while already streaming
// restarts the listener; the rebind lives in the data transport, the
// Client does not suppress the redundant start.
func (c *Client) StartIQ(ctx context.Context) error {
	if !c.control.Connected() {
		return nil
	}
	if _, err := c.corr.SendAndAwaitReply(ctx, EncodeIQStart()); err != nil {
		return fmt.Errorf("start iq capture: %w", err)
	}
	if err := c.data.Start(ctx); err != nil {
		return fmt.Errorf("start data listener: %w", err)
	}
	c.iqStarted.Store(true)
	return nil
}

// StopIQ asks the receiver to stop IQ capture and stops the data
// listener. No-op while disconnected.
func (c *Client) StopIQ(ctx context.Context) error {
	if !c.control.Connected() {
		return nil
	}
	if _, err := c.corr.SendAndAwaitReply(ctx, EncodeIQStop()); err != nil {
		return fmt.Errorf("stop iq capture: %w", err)
	}
	c.data.Stop()
	c.iqStarted.Store(false)
	return nil
}

// ChangeFrequency tunes the given receiver channel. No-op while
// disconnected; the single reply is awaited and discarded.
func (c *Client) ChangeFrequency(ctx context.Context, hz int64, channel int) error {
	if !c.control.Connected() {
		return nil
	}
	frame, err := EncodeFrequency(hz, channel)
	if err != nil {
		return err
	}
	if _, err := c.corr.SendAndAwaitReply(ctx, frame); err != nil {
		return fmt.Errorf("change frequency: %w", err)
	}
	return nil
}

// IQStarted reports the Client's own streaming bookkeeping.
func (c *Client) IQStarted() bool { return c.iqStarted.Load() }

// Connected reports the control transport's connection state.
func (c *Client) Connected() bool { return c.control.Connected() }

// StaleFrames reports how many control frames arrived outside any await
// and were discarded. Diagnostic only.
func (c *Client) StaleFrames() uint64 { return c.corr.StaleFrames() }
