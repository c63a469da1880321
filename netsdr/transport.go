package netsdr

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors reported by the control path. Callers match with errors.Is.
var (
	// ErrNotConnected is returned when a control-channel send is attempted
	// while the transport reports no active connection.
	ErrNotConnected = errors.New("netsdr: control channel not connected")

	// ErrReplyTimeout is returned when the bounded reply await expires.
	ErrReplyTimeout = errors.New("netsdr: timed out awaiting control reply")

	// ErrClosed is returned when the control channel closes while a reply
	// is still being awaited.
	ErrClosed = errors.New("netsdr: control channel closed")
)

// DefaultReplyTimeout bounds how long a control command waits for the next
// inbound frame before the pending await fails. The receiver answers every
// Set Control Item within a frame time, so five seconds is generous.
const DefaultReplyTimeout = 5 * time.Second

// ControlTransport is the reliable command channel to the receiver. The
// concrete implementation is TCPControl; tests substitute fakes.
//
// Connected is owned by the transport and only ever read by the client.
// Messages returns the same channel for the lifetime of one connection;
// the transport delivers exactly one value per inbound frame and closes
// the channel when the connection goes down, so pending awaits fail
// instead of hanging.
type ControlTransport interface {
	Connect(ctx context.Context) error
	Disconnect()
	Connected() bool
	Send(ctx context.Context, frame []byte) error
	Messages() <-chan []byte
}

// DataTransport is the connectionless IQ sample channel. Start while
// already running rebinds the socket (restart semantics); Stop while
// stopped is a no-op. Datagram payloads are counted, never parsed.
type DataTransport interface {
	Start(ctx context.Context) error
	Stop()
}
