package netsdr

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"
)

// DialFunc opens the underlying control connection. The default is a
// plain TCP dial; an SSH tunnel supplies its own.
type DialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// TCPControl implements ControlTransport over one TCP session to the
// receiver's control port. A read pump splits the inbound stream on the
// length-prefixed framing and delivers whole frames to Messages; the
// channel closes when the session ends, failing any pending await.
type TCPControl struct {
	Address string
	Timeout time.Duration // dial and per-write deadline
	Dial    DialFunc      // optional, plain TCP when nil

	mu        sync.Mutex
	conn      net.Conn
	msgs      chan []byte
	done      chan struct{}
	connected atomic.Bool
}

// NewTCPControl returns a transport for the given host:port with the
// usual five second dial and write bound.
func NewTCPControl(addr string) *TCPControl {
	return &TCPControl{
		Address: addr,
		Timeout: 5 * time.Second,
	}
}

// Connect dials the control port and starts the read pump. Calling while
// already connected is a no-op.
func (t *TCPControl) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return nil
	}

	dial := t.Dial
	if dial == nil {
		d := net.Dialer{Timeout: t.Timeout}
		dial = d.DialContext
	}
	conn, err := dial(ctx, "tcp", t.Address)
	if err != nil {
		return fmt.Errorf("dial %s: %w", t.Address, err)
	}

	t.adopt(conn)
	return nil
}

// SetConn adopts an already-established connection. Used by tests and by
// callers that dialed through their own channel.
func (t *TCPControl) SetConn(conn net.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		return
	}
	t.adopt(conn)
}

// adopt installs conn and starts its read pump. Caller holds t.mu.
func (t *TCPControl) adopt(conn net.Conn) {
	t.conn = conn
	t.msgs = make(chan []byte, 8)
	t.done = make(chan struct{})
	t.connected.Store(true)
	go t.readLoop(conn, t.msgs, t.done)
}

// Disconnect closes the session. Safe to call while disconnected.
func (t *TCPControl) Disconnect() {
	t.mu.Lock()
	conn := t.conn
	done := t.done
	if conn != nil {
		t.conn = nil
		t.connected.Store(false)
	}
	t.mu.Unlock()

	if conn != nil {
		close(done)
		conn.Close()
	}
}

// Connected reports whether a session is up.
func (t *TCPControl) Connected() bool { return t.connected.Load() }

// Messages returns the frame channel of the current session. Nil before
// the first connect; awaits against it are still bounded by the
// correlator's reply timeout.
func (t *TCPControl) Messages() <-chan []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.msgs
}

// Send writes one frame, handling short writes, with a write deadline
// per attempt.
func (t *TCPControl) Send(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return ErrNotConnected
	}
	for len(frame) > 0 {
		if t.Timeout > 0 {
			_ = t.conn.SetWriteDeadline(time.Now().Add(t.Timeout))
		}
		n, err := t.conn.Write(frame)
		if err != nil {
			return fmt.Errorf("write control frame: %w", err)
		}
		frame = frame[n:]
	}
	return nil
}

// readLoop delivers framed messages until the connection dies or the
// session is torn down, then closes msgs so pending awaits fail fast.
func (t *TCPControl) readLoop(conn net.Conn, msgs chan []byte, done chan struct{}) {
	defer func() {
		t.mu.Lock()
		if t.conn == conn {
			t.conn = nil
			t.connected.Store(false)
			conn.Close()
		}
		t.mu.Unlock()
		close(msgs)
	}()

	for {
		frame, err := readFrame(conn)
		if err != nil {
			return
		}
		select {
		case msgs <- frame:
		case <-done:
			return
		}
	}
}

// readFrame reads one length-prefixed control frame, header included.
// A bare two-byte header is a valid frame: the receiver NAKs unsupported
// items that way.
func readFrame(conn net.Conn) ([]byte, error) {
	var hdr [2]byte
	if _, err := io.ReadFull(conn, hdr[:]); err != nil {
		return nil, err
	}
	length := int(binary.LittleEndian.Uint16(hdr[:]) & 0x1FFF)
	if length < len(hdr) {
		return nil, fmt.Errorf("control frame length %d below header size", length)
	}
	frame := make([]byte, length)
	copy(frame, hdr[:])
	if _, err := io.ReadFull(conn, frame[2:]); err != nil {
		return nil, err
	}
	return frame, nil
}
