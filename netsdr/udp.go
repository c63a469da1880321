package netsdr

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
)

// UDPData implements DataTransport: it binds the local data port and
// drains IQ datagrams, keeping counters. Sample payloads are never
// parsed or retained; the optional Sink sees only the datagram size and
// the 16-bit sequence counter for accounting.
//
// Counters are cumulative across restarts so a session total survives a
// listener rebind.
type UDPData struct {
	Port int // local UDP port; 0 picks an ephemeral one
	Sink func(size int, seq uint16)

	mu   sync.Mutex
	pc   net.PacketConn
	addr net.Addr

	datagrams atomic.Uint64
	bytes     atomic.Uint64
	dropped   atomic.Uint64
}

// Start binds the data port and begins draining datagrams. Calling while
// already listening rebinds: the old socket is closed first. Each run
// tracks sequence numbers from scratch.
func (d *UDPData) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pc != nil {
		d.pc.Close()
		d.pc = nil
	}

	var lc net.ListenConfig
	pc, err := lc.ListenPacket(ctx, "udp", fmt.Sprintf(":%d", d.Port))
	if err != nil {
		return fmt.Errorf("bind data port %d: %w", d.Port, err)
	}
	d.pc = pc
	d.addr = pc.LocalAddr()
	go d.readLoop(pc)
	return nil
}

// Stop closes the data socket. Safe to call while stopped.
func (d *UDPData) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pc != nil {
		d.pc.Close()
		d.pc = nil
	}
}

// Addr returns the bound local address, nil before the first Start.
func (d *UDPData) Addr() net.Addr {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addr
}

// Datagrams returns the number of datagrams received since creation.
func (d *UDPData) Datagrams() uint64 { return d.datagrams.Load() }

// Bytes returns the number of payload bytes received since creation.
func (d *UDPData) Bytes() uint64 { return d.bytes.Load() }

// Dropped estimates lost datagrams from gaps in the sequence counter.
func (d *UDPData) Dropped() uint64 { return d.dropped.Load() }

func (d *UDPData) readLoop(pc net.PacketConn) {
	buf := make([]byte, 2048)
	var lastSeq uint16
	haveSeq := false

	for {
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			return
		}
		d.datagrams.Add(1)
		d.bytes.Add(uint64(n))

		var seq uint16
		if n >= 4 {
			seq = binary.LittleEndian.Uint16(buf[2:4])
			if haveSeq {
				want := lastSeq + 1
				if want == 0 {
					want = 1 // the data sequence wraps past zero
				}
				if seq != want {
					d.dropped.Add(uint64(seq - want))
				}
			}
			lastSeq = seq
			haveSeq = true
		}

		if d.Sink != nil {
			d.Sink(n, seq)
		}
	}
}
