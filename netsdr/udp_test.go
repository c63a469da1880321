package netsdr

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"
)

// dataPacket builds a minimal IQ datagram: two header bytes, the 16-bit
// sequence counter, then payload filler.
func dataPacket(seq uint16, payloadLen int) []byte {
	p := make([]byte, 4+payloadLen)
	p[0] = 0x04
	p[1] = 0x84
	binary.LittleEndian.PutUint16(p[2:4], seq)
	return p
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func startUDP(t *testing.T) (*UDPData, net.Conn) {
	t.Helper()
	d := &UDPData{Port: 0}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Stop)

	conn, err := net.Dial("udp", d.Addr().String())
	if err != nil {
		t.Fatalf("dial data port: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return d, conn
}

func TestUDPDataCountsDatagrams(t *testing.T) {
	d, conn := startUDP(t)

	total := 0
	for seq := uint16(1); seq <= 3; seq++ {
		pkt := dataPacket(seq, 64)
		if _, err := conn.Write(pkt); err != nil {
			t.Fatalf("send datagram: %v", err)
		}
		total += len(pkt)
	}

	waitFor(t, "datagram counter", func() bool { return d.Datagrams() == 3 })
	if d.Bytes() != uint64(total) {
		t.Fatalf("Bytes = %d, want %d", d.Bytes(), total)
	}
	if d.Dropped() != 0 {
		t.Fatalf("Dropped = %d, want 0", d.Dropped())
	}
}

func TestUDPDataEstimatesDrops(t *testing.T) {
	d, conn := startUDP(t)

	for _, seq := range []uint16{1, 2, 5} {
		if _, err := conn.Write(dataPacket(seq, 32)); err != nil {
			t.Fatalf("send datagram: %v", err)
		}
	}

	waitFor(t, "datagram counter", func() bool { return d.Datagrams() == 3 })
	if d.Dropped() != 2 {
		t.Fatalf("Dropped = %d, want 2 (sequence jumped 2 to 5)", d.Dropped())
	}
}

func TestUDPDataSinkSeesSizes(t *testing.T) {
	type seen struct {
		size int
		seq  uint16
	}
	got := make(chan seen, 1)

	d := &UDPData{Port: 0, Sink: func(size int, seq uint16) {
		got <- seen{size, seq}
	}}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	conn, err := net.Dial("udp", d.Addr().String())
	if err != nil {
		t.Fatalf("dial data port: %v", err)
	}
	defer conn.Close()

	pkt := dataPacket(7, 16)
	if _, err := conn.Write(pkt); err != nil {
		t.Fatalf("send datagram: %v", err)
	}

	select {
	case s := <-got:
		if s.size != len(pkt) || s.seq != 7 {
			t.Fatalf("sink saw size=%d seq=%d, want size=%d seq=7", s.size, s.seq, len(pkt))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("sink never invoked")
	}
}

func TestUDPDataRestartRebinds(t *testing.T) {
	d := &UDPData{Port: 0}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer d.Stop()

	// Restart while running: the old socket must be released and a new
	// one bound, so a second bind on the same ephemeral port succeeds.
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if d.Addr() == nil {
		t.Fatal("no bound address after restart")
	}

	conn, err := net.Dial("udp", d.Addr().String())
	if err != nil {
		t.Fatalf("dial after restart: %v", err)
	}
	defer conn.Close()
	if _, err := conn.Write(dataPacket(1, 8)); err != nil {
		t.Fatalf("send datagram: %v", err)
	}
	waitFor(t, "post-restart datagram", func() bool { return d.Datagrams() == 1 })

	d.Stop()
	d.Stop() // idempotent
}
