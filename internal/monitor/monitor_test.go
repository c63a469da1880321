package monitor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rjboer/GoNetSDR/internal/logging"
	"github.com/rjboer/GoNetSDR/internal/telemetry"
)

type fakeCounters struct {
	datagrams atomic.Uint64
	bytes     atomic.Uint64
	dropped   atomic.Uint64
}

func (f *fakeCounters) Datagrams() uint64 { return f.datagrams.Load() }
func (f *fakeCounters) Bytes() uint64     { return f.bytes.Load() }
func (f *fakeCounters) Dropped() uint64   { return f.dropped.Load() }

type fakeState struct{ connected, started bool }

func (f fakeState) Connected() bool { return f.connected }
func (f fakeState) IQStarted() bool { return f.started }

func TestSampleComputesDeltas(t *testing.T) {
	counters := &fakeCounters{}
	counters.datagrams.Store(100)
	counters.bytes.Store(100 * 1024)

	s := &Supervisor{
		Counters: counters,
		Client:   fakeState{connected: true, started: true},
		Hub:      telemetry.NewStatsHub(10),
		Logger:   logging.Nop(),
	}
	s.lastDatagrams = counters.Datagrams()
	s.lastBytes = counters.Bytes()

	counters.datagrams.Add(50)
	counters.bytes.Add(50 * 1024)
	counters.dropped.Store(3)

	got := s.sample(time.Second)
	if got.DatagramRate != 50 {
		t.Errorf("DatagramRate = %v, want 50", got.DatagramRate)
	}
	if got.ByteRate != 50*1024 {
		t.Errorf("ByteRate = %v, want %d", got.ByteRate, 50*1024)
	}
	if got.Datagrams != 150 || got.Dropped != 3 {
		t.Errorf("counters = %d/%d, want 150/3", got.Datagrams, got.Dropped)
	}
	if !got.Connected || !got.IQStarted {
		t.Errorf("state flags = %v/%v, want both true", got.Connected, got.IQStarted)
	}

	// Baseline advances: a quiet second reports zero rate.
	quiet := s.sample(time.Second)
	if quiet.DatagramRate != 0 {
		t.Errorf("quiet DatagramRate = %v, want 0", quiet.DatagramRate)
	}
}

func TestRunPublishesUntilCanceled(t *testing.T) {
	counters := &fakeCounters{}
	hub := telemetry.NewStatsHub(100)
	s := &Supervisor{
		Counters: counters,
		Client:   fakeState{},
		Hub:      hub,
		Interval: 5 * time.Millisecond,
		Logger:   logging.Nop(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no sample published within a second")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}
