// Package monitor periodically samples the data transport's counters
// and the client's state, turning them into telemetry samples.
package monitor

import (
	"context"
	"time"

	"github.com/rjboer/GoNetSDR/internal/logging"
	"github.com/rjboer/GoNetSDR/internal/telemetry"
)

// StreamCounters is the counter surface of the data transport.
type StreamCounters interface {
	Datagrams() uint64
	Bytes() uint64
	Dropped() uint64
}

// ClientState is the state surface of the control client.
type ClientState interface {
	Connected() bool
	IQStarted() bool
}

// DefaultInterval is the sampling period when none is configured.
const DefaultInterval = time.Second

// Supervisor samples counters on a ticker and publishes to the hub.
type Supervisor struct {
	Counters StreamCounters
	Client   ClientState
	Hub      *telemetry.StatsHub
	Interval time.Duration
	Logger   logging.Logger

	lastDatagrams uint64
	lastBytes     uint64
}

// Run samples until ctx is canceled. The first tick establishes the
// baseline; rates are deltas over the sampling interval.
func (s *Supervisor) Run(ctx context.Context) {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	logger := s.Logger
	if logger == nil {
		logger = logging.Default()
	}

	s.lastDatagrams = s.Counters.Datagrams()
	s.lastBytes = s.Counters.Bytes()

	logger.Debug("monitor started", logging.Field{Key: "interval", Value: interval})
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("monitor stopped")
			return
		case <-ticker.C:
			s.Hub.Publish(s.sample(interval))
		}
	}
}

func (s *Supervisor) sample(interval time.Duration) telemetry.Sample {
	datagrams := s.Counters.Datagrams()
	bytes := s.Counters.Bytes()
	secs := interval.Seconds()

	sample := telemetry.Sample{
		Timestamp:    time.Now(),
		Datagrams:    datagrams,
		Bytes:        bytes,
		Dropped:      s.Counters.Dropped(),
		DatagramRate: float64(datagrams-s.lastDatagrams) / secs,
		ByteRate:     float64(bytes-s.lastBytes) / secs,
		Connected:    s.Client.Connected(),
		IQStarted:    s.Client.IQStarted(),
	}
	s.lastDatagrams = datagrams
	s.lastBytes = bytes
	return sample
}
