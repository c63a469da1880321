package telemetry

import (
	"github.com/rjboer/GoNetSDR/internal/logging"
)

// LogReporter mirrors published samples into the structured log, for
// headless runs where neither the dashboard nor the web server is up.
type LogReporter struct {
	logger logging.Logger
}

// NewLogReporter builds a reporter over the given logger.
func NewLogReporter(logger logging.Logger) LogReporter {
	if logger == nil {
		logger = logging.Default()
	}
	return LogReporter{logger: logger}
}

// Report logs one sample at Info level.
func (r LogReporter) Report(sample Sample) {
	r.logger.Info("stream sample",
		logging.Field{Key: "subsystem", Value: "telemetry"},
		logging.Field{Key: "datagrams", Value: sample.Datagrams},
		logging.Field{Key: "bytes", Value: sample.Bytes},
		logging.Field{Key: "dropped", Value: sample.Dropped},
		logging.Field{Key: "datagram_rate", Value: sample.DatagramRate},
		logging.Field{Key: "byte_rate", Value: sample.ByteRate},
		logging.Field{Key: "connected", Value: sample.Connected},
		logging.Field{Key: "iq_started", Value: sample.IQStarted},
	)
}
