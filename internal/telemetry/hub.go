// Package telemetry collects IQ stream statistics and fans them out to
// subscribers: the terminal dashboard, the web server, and the log.
package telemetry

import (
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Sample captures one stream-statistics point.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`

	// Cumulative counters from the data transport.
	Datagrams uint64 `json:"datagrams"`
	Bytes     uint64 `json:"bytes"`
	Dropped   uint64 `json:"dropped"`

	// Rates over the sampling interval.
	DatagramRate float64 `json:"datagramRate"`
	ByteRate     float64 `json:"byteRate"`

	// Client state at sampling time.
	Connected bool `json:"connected"`
	IQStarted bool `json:"iqStarted"`
}

// Summary condenses the datagram-rate history of the retained samples.
type Summary struct {
	Samples     int       `json:"samples"`
	RateMean    float64   `json:"rateMean"`
	RateStdDev  float64   `json:"rateStdDev"`
	RateP95     float64   `json:"rateP95"`
	TotalBytes  uint64    `json:"totalBytes"`
	TotalLost   uint64    `json:"totalLost"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// StatsHub keeps a bounded sample history and fans out live updates.
type StatsHub struct {
	mu           sync.RWMutex
	history      []Sample
	historyLimit int
	subscribers  map[chan Sample]struct{}
}

// DefaultHistoryLimit bounds the retained sample history.
const DefaultHistoryLimit = 600

// NewStatsHub builds a hub retaining up to historyLimit samples.
func NewStatsHub(historyLimit int) *StatsHub {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &StatsHub{
		historyLimit: historyLimit,
		subscribers:  make(map[chan Sample]struct{}),
	}
}

// Publish records a sample and forwards it to every subscriber. Slow
// subscribers lose samples rather than block the publisher.
func (h *StatsHub) Publish(sample Sample) {
	h.mu.Lock()
	h.history = append(h.history, sample)
	if len(h.history) > h.historyLimit {
		h.history = h.history[len(h.history)-h.historyLimit:]
	}
	for ch := range h.subscribers {
		select {
		case ch <- sample:
		default:
		}
	}
	h.mu.Unlock()
}

// History returns a copy of the retained samples.
func (h *StatsHub) History() []Sample {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Sample, len(h.history))
	copy(out, h.history)
	return out
}

// Latest returns the most recent sample, if any.
func (h *StatsHub) Latest() (Sample, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.history) == 0 {
		return Sample{}, false
	}
	return h.history[len(h.history)-1], true
}

// Summarize computes rate statistics over the retained history.
func (h *StatsHub) Summarize() Summary {
	history := h.History()
	if len(history) == 0 {
		return Summary{}
	}

	rates := make([]float64, len(history))
	for i, s := range history {
		rates[i] = s.DatagramRate
	}
	mean, std := stat.MeanStdDev(rates, nil)
	sorted := append([]float64(nil), rates...)
	sort.Float64s(sorted)

	last := history[len(history)-1]
	return Summary{
		Samples:     len(history),
		RateMean:    mean,
		RateStdDev:  std,
		RateP95:     stat.Quantile(0.95, stat.Empirical, sorted, nil),
		TotalBytes:  last.Bytes,
		TotalLost:   last.Dropped,
		LastUpdated: last.Timestamp,
	}
}

// Subscribe registers a listener for live samples. The returned cancel
// func unregisters and closes the channel.
func (h *StatsHub) Subscribe() (chan Sample, func()) {
	ch := make(chan Sample, 16)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		delete(h.subscribers, ch)
		close(ch)
		h.mu.Unlock()
	}
	return ch, cancel
}
