package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rjboer/GoNetSDR/internal/logging"
)

// WebServer exposes stream statistics over HTTP: JSON history with a
// summary, a live SSE feed, and a health probe.
type WebServer struct {
	srv    *http.Server
	hub    *StatsHub
	logger logging.Logger
}

// NewWebServer builds an HTTP server over the given hub.
func NewWebServer(addr string, hub *StatsHub, logger logging.Logger) *WebServer {
	if logger == nil {
		logger = logging.Default()
	}
	w := &WebServer{hub: hub, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/stats", w.handleStats)
	mux.HandleFunc("/api/live", w.handleLive)
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		rw.Write([]byte("ok\n"))
	})

	w.srv = &http.Server{Addr: addr, Handler: mux}
	return w
}

// Start begins listening and shuts down when the context is canceled.
func (w *WebServer) Start(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := w.srv.Shutdown(shutdownCtx); err != nil {
			w.logger.Warn("stats server shutdown", logging.Field{Key: "error", Value: err})
		}
	}()

	w.logger.Info("stats server listening", logging.Field{Key: "addr", Value: w.srv.Addr})
	if err := w.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		w.logger.Error("stats server", logging.Field{Key: "error", Value: err})
	}
}

func (w *WebServer) handleStats(rw http.ResponseWriter, _ *http.Request) {
	payload := struct {
		Summary Summary  `json:"summary"`
		History []Sample `json:"history"`
	}{
		Summary: w.hub.Summarize(),
		History: w.hub.History(),
	}
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(payload)
}

func (w *WebServer) handleLive(rw http.ResponseWriter, r *http.Request) {
	flusher, ok := rw.(http.Flusher)
	if !ok {
		http.Error(rw, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	rw.Header().Set("Content-Type", "text/event-stream")
	rw.Header().Set("Cache-Control", "no-cache")
	rw.Header().Set("Connection", "keep-alive")

	ch, cancel := w.hub.Subscribe()
	defer cancel()

	// Replay history so a fresh page shows data immediately.
	for _, sample := range w.hub.History() {
		writeEvent(rw, sample)
	}
	flusher.Flush()

	for {
		select {
		case sample, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(rw, sample)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(rw http.ResponseWriter, sample Sample) {
	payload, _ := json.Marshal(sample)
	rw.Write([]byte("data: "))
	rw.Write(payload)
	rw.Write([]byte("\n\n"))
}
