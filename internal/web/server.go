// Package web provides an HTTP debug endpoint for the gesture-sensor
// daemon. It exposes the health monitor's current snapshot and the
// pipeline counters as JSON, for curl and dashboard scrapes.
package web

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/sweeney/gesture-sensor/internal/health"
	"github.com/sweeney/gesture-sensor/internal/pipeline"
)

// Server serves the health report over HTTP.
type Server struct {
	httpServer *http.Server
	monitor    *health.Monitor
	pipe       *pipeline.Pipeline
	now        func() time.Time
}

// New creates a Server reading from the given monitor and pipeline.
func New(addr string, monitor *health.Monitor, pipe *pipeline.Pipeline) *Server {
	s := &Server{monitor: monitor, pipe: pipe, now: time.Now}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHealth)
	mux.HandleFunc("/health.json", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/health.json" {
		http.NotFound(w, r)
		return
	}
	snap := s.monitor.Snapshot(nil)
	stats := s.pipe.Stats()
	// Healthy is judged from the cumulative counter rather than a fresh
	// sweep; a GET must not mutate warning state.
	healthy := snap.StackWarnings == 0
	w.Header().Set("Content-Type", "application/json")
	w.Write(formatJSON(snap, stats, healthy, s.now()))
}
