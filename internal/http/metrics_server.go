// Package http hosts the controller's debug-only side listeners: a
// Prometheus /metrics endpoint and a websocket status feed. Neither is the
// graphical display spec.md's Non-goals exclude — both are plain data
// endpoints, grounded on the teacher's internal/http package.
package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves the process's registered Prometheus collectors on
// /metrics.
type MetricsServer struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewMetricsServer returns a MetricsServer bound to addr.
func NewMetricsServer(addr string, logger *slog.Logger) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		httpServer: &http.Server{Addr: addr, Handler: mux},
		logger:     logger,
	}
}

// Start runs the metrics server until it is shut down. It always returns a
// non-nil error, matching net/http.Server.Serve's contract.
func (s *MetricsServer) Start() error {
	s.logger.Info("metrics server listening", slog.String("address", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the metrics server.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
