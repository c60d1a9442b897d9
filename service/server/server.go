package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/brojonat/cobuy/service/config"
	"github.com/brojonat/cobuy/service/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the HTTP command surface. It only reads persisted state and
// never touches the monitor's in-memory aggregates.
type Server struct {
	addr         string
	cfg          *config.Config
	store        SignalLister
	reporter     RankingReporter
	ssePublisher *SSEPublisher
	metrics      *metrics.Metrics
	logger       *slog.Logger
	server       *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The ssePublisher is optional - if nil, streaming endpoints won't be available.
// The metrics is optional - if nil, the metrics endpoint won't be available.
func New(addr string, cfg *config.Config, store SignalLister, reporter RankingReporter, ssePublisher *SSEPublisher, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		addr:         addr,
		cfg:          cfg,
		store:        store,
		reporter:     reporter,
		ssePublisher: ssePublisher,
		metrics:      m,
		logger:       logger,
	}
}

// Handler builds the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	topK := 0
	if s.cfg != nil {
		topK = s.cfg.RankingTopK
	}

	mux.Handle("GET /api/v1/ranking", s.instrument("ranking", handleRanking(s.reporter, topK, s.logger)))
	mux.Handle("GET /api/v1/signals", s.instrument("signals", handleListSignals(s.store, s.logger)))

	if s.ssePublisher != nil {
		mux.Handle("GET /api/v1/stream/signals/{token}", handleStreamSignals(s.ssePublisher, s.logger))
		mux.Handle("GET /api/v1/stream/signals", handleStreamSignals(s.ssePublisher, s.logger))
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	return corsMiddleware(mux)
}

func (s *Server) instrument(name string, h http.Handler) http.Handler {
	return metrics.HTTPMetricsMiddleware(s.metrics, name)(h)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	if s.ssePublisher == nil {
		s.logger.Warn("NATS not configured, streaming endpoints disabled")
	}

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // streaming responses stay open
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if s.ssePublisher != nil {
		s.ssePublisher.Close()
	}

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware adds CORS headers to all responses and handles OPTIONS preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
