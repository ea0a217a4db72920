// Package server exposes the download-trend pipeline as a JSON HTTP API.
//
// Routes:
//
//	GET  /healthz
//	GET  /metrics
//	GET  /api/v1/registries
//	GET  /api/v1/trend/{registry}/{package}?period=&bucket_size=&refresh=&record=
//	GET  /api/v1/history/{registry}/{package}?limit=
//	POST /api/v1/analyze   {"values": [1, null, 3]}
//	POST /api/v1/buckets   {"daily": [{"label": "...", "value": 1}], "bucket_size": 7}
//
// Package names may contain slashes (npm scopes such as @types/node).
// Errors are returned as {"code": "...", "message": "..."} with the status
// given by errors.HTTPStatus.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/pkgtrend/pkg/httputil"
	"github.com/matzehuels/pkgtrend/pkg/pipeline"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// Config configures a Server.
type Config struct {
	Addr string

	// RateLimit is the number of requests per second allowed per client IP.
	// Zero disables rate limiting.
	RateLimit float64
	Burst     int

	// TrustProxy takes the client IP from X-Forwarded-For/X-Real-IP. Off,
	// the limiter keys on the connection's remote address.
	TrustProxy bool

	// Gatherer is served on /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// Server serves the pipeline over HTTP.
type Server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	limiter *httputil.HostLimiter
	cfg     Config
	router  chi.Router
}

// New creates a server backed by runner.
func New(runner *pipeline.Runner, logger *log.Logger, cfg Config) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		runner:  runner,
		logger:  logger,
		limiter: httputil.NewHostLimiter(cfg.RateLimit, cfg.Burst),
		cfg:     cfg,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()
	if s.cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(s.requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorCode(w, http.StatusNotFound, "NOT_FOUND", "no route for "+r.Method+" "+r.URL.Path)
	})

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Get("/registries", s.handleRegistries)
		r.Get("/trend/{registry}/*", s.handleTrend)
		r.Get("/history/{registry}/*", s.handleHistory)
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/buckets", s.handleBuckets)
	})

	s.router = r
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
