// Package api exposes the HTTP surface: satellite listings, positions,
// visibility, passes, ground tracks, and the SSE fleet stream.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/vsafedot/Earth-Sat/internal/auth"
	"github.com/vsafedot/Earth-Sat/internal/cache"
	"github.com/vsafedot/Earth-Sat/internal/engine"
	"github.com/vsafedot/Earth-Sat/internal/health"
	"github.com/vsafedot/Earth-Sat/internal/metrics"
	"github.com/vsafedot/Earth-Sat/internal/stream"
	"github.com/vsafedot/Earth-Sat/internal/tle"
)

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	eng        *engine.Engine
	store      *tle.Store
	fleet      *cache.FleetCache
	logger     *slog.Logger
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, authCfg auth.Config, eng *engine.Engine, store *tle.Store, fleet *cache.FleetCache, streamHandler *stream.Handler) *Server {
	s := &Server{
		eng:    eng,
		store:  store,
		fleet:  fleet,
		logger: logger,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.NewReadyz(func() bool {
		return store.Get() != nil
	}))
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /api/v1/satellites", s.handleSatellites)
	mux.HandleFunc("GET /api/v1/position", s.handlePosition)
	mux.HandleFunc("GET /api/v1/visibility", s.handleVisibility)
	mux.HandleFunc("GET /api/v1/passes", s.handlePasses)
	mux.HandleFunc("GET /api/v1/track", s.handleTrack)
	mux.HandleFunc("GET /api/v1/fleet", s.handleFleet)
	mux.HandleFunc("GET /api/v1/catalog", s.handleCatalog)
	mux.HandleFunc("GET /api/v1/stream/positions", streamHandler.HandlePositions)

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(authCfg)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Handler returns the full middleware-wrapped handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", r.RemoteAddr,
			)
		})
	}
}
