package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gmarchetti/inkwell/internal/logger"
	"github.com/gmarchetti/inkwell/pkg/api/handlers"
	"github.com/gmarchetti/inkwell/pkg/contents"
	"github.com/gmarchetti/inkwell/pkg/metrics"
)

// NewRouter creates and configures the chi router with all middleware and
// routes.
//
// Middleware stack, in order: request ID, real IP extraction, request
// logging, panic recovery, request timeout.
//
// Routes:
//   - GET/PUT/PATCH/DELETE /api/contents/*    - content operations
//   - GET/POST/PUT/DELETE  /api/checkpoints/* - checkpoint operations
//   - GET /health, GET /health/ready          - probes
//   - GET /metrics                            - Prometheus scrape endpoint
func NewRouter(manager contents.Manager, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	contentsHandler := handlers.NewContentsHandler(manager)
	checkpointsHandler := handlers.NewCheckpointsHandler(manager)
	healthHandler := handlers.NewHealthHandler(manager)

	r.Route("/api/contents", func(r chi.Router) {
		r.Get("/*", contentsHandler.Get)
		r.Put("/*", contentsHandler.Save)
		r.Patch("/*", contentsHandler.Rename)
		r.Delete("/*", contentsHandler.Delete)
	})

	r.Route("/api/checkpoints", func(r chi.Router) {
		r.Get("/*", checkpointsHandler.List)
		r.Post("/*", checkpointsHandler.Create)
		r.Put("/*", checkpointsHandler.Restore)
		r.Delete("/*", checkpointsHandler.Delete)
	})

	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return r
}

// requestLogger logs request start at DEBUG and completion at INFO using the
// internal logger, and feeds the API request counter.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		metrics.HTTPRequestsTotal.WithLabelValues(
			r.Method, routePattern, strconv.Itoa(ww.Status())).Inc()

		logger.Info("API request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		)
	})
}
