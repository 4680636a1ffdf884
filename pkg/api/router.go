package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lanhub/lanhub/internal/logger"
	"github.com/lanhub/lanhub/internal/perms"
	"github.com/lanhub/lanhub/pkg/server"
)

// Options configures the admin API router.
type Options struct {
	// ServerName is echoed in status responses.
	ServerName string

	Master *server.Master
	Perms  *perms.Table
}

// NewRouter creates and configures the chi router for the admin API.
//
// The API carries no authentication of its own; it is meant to listen on
// loopback only.
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /api/v1/status - Connection and login counters
//   - GET /api/v1/permissions - Current global permission flags
//   - PUT /api/v1/permissions - Replace the global permission flags
//   - POST /api/v1/messages - Queue an operator broadcast
func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSONOK(w, map[string]string{"status": "ok"})
	})

	permissionsHandler := NewPermissionsHandler(opts.Perms)
	messagesHandler := NewMessagesHandler(opts.Master)
	statusHandler := NewStatusHandler(opts.ServerName, opts.Master)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", statusHandler.Get)

		r.Route("/permissions", func(r chi.Router) {
			r.Get("/", permissionsHandler.Get)
			r.Put("/", permissionsHandler.Put)
		})

		r.Post("/messages", messagesHandler.Post)
	})

	return r
}

// requestLogger logs each request using the internal logger. Health probes
// log at DEBUG to keep the log quiet.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
		}
		if r.URL.Path == "/health" {
			logger.Debug("admin API request completed", logArgs...)
		} else {
			logger.Info("admin API request completed", logArgs...)
		}
	})
}
