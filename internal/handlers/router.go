package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions configures NewRouter
type RouterOptions struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	Metrics        http.Handler // nil disables /metrics
	Logger         *slog.Logger
}

// NewRouter mounts every endpoint
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}))

	// long-lived connection, no request timeout
	r.Get("/ws", h.HandleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(opts.RequestTimeout))

		r.Get("/health", h.HealthCheck)
		if opts.Metrics != nil {
			r.Handle("/metrics", opts.Metrics)
		}

		r.Route("/api/v1", func(r chi.Router) {
			// Reports
			r.Get("/reports", h.GetReports)
			r.Get("/reports/latest", h.GetLatestReport)
			r.Get("/reports/{runID}", h.GetReport)

			// Teams
			r.Get("/teams/{teamID}", h.GetTeam)

			// Scans
			r.Post("/scans", h.CreateScan)

			// Live feed
			r.Get("/feed/stats", h.GetFeedStats)
		})
	})

	return r
}

// RequestLogger logs one line per request
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", chimiddleware.GetReqID(r.Context()))
		})
	}
}
