package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itchan-dev/msgboard/backend/internal/setup"
	mw "github.com/itchan-dev/msgboard/shared/middleware"
	"github.com/itchan-dev/msgboard/shared/middleware/metrics"
)

// New creates and configures a new chi router with all the routes.
func New(deps *setup.Dependencies) http.Handler {
	cfg := deps.Config.Public
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}
	r.Use(mw.SecurityHeaders(cfg.SecureHeaders))

	h := deps.Handler

	// Health checks and metrics stay outside the request timeout
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.RequestTimeout))

		r.Route("/threads/{board}", func(r chi.Router) {
			r.Post("/", h.CreateThread)
			r.Get("/", h.GetBoard)
			r.Delete("/", h.DeleteThread)
			r.Put("/", h.ReportThread)
		})

		r.Route("/replies/{board}", func(r chi.Router) {
			r.Post("/", h.CreateReply)
			r.Get("/", h.GetThread)
			r.Delete("/", h.DeleteReply)
			r.Put("/", h.ReportReply)
		})
	})

	return r
}
