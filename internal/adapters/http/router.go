package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/placemesh/listing-intake-service/internal/application"
)

// HandlerConfig carries the transport-level knobs the handlers need.
// Pipeline semantics live in the application layer; only wire-format and
// header concerns belong here.
type HandlerConfig struct {
	MaxUploadBytes  int64
	ScopeCookieName string
	BurstPerMinute  int
	Burst           int
}

// Handler is the HTTP adapter entrypoint for the intake use-cases.
// Keeping only the application dependency here preserves clean adapter boundaries.
type Handler struct {
	service *application.Service
	cfg     HandlerConfig
}

// NewHandler constructs an HTTP handler bound to the application service.
func NewHandler(service *application.Service, cfg HandlerConfig) *Handler {
	if cfg.ScopeCookieName == "" {
		cfg.ScopeCookieName = "intake_scope"
	}
	return &Handler{service: service, cfg: cfg}
}

// NewRouter registers the intake HTTP routes and middleware stack.
// Centralizing routes here keeps error and logging behavior consistent across endpoints.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/listings/v1", func(r chi.Router) {
		r.Get("/form", handler.form)
		r.Get("/flash", handler.flash)

		r.Group(func(r chi.Router) {
			if handler.cfg.BurstPerMinute > 0 {
				r.Use(burstLimitMiddleware(handler.cfg.BurstPerMinute, handler.cfg.Burst))
			}
			r.Post("/submit", handler.submit)
		})
	})

	return r
}
