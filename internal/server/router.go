package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"percently/internal/calculator"
	"percently/internal/handlers"
	"percently/internal/observability"
)

// NewRouter wires the observability middleware, the health and metrics
// endpoints and the client-scoped calculator API.
func NewRouter(calc *calculator.Handler) http.Handler {

	r := chi.NewRouter()

	r.Use(observability.RequestIDMiddleware)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.LoggingMiddleware)

	r.Get("/health", handlers.Health)

	r.Handle("/metrics", observability.PrometheusHandler())

	r.Group(func(r chi.Router) {
		r.Use(handlers.ClientIDMiddleware)
		calculator.RegisterRoutes(r, calc)
	})

	return r
}
