/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Structured request logging (zap)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. Metrics:    Request count and latency per route pattern
  5. CORS:       Cross-origin requests for the portal frontend
  6. Auth:       Bearer token to access.Client (API routes only)

ROUTE GROUPS:
  /api/v2/policy-holders/*  Producers, e-mails, commodities
  /api/v2/policies/*        Policy listing and detail
  /api/v2/lookups/*         Reference tables
  /api/v2/reports/*         Report queueing
  /api/v2/scenarios/*       Sample datasets (loading needs an admin)
  /metrics                  Prometheus scrape endpoint
  /healthz                  Liveness and database check

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Logger, metrics and auth middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultAllowedOrigins are used when no origins are configured.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(h.instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-Id"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{}))

	// API routes
	r.Route("/api/v2", func(r chi.Router) {
		r.Use(h.authenticate)

		// Policy holder routes
		r.Route("/policy-holders", func(r chi.Router) {
			r.Get("/", h.ListPolicyHolders)
			r.Get("/emails", h.GetPolicyHolderEmails)
			r.Put("/emails", h.PutPolicyHolderEmails)
			r.Get("/commodities", h.GetPolicyHolderCommodities)
			r.Get("/{keys}/{year}", h.GetPolicyHolder)
		})

		// Policy routes
		r.Route("/policies", func(r chi.Router) {
			r.Get("/", h.ListPolicies)
			r.Get("/export", h.ExportPolicies)
			r.Get("/detail", h.GetPolicy)
			r.Get("/detail/export", h.ExportPolicy)
		})

		// Lookup routes
		r.Route("/lookups", func(r chi.Router) {
			r.Get("/states", h.GetStates)
			r.Get("/counties", h.GetCounties)
			r.Get("/agents", h.GetAgents)
			r.Get("/commodities", h.GetCommodities)
			r.Get("/types", h.GetTypes)
		})

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Post("/actual-history", h.QueueActualHistoryReport)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
