/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the dashboard frontend
  5. Metrics:    Prometheus request counters and latency

ROUTE GROUPS:
  /api/companies        Company registration (public)
  /api/employee/*       Employee signup/signin (public) and the
                        token-gated employee dashboard
  /api/admin/*          Admin signup/signin (public) and the token-gated
                        admin dashboard
  /api/projection       Growth projection (public planning tool)
  /healthz, /metrics    Operational endpoints

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Role gating
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nivesh/pension-engine/auth"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Post("/companies", h.CreateCompany)

		// Growth projection is a planning tool; no account required.
		r.Post("/projection", h.Projection)

		r.Route("/employee", func(r chi.Router) {
			r.Post("/signup", h.EmployeeSignup)
			r.Post("/signin", h.EmployeeSignin)

			r.Group(func(r chi.Router) {
				r.Use(h.requireRole(auth.RoleEmployee))
				r.Get("/profile", h.EmployeeProfile)
				r.Get("/schemes", h.ListSchemes)
				r.Post("/applications", h.Apply)
				r.Get("/applications", h.ListAppliedSchemes)
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/signup", h.AdminSignup)
			r.Post("/signin", h.AdminSignin)

			r.Group(func(r chi.Router) {
				r.Use(h.requireRole(auth.RoleAdmin))
				r.Get("/profile", h.AdminProfile)
				r.Get("/employees", h.AdminListEmployees)
				r.Post("/schemes", h.AdminCreateScheme)
				r.Post("/schemes/defaults", h.SeedDefaultSchemes)
				r.Post("/employees/{employeeID}/applications/{schemeID}/decision", h.DecideApplication)
			})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
