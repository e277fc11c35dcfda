/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RequestLogger: zap access log (method, path, status, duration, id)
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. CORS:          Cross-origin requests for frontends
  5. RateLimit:     Token bucket per client address
  6. Authenticate:  Bearer JWT -> actor (everything under /api)

ROUTE GROUPS:
  /health                     Liveness (no auth)
  /api/employees/*            Balance, ledger, requests of an employee
  /api/ledger/*               Entry soft delete / restore
  /api/leave-requests/*       Request state machine
  /api/companies, departments, leave-types, holidays   Directory upserts
  /api/admin/seed             Org document import

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Token verification
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig is the subset of server configuration the router needs.
type RouterConfig struct {
	AllowedOrigins []string
	JWTSecret      string
	JWTIssuer      string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	r.Get("/health", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticate(cfg.JWTSecret, cfg.JWTIssuer))

		// Employee routes
		r.Route("/employees/{id}", func(r chi.Router) {
			r.Put("/", h.PutEmployee)
			r.Get("/balance", h.GetBalance)
			r.Get("/leave-requests", h.ListEmployeeRequests)
			r.Route("/ledger", func(r chi.Router) {
				r.Get("/", h.GetLedger)
				r.Get("/export", h.ExportLedger)
				r.Post("/recalculate", h.Recalculate)
				r.Post("/carryover", h.AddCarryover)
				r.Post("/adjustments", h.AddAdjustment)
			})
		})

		// Ledger entry routes
		r.Route("/ledger/{entryID}", func(r chi.Router) {
			r.Delete("/", h.DeleteEntry)
			r.Post("/restore", h.RestoreEntry)
		})

		// Leave request routes
		r.Route("/leave-requests", func(r chi.Router) {
			r.Post("/", h.CreateLeaveRequest)
			r.Get("/pending", h.ListPending)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetLeaveRequest)
				r.Delete("/", h.DeleteLeaveRequest)
				r.Post("/restore", h.RestoreLeaveRequest)
				r.Post("/approve", h.Transition(h.Requests.Approve))
				r.Post("/reject", h.Transition(h.Requests.Reject))
				r.Post("/suspend", h.Transition(h.Requests.Suspend))
				r.Post("/resume", h.Transition(h.Requests.Resume))
				r.Post("/cancel", h.Transition(h.Requests.Cancel))
				r.Post("/cancellation", h.Transition(h.Requests.RequestCancellation))
				r.Post("/cancellation/approve", h.Transition(h.Requests.ApproveCancellation))
				r.Post("/cancellation/reject", h.Transition(h.Requests.RejectCancellation))
			})
		})

		// Directory routes
		r.Put("/companies/{id}", h.PutCompany)
		r.Put("/departments/{id}", h.PutDepartment)
		r.Put("/leave-types/{id}", h.PutLeaveType)
		r.Post("/holidays", h.CreateHoliday)

		// Admin routes
		r.Post("/admin/seed", h.LoadSeed)
	})

	return r
}
