package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/teleinformatics/campus-core/internal/auth"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.clientAddrMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware())
	r.Use(s.bodySizeLimitMiddleware)
	r.Use(s.gate.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeNotFound(w, r, "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	})

	r.Handle("/metrics", s.metricsHandler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/roles", s.handleListRoles)

		// Credential submission (anonymous, rate limited)
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimitMiddleware)
			r.Post("/auth/register", s.handleRegister)
			r.Post("/auth/login", s.handleLogin)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuthenticated)

			r.Get("/auth/me", s.handleMe)

			r.With(s.requirePermission(auth.PermAuditRead)).
				Get("/audit", s.handleListAuditLogs)

			r.Route("/identities/{id}", func(r chi.Router) {
				r.Use(s.requirePermission(auth.PermIdentityManage))
				r.Get("/", s.handleGetIdentity)
				r.Patch("/", s.handleUpdateIdentity)
				r.Delete("/", s.handleDeleteIdentity)
				r.Post("/roles", s.handleGrantRole)
			})
		})
	})

	return r
}
