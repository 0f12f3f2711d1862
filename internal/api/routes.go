package api

import (
	"github.com/go-chi/chi/v5"
)

// setupAPIRoutes sets up API v1 routes
func (s *RESTServer) setupAPIRoutes(r chi.Router) {
	// Health check
	r.Get("/health", s.HandleHealth)
	r.Get("/", s.HandleRoot)

	// Auth routes (public)
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.HandleLogin)
		r.Post("/refresh", s.HandleRefresh)
	})

	// Protected routes
	r.Route("/tenants", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Get("/", s.HandleListTenants)
		r.Post("/", s.HandleCreateTenant)
		r.Route("/{slug}", func(r chi.Router) {
			r.Get("/", s.HandleGetTenant)
			r.Put("/", s.HandleUpdateTenant)
			r.Delete("/", s.HandleDeleteTenant)
		})
	})
}
