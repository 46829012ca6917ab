package web

import (
	"net/http"

	"github.com/ukydev/carrental-web/internal/handlers"
	"github.com/ukydev/carrental-web/internal/models"
)

// Session adoption attempts allowed per client IP and window.
const (
	adoptRequests      = 10
	adoptWindowSeconds = 60
)

// setupRoutes configures all routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	admin := s.auth.RequireRole(models.RoleAdmin)
	viewer := s.auth.RequirePermission(models.ActionViewCars)

	// Pages
	mux.Handle("GET /{$}", viewer(http.HandlerFunc(s.cars.List)))
	mux.HandleFunc("GET /cars/{id}/book", s.cars.Book)
	mux.Handle("GET /cars/{id}/edit", admin(http.HandlerFunc(s.cars.Edit)))
	mux.Handle("GET /cars/{id}/delete", admin(http.HandlerFunc(s.cars.ConfirmDelete)))
	mux.Handle("POST /cars/{id}/delete", admin(http.HandlerFunc(s.cars.Delete)))

	// Session
	adopt := s.limiter.RateLimit(adoptRequests, adoptWindowSeconds)
	mux.Handle("POST /session", adopt(http.HandlerFunc(s.sessions.Adopt)))
	mux.HandleFunc("POST /session/clear", s.sessions.Clear)
	mux.Handle("GET /session", viewer(http.HandlerFunc(s.sessions.Profile)))

	mux.HandleFunc("GET /health", handlers.Health)
}
