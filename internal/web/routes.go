package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/facegate/internal/web/handlers"
	"github.com/kozaktomas/facegate/internal/web/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRoutes() {
	facesHandler := handlers.NewFacesHandler(s.service)

	var db handlers.Pinger
	if s.service.MetadataEnabled() {
		db = s.service
	}
	healthHandler := handlers.NewHealthHandler(db)

	// Health check and metrics (no auth required)
	s.router.Get("/api/v1/health", healthHandler.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/face", func(r chi.Router) {
		r.Use(middleware.RequireAPIKey(s.config.Web.APIKey))

		r.Post("/capture", facesHandler.Capture)
		r.Post("/train", facesHandler.Train)
		r.Post("/recognize", facesHandler.Recognize)
		r.Get("/users", facesHandler.ListUsers)
		r.Delete("/delete/{user_id}", facesHandler.DeleteUser)
		r.Get("/model", facesHandler.ModelStatus)
	})
}
