// Package rest assembles the HTTP routing for the property API.
package rest

import (
	"fmt"
	"net/http"

	"georegistry-backend/infrastructure/di"
	"georegistry-backend/interfaces/http/rest/handlers"
	"georegistry-backend/interfaces/http/rest/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Router creates and configures the HTTP router.
type Router struct {
	container *di.Container
	logger    *zap.Logger
}

// NewRouter creates a new router instance.
func NewRouter(container *di.Container) *Router {
	return &Router{
		container: container,
		logger:    container.Logger,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Amz-Date", "Authorization", "X-Api-Key", "X-Amz-Security-Token"},
		MaxAge:         300,
	}))

	router.Get("/health", rt.healthCheck)

	// the same echo answers unknown paths and unrouted methods on
	// known paths; registered before Route so the subrouter inherits
	// both handlers
	router.NotFound(rt.routeNotFound)
	router.MethodNotAllowed(rt.routeNotFound)

	propertyHandler := handlers.NewPropertyHandler(rt.container.PropertyService, rt.logger)
	reportHandler := handlers.NewReportHandler(rt.container.ReportService, rt.logger)

	router.Route("/properties", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.container.Config.JWTSecret, rt.logger))

		r.Post("/", propertyHandler.Create)
		r.Get("/", propertyHandler.List)
		r.Put("/{id}", propertyHandler.Update)
		r.Delete("/{id}", propertyHandler.Delete)
		r.Get("/{id}/analysis", propertyHandler.GetAnalysis)
		r.Post("/report", reportHandler.Generate)
		r.Post("/import", propertyHandler.Import)
	})

	return router
}

func (rt *Router) routeNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, `{"error":"route not found: %s %s"}`, r.Method, r.URL.Path)
}

func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
