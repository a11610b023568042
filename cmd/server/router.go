package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/trellisdata/trellis/internal/api"
	apiMiddleware "github.com/trellisdata/trellis/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	queueHandler := api.NewQueueHandler(
		app.worker,
		app.txRunner,
		app.instances,
		app.progress,
		app.errorLog,
		app.logger,
	)
	catalogHandler := api.NewCatalogHandler(app.catalog, app.instances, app.logger)

	r.Route("/api", func(r chi.Router) {
		// All administrative endpoints require a bearer token.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Catalog
			r.Get("/definitions", catalogHandler.ListDefinitions)
			r.Put("/definitions/{id}", catalogHandler.PublishDefinition)
			r.Post("/seed", catalogHandler.SeedInstances)

			// Queue reporting and control
			r.Get("/progress", queueHandler.GetProgress)
			r.Get("/errors", queueHandler.ListErrors)
			r.Post("/run", queueHandler.TriggerRun)
			r.Post("/reset", queueHandler.ResetInstances)
		})
	})

	// Health check endpoint (public)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
