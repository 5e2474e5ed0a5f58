package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"legaldoc/internal/http/middleware"
	"legaldoc/internal/service"
	"legaldoc/internal/storage"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db *sql.DB, store storage.Storage, svc service.AnalysisService) {
	app.Get("/health", HealthCheck(db, store))
	app.Get("/healthz", LivenessProbe())

	app.Options("/analyze", middleware.EdgeCORS())
	app.Post("/analyze", middleware.EdgeCORS(), Analyze(svc))

	cors := middleware.CORS()
	requireUser := middleware.RequireUser()

	docs := app.Group("/documents", cors)
	docs.Post("", requireUser, SubmitDocument(svc))

	analyses := app.Group("/analyses", cors)
	analyses.Get("", requireUser, ListAnalyses(svc))
	analyses.Get("/:id", requireUser, GetAnalysis(svc))
	analyses.Get("/:id/download", requireUser, DownloadAnalysis(svc))
	analyses.Delete("/:id", requireUser, DeleteAnalysis(svc))
}
