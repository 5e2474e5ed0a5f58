package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"legaldoc/docs"
	"legaldoc/internal/analysis"
	"legaldoc/internal/config"
	"legaldoc/internal/database"
	"legaldoc/internal/database/migration"
	handlers "legaldoc/internal/http/handler"
	"legaldoc/internal/http/middleware"
	"legaldoc/internal/llm"
	"legaldoc/internal/logger"
	"legaldoc/internal/metrics"
	"legaldoc/internal/otel"
	"legaldoc/internal/repository/postgres"
	"legaldoc/internal/service"
	"legaldoc/internal/storage"
)

const shutdownTimeout = 15 * time.Second

// @title Legal Document Analysis API
// @version 1.0
// @description Extracts key terms, risks and obligations from legal documents.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	zl := logger.NewStdout(cfg.Location(), cfg.LogLevel)
	defer zl.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, zl)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}

	db, err := database.Open(ctx, cfg.Database, zl)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, zl); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	objStore, err := storage.NewMinIO(ctx, cfg.MinIO, zl)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	pipeline, err := newPipeline(cfg, zl, prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to initialize analysis pipeline: %v", err)
	}

	repo := postgres.NewAnalysisPostgres(db)
	svc := service.NewAnalysisService(objStore, repo, pipeline,
		service.WithMaxUploadBytes(cfg.Upload.MaxBytes),
		service.WithLogger(zl),
	)

	prom, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register http metrics: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// multipart framing on top of the file itself
		BodyLimit: int(cfg.Upload.MaxBytes) + 1<<20,
	})

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(zl))
	app.Use(prom.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	handlers.RegisterRoutes(app, db, objStore, svc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + cfg.Port)
	}()
	zl.Info("server started", zap.String("addr", ":"+cfg.Port), zap.String("llm_provider", cfg.LLM.Provider))

	select {
	case err := <-errCh:
		if err != nil {
			zl.Error("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		zl.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		zl.Error("http shutdown failed", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		zl.Error("tracing shutdown failed", zap.Error(err))
	}
}

func newPipeline(cfg *config.AppConfig, zl *zap.Logger, reg prometheus.Registerer) (*analysis.Pipeline, error) {
	completer, err := llm.New(cfg.LLM, llm.NewHTTPClient(time.Duration(cfg.LLM.TimeoutSec)*time.Second))
	if err != nil {
		return nil, err
	}
	m, err := metrics.NewAnalysis(reg)
	if err != nil {
		return nil, err
	}

	return analysis.NewFromConfig(cfg.Analysis, completer, zl, m), nil
}
