package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/bootstrap"
	"alfredoptarigan/resume-screener/internal/config"
	"alfredoptarigan/resume-screener/internal/handlers"
	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/models"
	"alfredoptarigan/resume-screener/internal/repositories"
	"alfredoptarigan/resume-screener/internal/services"
)

func main() {
	cfg := config.Load()

	zl, err := logger.ForEnv(cfg.Server.Env)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := config.InitDatabase(cfg, zl)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	docRepo := repositories.NewDocumentRepository(db)
	evalRepo := repositories.NewEvaluationRepository(db)
	resultRepo := repositories.NewMatchResultRepository(db)

	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		return err
	}

	pipeline, err := bootstrap.NewPipeline(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			zl.Warn("failed to close pipeline", zap.Error(err))
		}
	}()

	batch := services.NewBatchEvaluator(pipeline.Matcher, pipeline.BatchOptions(cfg, cfg.Scoring.PairConcurrency, zl))
	evaluatorService := services.NewEvaluatorService(evalRepo, docRepo, resultRepo, pipeline.Loader, batch, zl)

	worker := services.NewWorker(evalRepo, evaluatorService, cfg.Worker.Concurrency, cfg.Worker.PollInterval, zl)
	worker.Start(ctx)
	zl.Info("worker started", zap.Int("concurrency", cfg.Worker.Concurrency))

	defaultWeights := models.ScoreWeights{Hard: cfg.Scoring.HardWeight, Semantic: cfg.Scoring.SemanticWeight}
	if _, err := services.NormalizeWeights(defaultWeights); err != nil {
		return fmt.Errorf("invalid default weights: %w", err)
	}

	uploadHandler := handlers.NewUploadHandler(docRepo, storageService, cfg.Storage.MaxFileSize, zl)
	evaluateHandler := handlers.NewEvaluationHandler(evalRepo, docRepo, worker, defaultWeights, zl)
	resultHandler := handlers.NewResultHandler(evalRepo, resultRepo, zl)
	searchHandler := handlers.NewSearchHandler(pipeline.Matcher, pipeline.Index, zl)
	documentHandler := handlers.NewDocumentHandler(docRepo, storageService, pipeline.Index, zl)

	app := fiber.New(fiber.Config{
		AppName:      "Resume Screener API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize) * 8,
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":       "healthy",
			"time":         time.Now(),
			"vector_index": pipeline.Index != nil,
		})
	})

	api.Post("/upload", uploadHandler.HandleUpload)
	api.Post("/evaluate", evaluateHandler.HandleEvaluate)
	api.Get("/result/:id", resultHandler.HandleGetResult)
	api.Get("/result/:id/export", resultHandler.HandleExport)
	api.Post("/search", searchHandler.HandleSearch)
	api.Delete("/documents/:id", documentHandler.HandleDelete)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Resume Screener API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/upload",
				"POST /api/v1/evaluate",
				"GET /api/v1/result/:id",
				"GET /api/v1/result/:id/export",
				"POST /api/v1/search",
				"DELETE /api/v1/documents/:id",
			},
		})
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zl.Info("shutting down server")
		cancel()
		worker.Stop()
		if err := app.Shutdown(); err != nil {
			zl.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	zl.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Server.Env))

	return app.Listen(addr)
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
