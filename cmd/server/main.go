// Package main provides the entry point for the IntelliDoc AI server
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/infinity-9427/IntelliDoc-AI/internal/analysis"
	"github.com/infinity-9427/IntelliDoc-AI/internal/api"
	"github.com/infinity-9427/IntelliDoc-AI/internal/extractor"
	"github.com/infinity-9427/IntelliDoc-AI/internal/jobs"
	"github.com/infinity-9427/IntelliDoc-AI/internal/ocr"
	"github.com/infinity-9427/IntelliDoc-AI/internal/ops"
	"github.com/infinity-9427/IntelliDoc-AI/internal/pipeline"
	"github.com/infinity-9427/IntelliDoc-AI/internal/processing"
	"github.com/infinity-9427/IntelliDoc-AI/internal/raster"
	"github.com/infinity-9427/IntelliDoc-AI/internal/temporal/activities"
	"github.com/infinity-9427/IntelliDoc-AI/internal/temporal/workflows"
	"github.com/infinity-9427/IntelliDoc-AI/pkg/config"
	"github.com/infinity-9427/IntelliDoc-AI/pkg/logging"
)

func main() {
	cfg := config.FromEnv()
	if err := logging.SetupLogger(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}

	// Temporal client + worker
	temporalClient, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Temporal client")
	}
	defer temporalClient.Close()

	// OCR pipeline
	registry := ocr.NewRegistry(
		ocr.NewTesseractEngine(cfg.Engines.Languages),
		ocr.NewRemoteEngine("easyocr", cfg.Engines.EasyOCRURL, 2*time.Minute),
		ocr.NewRemoteEngine("paddleocr", cfg.Engines.PaddleOCRURL, 2*time.Minute),
	)
	ocrService := ocr.NewService(registry, processing.NewPostProcessor())

	// Extraction and analysis
	engine := extractor.NewEngine(extractor.NewImageExtractor(ocrService))
	rasterizer := raster.NewRasterizer(cfg.Engines.RasterDPI)
	analysisClient := analysis.NewClient(cfg.Analysis.OllamaHost, cfg.Analysis.Model, cfg.Analysis.Timeout)
	analyzer := analysis.NewAnalyzer(analysisClient)

	// Job tracking
	bus := pipeline.NewEventBus(256, 4)
	defer bus.Close()

	store := jobs.NewStore()
	if err := store.Subscribe(bus); err != nil {
		log.Fatal().Err(err).Msg("Failed to subscribe job store")
	}

	// Worker registration
	w := worker.New(temporalClient, cfg.Temporal.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     10,
		MaxConcurrentWorkflowTaskExecutionSize: 10,
	})
	w.RegisterWorkflow(workflows.DocumentProcessingWorkflow)

	acts := activities.NewActivities(engine, rasterizer, ocrService, analyzer, bus)
	w.RegisterActivityWithOptions(acts.ExtractNative, activity.RegisterOptions{Name: workflows.ExtractNativeActivityName})
	w.RegisterActivityWithOptions(acts.Rasterize, activity.RegisterOptions{Name: workflows.RasterizeActivityName})
	w.RegisterActivityWithOptions(acts.OCRPage, activity.RegisterOptions{Name: workflows.OCRPageActivityName})
	w.RegisterActivityWithOptions(acts.Analyze, activity.RegisterOptions{Name: workflows.AnalyzeActivityName})
	w.RegisterActivityWithOptions(acts.BuildReport, activity.RegisterOptions{Name: workflows.BuildReportActivityName})
	w.RegisterActivityWithOptions(acts.PublishProgress, activity.RegisterOptions{Name: workflows.PublishProgressActivityName})
	w.RegisterActivityWithOptions(acts.MarkFailed, activity.RegisterOptions{Name: workflows.MarkFailedActivityName})

	go func() {
		if err := w.Run(worker.InterruptCh()); err != nil {
			log.Fatal().Err(err).Msg("Worker stopped")
		}
	}()

	// Public API
	app := fiber.New(fiber.Config{
		AppName:   "IntelliDoc AI",
		BodyLimit: int(cfg.Processing.MaxFileSize) + 1024*1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "UTC",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	h := api.NewHandlers(temporalClient, store, bus, cfg.Temporal.TaskQueue, cfg.Processing.MaxFileSize)
	h.Register(app)

	// Ops server on its own listener
	var opsServer *ops.Server
	if cfg.Ops.Enabled {
		opsServer = ops.NewServer(cfg.Ops.Host, cfg.Ops.Port, bus, store, registry, analysisClient)
		go func() {
			if err := opsServer.Start(); err != nil {
				log.Error().Err(err).Msg("Ops server stopped")
			}
		}()
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("Shutting down server")
		if opsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := opsServer.Shutdown(ctx); err != nil {
				log.Error().Err(err).Msg("Ops server shutdown error")
			}
		}
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info().Str("address", addr).Msg("Starting IntelliDoc AI server")
	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}
