package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/app-builder/internal/api"
	"github.com/example/app-builder/internal/brief"
	"github.com/example/app-builder/internal/config"
	"github.com/example/app-builder/internal/generation"
	"github.com/example/app-builder/internal/logging"
	"github.com/example/app-builder/internal/metrics"
	"github.com/example/app-builder/internal/orchestrator"
	"github.com/example/app-builder/internal/providers/llm"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("app builder starting",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		zap.Bool("metrics", cfg.MetricsEnabled),
	)

	collector := metrics.NewCollector(cfg.MetricsEnabled, nil)
	factory := llm.NewFactory(cfg.ProviderConfig())
	gen := generation.New(factory,
		generation.WithLogger(logger),
		generation.WithMetrics(collector),
		generation.WithDefaults(cfg.GenerationDefaults()),
	)
	jobs := orchestrator.New(gen, orchestrator.WithLogger(logger))

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &api.Server{
		Generator: gen,
		Jobs:      jobs,
		Logger:    logger,
		BriefLimits: brief.Limits{
			MaxBytes: cfg.BriefMaxBytes,
			MaxPages: cfg.BriefMaxPages,
		},
	}
	if cfg.MetricsEnabled {
		server.Metrics = collector
	}

	// WriteTimeout stays zero: generation and event streams outlive any fixed budget.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	jobs.CancelAll()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited gracefully")
}
