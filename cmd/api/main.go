package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/api"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/audit"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/cache"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/config"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/database"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/face"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/repository"
	"github.com/saturnino-fabrica-de-software/faceanalytics/internal/ws"
)

const (
	shutdownTimeout      = 10 * time.Second
	cacheCleanupInterval = 5 * time.Minute
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting Smart Face Analytics API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.Bool("database", cfg.HasDatabase()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auditLogger := audit.NewSlogLogger(logger)
	hub := ws.NewHub()

	deps := &api.Dependencies{
		Config:      cfg,
		Hub:         hub,
		AuditLogger: auditLogger,
	}

	var janitor *cache.Janitor
	if cfg.HasDatabase() {
		if err := database.MigrateUp(ctx, cfg.DatabaseURL, cfg.DatabaseName, logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		pgCache := cache.NewPGCache(pool)
		deps.HistoryRepo = repository.NewHistoryRepository(pool)
		deps.StatusRepo = repository.NewStatusRepository(pool)
		deps.SummaryCache = cache.NewSummaryCache(pgCache, cfg.SummaryCacheTTL, logger)
		deps.DB = pool
		janitor = cache.NewJanitor(pgCache, logger, cacheCleanupInterval)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
		deps.HistoryRepo = repository.NewMemoryHistoryRepository()
		deps.StatusRepo = repository.NewMemoryStatusRepository()
	}

	// Model slots are decided once; unreachable backends fall back per slot
	analyzer, err := face.NewAnalyzerFromConfig(ctx, cfg, logger, auditLogger)
	if err != nil {
		return fmt.Errorf("failed to build analyzer: %w", err)
	}
	deps.Analyzer = analyzer

	router := api.NewRouter(logger, deps)
	router.Setup()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return hub.Run(gctx)
	})

	if janitor != nil {
		g.Go(func() error {
			return janitor.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")

		done := make(chan error, 1)
		go func() { done <- router.Shutdown() }()

		select {
		case err := <-done:
			return err
		case <-time.After(shutdownTimeout):
			return errors.New("server shutdown timed out")
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("server stopped")
	return nil
}
