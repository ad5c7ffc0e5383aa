package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // zone data for SOURCE_TIMEZONE on minimal images

	"golang.org/x/text/language"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/api"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/category"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/config"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/database"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/repository"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/scheduler"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/service"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/source"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/version"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/yahoo"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.Level}))
	slog.SetDefault(logger)

	sources, err := config.LoadSources(cfg.Sources.File)
	if err != nil {
		fatal(logger, "failed to load sources file", err)
	}

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		fatal(logger, "failed to open database", err)
	}
	defer db.Close()

	ctx := context.Background()

	applied, err := database.Migrate(ctx, db)
	if err != nil {
		fatal(logger, "failed to migrate database", err)
	}
	logger.Info("connected to database", "path", cfg.Database.Path, "migrations_applied", applied, "version", version.Version)

	// Create repositories
	historyRepo := repository.NewHistoryRepository(db)
	statusRepo := repository.NewSourceStatusRepository(db)

	// Create source adapters, folded in this order
	adapterOpts := source.Options{
		Timeout:  cfg.Sources.Timeout,
		Location: cfg.Sources.Location,
		Logger:   logger,
	}
	board := source.NewBoardAdapter(cfg.Sources.BoardURL, adapterOpts)
	spot := source.NewSpotAdapter(cfg.Sources.SpotURL, adapterOpts)
	yahooClient := yahoo.NewFinanceClient(cfg.Sources.YahooBaseURL, cfg.Sources.Timeout)
	indicators := source.NewIndicatorFetcher(yahooClient, sources.Tickers, sources.CrossRates, cfg.Sources.Location, logger)
	macro := source.NewMacroAdapter(indicators, adapterOpts)

	// Create services
	aggregatorService := service.NewAggregatorService(
		db,
		historyRepo,
		statusRepo,
		category.NewNormalizer(sources.CategoryPriority, language.Korean),
		[]source.Adapter{board, spot, macro},
		service.AggregatorOptions{
			Timeout:  cfg.Sources.Timeout,
			Location: cfg.Sources.Location,
			Logger:   logger,
		},
	)
	marketService := service.NewMarketService(indicators)
	ingestService := service.NewIngestService(cfg.Admin.IngestURL, cfg.Sources.Timeout, aggregatorService, logger)
	backupService, err := service.NewBackupService(board, historyRepo, cfg.Admin.BackupKey, cfg.Sources.Location)
	if err != nil {
		fatal(logger, "failed to create backup service", err)
	}
	systemService := service.NewSystemService(db, map[string]bool{
		"ingest":           ingestService.Configured(),
		"encrypted_backup": backupService.Encrypted(),
		"xlsx_export":      true,
	})

	if err := aggregatorService.RestoreStatuses(ctx); err != nil {
		logger.Warn("failed to restore source statuses", "error", err)
	}
	if n, err := aggregatorService.Seed(ctx); err != nil {
		logger.Warn("history seeding incomplete", "appended", n, "error", err)
	}

	refresh, err := scheduler.New(cfg.Refresh.Schedule, func(ctx context.Context) error {
		// The board document can gain dated observations between cycles.
		if n, err := aggregatorService.Seed(ctx); err != nil {
			logger.Warn("history backfill incomplete", "recorded", n, "error", err)
		}
		_, err := aggregatorService.Refresh(ctx)
		return err
	}, logger)
	if err != nil {
		fatal(logger, "failed to create scheduler", err)
	}
	refresh.Start()

	// Create router
	router := api.NewRouter(api.Services{
		System:     systemService,
		Aggregator: aggregatorService,
		Market:     marketService,
		Ingest:     ingestService,
		Backup:     backupService,
	}, cfg, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.Sources.Timeout + 15*time.Second, // refresh waits on upstreams
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("starting server", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "server failed to start", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if err := refresh.Stop(shutdownCtx); err != nil {
		logger.Error("scheduler did not stop cleanly", "error", err)
	}

	logger.Info("server exited")
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
