package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/api/middleware"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/config"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/service"
)

// Services bundles the services the router exposes.
type Services struct {
	System     *service.SystemService
	Aggregator *service.AggregatorService
	Market     *service.MarketService
	Ingest     *service.IngestService
	Backup     *service.BackupService
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(logger))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	priceHandler := handlers.NewPriceHandler(svc.Aggregator)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/prices", func(r chi.Router) {
			r.Get("/", priceHandler.Prices)
			r.Get("/stats", priceHandler.Stats)
			r.Get("/trend", priceHandler.Trend)
			r.Post("/refresh", priceHandler.Refresh)
		})

		r.Get("/ram-data", priceHandler.RamData)
		r.Get("/dram-exchange", priceHandler.DramExchange)

		marketHandler := handlers.NewMarketHandler(svc.Market)
		r.Get("/market-data", marketHandler.MarketData)

		r.Route("/admin", func(r chi.Router) {
			if cfg.Admin.APIKey != "" {
				r.Use(custommiddleware.APIKey(cfg.Admin.APIKey))
			}
			adminHandler := handlers.NewAdminHandler(svc.Ingest, svc.Backup)
			r.Post("/update", adminHandler.Update)
			r.Get("/download", adminHandler.Download)
			r.Get("/export", adminHandler.Export)
		})
	})

	return r
}
