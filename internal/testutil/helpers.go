package testutil

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/category"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/repository"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/service"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/source"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/yahoo"
)

// DiscardLogger returns a logger that drops everything, for quiet tests.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTestAggregatorService creates an AggregatorService over db with the given
// adapters, the default category priority and a fixed clock at BaseTime.
func NewTestAggregatorService(t *testing.T, db *sql.DB, adapters ...source.Adapter) *service.AggregatorService {
	t.Helper()

	return service.NewAggregatorService(
		db,
		repository.NewHistoryRepository(db),
		repository.NewSourceStatusRepository(db),
		category.NewDefaultNormalizer(),
		adapters,
		service.AggregatorOptions{
			Timeout: 2 * time.Second,
			Logger:  DiscardLogger(),
			Now:     func() time.Time { return BaseTime },
		},
	)
}

// TestTickers is a small ticker configuration used by market tests.
func TestTickers() []model.TickerGroup {
	return []model.TickerGroup{
		{Name: "indices", Tickers: []model.Ticker{{Symbol: "^KS11", Name: "코스피"}}},
		{Name: "forex", Tickers: []model.Ticker{{Symbol: "KRW=X", Name: "원/달러"}}},
	}
}

// NewTestIndicatorFetcher creates an IndicatorFetcher over client with TestTickers.
func NewTestIndicatorFetcher(t *testing.T, client yahoo.Client) *source.IndicatorFetcher {
	t.Helper()

	return source.NewIndicatorFetcher(client, TestTickers(), nil, time.UTC, DiscardLogger())
}

// NewTestMarketService creates a MarketService over client with TestTickers.
func NewTestMarketService(t *testing.T, client yahoo.Client) *service.MarketService {
	t.Helper()

	return service.NewMarketService(NewTestIndicatorFetcher(t, client))
}

// NewTestSystemService creates a SystemService without optional features.
func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db, map[string]bool{"xlsx_export": true})
}

// NewTestBackupService creates a BackupService reading raw documents from src.
func NewTestBackupService(t *testing.T, db *sql.DB, src service.RawDocumentSource, key string) *service.BackupService {
	t.Helper()

	svc, err := service.NewBackupService(src, repository.NewHistoryRepository(db), key, time.UTC)
	if err != nil {
		t.Fatalf("Failed to create backup service: %v", err)
	}
	return svc
}
