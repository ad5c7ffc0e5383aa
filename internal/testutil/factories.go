package testutil

import (
	"database/sql"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/repository"
)

// BaseTime is the timestamp of the first point written by SeriesBuilder by default.
var BaseTime = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

// SeriesBuilder provides a fluent interface for creating test price histories.
//
// Example usage:
//
//	// Three daily points for the default board product
//	series := testutil.NewSeries().WithPrices(100000, 105000, 95000).Build(t, db)
//
//	// Customized key and spacing
//	series := testutil.NewSeries().
//	    WithKey(model.SourceSpot, "DDR4", "DDR4 8Gb 1Gx8 3200").
//	    WithStep(time.Hour).
//	    WithPrices(1.9, 2.1).
//	    Build(t, db)
type SeriesBuilder struct {
	Key    model.ProductKey
	Start  time.Time
	Step   time.Duration
	Prices []float64
}

// NewSeries creates a SeriesBuilder with sensible defaults.
func NewSeries() *SeriesBuilder {
	return &SeriesBuilder{
		Key: model.ProductKey{
			Source:   model.SourceBoard,
			Category: "DDR5 RAM (데스크탑)",
			Product:  "삼성 DDR5 16G 5600MHz",
		},
		Start: BaseTime,
		Step:  24 * time.Hour,
	}
}

// WithKey sets a custom product key.
func (b *SeriesBuilder) WithKey(source, category, product string) *SeriesBuilder {
	b.Key = model.ProductKey{Source: source, Category: category, Product: product}
	return b
}

// WithStart sets the timestamp of the first point.
func (b *SeriesBuilder) WithStart(start time.Time) *SeriesBuilder {
	b.Start = start
	return b
}

// WithStep sets the spacing between consecutive points.
func (b *SeriesBuilder) WithStep(step time.Duration) *SeriesBuilder {
	b.Step = step
	return b
}

// WithPrices sets the prices of the points, oldest first.
func (b *SeriesBuilder) WithPrices(prices ...float64) *SeriesBuilder {
	b.Prices = prices
	return b
}

// Points returns the history the builder describes without writing it.
func (b *SeriesBuilder) Points() model.ProductHistory {
	h := make(model.ProductHistory, len(b.Prices))
	for i, p := range b.Prices {
		h[i] = model.HistoryPoint{
			Timestamp: b.Start.Add(time.Duration(i) * b.Step),
			Price:     p,
		}
	}
	return h
}

// Build writes the points to price_history and returns the series.
func (b *SeriesBuilder) Build(t *testing.T, db *sql.DB) model.Series {
	t.Helper()

	query := `
		INSERT INTO price_history (id, source, category, product, ts, price)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	points := b.Points()
	for _, p := range points {
		_, err := db.Exec(query,
			uuid.New().String(),
			b.Key.Source,
			b.Key.Category,
			b.Key.Product,
			repository.FormatTime(p.Timestamp),
			p.Price,
		)
		if err != nil {
			t.Fatalf("Failed to create test price point: %v", err)
		}
	}

	return model.Series{Key: b.Key, Points: points}
}

// Convenience functions

// CreateSeries writes daily points for key starting at BaseTime.
//
// Example usage:
//
//	series := testutil.CreateSeries(t, db, key, 100, 110, 120)
func CreateSeries(t *testing.T, db *sql.DB, key model.ProductKey, prices ...float64) model.Series {
	t.Helper()

	return NewSeries().
		WithKey(key.Source, key.Category, key.Product).
		WithPrices(prices...).
		Build(t, db)
}

// Quote returns a ProductQuote with a plain display price.
func Quote(product string, price float64) model.ProductQuote {
	return model.ProductQuote{
		Product:      product,
		Price:        price,
		DisplayPrice: FormatTestPrice(price),
	}
}

// FormatTestPrice renders a price the way the fake sources do.
func FormatTestPrice(price float64) string {
	return "₩" + strconv.FormatFloat(price, 'f', -1, 64)
}
