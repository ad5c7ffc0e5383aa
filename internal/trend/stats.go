package trend

import (
	"github.com/shopspring/decimal"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/model"
)

// Compute summarizes a window of history points.
//
// First and Last are the chronological ends of the window, not its extremes,
// so Delta describes drift across the window rather than its range. Avg is the
// arithmetic mean rounded to a whole currency unit. Pct is 0 when First is 0.
//
// An empty window yields zero values with HasData false. A single point yields
// defined values (Delta and Pct 0) but HasData is still false.
func Compute(w model.ProductHistory) model.Stats {
	if len(w) == 0 {
		return model.Stats{}
	}

	first := w[0].Price
	last := w[len(w)-1].Price
	maxPrice, minPrice := first, first
	sum := decimal.Zero

	for _, p := range w {
		if p.Price > maxPrice {
			maxPrice = p.Price
		}
		if p.Price < minPrice {
			minPrice = p.Price
		}
		sum = sum.Add(decimal.NewFromFloat(p.Price))
	}

	avg := sum.Div(decimal.NewFromInt(int64(len(w)))).Round(0).InexactFloat64()
	delta := last - first

	return model.Stats{
		Max:     maxPrice,
		Min:     minPrice,
		Avg:     avg,
		First:   first,
		Last:    last,
		Delta:   delta,
		Pct:     PercentChange(first, last),
		Points:  len(w),
		HasData: len(w) > 1,
	}
}

// PercentChange returns the change from base to value as a percentage of base.
// A zero base yields 0 instead of an infinite or NaN result.
func PercentChange(base, value float64) float64 {
	if base == 0 {
		return 0
	}
	return (value - base) * 100 / base
}
