package service

import (
	"context"
	"fmt"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/source"
)

// Period is a resolved market-data look-back: the Yahoo range and sample interval.
type Period struct {
	Name     string
	Range    string
	Interval string
}

var periods = map[string]Period{
	"5d":  {Name: "5d", Range: "5d", Interval: "90m"},
	"5일":  {Name: "5d", Range: "5d", Interval: "90m"},
	"1mo": {Name: "1mo", Range: "1mo", Interval: "1d"},
	"1개월": {Name: "1mo", Range: "1mo", Interval: "1d"},
	"6mo": {Name: "6mo", Range: "6mo", Interval: "1d"},
	"6개월": {Name: "6mo", Range: "6mo", Interval: "1d"},
}

// ResolvePeriod maps a period label to its range and interval. Both English and
// Korean labels are accepted; an empty label means one month and any other
// label means one year.
func ResolvePeriod(label string) Period {
	if label == "" {
		return periods["1mo"]
	}
	if p, ok := periods[label]; ok {
		return p
	}
	return Period{Name: "1y", Range: "1y", Interval: "1d"}
}

// MarketService serves the macro indicator dashboard.
type MarketService struct {
	fetcher *source.IndicatorFetcher
}

// NewMarketService creates a new MarketService.
func NewMarketService(fetcher *source.IndicatorFetcher) *MarketService {
	return &MarketService{
		fetcher: fetcher,
	}
}

// GetMarketData returns every configured indicator group for the given period.
// Individual symbol failures are reported in MarketData.Errors; the call only
// fails when no indicator could be fetched at all.
func (s *MarketService) GetMarketData(ctx context.Context, label string) (model.MarketData, error) {
	period := ResolvePeriod(label)

	groups, failures := s.fetcher.Fetch(ctx, period.Range, period.Interval)

	total := 0
	for _, list := range groups {
		total += len(list)
	}
	if total == 0 && len(failures) > 0 {
		return model.MarketData{}, fmt.Errorf("%w: %d symbols failed", apperrors.ErrSourceUnavailable, len(failures))
	}

	data := model.MarketData{
		Period: period.Name,
		Groups: groups,
	}
	if len(failures) > 0 {
		data.Errors = failures
	}
	return data, nil
}
