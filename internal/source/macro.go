package source

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/trend"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/yahoo"
)

const (
	intradayChartLayout = "2006-01-02 15:04"
	dailyChartLayout    = "2006-01-02"
)

// fetchLimit bounds concurrent chart requests against Yahoo.
const fetchLimit = 4

// IndicatorFetcher downloads the configured ticker groups from Yahoo Finance
// and turns each chart into a model.Indicator.
type IndicatorFetcher struct {
	client   yahoo.Client
	groups   []model.TickerGroup
	crosses  []model.CrossRate
	location *time.Location
	logger   *slog.Logger
}

// NewIndicatorFetcher creates an IndicatorFetcher. Chart labels are rendered in loc.
func NewIndicatorFetcher(client yahoo.Client, groups []model.TickerGroup, crosses []model.CrossRate, loc *time.Location, logger *slog.Logger) *IndicatorFetcher {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IndicatorFetcher{
		client:   client,
		groups:   groups,
		crosses:  crosses,
		location: loc,
		logger:   logger,
	}
}

// Groups returns the configured ticker groups in display order.
func (f *IndicatorFetcher) Groups() []model.TickerGroup {
	return f.groups
}

// Fetch queries every symbol over rng sampled at interval.
//
// A symbol that fails does not fail the call: it is left out of its group and
// its error message is reported in the returned failures map, keyed by symbol.
// Every configured group is present in the result, possibly empty.
func (f *IndicatorFetcher) Fetch(ctx context.Context, rng, interval string) (map[string][]model.Indicator, map[string]string) {
	symbols := f.symbols()

	var mu sync.Mutex
	charts := make(map[string]yahoo.PriceChart, len(symbols))
	failures := make(map[string]string)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchLimit)

	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			chart, err := f.chart(gctx, symbol, rng, interval)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				f.logger.Warn("failed to fetch indicator", "symbol", symbol, "error", err)
				failures[symbol] = err.Error()
				return nil
			}
			charts[symbol] = chart
			return nil
		})
	}
	_ = g.Wait() // goroutines report through failures

	layout := chartLayout(interval)
	groups := make(map[string][]model.Indicator, len(f.groups))

	for _, group := range f.groups {
		list := []model.Indicator{}
		for _, ticker := range group.Tickers {
			chart, ok := charts[ticker.Symbol]
			if !ok {
				continue
			}
			ind, ok := f.indicator(ticker, chart, layout)
			if !ok {
				failures[ticker.Symbol] = "no close prices in range"
				continue
			}
			list = append(list, ind)
		}
		groups[group.Name] = list
	}

	for _, cross := range f.crosses {
		ind, err := f.crossIndicator(cross, charts, layout)
		if err != nil {
			failures[cross.Name] = err.Error()
			continue
		}
		list := groups[cross.Group]
		pos := min(max(cross.Position, 0), len(list))
		list = append(list[:pos], append([]model.Indicator{ind}, list[pos:]...)...)
		groups[cross.Group] = list
	}

	return groups, failures
}

func (f *IndicatorFetcher) chart(ctx context.Context, symbol, rng, interval string) (yahoo.PriceChart, error) {
	resp, err := f.client.QuerySymbol(ctx, symbol, rng, interval)
	if err != nil {
		return yahoo.PriceChart{}, err
	}
	return f.client.ParseChart(resp)
}

// symbols returns every distinct symbol needed by the groups and cross rates.
func (f *IndicatorFetcher) symbols() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, g := range f.groups {
		for _, t := range g.Tickers {
			add(t.Symbol)
		}
	}
	for _, c := range f.crosses {
		add(c.Numerator)
		add(c.Denominator)
	}
	return out
}

func (f *IndicatorFetcher) indicator(ticker model.Ticker, chart yahoo.PriceChart, layout string) (model.Indicator, bool) {
	if len(chart.Indicators) == 0 {
		return model.Indicator{}, false
	}

	scale := ticker.Scale
	if scale == 0 {
		scale = 1
	}

	points := make([]model.ChartPoint, len(chart.Indicators))
	for i, s := range chart.Indicators {
		points[i] = model.ChartPoint{
			Time:  s.Date.In(f.location).Format(layout),
			Value: s.PriceClose * scale,
		}
	}

	return summarize(ticker.Symbol, ticker.Name, points), true
}

// crossIndicator divides the numerator series by the denominator series on
// samples present in both.
func (f *IndicatorFetcher) crossIndicator(cross model.CrossRate, charts map[string]yahoo.PriceChart, layout string) (model.Indicator, error) {
	num, ok := charts[cross.Numerator]
	if !ok {
		return model.Indicator{}, fmt.Errorf("cross rate %s: %s unavailable", cross.Name, cross.Numerator)
	}
	den, ok := charts[cross.Denominator]
	if !ok {
		return model.Indicator{}, fmt.Errorf("cross rate %s: %s unavailable", cross.Name, cross.Denominator)
	}

	denominators := make(map[string]float64, len(den.Indicators))
	for _, s := range den.Indicators {
		denominators[s.Date.In(f.location).Format(layout)] = s.PriceClose
	}

	var points []model.ChartPoint
	for _, s := range num.Indicators {
		label := s.Date.In(f.location).Format(layout)
		d, ok := denominators[label]
		if !ok || d == 0 {
			continue
		}
		if n := len(points); n > 0 && points[n-1].Time == label {
			points[n-1].Value = s.PriceClose / d
			continue
		}
		points = append(points, model.ChartPoint{Time: label, Value: s.PriceClose / d})
	}
	if len(points) < 2 {
		return model.Indicator{}, fmt.Errorf("cross rate %s: fewer than two aligned samples", cross.Name)
	}

	return summarize(cross.Numerator+"/"+cross.Denominator, cross.Name, points), nil
}

// summarize derives current value and change versus the previous sample.
func summarize(symbol, name string, points []model.ChartPoint) model.Indicator {
	current := points[len(points)-1].Value
	prev := current
	if len(points) > 1 {
		prev = points[len(points)-2].Value
	}

	return model.Indicator{
		Symbol:  symbol,
		Name:    name,
		Current: current,
		Delta:   current - prev,
		Pct:     trend.PercentChange(prev, current),
		Chart:   points,
	}
}

func chartLayout(interval string) string {
	if strings.HasSuffix(interval, "m") || strings.HasSuffix(interval, "h") {
		return intradayChartLayout
	}
	return dailyChartLayout
}

// MacroAdapter exposes the market indicators as a price source: one category
// per ticker group, one quote per indicator priced at its latest close.
type MacroAdapter struct {
	fetcher  *IndicatorFetcher
	rng      string
	interval string
	now      func() time.Time
}

// NewMacroAdapter creates a MacroAdapter that samples the last five daily closes.
func NewMacroAdapter(fetcher *IndicatorFetcher, opts Options) *MacroAdapter {
	opts = opts.withDefaults()
	return &MacroAdapter{
		fetcher:  fetcher,
		rng:      "5d",
		interval: "1d",
		now:      opts.Now,
	}
}

// ID returns model.SourceMacro.
func (a *MacroAdapter) ID() string {
	return model.SourceMacro
}

// Fetch returns the latest indicator values. It fails only when every symbol failed.
func (a *MacroAdapter) Fetch(ctx context.Context) (model.Snapshot, error) {
	groups, failures := a.fetcher.Fetch(ctx, a.rng, a.interval)

	snap := model.NewSnapshot(a.ID(), a.now())
	for _, group := range a.fetcher.Groups() {
		indicators := groups[group.Name]
		if len(indicators) == 0 {
			continue
		}
		quotes := make([]model.ProductQuote, 0, len(indicators))
		for _, ind := range indicators {
			name := ind.Name
			if name == "" {
				name = ind.Symbol
			}
			quotes = append(quotes, model.ProductQuote{
				Product:      name,
				Price:        ind.Current,
				DisplayPrice: FormatValue(ind.Current),
				Session:      &model.Session{SessionChange: fmt.Sprintf("%+.2f%%", ind.Pct)},
			})
		}
		snap.Categories[group.Name] = quotes
	}

	if len(snap.Categories) == 0 && len(failures) > 0 {
		return model.Snapshot{}, unavailable(a.ID(), fmt.Errorf("all %d indicators failed", len(failures)))
	}

	return snap, nil
}
