package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/category"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/model"
)

// SourcesFile is the optional YAML file that overrides the market ticker groups,
// derived cross rates and the category priority table.
//
//	tickers:
//	  - name: indices
//	    tickers:
//	      - {symbol: "^KS11", name: "코스피"}
//	crossRates:
//	  - {name: "원/위안", group: forex, position: 1, numerator: "KRW=X", denominator: "CNY=X"}
//	categoryPriority: ["DDR5 RAM (데스크탑)", "DDR4 RAM (데스크탑)"]
type SourcesFile struct {
	Tickers          []model.TickerGroup `yaml:"tickers"`
	CrossRates       []model.CrossRate   `yaml:"crossRates"`
	CategoryPriority []string            `yaml:"categoryPriority"`
}

// DefaultTickers returns the built-in market ticker groups.
func DefaultTickers() []model.TickerGroup {
	return []model.TickerGroup{
		{Name: "indices", Tickers: []model.Ticker{
			{Symbol: "^KS11", Name: "🇰🇷 코스피"},
			{Symbol: "^DJI", Name: "🇺🇸 다우존스"},
			{Symbol: "^GSPC", Name: "🇺🇸 S&P 500"},
			{Symbol: "^IXIC", Name: "🇺🇸 나스닥"},
		}},
		{Name: "macro", Tickers: []model.Ticker{
			{Symbol: "CL=F", Name: "🛢️ WTI 원유"},
			{Symbol: "GC=F", Name: "👑 금"},
			{Symbol: "^VIX", Name: "😱 VIX"},
			{Symbol: "HG=F", Name: "🏭 구리"},
		}},
		{Name: "forex", Tickers: []model.Ticker{
			{Symbol: "KRW=X", Name: "🇰🇷 원/달러"},
			{Symbol: "JPYKRW=X", Name: "🇯🇵 원/엔 (100엔)", Scale: 100},
			{Symbol: "DX-Y.NYB", Name: "🌎 달러 인덱스"},
		}},
		{Name: "bonds", Tickers: []model.Ticker{
			{Symbol: "ZT=F", Name: "🇺🇸 미국 2년"},
			{Symbol: "^TNX", Name: "🇺🇸 미국 10년"},
		}},
	}
}

// DefaultCrossRates returns the built-in derived rates.
func DefaultCrossRates() []model.CrossRate {
	return []model.CrossRate{
		{Name: "🇨🇳 원/위안", Group: "forex", Position: 1, Numerator: "KRW=X", Denominator: "CNY=X"},
	}
}

// LoadSources reads the sources file at path and expands ${VAR} references.
// An empty path returns the defaults.
func LoadSources(path string) (*SourcesFile, error) {
	if path == "" {
		sf := &SourcesFile{}
		sf.applyDefaults()
		return sf, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var sf SourcesFile
	if err := yaml.Unmarshal([]byte(expanded), &sf); err != nil {
		return nil, fmt.Errorf("parse sources yaml: %w", err)
	}

	sf.applyDefaults()
	if err := sf.Validate(); err != nil {
		return nil, fmt.Errorf("validate sources file: %w", err)
	}

	return &sf, nil
}

func (sf *SourcesFile) applyDefaults() {
	if len(sf.Tickers) == 0 {
		sf.Tickers = DefaultTickers()
		if sf.CrossRates == nil {
			sf.CrossRates = DefaultCrossRates()
		}
	}
	if len(sf.CategoryPriority) == 0 {
		sf.CategoryPriority = category.DefaultPriority
	}
}

// Validate checks that every ticker has a symbol and every cross rate
// refers to a configured group.
func (sf *SourcesFile) Validate() error {
	groups := make(map[string]bool, len(sf.Tickers))
	for _, g := range sf.Tickers {
		if g.Name == "" {
			return errors.New("ticker group without name")
		}
		groups[g.Name] = true
		for _, t := range g.Tickers {
			if t.Symbol == "" {
				return fmt.Errorf("ticker group %s: ticker without symbol", g.Name)
			}
			if t.Scale < 0 {
				return fmt.Errorf("ticker %s: negative scale", t.Symbol)
			}
		}
	}
	for _, c := range sf.CrossRates {
		if c.Numerator == "" || c.Denominator == "" {
			return fmt.Errorf("cross rate %s: numerator and denominator are required", c.Name)
		}
		if !groups[c.Group] {
			return fmt.Errorf("cross rate %s: unknown group %q", c.Name, c.Group)
		}
	}
	return nil
}
