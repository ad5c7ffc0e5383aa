package model

// ChartPoint is one sparkline sample for a market indicator.
type ChartPoint struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

// Indicator is the current value, change and trend series of one market symbol.
type Indicator struct {
	Symbol  string       `json:"symbol"`
	Name    string       `json:"name"`
	Current float64      `json:"current"`
	Delta   float64      `json:"delta"`
	Pct     float64      `json:"pct"`
	Chart   []ChartPoint `json:"chart"`
}

// MarketData groups indicators by their ticker group (indices, macro, forex, bonds).
type MarketData struct {
	Period string                 `json:"period"`
	Groups map[string][]Indicator `json:"groups"`
	Errors map[string]string      `json:"errors,omitempty"`
}
