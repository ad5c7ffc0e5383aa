package model

// Ticker is one market symbol shown as a macro indicator.
// Scale multiplies every sample (e.g. 100 to quote JPY/KRW per 100 yen); zero means 1.
type Ticker struct {
	Symbol string  `yaml:"symbol" json:"symbol"`
	Name   string  `yaml:"name" json:"name"`
	Scale  float64 `yaml:"scale,omitempty" json:"scale,omitempty"`
}

// TickerGroup is a named, ordered list of tickers (indices, macro, forex, bonds).
type TickerGroup struct {
	Name    string   `yaml:"name" json:"name"`
	Tickers []Ticker `yaml:"tickers" json:"tickers"`
}

// CrossRate is an indicator derived by dividing one symbol's series by another's,
// aligned on sample time. It is inserted into Group at Position.
type CrossRate struct {
	Name        string `yaml:"name" json:"name"`
	Group       string `yaml:"group" json:"group"`
	Position    int    `yaml:"position" json:"position"`
	Numerator   string `yaml:"numerator" json:"numerator"`
	Denominator string `yaml:"denominator" json:"denominator"`
}
