package model

import "time"

// Source fetch states reported in an AggregateView.
const (
	SourceStatusOK    = "ok"
	SourceStatusStale = "stale"
	SourceStatusError = "error"
)

// SourceStatus describes the outcome of the latest fetch for one source.
// A stale source is serving its last successful snapshot.
type SourceStatus struct {
	SourceID    string    `json:"sourceId"`
	Status      string    `json:"status"`
	FetchedAt   time.Time `json:"fetchedAt,omitzero"`
	AttemptedAt time.Time `json:"attemptedAt"`
	Error       string    `json:"error,omitempty"`
}

// Selection is the default category/product exposed to the presentation layer.
type Selection struct {
	Category string `json:"category"`
	Product  string `json:"product"`
}

// AggregateView is the consolidated result of a refresh cycle.
type AggregateView struct {
	CycleID           string                    `json:"cycleId"`
	Categories        []string                  `json:"categories"`
	CurrentByCategory map[string][]ProductQuote `json:"currentByCategory"`
	CategorySources   map[string][]string       `json:"categorySources"`
	Sources           []SourceStatus            `json:"sources"`
	DefaultSelection  *Selection                `json:"defaultSelection,omitempty"`
	Appended          int                       `json:"appended"`
}

// BoardView is the per-source read model: current quotes plus the full
// history of every product, keyed by category and then product, used for trend charts.
type BoardView struct {
	SourceID  string                               `json:"sourceId"`
	Current   map[string][]ProductQuote            `json:"current"`
	Trends    map[string]map[string]ProductHistory `json:"trends"`
	TotalDays int                                  `json:"totalDays"`
	DateRange string                               `json:"dateRange"`
	Stale     bool                                 `json:"stale"`
	FetchedAt time.Time                            `json:"fetchedAt,omitzero"`
}
