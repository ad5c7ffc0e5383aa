package model

import "time"

// Source identifiers for the upstream price sources.
const (
	SourceBoard = "board"
	SourceSpot  = "spot"
	SourceMacro = "macro"
)

// Snapshot is one complete fetch result from a single upstream source.
// Categories maps a category key to the quotes listed under it, in upstream order.
type Snapshot struct {
	SourceID   string                    `json:"sourceId"`
	FetchedAt  time.Time                 `json:"fetchedAt"`
	Categories map[string][]ProductQuote `json:"categories"`
}

// NewSnapshot returns a Snapshot with an initialized, empty category map.
func NewSnapshot(sourceID string, fetchedAt time.Time) Snapshot {
	return Snapshot{
		SourceID:   sourceID,
		FetchedAt:  fetchedAt,
		Categories: make(map[string][]ProductQuote),
	}
}

// CategoryKeys returns the category keys present in the snapshot, in no particular order.
func (s Snapshot) CategoryKeys() []string {
	keys := make([]string, 0, len(s.Categories))
	for k := range s.Categories {
		keys = append(keys, k)
	}
	return keys
}

// ProductCount returns the total number of quotes across all categories.
func (s Snapshot) ProductCount() int {
	n := 0
	for _, quotes := range s.Categories {
		n += len(quotes)
	}
	return n
}

// ProductQuote is the canonical quote shape every source adapter produces.
// Session fields are only populated by sources that report them.
type ProductQuote struct {
	Product      string   `json:"product"`
	Price        float64  `json:"price"`
	DisplayPrice string   `json:"displayPrice"`
	Session      *Session `json:"session,omitempty"`
}

// Session holds the auxiliary trading-session fields reported by exchange-style sources.
type Session struct {
	DailyHigh      float64 `json:"dailyHigh"`
	DailyLow       float64 `json:"dailyLow"`
	SessionHigh    float64 `json:"sessionHigh"`
	SessionLow     float64 `json:"sessionLow"`
	SessionAverage float64 `json:"sessionAverage"`
	SessionChange  string  `json:"sessionChange"`
}
