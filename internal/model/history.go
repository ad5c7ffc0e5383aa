package model

import "time"

// ProductKey identifies a product's history. Product names are only unique
// within a category of a single source, so all three parts are required.
type ProductKey struct {
	Source   string `json:"source"`
	Category string `json:"category"`
	Product  string `json:"product"`
}

// HistoryPoint is a single observed price at a point in time.
type HistoryPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// ProductHistory is a sequence of points in ascending timestamp order.
type ProductHistory []HistoryPoint

// Last returns the most recent point and whether one exists.
func (h ProductHistory) Last() (HistoryPoint, bool) {
	if len(h) == 0 {
		return HistoryPoint{}, false
	}
	return h[len(h)-1], true
}

// Series is the history of one product together with its key.
type Series struct {
	Key    ProductKey     `json:"key"`
	Points ProductHistory `json:"points"`
}
