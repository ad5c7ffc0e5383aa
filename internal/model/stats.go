package model

// Stats summarizes a window of a product's history.
//
// HasData is true only when the window holds more than one point, i.e. when
// a comparison between first and last is meaningful. All numeric fields are
// zero for an empty window.
type Stats struct {
	Max     float64 `json:"max"`
	Min     float64 `json:"min"`
	Avg     float64 `json:"avg"`
	First   float64 `json:"first"`
	Last    float64 `json:"last"`
	Delta   float64 `json:"delta"`
	Pct     float64 `json:"pct"`
	Points  int     `json:"points"`
	HasData bool    `json:"hasData"`
}
