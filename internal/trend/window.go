// Package trend extracts look-back windows from product histories and
// summarizes them into trend statistics.
package trend

import "github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/model"

// Window returns the trailing min(n, len(h)) points of h, preserving order.
// The window counts observations, not calendar days: with irregular sampling
// a "30 day" window is the 30 most recent points.
//
// n <= 0 yields an empty, non-nil history. The returned slice is a copy and
// may be modified by the caller.
func Window(h model.ProductHistory, n int) model.ProductHistory {
	if n <= 0 || len(h) == 0 {
		return model.ProductHistory{}
	}
	if n > len(h) {
		n = len(h)
	}
	out := make(model.ProductHistory, n)
	copy(out, h[len(h)-n:])
	return out
}
