// Package rating computes weighted student ratings and adapts the weights
// from observed feedback.
package rating

import "math"

const (
	scaleMin = 1.0
	scaleMax = 100.0
	epsilon  = 1e-9
)

// Normalize maps v from [lo, hi] onto the 1..100 scale, clamped.
// A degenerate range never divides by zero.
func Normalize(v, lo, hi float64) float64 {
	n := scaleMin + (scaleMax-scaleMin)*(v-lo)/(hi-lo+epsilon)
	return math.Min(scaleMax, math.Max(scaleMin, n))
}

// round2 rounds to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}
