package trend

import (
	"math"
	"slices"
)

// Quantile returns the value at quantile q of an ascending slice, linearly
// interpolating between the two closest ranks at position (n-1)*q.
//
// Quantile does not sort. An empty slice yields 0, q <= 0 yields the first
// element and q >= 1 the last.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return 0
	case n == 1, q <= 0:
		return sorted[0]
	case q >= 1:
		return sorted[n-1]
	}

	pos := float64(n-1) * q
	lo := math.Floor(pos)
	hi := math.Ceil(pos)
	lower, upper := sorted[int(lo)], sorted[int(hi)]
	return lower + (upper-lower)*(pos-lo)
}

// Winsorize clamps every value into the [lowerQ, upperQ] quantile range of
// values. The result has the same length and order as the input, which is
// left untouched.
func Winsorize(values []float64, lowerQ, upperQ float64) []float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	lo := Quantile(sorted, lowerQ)
	hi := Quantile(sorted, upperQ)

	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = Clamp(v, lo, hi)
	}
	return out
}

// Clamp limits v to [lo, hi]. Callers must pass lo <= hi.
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
