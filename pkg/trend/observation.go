package trend

import "math"

// Observation is a single entry of a series: either a value or a gap.
// The zero Observation is missing.
type Observation struct {
	Value float64
	Valid bool
}

// Value returns an observation holding v.
func Value(v float64) Observation {
	return Observation{Value: v, Valid: true}
}

// Missing returns an observation with no data.
func Missing() Observation {
	return Observation{}
}

// FromPointers converts a nullable series into observations.
// A nil element becomes a missing observation.
func FromPointers(values []*float64) []Observation {
	obs := make([]Observation, len(values))
	for i, v := range values {
		if v != nil {
			obs[i] = Value(*v)
		}
	}
	return obs
}

// FromValues converts a dense series into observations.
func FromValues(values []float64) []Observation {
	obs := make([]Observation, len(values))
	for i, v := range values {
		obs[i] = Value(v)
	}
	return obs
}

// Point is a present observation tagged with its position in the input.
type Point struct {
	Index int
	Value float64
}

// Points drops missing observations and keeps the original index of the rest.
// NaN and infinite values count as missing.
func Points(series []Observation) []Point {
	points := make([]Point, 0, len(series))
	for i, o := range series {
		if o.Valid && !math.IsNaN(o.Value) && !math.IsInf(o.Value, 0) {
			points = append(points, Point{Index: i, Value: o.Value})
		}
	}
	return points
}
