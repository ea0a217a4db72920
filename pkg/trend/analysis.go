package trend

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Regression input is winsorized to these quantiles once a series has at
// least WinsorizeMinPoints observations.
const (
	WinsorizeLower     = 0.05
	WinsorizeUpper     = 0.95
	WinsorizeMinPoints = 20
)

// Summary holds the descriptive statistics of a series.
// CoefficientOfVariation and RSquared are nil when undefined.
type Summary struct {
	Mean                   float64  `json:"mean"`
	StandardDeviation      float64  `json:"standard_deviation"`
	CoefficientOfVariation *float64 `json:"coefficient_of_variation,omitempty"`
	Slope                  float64  `json:"slope"`
	RSquared               *float64 `json:"r_squared,omitempty"`
}

// Interpretation is the qualitative reading of a Summary.
type Interpretation struct {
	Volatility Volatility `json:"volatility"`
	Trend      Trend      `json:"trend"`
}

// Analysis is the result of [Analyze].
type Analysis struct {
	Summary        `json:"summary"`
	Interpretation `json:"interpretation"`

	// Observations is the number of non-missing entries that were analyzed.
	Observations int `json:"observations"`
}

// AnalyzeValues is [Analyze] for a nullable series.
func AnalyzeValues(values []*float64) Analysis {
	return Analyze(FromPointers(values))
}

// Analyze computes statistics, regression and classification for series.
// Missing observations are skipped; the rest keep their original index as
// the regression's x coordinate.
func Analyze(series []Observation) Analysis {
	points := Points(series)
	n := len(points)

	switch n {
	case 0:
		return Analysis{
			Interpretation: Interpretation{Volatility: VolatilityUndefined, Trend: TrendUndefined},
		}
	case 1:
		return Analysis{
			Summary:        Summary{Mean: points[0].Value},
			Interpretation: Interpretation{Volatility: VolatilityVeryStable, Trend: TrendNone},
			Observations:   1,
		}
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, p := range points {
		xs[i] = float64(p.Index)
		ys[i] = p.Value
	}

	// Statistics run on ys/scale; CoV, R² and the classes are scale-free.
	ys, scale := normalize(ys)

	var s Summary
	s.Mean, s.StandardDeviation = stat.PopMeanStdDev(ys, nil)
	if isFlat(ys) {
		s.StandardDeviation = 0
	}
	if s.Mean != 0 {
		s.CoefficientOfVariation = ptr(s.StandardDeviation / s.Mean)
	}

	reg := ys
	if n >= WinsorizeMinPoints {
		reg = Winsorize(ys, WinsorizeLower, WinsorizeUpper)
	}
	s.Slope, s.RSquared = fit(xs, reg)

	interp := Interpretation{
		Volatility: ClassifyVolatility(s.CoefficientOfVariation),
		Trend:      ClassifyTrend(s.StandardDeviation, s.RSquared, s.Slope, stat.Mean(reg, nil)),
	}
	s.Mean *= scale
	s.StandardDeviation *= scale
	s.Slope = Clamp(s.Slope*scale, -math.MaxFloat64, math.MaxFloat64)

	return Analysis{Summary: s, Interpretation: interp, Observations: n}
}

// largeMagnitude is the value above which sums of squares may overflow.
const largeMagnitude = 1e100

// normalize divides values by a power of two when their magnitude could
// overflow the regression sums and returns the factor to multiply results
// by. Power-of-two scaling is exact, so ordinary inputs are unaffected.
func normalize(values []float64) (scaled []float64, scale float64) {
	peak := math.Max(math.Abs(floats.Max(values)), math.Abs(floats.Min(values)))
	if peak < largeMagnitude {
		return values, 1
	}
	_, exp := math.Frexp(peak)
	scale = math.Ldexp(1, exp-1)
	scaled = make([]float64, len(values))
	for i, v := range values {
		scaled[i] = v / scale
	}
	return scaled, scale
}

// fit runs an ordinary least-squares regression of ys on xs.
// The slope is 0 and R² nil when the x values do not vary; R² is also nil
// when ys is flat.
func fit(xs, ys []float64) (slope float64, rSquared *float64) {
	n := float64(len(xs))
	sx, sy := floats.Sum(xs), floats.Sum(ys)
	sxy, sxx := floats.Dot(xs, ys), floats.Dot(xs, xs)

	denom := n*sxx - sx*sx
	if denom == 0 {
		return 0, nil
	}
	slope = (n*sxy - sx*sy) / denom
	if isFlat(ys) {
		return slope, nil
	}

	intercept := (sy - slope*sx) / n
	r2 := stat.RSquared(xs, ys, nil, intercept, slope)
	return slope, ptr(Clamp(r2, 0, 1))
}

// isFlat reports whether every value is identical, i.e. the total sum of
// squares about the mean is zero.
func isFlat(values []float64) bool {
	return floats.Min(values) == floats.Max(values)
}

func ptr(v float64) *float64 { return &v }
