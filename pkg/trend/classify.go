package trend

import "math"

// Volatility classifies how much a series fluctuates around its mean.
type Volatility string

const (
	VolatilityVeryStable Volatility = "very_stable"
	VolatilityModerate   Volatility = "moderate"
	VolatilityVolatile   Volatility = "volatile"
	VolatilityUndefined  Volatility = "undefined"
)

// Trend classifies how strongly a series follows a linear direction.
type Trend string

const (
	TrendStrong    Trend = "strong"
	TrendWeak      Trend = "weak"
	TrendNone      Trend = "none"
	TrendUndefined Trend = "undefined"
)

// Classification thresholds. These are calibrated values, not defaults.
const (
	veryStableMaxCV = 0.1
	moderateMaxCV   = 0.25

	strongMinRSquared = 0.75
	weakMinRSquared   = 0.4

	weakMinRelativeSlope   = 0.03
	strongMinRelativeSlope = 0.06
)

// ClassifyVolatility maps a coefficient of variation to a volatility class.
// A nil coefficient is undefined.
func ClassifyVolatility(cv *float64) Volatility {
	switch {
	case cv == nil:
		return VolatilityUndefined
	case *cv < veryStableMaxCV:
		return VolatilityVeryStable
	case *cv < moderateMaxCV:
		return VolatilityModerate
	default:
		return VolatilityVolatile
	}
}

// ClassifyTrend derives a trend class from the standard deviation, the
// regression fit and the mean of the regression input.
//
// The base class comes from R². A practically large slope relative to
// regressionMean then upgrades it by at most one step: none to weak, or
// weak to strong.
func ClassifyTrend(stdDev float64, rSquared *float64, slope, regressionMean float64) Trend {
	if stdDev == 0 {
		return TrendNone
	}
	if rSquared == nil {
		return TrendUndefined
	}

	base := TrendNone
	switch {
	case *rSquared > strongMinRSquared:
		base = TrendStrong
	case *rSquared > weakMinRSquared:
		base = TrendWeak
	}

	var rel float64
	if regressionMean != 0 {
		rel = math.Abs(slope) / regressionMean
	}

	switch {
	case base == TrendNone && rel >= weakMinRelativeSlope:
		return TrendWeak
	case base == TrendWeak && rel >= strongMinRelativeSlope:
		return TrendStrong
	}
	return base
}

// Valid reports whether v is one of the defined volatility classes.
func (v Volatility) Valid() bool {
	switch v {
	case VolatilityVeryStable, VolatilityModerate, VolatilityVolatile, VolatilityUndefined:
		return true
	}
	return false
}

// Valid reports whether t is one of the defined trend classes.
func (t Trend) Valid() bool {
	switch t {
	case TrendStrong, TrendWeak, TrendNone, TrendUndefined:
		return true
	}
	return false
}
