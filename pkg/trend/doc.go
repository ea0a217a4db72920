// Package trend computes summary statistics and a qualitative reading of a
// daily time series such as package download counts.
//
// # Overview
//
// The package is pure and stateless. [Analyze] takes a time-ordered sequence
// of [Observation] values, where missing entries denote days without data,
// and returns an [Analysis]:
//
//   - [Summary]: population mean and standard deviation, coefficient of
//     variation, regression slope and R²
//   - [Interpretation]: a [Volatility] class and a [Trend] class
//
// Missing observations are dropped before any statistic is computed, but the
// remaining points keep their original position. A gap therefore widens the
// time axis used for the regression instead of shifting later points left.
//
// # Outlier Handling
//
// With at least [WinsorizeMinPoints] observations the regression runs on
// values winsorized to the 5th and 95th percentiles (see [Winsorize]). The
// mean, standard deviation and coefficient of variation always use the raw
// values. Smaller samples are fitted unmodified.
//
// # Undefined Values
//
// Optional statistics are pointers: CoefficientOfVariation is nil when the
// mean is zero and RSquared is nil when the regression input is flat.
// No field of a returned [Analysis] is ever NaN or infinite, and no input
// (empty, all missing, all zero) causes a panic.
//
// # Weekly Totals
//
// [AggregateIntoBuckets] chunks a labeled daily series into contiguous
// buckets (seven days by default) and sums each one. Bar charts of weekly
// downloads are built from its output.
//
// # Usage
//
//	a := trend.AnalyzeValues([]*float64{ptr(10), nil, ptr(30), nil, ptr(50)})
//	fmt.Println(a.Slope, a.Trend) // 10 strong
//
// All functions are safe for concurrent use. Inputs are never modified.
package trend
