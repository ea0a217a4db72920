// Package alttext builds accessible text descriptions of download charts
// from trend analyses.
//
// Wording is delegated to a [Translator] keyed by stable message keys and
// number rendering to a [Formatter], so callers can plug in their own
// localization. [DefaultTranslator] and [DefaultFormatter] produce plain
// English for the CLI and the API.
package alttext

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/matzehuels/pkgtrend/pkg/trend"
)

// Translator returns the text for key with params substituted.
type Translator func(key string, params map[string]string) string

// Formatter renders a number for display.
type Formatter func(float64) string

// Message keys passed to a Translator.
const (
	KeyLineEmpty  = "chart.line.empty"
	KeyLineSeries = "chart.line.series"
	KeyLineNoData = "chart.line.nodata"
	KeyBarEmpty   = "chart.bar.empty"
	KeyBarSummary = "chart.bar.summary"
	KeyBarHighest = "chart.bar.highest"
	KeyBarLowest  = "chart.bar.lowest"
	KeyBarTrend   = "chart.bar.trend"

	KeyDirectionUp   = "chart.direction.up"
	KeyDirectionDown = "chart.direction.down"
)

// TrendKey returns the message key of a trend class, e.g. "chart.trend.strong".
func TrendKey(t trend.Trend) string { return "chart.trend." + string(t) }

// VolatilityKey returns the message key of a volatility class.
func VolatilityKey(v trend.Volatility) string { return "chart.volatility." + string(v) }

var english = map[string]string{
	KeyLineEmpty:  "No data.",
	KeyLineSeries: "{name}: from {first} to {last}, {trend}, {volatility}.",
	KeyLineNoData: "{name}: no data.",
	KeyBarEmpty:   "{title}: no data.",
	KeyBarSummary: "{title}: {count} periods from {start} to {end}, {total} in total.",
	KeyBarHighest: "Highest: {label} with {value}.",
	KeyBarLowest:  "Lowest: {label} with {value}.",
	KeyBarTrend:   "Overall {trend}, {volatility}.",

	KeyDirectionUp:   "upward",
	KeyDirectionDown: "downward",

	TrendKey(trend.TrendStrong):    "strong {direction} trend",
	TrendKey(trend.TrendWeak):      "weak {direction} trend",
	TrendKey(trend.TrendNone):      "no clear trend",
	TrendKey(trend.TrendUndefined): "trend undetermined",

	VolatilityKey(trend.VolatilityVeryStable): "very stable",
	VolatilityKey(trend.VolatilityModerate):   "moderately volatile",
	VolatilityKey(trend.VolatilityVolatile):   "highly volatile",
	VolatilityKey(trend.VolatilityUndefined):  "volatility undetermined",
}

// DefaultTranslator renders English templates. Placeholders are written as
// {param}. Unknown keys are returned unchanged.
func DefaultTranslator(key string, params map[string]string) string {
	tmpl, ok := english[key]
	if !ok {
		return key
	}
	if len(params) == 0 {
		return tmpl
	}
	pairs := make([]string, 0, 2*len(params))
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

var printer = message.NewPrinter(language.English)

// DefaultFormatter renders whole numbers with thousands separators and
// other values with one decimal.
func DefaultFormatter(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	if v == math.Trunc(v) {
		// int64(v) is undefined beyond ±2^63.
		if math.Abs(v) >= math.MaxInt64 {
			return printer.Sprintf("%.0f", v)
		}
		return printer.Sprintf("%d", int64(v))
	}
	return printer.Sprintf("%.1f", v)
}

func defaults(tr Translator, format Formatter) (Translator, Formatter) {
	if tr == nil {
		tr = DefaultTranslator
	}
	if format == nil {
		format = DefaultFormatter
	}
	return tr, format
}

// describe renders the trend and volatility phrases of an analysis.
func describe(a trend.Analysis, tr Translator) (trendText, volatilityText string) {
	dir := KeyDirectionUp
	if a.Slope < 0 {
		dir = KeyDirectionDown
	}
	trendText = tr(TrendKey(a.Trend), map[string]string{"direction": tr(dir, nil)})
	volatilityText = tr(VolatilityKey(a.Volatility), nil)
	return trendText, volatilityText
}
