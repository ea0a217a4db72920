package alttext

import (
	"strings"

	"github.com/matzehuels/pkgtrend/pkg/trend"
)

// BarChart describes bucketed totals: the covered range, the highest and
// lowest bucket, and the trend across bucket totals. A trailing bucket
// shorter than the others counts toward the range and sum only (see
// [trend.CompleteBuckets]). Ties resolve to the earliest bucket. Nil tr or
// format select the defaults.
func BarChart(title string, buckets []trend.Bucket, tr Translator, format Formatter) string {
	tr, format = defaults(tr, format)
	if len(buckets) == 0 {
		return tr(KeyBarEmpty, map[string]string{"title": title})
	}

	sum := 0.0
	for _, b := range buckets {
		sum += b.Total
	}

	complete := trend.CompleteBuckets(buckets)
	totals := trend.Totals(complete)
	hi, lo := 0, 0
	for i, v := range totals {
		if v > totals[hi] {
			hi = i
		}
		if v < totals[lo] {
			lo = i
		}
	}

	trendText, volatilityText := describe(trend.Analyze(trend.FromValues(totals)), tr)
	label := func(b trend.Bucket) string {
		if b.PeriodStart == b.PeriodEnd {
			return b.PeriodStart
		}
		return b.PeriodStart + " to " + b.PeriodEnd
	}

	parts := []string{
		tr(KeyBarSummary, map[string]string{
			"title": title,
			"count": format(float64(len(buckets))),
			"start": buckets[0].PeriodStart,
			"end":   buckets[len(buckets)-1].PeriodEnd,
			"total": format(sum),
		}),
		tr(KeyBarHighest, map[string]string{"label": label(complete[hi]), "value": format(totals[hi])}),
		tr(KeyBarLowest, map[string]string{"label": label(complete[lo]), "value": format(totals[lo])}),
		tr(KeyBarTrend, map[string]string{"trend": trendText, "volatility": volatilityText}),
	}
	return strings.Join(parts, " ")
}
