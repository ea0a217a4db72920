package alttext

import (
	"strings"

	"github.com/matzehuels/pkgtrend/pkg/trend"
)

// LineSeries is one line of a line chart. Nil values are gaps.
type LineSeries struct {
	Name   string
	Values []*float64
}

// LineChart describes each series with its first and last value and the
// trend and volatility of the whole line. Nil tr or format select the
// defaults.
func LineChart(series []LineSeries, tr Translator, format Formatter) string {
	tr, format = defaults(tr, format)
	if len(series) == 0 {
		return tr(KeyLineEmpty, nil)
	}

	sentences := make([]string, 0, len(series))
	for _, s := range series {
		obs := trend.FromPointers(s.Values)
		points := trend.Points(obs)
		if len(points) == 0 {
			sentences = append(sentences, tr(KeyLineNoData, map[string]string{"name": s.Name}))
			continue
		}

		trendText, volatilityText := describe(trend.Analyze(obs), tr)
		sentences = append(sentences, tr(KeyLineSeries, map[string]string{
			"name":       s.Name,
			"first":      format(points[0].Value),
			"last":       format(points[len(points)-1].Value),
			"trend":      trendText,
			"volatility": volatilityText,
		}))
	}
	return strings.Join(sentences, " ")
}
