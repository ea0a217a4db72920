package alttext

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/matzehuels/pkgtrend/pkg/trend"
)

func f(v float64) *float64 { return &v }

func TestDefaultFormatter(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1234567, "1,234,567"},
		{-4200, "-4,200"},
		{12.34, "12.3"},
		{math.NaN(), "n/a"},
		{math.Inf(1), "n/a"},
	}
	for _, tt := range tests {
		if got := DefaultFormatter(tt.in); got != tt.want {
			t.Errorf("DefaultFormatter(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaultFormatterBeyondInt64(t *testing.T) {
	for _, v := range []float64{1e20, -1e20, math.Ldexp(1, 63)} {
		got := strings.ReplaceAll(DefaultFormatter(v), ",", "")
		if want := fmt.Sprintf("%.0f", v); got != want {
			t.Errorf("DefaultFormatter(%g) = %q, want %q without separators", v, DefaultFormatter(v), want)
		}
	}
}

func TestDefaultTranslator(t *testing.T) {
	got := DefaultTranslator(KeyBarHighest, map[string]string{"label": "week 1", "value": "10"})
	if got != "Highest: week 1 with 10." {
		t.Errorf("got %q", got)
	}
	if got := DefaultTranslator("no.such.key", nil); got != "no.such.key" {
		t.Errorf("unknown key = %q, want the key itself", got)
	}
	for _, tr := range []trend.Trend{trend.TrendStrong, trend.TrendWeak, trend.TrendNone, trend.TrendUndefined} {
		if DefaultTranslator(TrendKey(tr), nil) == TrendKey(tr) {
			t.Errorf("no English text for %s", tr)
		}
	}
	for _, v := range []trend.Volatility{trend.VolatilityVeryStable, trend.VolatilityModerate, trend.VolatilityVolatile, trend.VolatilityUndefined} {
		if DefaultTranslator(VolatilityKey(v), nil) == VolatilityKey(v) {
			t.Errorf("no English text for %s", v)
		}
	}
}

func TestLineChart(t *testing.T) {
	tests := []struct {
		name   string
		series []LineSeries
		want   string
	}{
		{
			name: "rising line",
			series: []LineSeries{
				{Name: "react", Values: []*float64{f(10), f(20), f(30), f(40)}},
			},
			want: "react: from 10 to 40, strong upward trend, highly volatile.",
		},
		{
			name: "flat line with gaps",
			series: []LineSeries{
				{Name: "flat", Values: []*float64{nil, f(5), f(5), nil, f(5)}},
			},
			want: "flat: from 5 to 5, no clear trend, very stable.",
		},
		{
			name: "two series",
			series: []LineSeries{
				{Name: "a", Values: []*float64{f(40), f(30), f(20), f(10)}},
				{Name: "b", Values: []*float64{nil, nil}},
			},
			want: "a: from 40 to 10, strong downward trend, highly volatile. b: no data.",
		},
		{
			name: "no series",
			want: "No data.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LineChart(tt.series, nil, nil); got != tt.want {
				t.Errorf("LineChart() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestBarChart(t *testing.T) {
	buckets := []trend.Bucket{
		{PeriodStart: "2024-01-01", PeriodEnd: "2024-01-07", Total: 700, Days: 7},
		{PeriodStart: "2024-01-08", PeriodEnd: "2024-01-14", Total: 1400, Days: 7},
		{PeriodStart: "2024-01-15", PeriodEnd: "2024-01-15", Total: 100, Days: 1},
	}
	want := "Downloads: 3 periods from 2024-01-01 to 2024-01-15, 2,200 in total. " +
		"Highest: 2024-01-08 to 2024-01-14 with 1,400. " +
		"Lowest: 2024-01-01 to 2024-01-07 with 700. " +
		"Overall strong upward trend, highly volatile."

	if got := BarChart("Downloads", buckets, nil, nil); got != want {
		t.Errorf("BarChart() =\n%q\nwant\n%q", got, want)
	}
	if got := BarChart("Downloads", nil, nil, nil); got != "Downloads: no data." {
		t.Errorf("empty BarChart() = %q", got)
	}
}

func TestBarChartFlatMonth(t *testing.T) {
	daily := make([]trend.DailyPoint, 30)
	for i := range daily {
		daily[i] = trend.DailyPoint{Label: fmt.Sprintf("2025-01-%02d", i+1), Value: 1000}
	}
	want := "Downloads: 5 periods from 2025-01-01 to 2025-01-30, 30,000 in total. " +
		"Highest: 2025-01-01 to 2025-01-07 with 7,000. " +
		"Lowest: 2025-01-01 to 2025-01-07 with 7,000. " +
		"Overall no clear trend, very stable."

	if got := BarChart("Downloads", trend.AggregateIntoBuckets(daily, 7), nil, nil); got != want {
		t.Errorf("BarChart() =\n%q\nwant\n%q", got, want)
	}
}

func TestCustomTranslator(t *testing.T) {
	var keys []string
	tr := func(key string, params map[string]string) string {
		keys = append(keys, key)
		return "<" + key + ">"
	}
	format := func(v float64) string { return "#" }

	out := LineChart([]LineSeries{{Name: "x", Values: []*float64{f(1), f(2), f(3)}}}, tr, format)
	if out != "<chart.line.series>" {
		t.Errorf("out = %q", out)
	}
	joined := strings.Join(keys, ",")
	for _, want := range []string{"chart.direction.up", "chart.trend.strong", "chart.volatility.", KeyLineSeries} {
		if !strings.Contains(joined, want) {
			t.Errorf("translator was not asked for %q (keys: %s)", want, joined)
		}
	}
}
