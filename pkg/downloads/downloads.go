// Package downloads models daily download counts fetched from a package
// registry and converts them into the inputs of the trend engine.
//
// A [Series] always covers every calendar day between Start and End. Days
// the registry did not report have a nil Count; they become missing
// observations for [trend.Analyze] and contribute zero to weekly totals.
package downloads

import (
	"context"
	"time"

	"github.com/matzehuels/pkgtrend/pkg/trend"
)

// DateLayout is the layout of day labels and registry dates.
const DateLayout = "2006-01-02"

// Day is one calendar day of a series. A nil Count means no data.
type Day struct {
	Date  time.Time `json:"date"`
	Count *int64    `json:"count"`
}

// Series is a dense daily download series for one package.
type Series struct {
	Registry string    `json:"registry"`
	Package  string    `json:"package"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Days     []Day     `json:"days"`
}

// Fetcher retrieves download series from one registry.
type Fetcher interface {
	// FetchDownloads returns the daily downloads of pkg over period.
	// refresh bypasses any response cache.
	FetchDownloads(ctx context.Context, pkg string, period Period, refresh bool) (*Series, error)
}

// Densify builds one Day per calendar day from start to end inclusive,
// taking counts from the map keyed by [DateLayout] dates. Days absent from
// counts are missing. Both bounds are truncated to UTC midnight.
func Densify(start, end time.Time, counts map[string]int64) []Day {
	start, end = truncateDay(start), truncateDay(end)
	if end.Before(start) {
		return []Day{}
	}

	days := make([]Day, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		day := Day{Date: d}
		if c, ok := counts[d.Format(DateLayout)]; ok {
			day.Count = &c
		}
		days = append(days, day)
	}
	return days
}

// Observations converts the series into trend observations, one per day.
func (s *Series) Observations() []trend.Observation {
	obs := make([]trend.Observation, len(s.Days))
	for i, d := range s.Days {
		if d.Count == nil {
			obs[i] = trend.Missing()
			continue
		}
		obs[i] = trend.Value(float64(*d.Count))
	}
	return obs
}

// Daily returns the labeled daily values used for bucket aggregation.
// Missing days carry a value of zero.
func (s *Series) Daily() []trend.DailyPoint {
	points := make([]trend.DailyPoint, len(s.Days))
	for i, d := range s.Days {
		points[i] = trend.DailyPoint{Label: d.Date.Format(DateLayout)}
		if d.Count != nil {
			points[i].Value = float64(*d.Count)
		}
	}
	return points
}

// Total is the sum of all reported counts.
func (s *Series) Total() int64 {
	var total int64
	for _, d := range s.Days {
		if d.Count != nil {
			total += *d.Count
		}
	}
	return total
}

// Reported is the number of days with a count.
func (s *Series) Reported() int {
	n := 0
	for _, d := range s.Days {
		if d.Count != nil {
			n++
		}
	}
	return n
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
