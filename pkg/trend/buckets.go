package trend

// DefaultBucketSize groups daily points into weeks.
const DefaultBucketSize = 7

// DailyPoint is one labeled day of a series, e.g. {"2025-01-31", 1200}.
type DailyPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Bucket is the total of a contiguous run of days.
type Bucket struct {
	PeriodStart string  `json:"period_start"`
	PeriodEnd   string  `json:"period_end"`
	Total       float64 `json:"total"`
	Days        int     `json:"days"`
}

// AggregateIntoBuckets splits daily into consecutive, non-overlapping chunks
// of size points and sums each chunk. The last bucket is shorter when
// len(daily) is not a multiple of size. A size below 1 uses
// [DefaultBucketSize].
func AggregateIntoBuckets(daily []DailyPoint, size int) []Bucket {
	if size < 1 {
		size = DefaultBucketSize
	}
	buckets := make([]Bucket, 0, (len(daily)+size-1)/size)
	for start := 0; start < len(daily); start += size {
		chunk := daily[start:min(start+size, len(daily))]
		b := Bucket{
			PeriodStart: chunk[0].Label,
			PeriodEnd:   chunk[len(chunk)-1].Label,
			Days:        len(chunk),
		}
		for _, p := range chunk {
			b.Total += p.Value
		}
		buckets = append(buckets, b)
	}
	return buckets
}

// CompleteBuckets returns buckets without a trailing bucket that covers fewer
// days than the first one. A short final bucket has a lower total only
// because it is short, so trends and extremes across buckets skip it. A
// single bucket is always kept.
func CompleteBuckets(buckets []Bucket) []Bucket {
	if n := len(buckets); n > 1 && buckets[n-1].Days < buckets[0].Days {
		return buckets[:n-1]
	}
	return buckets
}

// Totals returns the bucket totals in order.
func Totals(buckets []Bucket) []float64 {
	totals := make([]float64, len(buckets))
	for i, b := range buckets {
		totals[i] = b.Total
	}
	return totals
}
