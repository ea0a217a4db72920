package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pkgtrend/pkg/alttext"
	"github.com/matzehuels/pkgtrend/pkg/cache"
	"github.com/matzehuels/pkgtrend/pkg/downloads"
	"github.com/matzehuels/pkgtrend/pkg/errors"
	"github.com/matzehuels/pkgtrend/pkg/integrations"
	"github.com/matzehuels/pkgtrend/pkg/observability"
	"github.com/matzehuels/pkgtrend/pkg/storage"
	"github.com/matzehuels/pkgtrend/pkg/trend"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for its collaborators - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
	Sources map[string]downloads.Fetcher

	// Store records snapshots. Optional; runs with Record set fail without it.
	Store storage.Store

	now func() time.Time
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// Sources default to the npm, PyPI and crates.io clients sharing the cache.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:   c,
		Keyer:   keyer,
		Logger:  logger,
		Sources: NewSources(c, integrations.WithKeyer(keyer)),
		now:     time.Now,
	}
}

// Execute runs the complete fetch → analyze → describe pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if opts.Record && r.Store == nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "recording snapshots requires a configured store")
	}

	result := &Result{}

	// Stage 1: Fetch
	fetchStart := time.Now()
	series, seriesHit, err := r.FetchWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Series = series
	result.Stats.FetchTime = time.Since(fetchStart)
	result.Stats.Days = len(series.Days)
	result.Stats.Reported = series.Reported()
	result.Stats.Total = series.Total()
	result.CacheInfo.SeriesHit = seriesHit

	r.Logger.Info("fetched downloads",
		"registry", opts.Registry,
		"package", series.Package,
		"days", len(series.Days),
		"reported", result.Stats.Reported,
		"cached", seriesHit,
		"duration", result.Stats.FetchTime)

	// Stage 2: Analyze
	analyzeStart := time.Now()
	out, analysisHit, err := r.AnalyzeWithCacheInfo(ctx, series, opts)
	if err != nil {
		return nil, err
	}
	result.Analysis = out.Analysis
	result.Buckets = out.Buckets
	result.BucketAnalysis = out.BucketAnalysis
	result.Stats.AnalyzeTime = time.Since(analyzeStart)
	result.CacheInfo.AnalysisHit = analysisHit

	observability.Pipeline().OnAnalyze(ctx, out.Analysis.Observations,
		string(out.Analysis.Trend), string(out.Analysis.Volatility), result.Stats.AnalyzeTime)
	r.Logger.Info("analyzed trend",
		"trend", out.Analysis.Trend,
		"volatility", out.Analysis.Volatility,
		"buckets", len(out.Buckets),
		"duration", result.Stats.AnalyzeTime)

	// Stage 3: Describe
	result.AltText = Describe(series, out.Buckets)

	if opts.Record {
		snap := storage.NewSnapshot(series, opts.Period, out.Analysis)
		if err := r.Store.Save(ctx, snap); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "record snapshot")
		}
		result.Snapshot = snap
		r.Logger.Debug("recorded snapshot", "id", snap.ID)
	}

	return result, nil
}

// FetchWithCacheInfo fetches the download series with caching and returns
// cache hit info. Registry errors are returned as coded errors.
func (r *Runner) FetchWithCacheInfo(ctx context.Context, opts Options) (*downloads.Series, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	source, ok := r.Sources[opts.Registry]
	if !ok {
		return nil, false, errors.New(errors.ErrCodeInvalidRegistry, "no source configured for registry %q", opts.Registry)
	}

	_, end := opts.Period.Range(r.clock())
	cacheKey := r.Keyer.SeriesKey(opts.Registry, opts.Package, opts.SeriesKeyOpts(end))

	hooks := observability.Pipeline()
	hooks.OnFetchStart(ctx, opts.Registry, opts.Package)
	start := time.Now()

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var s downloads.Series
			if err := json.Unmarshal(data, &s); err == nil {
				hooks.OnFetchComplete(ctx, opts.Registry, opts.Package, len(s.Days), true, time.Since(start), nil)
				return &s, true, nil // Cache hit
			}
		}
	}

	s, err := source.FetchDownloads(ctx, opts.Package, opts.Period, opts.Refresh)
	if err != nil {
		err = integrations.Classify(err, opts.Registry, opts.Package)
		hooks.OnFetchComplete(ctx, opts.Registry, opts.Package, 0, false, time.Since(start), err)
		return nil, false, err
	}
	hooks.OnFetchComplete(ctx, opts.Registry, opts.Package, len(s.Days), false, time.Since(start), nil)

	if data, err := json.Marshal(s); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLSeries)
	}
	return s, false, nil // Cache miss
}

// Fetch is a convenience wrapper that calls FetchWithCacheInfo and discards the cache hit info.
func (r *Runner) Fetch(ctx context.Context, opts Options) (*downloads.Series, error) {
	s, _, err := r.FetchWithCacheInfo(ctx, opts)
	return s, err
}

// AnalyzeOutput is the output of the analyze stage.
type AnalyzeOutput struct {
	Analysis       trend.Analysis `json:"analysis"`
	Buckets        []trend.Bucket `json:"buckets"`
	BucketAnalysis trend.Analysis `json:"bucket_analysis"`
}

// valid reports whether a decoded payload carries known classes and
// per-bucket day counts.
func (o *AnalyzeOutput) valid() bool {
	for _, a := range []trend.Analysis{o.Analysis, o.BucketAnalysis} {
		if !a.Volatility.Valid() || !a.Trend.Valid() {
			return false
		}
	}
	for _, b := range o.Buckets {
		if b.Days < 1 {
			return false
		}
	}
	return true
}

// AnalyzeBuckets analyzes bucket totals, leaving out a short trailing bucket.
func AnalyzeBuckets(buckets []trend.Bucket) trend.Analysis {
	return trend.Analyze(trend.FromValues(trend.Totals(trend.CompleteBuckets(buckets))))
}

// AnalyzeWithCacheInfo analyzes series with caching and returns cache hit info.
// The cache key is derived from the series content, so identical series
// share an entry regardless of where they came from.
func (r *Runner) AnalyzeWithCacheInfo(ctx context.Context, series *downloads.Series, opts Options) (*AnalyzeOutput, bool, error) {
	opts.SetDefaults()
	if err := errors.ValidateBucketSize(opts.BucketSize); err != nil {
		return nil, false, err
	}

	seriesData, err := json.Marshal(series)
	if err != nil {
		return nil, false, fmt.Errorf("serialize series for cache key: %w", err)
	}
	cacheKey := r.Keyer.AnalysisKey(cache.Hash(seriesData), opts.AnalysisKeyOpts())

	if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
		var cached AnalyzeOutput
		if err := json.Unmarshal(data, &cached); err == nil && cached.valid() {
			return &cached, true, nil // Cache hit
		}
		// Undecodable or stale payloads are recomputed
	}

	buckets := trend.AggregateIntoBuckets(series.Daily(), opts.BucketSize)
	out := &AnalyzeOutput{
		Analysis:       trend.Analyze(series.Observations()),
		Buckets:        buckets,
		BucketAnalysis: AnalyzeBuckets(buckets),
	}

	if data, err := json.Marshal(out); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLAnalysis)
	}
	return out, false, nil // Cache miss
}

// AnalyzeRaw analyzes a caller-supplied series. Nil entries are gaps.
func (r *Runner) AnalyzeRaw(ctx context.Context, values []*float64) (trend.Analysis, error) {
	if err := errors.ValidateSeriesLength(len(values)); err != nil {
		return trend.Analysis{}, err
	}
	start := time.Now()
	a := trend.AnalyzeValues(values)
	observability.Pipeline().OnAnalyze(ctx, a.Observations, string(a.Trend), string(a.Volatility), time.Since(start))
	return a, nil
}

// Aggregate sums caller-supplied daily values into buckets of size days.
// A size of 0 selects DefaultBucketSize.
func (r *Runner) Aggregate(_ context.Context, daily []trend.DailyPoint, size int) ([]trend.Bucket, error) {
	if err := errors.ValidateSeriesLength(len(daily)); err != nil {
		return nil, err
	}
	if err := errors.ValidateBucketSize(size); err != nil {
		return nil, err
	}
	return trend.AggregateIntoBuckets(daily, size), nil
}

// History returns recorded snapshots of a package, newest first.
func (r *Runner) History(ctx context.Context, registry, pkg string, limit int) ([]storage.Snapshot, error) {
	if err := errors.ValidateRegistryPackage(registry, pkg); err != nil {
		return nil, err
	}
	if r.Store == nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "snapshot history requires a configured store")
	}
	snaps, err := r.Store.History(ctx, registry, pkg, limit)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load history for %s/%s", registry, pkg)
	}
	return snaps, nil
}

// Describe builds English alt text for the series' line chart and the
// bucketed bar chart.
func Describe(series *downloads.Series, buckets []trend.Bucket) AltText {
	values := make([]*float64, len(series.Days))
	for i, d := range series.Days {
		if d.Count != nil {
			v := float64(*d.Count)
			values[i] = &v
		}
	}
	name := series.Registry + "/" + series.Package
	return AltText{
		Line: alttext.LineChart([]alttext.LineSeries{{Name: name, Values: values}}, nil, nil),
		Bar:  alttext.BarChart(name+" downloads per period", buckets, nil, nil),
	}
}

// Close releases resources held by the runner (cache and store).
func (r *Runner) Close() error {
	var err error
	if r.Cache != nil {
		err = r.Cache.Close()
	}
	if r.Store != nil {
		if serr := r.Store.Close(); err == nil {
			err = serr
		}
	}
	return err
}

func (r *Runner) clock() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}
