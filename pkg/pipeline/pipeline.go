// Package pipeline provides the download-trend pipeline shared by the CLI
// and the API server.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Fetch: Retrieve the daily download series from a registry
//  2. Analyze: Compute the trend analysis and weekly buckets
//  3. Describe: Build chart alt text and optionally record a snapshot
//
// Fetched series and analyses are cached through [cache.Cache], so repeated
// requests for the same package and day never hit the registry twice.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Registry: "npm",
//	    Package:  "react",
//	    Period:   downloads.LastQuarter,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Analysis.Trend)
//
// Callers that already hold a series skip the fetch stage:
//
//	analysis, err := runner.AnalyzeRaw(ctx, values)
//	buckets, err := runner.Aggregate(ctx, daily, 7)
//
// [cache.Cache]: github.com/matzehuels/pkgtrend/pkg/cache.Cache
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pkgtrend/pkg/cache"
	"github.com/matzehuels/pkgtrend/pkg/downloads"
	"github.com/matzehuels/pkgtrend/pkg/errors"
	"github.com/matzehuels/pkgtrend/pkg/storage"
	"github.com/matzehuels/pkgtrend/pkg/trend"
)

const (
	// DefaultBucketSize is the number of days per aggregation bucket.
	DefaultBucketSize = trend.DefaultBucketSize

	// DefaultPeriod is the download window analyzed when none is given.
	DefaultPeriod = downloads.DefaultPeriod
)

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	Registry   string           `json:"registry"`
	Package    string           `json:"package"`
	Period     downloads.Period `json:"period,omitempty"`
	BucketSize int              `json:"bucket_size,omitempty"`
	Refresh    bool             `json:"refresh,omitempty"`
	Record     bool             `json:"record,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	Series   *downloads.Series `json:"series"`
	Analysis trend.Analysis    `json:"analysis"`

	// Buckets are the series' daily counts summed per BucketSize days.
	Buckets []trend.Bucket `json:"buckets"`

	// BucketAnalysis is the trend across bucket totals.
	BucketAnalysis trend.Analysis `json:"bucket_analysis"`

	AltText AltText `json:"alt_text"`

	// Snapshot is set when the run was recorded.
	Snapshot *storage.Snapshot `json:"snapshot,omitempty"`

	Stats     Stats     `json:"stats"`
	CacheInfo CacheInfo `json:"cache"`
}

// AltText holds the chart descriptions of a result.
type AltText struct {
	Line string `json:"line"`
	Bar  string `json:"bar"`
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Days        int           `json:"days"`
	Reported    int           `json:"reported"`
	Total       int64         `json:"total"`
	FetchTime   time.Duration `json:"fetch_ns"`
	AnalyzeTime time.Duration `json:"analyze_ns"`
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	SeriesHit   bool `json:"series_hit"`   // Whether the series came from cache
	AnalysisHit bool `json:"analysis_hit"` // Whether the analysis came from cache
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := errors.ValidateRegistryPackage(o.Registry, o.Package); err != nil {
		return err
	}
	period, err := downloads.ParsePeriod(string(o.Period))
	if err != nil {
		return err
	}
	o.Period = period
	if err := errors.ValidateBucketSize(o.BucketSize); err != nil {
		return err
	}
	o.SetDefaults()
	o.validated = true
	return nil
}

// SetDefaults fills zero fields with their defaults.
func (o *Options) SetDefaults() {
	if o.Period == "" {
		o.Period = DefaultPeriod
	}
	if o.BucketSize <= 0 {
		o.BucketSize = DefaultBucketSize
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SeriesKeyOpts returns cache key options for the fetched series ending on end.
func (o *Options) SeriesKeyOpts(end time.Time) cache.SeriesKeyOpts {
	return cache.SeriesKeyOpts{
		Period: string(o.Period),
		End:    end.Format(downloads.DateLayout),
	}
}

// AnalysisKeyOpts returns cache key options for the analysis stage.
func (o *Options) AnalysisKeyOpts() cache.AnalysisKeyOpts {
	return cache.AnalysisKeyOpts{BucketSize: o.BucketSize}
}
