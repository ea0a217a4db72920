// Package cache provides byte-level caching for registry responses, download
// series and analysis results.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under ~/.cache/pkgtrend (CLI)
//   - [RedisCache]: shared cache for multi-instance API deployments
//   - [NullCache]: disables caching
//
// # Keys
//
// Keys are built by a [Keyer] so that the CLI and the API agree on them.
// Each key starts with its kind ("http", "series", "analysis"), which
// [Instrument] uses to label cache hit and miss events.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Default time-to-live per entry kind. Download counts are published once
// a day, so fetched series stay fresh for a few hours.
const (
	TTLHTTP     = 6 * time.Hour
	TTLSeries   = 6 * time.Hour
	TTLAnalysis = 6 * time.Hour
)

// Cache stores opaque byte values with an optional TTL.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key and whether it was found.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// SeriesKeyOpts holds the parameters that distinguish cached series.
// End is the last day of the series, so a new day starts a new entry.
type SeriesKeyOpts struct {
	Period string `json:"period"`
	End    string `json:"end"`
}

// AnalysisKeyOpts holds the parameters that distinguish cached analyses.
type AnalysisKeyOpts struct {
	BucketSize int `json:"bucket_size"`
}

// Keyer builds cache keys.
type Keyer interface {
	// HTTPKey returns the key for a raw registry response.
	HTTPKey(namespace, key string) string

	// SeriesKey returns the key for a fetched download series.
	SeriesKey(registry, pkg string, opts SeriesKeyOpts) string

	// AnalysisKey returns the key for an analysis of the series with the
	// given content hash.
	AnalysisKey(seriesHash string, opts AnalysisKeyOpts) string
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// SeriesKey returns "series:<registry>:<pkg>:<hash of opts>".
func (DefaultKeyer) SeriesKey(registry, pkg string, opts SeriesKeyOpts) string {
	return hashKey(fmt.Sprintf("series:%s:%s", registry, pkg), opts)
}

// AnalysisKey returns "analysis:<hash of series and opts>".
func (DefaultKeyer) AnalysisKey(seriesHash string, opts AnalysisKeyOpts) string {
	return hashKey("analysis", seriesHash, opts)
}

// KeyKind returns the kind of a key built by a Keyer ("http", "series" or
// "analysis"), ignoring any scope prefix. Unknown keys are "other".
func KeyKind(key string) string {
	kind, first := "other", len(key)
	for _, k := range []string{"http", "series", "analysis"} {
		if strings.HasPrefix(key, k+":") {
			return k
		}
		if i := strings.Index(key, ":"+k+":"); i >= 0 && i < first {
			kind, first = k, i
		}
	}
	return kind
}
