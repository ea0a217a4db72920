// Package pkg provides the core libraries for pkgtrend download analysis.
//
// # Overview
//
// pkgtrend fetches daily download counts from package registries and turns
// them into a small set of statistics: mean, spread, linear slope, goodness
// of fit, a volatility and trend classification, and fixed-size bucket
// totals. The pkg directory is organized into these areas:
//
//  1. [trend] - The statistics engine (quantiles, winsorizing, analysis, buckets)
//  2. [downloads] - Download series types and analysis periods
//  3. [integrations] - Registry clients for npm, PyPI and crates.io
//  4. [pipeline] - Orchestration (fetch → analyze → describe) shared by CLI and API
//  5. [cache], [storage] - Caching and snapshot persistence
//
// # Architecture
//
// The typical data flow through pkgtrend:
//
//	Package registry
//	       ↓
//	  [integrations] (fetch daily counts, cached and rate limited)
//	       ↓
//	  [downloads] (dense daily series, gaps marked missing)
//	       ↓
//	  [trend] (analysis and bucket totals)
//	       ↓
//	  [alttext] (chart descriptions), [storage] (snapshots)
//
// # Quick Start
//
// Analyze a series you already have:
//
//	a := trend.Analyze(trend.FromValues([]float64{120, 135, 150, 160}))
//	fmt.Println(a.Trend, a.Volatility)
//
// Fetch and analyze a package:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{Registry: "npm", Package: "react"})
//
// # Main Packages
//
// [trend] - Pure statistics with no I/O. Missing and non-finite values are
// skipped; large series are winsorized before fitting.
//
// [downloads] - [downloads.Series] with one entry per calendar day and the
// supported analysis periods.
//
// [integrations] - Shared HTTP client with response caching, retry,
// per-host rate limiting and circuit breaking, plus one subpackage per
// registry.
//
// [httputil] - Retry, rate limiter and circuit breaker helpers.
//
// [pipeline] - The fetch → analyze → describe pipeline with caching of each
// stage.
//
// [cache] - Byte caches (file, Redis, null) and cache key construction.
//
// [storage] - Snapshot stores (memory, MongoDB) for download history.
//
// [alttext] - Localizable chart descriptions.
//
// [observability] - Hook registry for metrics; [observability/prom] implements
// it with Prometheus.
//
// [config] - TOML, .env and environment configuration.
//
// [errors] - Coded errors and input validation.
//
// # Testing
//
// Run tests:
//
//	go test ./...                        # All tests
//	go test ./pkg/trend/...              # Specific package
//	go test -run Example ./pkg/...       # Examples only
//	go test -tags integration ./pkg/...  # Include live registry tests
//
// [trend]: https://pkg.go.dev/github.com/matzehuels/pkgtrend/pkg/trend
// [downloads]: https://pkg.go.dev/github.com/matzehuels/pkgtrend/pkg/downloads
// [downloads.Series]: https://pkg.go.dev/github.com/matzehuels/pkgtrend/pkg/downloads#Series
// [integrations]: https://pkg.go.dev/github.com/matzehuels/pkgtrend/pkg/integrations
// [httputil]: https://pkg.go.dev/github.com/matzehuels/pkgtrend/pkg/httputil
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/pkgtrend/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/pkgtrend/pkg/cache
// [storage]: https://pkg.go.dev/github.com/matzehuels/pkgtrend/pkg/storage
// [alttext]: https://pkg.go.dev/github.com/matzehuels/pkgtrend/pkg/alttext
// [observability]: https://pkg.go.dev/github.com/matzehuels/pkgtrend/pkg/observability
// [observability/prom]: https://pkg.go.dev/github.com/matzehuels/pkgtrend/pkg/observability/prom
// [config]: https://pkg.go.dev/github.com/matzehuels/pkgtrend/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/pkgtrend/pkg/errors
package pkg
