// Package integrations provides HTTP clients for package registry download
// statistics.
//
// Each registry has its own subpackage implementing [downloads.Fetcher]:
//
//   - [npm]: api.npmjs.org download ranges
//   - [pypi]: pypistats.org daily totals (without mirrors)
//   - [crates]: crates.io per-version daily downloads, summed per day
//
// # Client Pattern
//
// All registry clients follow a consistent pattern:
//
//	client := npm.NewClient(backend, cache.TTLHTTP)
//	series, err := client.FetchDownloads(ctx, "react", downloads.LastMonth, false)
//
// # Shared Infrastructure
//
// The [Client] type provides the HTTP plumbing used by every registry client:
// response caching through [cache.Cache], retries with exponential backoff,
// an optional per-host rate limit and a circuit breaker. Requests report to
// the observability HTTP hooks.
//
// Errors wrap [ErrNotFound], [ErrNetwork] or [ErrRateLimited]; [Classify]
// turns them into coded errors for the CLI and API.
//
// [npm]: github.com/matzehuels/pkgtrend/pkg/integrations/npm
// [pypi]: github.com/matzehuels/pkgtrend/pkg/integrations/pypi
// [crates]: github.com/matzehuels/pkgtrend/pkg/integrations/crates
// [downloads.Fetcher]: github.com/matzehuels/pkgtrend/pkg/downloads.Fetcher
// [cache.Cache]: github.com/matzehuels/pkgtrend/pkg/cache.Cache
package integrations
