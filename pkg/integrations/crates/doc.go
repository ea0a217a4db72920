// Package crates fetches daily download counts for Rust crates from the
// crates.io API (https://crates.io).
//
// # Usage
//
//	client := crates.NewClient(backend, cache.TTLHTTP)
//	series, err := client.FetchDownloads(ctx, "serde", downloads.LastMonth, false)
//
// # Download Counts
//
// The downloads endpoint splits each day's count between the top versions
// (version_downloads) and everything else (meta.extra_downloads). The client
// adds both so a day's value is the crate's total for that day.
//
// # Rate Limits
//
// crates.io asks crawlers for at most one request per second and a
// User-Agent identifying the client. The client always sends
// [integrations.UserAgent]; combine it with [integrations.WithLimiter] when
// fetching many crates.
package crates
