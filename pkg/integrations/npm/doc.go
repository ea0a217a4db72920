// Package npm fetches daily download counts from the npm downloads API
// (https://api.npmjs.org).
//
// # Usage
//
//	client := npm.NewClient(backend, cache.TTLHTTP)
//	series, err := client.FetchDownloads(ctx, "express", downloads.LastMonth, false)
//
// The range endpoint returns one entry per day. Days the API leaves out are
// reported as missing in the resulting series rather than as zero.
//
// # Caching
//
// Responses are cached per package and date range, so a cached answer is
// only reused until the next day rolls over. Pass refresh=true to bypass
// the cache.
package npm
