// Package pypi fetches daily download counts for Python packages from
// pypistats.org.
//
// # Usage
//
//	client := pypi.NewClient(backend, cache.TTLHTTP)
//	series, err := client.FetchDownloads(ctx, "requests", downloads.LastMonth, false)
//
// # Package Names
//
// Package names are normalized following PEP 503: lowercase with
// underscores converted to hyphens. "Flask_Login" becomes "flask-login".
//
// # History
//
// The overall endpoint returns the last ~180 days in one response, so a
// single cached answer serves every period of the same day. Counts exclude
// downloads from PyPI mirrors.
package pypi
