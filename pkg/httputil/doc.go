// Package httputil provides the request plumbing shared by registry clients.
//
// # Retry
//
// [Retry] re-runs an operation that failed with a [RetryableError], doubling
// the delay after each attempt. Registry clients wrap 5xx responses and
// network errors in [RetryableError]; everything else fails immediately:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    return fetch(ctx)
//	})
//
// A RetryableError may carry the server's Retry-After hint, which replaces
// the backoff delay when it is longer.
//
// # Rate limiting
//
// [HostLimiter] keeps one token bucket per key. Registry clients key it by
// host so that npm and PyPI are throttled independently; the API server keys
// it by client address.
//
// # Circuit breaking
//
// [Breaker] stops calling a registry after repeated transient failures and
// probes it again after a cool-down. Only retryable errors count as failures,
// so a burst of unknown package names never opens the breaker.
package httputil
