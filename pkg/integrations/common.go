package integrations

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/matzehuels/pkgtrend/pkg/errors"
	"github.com/matzehuels/pkgtrend/pkg/httputil"
)

const httpTimeout = 10 * time.Second

// UserAgent identifies pkgtrend to registries that require one (crates.io).
const UserAgent = "pkgtrend/1.0 (https://github.com/matzehuels/pkgtrend)"

var (
	// ErrNotFound is returned when a package doesn't exist in the registry.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")

	// ErrRateLimited is returned when the registry answers 429.
	ErrRateLimited = errors.New("rate limited by registry")
)

// NewHTTPClient creates an HTTP client with a standard timeout for registry requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// NormalizePkgName converts a package name to its canonical form.
// Applies lowercase and replaces underscores with hyphens, following PEP 503
// normalization rules used by PyPI.
func NormalizePkgName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

// Classify converts a registry client error into a coded error so that the
// CLI and the API report it consistently. Nil stays nil.
func Classify(err error, registry, pkg string) error {
	switch {
	case err == nil:
		return nil
	case pkgerrors.GetCode(err) != "":
		return err
	case errors.Is(err, ErrNotFound):
		return pkgerrors.Wrap(pkgerrors.ErrCodePackageNotFound, err, "%s package %q not found", registry, pkg)
	case errors.Is(err, ErrRateLimited):
		return pkgerrors.Wrap(pkgerrors.ErrCodeRateLimited, err, "%s rate limit reached, try again later", registry)
	case errors.Is(err, context.DeadlineExceeded):
		return pkgerrors.Wrap(pkgerrors.ErrCodeTimeout, err, "%s did not answer in time", registry)
	case errors.Is(err, httputil.ErrCircuitOpen):
		return pkgerrors.Wrap(pkgerrors.ErrCodeNetwork, err, "%s is temporarily unavailable", registry)
	case errors.Is(err, ErrNetwork):
		return pkgerrors.Wrap(pkgerrors.ErrCodeNetwork, err, "fetch %s downloads for %s", registry, pkg)
	default:
		return pkgerrors.Wrap(pkgerrors.ErrCodeInternal, err, "fetch %s downloads for %s", registry, pkg)
	}
}
