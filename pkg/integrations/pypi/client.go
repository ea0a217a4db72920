package pypi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/matzehuels/pkgtrend/pkg/cache"
	"github.com/matzehuels/pkgtrend/pkg/downloads"
	"github.com/matzehuels/pkgtrend/pkg/integrations"
)

// Client fetches daily download counts from pypistats.org.
// It is safe for concurrent use.
type Client struct {
	*integrations.Client
	baseURL string
	now     func() time.Time
}

// NewClient creates a PyPI client caching responses in backend for cacheTTL.
func NewClient(backend cache.Cache, cacheTTL time.Duration, opts ...integrations.Option) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "pypi", cacheTTL, nil, opts...),
		baseURL: "https://pypistats.org/api",
		now:     time.Now,
	}
}

type overallResponse struct {
	Package string `json:"package"`
	Data    []struct {
		Category  string `json:"category"`
		Date      string `json:"date"`
		Downloads int64  `json:"downloads"`
	} `json:"data"`
}

// FetchDownloads returns the daily downloads of pkg over period, excluding
// mirror traffic. pypistats.org keeps about 180 days of history; older days
// of longer periods are reported as missing.
func (c *Client) FetchDownloads(ctx context.Context, pkg string, period downloads.Period, refresh bool) (*downloads.Series, error) {
	pkg = integrations.NormalizePkgName(pkg)
	start, end := period.Range(c.now())

	var data overallResponse
	key := pkg + ":" + end.Format(downloads.DateLayout)
	err := c.Cached(ctx, key, refresh, &data, func() error {
		return c.fetch(ctx, pkg, &data)
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(data.Data))
	for _, d := range data.Data {
		if d.Category == "without_mirrors" {
			counts[d.Date] += d.Downloads
		}
	}
	return &downloads.Series{
		Registry: "pypi",
		Package:  pkg,
		Start:    start,
		End:      end,
		Days:     downloads.Densify(start, end, counts),
	}, nil
}

func (c *Client) fetch(ctx context.Context, pkg string, data *overallResponse) error {
	u := fmt.Sprintf("%s/packages/%s/overall?mirrors=false", c.baseURL, url.PathEscape(pkg))
	if err := c.Get(ctx, u, data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: pypi package %s", err, pkg)
		}
		return err
	}
	return nil
}

var _ downloads.Fetcher = (*Client)(nil)
