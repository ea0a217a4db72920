package npm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/pkgtrend/pkg/cache"
	"github.com/matzehuels/pkgtrend/pkg/downloads"
	"github.com/matzehuels/pkgtrend/pkg/integrations"
)

// Client fetches daily download counts from the npm downloads API.
// It is safe for concurrent use.
type Client struct {
	*integrations.Client
	baseURL string
	now     func() time.Time
}

// NewClient creates an npm client caching responses in backend for cacheTTL.
func NewClient(backend cache.Cache, cacheTTL time.Duration, opts ...integrations.Option) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "npm", cacheTTL, nil, opts...),
		baseURL: "https://api.npmjs.org",
		now:     time.Now,
	}
}

type rangeResponse struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Package   string `json:"package"`
	Downloads []struct {
		Day       string `json:"day"`
		Downloads int64  `json:"downloads"`
	} `json:"downloads"`
}

// FetchDownloads returns the daily downloads of pkg over period, ending
// yesterday (UTC). Scoped names such as "@types/node" are supported.
func (c *Client) FetchDownloads(ctx context.Context, pkg string, period downloads.Period, refresh bool) (*downloads.Series, error) {
	pkg = strings.ToLower(strings.TrimSpace(pkg))
	start, end := period.Range(c.now())
	span := start.Format(downloads.DateLayout) + ":" + end.Format(downloads.DateLayout)

	var data rangeResponse
	err := c.Cached(ctx, pkg+":"+span, refresh, &data, func() error {
		return c.fetch(ctx, pkg, span, &data)
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(data.Downloads))
	for _, d := range data.Downloads {
		counts[d.Day] = d.Downloads
	}
	return &downloads.Series{
		Registry: "npm",
		Package:  pkg,
		Start:    start,
		End:      end,
		Days:     downloads.Densify(start, end, counts),
	}, nil
}

func (c *Client) fetch(ctx context.Context, pkg, span string, data *rangeResponse) error {
	url := fmt.Sprintf("%s/downloads/range/%s/%s", c.baseURL, span, pkg)
	if err := c.Get(ctx, url, data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: npm package %s", err, pkg)
		}
		return err
	}
	return nil
}

var _ downloads.Fetcher = (*Client)(nil)
