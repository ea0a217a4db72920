package crates

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

// Client fetches daily download counts from the crates.io API.
//
// All methods are safe for concurrent use by multiple goroutines.
//
// Note: crates.io requires a User-Agent header; this client sets one automatically.
type Client struct {
	*integrations.Client
	baseURL string
	now     func() time.Time
}

// NewClient creates a crates.io client with the given cache backend.
func NewClient(backend cache.Cache, cacheTTL time.Duration, opts ...integrations.Option) *Client {
	headers := map[string]string{"User-Agent": integrations.UserAgent}
	return &Client{
		Client:  integrations.NewClient(backend, "crates", cacheTTL, headers, opts...),
		baseURL: "https://crates.io/api/v1",
		now:     time.Now,
	}
}

type downloadsResponse struct {
	VersionDownloads []dailyCount `json:"version_downloads"`
	Meta             struct {
		ExtraDownloads []dailyCount `json:"extra_downloads"`
	} `json:"meta"`
}

type dailyCount struct {
	Date      string `json:"date"`
	Downloads int64  `json:"downloads"`
}

// FetchDownloads returns the daily downloads of crate over period. The
// per-version counts of the most popular versions and the "extra" counts
// of all other versions are summed per day. crates.io reports the last 90
// days; older days of longer periods are missing.
func (c *Client) FetchDownloads(ctx context.Context, crate string, period downloads.Period, refresh bool) (*downloads.Series, error) {
	start, end := period.Range(c.now())

	var data downloadsResponse
	key := crate + ":" + end.Format(downloads.DateLayout)
	err := c.Cached(ctx, key, refresh, &data, func() error {
		return c.fetch(ctx, crate, &data)
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	for _, d := range data.VersionDownloads {
		counts[d.Date] += d.Downloads
	}
	for _, d := range data.Meta.ExtraDownloads {
		counts[d.Date] += d.Downloads
	}
	return &downloads.Series{
		Registry: "crates",
		Package:  crate,
		Start:    start,
		End:      end,
		Days:     downloads.Densify(start, end, counts),
	}, nil
}

func (c *Client) fetch(ctx context.Context, crate string, data *downloadsResponse) error {
	u := fmt.Sprintf("%s/crates/%s/downloads", c.baseURL, url.PathEscape(crate))
	if err := c.Get(ctx, u, data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: crate %s", err, crate)
		}
		return err
	}
	return nil
}

var _ downloads.Fetcher = (*Client)(nil)
