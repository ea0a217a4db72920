package prom

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/pkgtrend/pkg/observability"
)

func TestHooksRecordMetrics(t *testing.T) {
	ctx := context.Background()
	h := New(prometheus.NewRegistry())

	h.OnCacheHit(ctx, "series")
	h.OnCacheHit(ctx, "series")
	h.OnCacheMiss(ctx, "analysis")
	h.OnCacheSet(ctx, "http", 512)
	h.OnAnalyze(ctx, 30, "strong", "moderate", time.Millisecond)
	h.OnFetchComplete(ctx, "npm", "react", 30, false, time.Second, nil)
	h.OnFetchComplete(ctx, "pypi", "requests", 0, false, time.Second, errors.New("boom"))
	h.OnResponse(ctx, "GET", "api.npmjs.org", "/downloads", 200, time.Second)
	h.OnResponse(ctx, "GET", "api.npmjs.org", "/downloads", 503, time.Second)
	h.OnError(ctx, "GET", "pypistats.org", "/api", errors.New("timeout"))

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"cache hits", h.CacheHits.WithLabelValues("series"), 2},
		{"cache misses", h.CacheMisses.WithLabelValues("analysis"), 1},
		{"cache bytes", h.CacheBytes.WithLabelValues("http"), 512},
		{"analyses", h.Analyses.WithLabelValues("strong", "moderate"), 1},
		{"fetch errors", h.FetchErrors.WithLabelValues("pypi"), 1},
		{"2xx responses", h.HTTPRequests.WithLabelValues("api.npmjs.org", "2xx"), 1},
		{"5xx responses", h.HTTPRequests.WithLabelValues("api.npmjs.org", "5xx"), 1},
		{"http errors", h.HTTPErrors.WithLabelValues("pypistats.org"), 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(tt.c); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRegister(t *testing.T) {
	defer observability.Reset()

	h := New(prometheus.NewRegistry())
	h.Register()

	if observability.Pipeline() != h {
		t.Error("Register should install pipeline hooks")
	}
	if observability.Cache() != h {
		t.Error("Register should install cache hooks")
	}
	if observability.HTTP() != h {
		t.Error("Register should install HTTP hooks")
	}
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{200: "2xx", 204: "2xx", 404: "4xx", 429: "4xx", 500: "5xx", 0: "other", 700: "other"}
	for code, want := range tests {
		if got := statusClass(code); got != want {
			t.Errorf("statusClass(%d) = %q, want %q", code, got, want)
		}
	}
}
