package crates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matzehuels/pkgtrend/pkg/cache"
	"github.com/matzehuels/pkgtrend/pkg/downloads"
	"github.com/matzehuels/pkgtrend/pkg/integrations"
)

var fixedNow = time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)

func testClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c := NewClient(cache.NewNullCache(), time.Hour, integrations.WithRetry(1, time.Millisecond))
	c.baseURL = serverURL
	c.now = func() time.Time { return fixedNow }
	return c
}

func TestClient_FetchDownloads(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/crates/serde/downloads" {
			http.NotFound(w, r)
			return
		}
		userAgent = r.Header.Get("User-Agent")
		w.Write([]byte(`{
			"version_downloads": [
				{"version": 1, "date": "2024-03-06", "downloads": 100},
				{"version": 2, "date": "2024-03-06", "downloads": 50},
				{"version": 1, "date": "2024-03-07", "downloads": 10}
			],
			"meta": {"extra_downloads": [
				{"date": "2024-03-06", "downloads": 5},
				{"date": "2024-03-02", "downloads": 7}
			]}
		}`))
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	s, err := c.FetchDownloads(context.Background(), "serde", downloads.LastWeek, false)
	if err != nil {
		t.Fatalf("FetchDownloads failed: %v", err)
	}

	if userAgent != integrations.UserAgent {
		t.Errorf("User-Agent = %q", userAgent)
	}
	daily := s.Daily()
	want := map[string]float64{"2024-03-02": 7, "2024-03-06": 155, "2024-03-07": 10}
	for _, p := range daily {
		if w, ok := want[p.Label]; ok && p.Value != w {
			t.Errorf("%s = %v, want %v", p.Label, p.Value, w)
		}
	}
	if s.Total() != 172 {
		t.Errorf("Total = %d, want 172", s.Total())
	}
	if s.Reported() != 3 {
		t.Errorf("Reported = %d, want 3", s.Reported())
	}
}

func TestClient_FetchDownloads_NotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	c := testClient(t, server.URL)
	_, err := c.FetchDownloads(context.Background(), "no-such-crate", downloads.LastMonth, true)
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
