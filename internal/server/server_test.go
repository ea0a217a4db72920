package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/pkgtrend/pkg/downloads"
	"github.com/matzehuels/pkgtrend/pkg/integrations"
	"github.com/matzehuels/pkgtrend/pkg/pipeline"
	"github.com/matzehuels/pkgtrend/pkg/storage"
	"github.com/matzehuels/pkgtrend/pkg/trend"
)

// linearFetcher serves 100, 110, 120, ... ending yesterday. The package
// "ghost" does not exist.
type linearFetcher struct{}

func (linearFetcher) FetchDownloads(_ context.Context, pkg string, period downloads.Period, _ bool) (*downloads.Series, error) {
	if pkg == "ghost" {
		return nil, integrations.ErrNotFound
	}
	start, end := period.Range(time.Now())
	counts := map[string]int64{}
	i := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		counts[d.Format(downloads.DateLayout)] = int64(100 + 10*i)
		i++
	}
	return &downloads.Series{
		Registry: "npm",
		Package:  pkg,
		Start:    start,
		End:      end,
		Days:     downloads.Densify(start, end, counts),
	}, nil
}

func newTestServer(t *testing.T, cfg Config, store storage.Store) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(nil, nil, logger)
	runner.Sources = map[string]downloads.Fetcher{"npm": linearFetcher{}}
	runner.Store = store
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.NewRegistry()
	}
	ts := httptest.NewServer(New(runner, logger, cfg).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)
	resp := get(t, ts.URL+"/healthz")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get(headerRequestID) == "" {
		t.Error("response should carry a request ID")
	}
	body := decode[map[string]any](t, resp)
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(headerRequestID, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get(headerRequestID); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}

func TestTrend(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)

	tests := []struct {
		name     string
		path     string
		wantPkg  string
		wantDays int
	}{
		{"default period", "/api/v1/trend/npm/react", "react", 30},
		{"week", "/api/v1/trend/npm/react?period=last-week", "react", 7},
		{"scoped package", "/api/v1/trend/npm/@types/node?bucket_size=10", "@types/node", 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, ts.URL+tt.path)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			result := decode[pipeline.Result](t, resp)
			if result.Series.Package != tt.wantPkg {
				t.Errorf("package = %q, want %q", result.Series.Package, tt.wantPkg)
			}
			if result.Stats.Days != tt.wantDays {
				t.Errorf("days = %d, want %d", result.Stats.Days, tt.wantDays)
			}
			if result.Analysis.Trend != trend.TrendStrong {
				t.Errorf("trend = %q, want strong", result.Analysis.Trend)
			}
			if result.AltText.Line == "" || result.AltText.Bar == "" {
				t.Error("alt text should be set")
			}
		})
	}
}

func TestTrendErrors(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{"unknown registry", "/api/v1/trend/cpan/Moose", 400, "INVALID_REGISTRY"},
		{"invalid package", "/api/v1/trend/npm/React", 400, "INVALID_PACKAGE"},
		{"unknown period", "/api/v1/trend/npm/react?period=forever", 400, "INVALID_PERIOD"},
		{"bad bucket size", "/api/v1/trend/npm/react?bucket_size=x", 400, "INVALID_INPUT"},
		{"bucket size too large", "/api/v1/trend/npm/react?bucket_size=1000", 400, "INVALID_BUCKET_SIZE"},
		{"bad refresh flag", "/api/v1/trend/npm/react?refresh=maybe", 400, "INVALID_INPUT"},
		{"missing package", "/api/v1/trend/npm/ghost", 404, "PACKAGE_NOT_FOUND"},
		{"record without store", "/api/v1/trend/npm/react?record=true", 501, "UNSUPPORTED"},
		{"unknown route", "/api/v1/nope", 404, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, ts.URL+tt.path)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			body := decode[errorResponse](t, resp)
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q (message %q)", body.Code, tt.wantCode, body.Message)
			}
			if body.Message == "" {
				t.Error("error message should not be empty")
			}
		})
	}
}

func TestRecordAndHistory(t *testing.T) {
	ts := newTestServer(t, Config{}, storage.NewMemoryStore())

	for range 2 {
		if resp := get(t, ts.URL+"/api/v1/trend/npm/react?record=true"); resp.StatusCode != http.StatusOK {
			t.Fatalf("record status = %d", resp.StatusCode)
		}
	}

	resp := get(t, ts.URL+"/api/v1/history/npm/react?limit=1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history status = %d", resp.StatusCode)
	}
	body := decode[struct {
		Snapshots []storage.Snapshot `json:"snapshots"`
	}](t, resp)
	if len(body.Snapshots) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(body.Snapshots))
	}
	if body.Snapshots[0].Package != "react" || body.Snapshots[0].Total == 0 {
		t.Errorf("snapshot = %+v", body.Snapshots[0])
	}

	resp = get(t, ts.URL+"/api/v1/history/npm/vue")
	body = decode[struct {
		Snapshots []storage.Snapshot `json:"snapshots"`
	}](t, resp)
	if body.Snapshots == nil || len(body.Snapshots) != 0 {
		t.Errorf("unknown package history = %v, want empty list", body.Snapshots)
	}
}

func TestHistoryWithoutStore(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)
	resp := get(t, ts.URL+"/api/v1/history/npm/react")
	if resp.StatusCode != http.StatusNotImplemented {
		t.Errorf("status = %d, want 501", resp.StatusCode)
	}
}

func TestAnalyze(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)

	resp := post(t, ts.URL+"/api/v1/analyze", `{"values": [1, 2, null, 3, 4, 5]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	a := decode[trend.Analysis](t, resp)
	if a.Observations != 5 {
		t.Errorf("observations = %d, want 5", a.Observations)
	}
	if a.Mean != 3 {
		t.Errorf("mean = %v, want 3", a.Mean)
	}
	if a.Trend != trend.TrendStrong {
		t.Errorf("trend = %q, want strong", a.Trend)
	}
	if a.Volatility != trend.VolatilityVolatile {
		t.Errorf("volatility = %q, want volatile", a.Volatility)
	}
}

func TestAnalyzeHugeValues(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)

	resp := post(t, ts.URL+"/api/v1/analyze", `{"values": [1e308, 1.5e308, 1.7e308]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	a := decode[trend.Analysis](t, resp)
	if a.Observations != 3 || a.Mean <= 1e308 {
		t.Errorf("analysis = %+v, want 3 observations with a finite mean", a)
	}
}

func TestWriteJSONUnencodable(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"mean": math.Inf(1)})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var body errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Code != "INTERNAL_ERROR" {
		t.Errorf("body = %q (%v), want INTERNAL_ERROR", rec.Body.String(), err)
	}
}

func TestAnalyzeBadRequest(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)

	for name, body := range map[string]string{
		"not json":      `{"values": [1, 2`,
		"unknown field": `{"values": [1], "extra": true}`,
		"wrong type":    `{"values": "1,2,3"}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp := post(t, ts.URL+"/api/v1/analyze", body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			if got := decode[errorResponse](t, resp).Code; got != "INVALID_INPUT" {
				t.Errorf("code = %q, want INVALID_INPUT", got)
			}
		})
	}
}

func TestBuckets(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)

	var points []string
	for i := 1; i <= 10; i++ {
		points = append(points, `{"label": "d`+string(rune('0'+i%10))+`", "value": 1}`)
	}
	resp := post(t, ts.URL+"/api/v1/buckets", `{"daily": [`+strings.Join(points, ",")+`]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decode[bucketsResponse](t, resp)
	if len(body.Buckets) != 2 {
		t.Fatalf("got %d buckets, want 2", len(body.Buckets))
	}
	if body.Buckets[0].Total != 7 || body.Buckets[1].Total != 3 {
		t.Errorf("totals = %v, %v, want 7, 3", body.Buckets[0].Total, body.Buckets[1].Total)
	}
	if body.Buckets[0].PeriodStart != "d1" || body.Buckets[1].PeriodEnd != "d0" {
		t.Errorf("bucket labels = %+v", body.Buckets)
	}
	// The 3-day tail is left out of the bucket analysis.
	if body.Analysis.Observations != 1 {
		t.Errorf("bucket analysis observations = %d, want 1", body.Analysis.Observations)
	}
	if body.Buckets[1].Days != 3 {
		t.Errorf("tail bucket days = %d, want 3", body.Buckets[1].Days)
	}
}

func TestBucketsInvalidSize(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)
	resp := post(t, ts.URL+"/api/v1/buckets", `{"daily": [], "bucket_size": -1}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if got := decode[errorResponse](t, resp).Code; got != "INVALID_BUCKET_SIZE" {
		t.Errorf("code = %q, want INVALID_BUCKET_SIZE", got)
	}
}

func TestRegistries(t *testing.T) {
	ts := newTestServer(t, Config{}, nil)
	body := decode[struct {
		Registries []string `json:"registries"`
		BucketSize int      `json:"bucket_size"`
	}](t, get(t, ts.URL+"/api/v1/registries"))

	if strings.Join(body.Registries, ",") != "npm,pypi,crates" {
		t.Errorf("registries = %v", body.Registries)
	}
	if body.BucketSize != 7 {
		t.Errorf("bucket_size = %d, want 7", body.BucketSize)
	}
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, Config{RateLimit: 0.001, Burst: 1}, nil)

	if resp := get(t, ts.URL+"/api/v1/registries"); resp.StatusCode != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", resp.StatusCode)
	}
	resp := get(t, ts.URL+"/api/v1/registries")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("429 response should set Retry-After")
	}

	// Health checks are not rate limited.
	if resp := get(t, ts.URL+"/healthz"); resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", resp.StatusCode)
	}
}

func getFrom(t *testing.T, url, forwardedFor string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("X-Forwarded-For", forwardedFor)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRateLimitIgnoresForwardedHeaders(t *testing.T) {
	ts := newTestServer(t, Config{RateLimit: 0.001, Burst: 1}, nil)

	limited := 0
	for i := range 20 {
		resp := getFrom(t, ts.URL+"/api/v1/registries", fmt.Sprintf("203.0.113.%d", i))
		if resp.StatusCode == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited != 19 {
		t.Errorf("limited = %d of 20, want 19: forwarded addresses must not get fresh buckets", limited)
	}
}

func TestRateLimitTrustProxy(t *testing.T) {
	ts := newTestServer(t, Config{RateLimit: 0.001, Burst: 1, TrustProxy: true}, nil)

	if resp := getFrom(t, ts.URL+"/api/v1/registries", "203.0.113.1"); resp.StatusCode != http.StatusOK {
		t.Fatalf("first client status = %d, want 200", resp.StatusCode)
	}
	if resp := getFrom(t, ts.URL+"/api/v1/registries", "203.0.113.1"); resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("repeat client status = %d, want 429", resp.StatusCode)
	}
	if resp := getFrom(t, ts.URL+"/api/v1/registries", "203.0.113.2"); resp.StatusCode != http.StatusOK {
		t.Errorf("second client status = %d, want 200", resp.StatusCode)
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "pkgtrend_test_total", Help: "test"})
	reg.MustRegister(c)
	c.Inc()

	ts := newTestServer(t, Config{Gatherer: reg}, nil)
	resp := get(t, ts.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	data, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(data), "pkgtrend_test_total 1") {
		t.Errorf("metrics output missing counter:\n%s", data)
	}
}

func TestListenAndServeShutdown(t *testing.T) {
	runner := pipeline.NewRunner(nil, nil, log.New(io.Discard))
	s := New(runner, log.New(io.Discard), Config{Addr: "127.0.0.1:0", Gatherer: prometheus.NewRegistry()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() = %v, want nil after shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
