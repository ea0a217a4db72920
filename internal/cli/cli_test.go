package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pkgtrend/pkg/downloads"
	"github.com/matzehuels/pkgtrend/pkg/errors"
	"github.com/matzehuels/pkgtrend/pkg/pipeline"
	"github.com/matzehuels/pkgtrend/pkg/storage"
	"github.com/matzehuels/pkgtrend/pkg/trend"
)

// stubFetcher serves a constant 50 downloads per day.
type stubFetcher struct{ calls int }

func (f *stubFetcher) FetchDownloads(_ context.Context, pkg string, period downloads.Period, _ bool) (*downloads.Series, error) {
	f.calls++
	start, end := period.Range(time.Now())
	counts := map[string]int64{}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		counts[d.Format(downloads.DateLayout)] = 50
	}
	return &downloads.Series{Registry: "npm", Package: pkg, Start: start, End: end,
		Days: downloads.Densify(start, end, counts)}, nil
}

// isolate points config and cache lookups at temporary directories.
func isolate(t *testing.T) (cacheDir string) {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tmp, "cache"))
	for _, k := range []string{"PKGTREND_CACHE_BACKEND", "PKGTREND_CACHE_DIR", "PKGTREND_MONGO_URI"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return filepath.Join(tmp, "cache", appName)
}

func execute(t *testing.T, c *CLI, stdin string, args ...string) (string, error) {
	t.Helper()
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func newTestCLI() *CLI {
	return New(io.Discard, log.InfoLevel)
}

func TestRootCommandSubcommands(t *testing.T) {
	root := newTestCLI().RootCommand()
	want := []string{"analyze", "cache", "completion", "config", "history", "serve", "stats", "weekly"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestAnalyzeJSON(t *testing.T) {
	isolate(t)
	f := &stubFetcher{}
	c := newTestCLI()
	c.sources = map[string]downloads.Fetcher{"npm": f}

	out, err := execute(t, c, "", "analyze", "npm", "left-pad", "--period", "last-week", "--json")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var result pipeline.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if result.Stats.Days != 7 || result.Stats.Total != 350 {
		t.Errorf("stats = %+v, want 7 days and 350 downloads", result.Stats)
	}
	if result.Analysis.Volatility != trend.VolatilityVeryStable {
		t.Errorf("volatility = %q, want very_stable", result.Analysis.Volatility)
	}
	if len(result.Buckets) != 1 || result.Buckets[0].Total != 350 {
		t.Errorf("buckets = %+v", result.Buckets)
	}

	// A second run is served from the file cache.
	c2 := newTestCLI()
	c2.sources = map[string]downloads.Fetcher{"npm": f}
	out, err = execute(t, c2, "", "analyze", "npm", "left-pad", "--period", "last-week", "--json")
	if err != nil {
		t.Fatalf("second analyze: %v", err)
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatal(err)
	}
	if !result.CacheInfo.SeriesHit || f.calls != 1 {
		t.Errorf("second run: series hit = %v, fetches = %d; want cache hit and 1 fetch", result.CacheInfo.SeriesHit, f.calls)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		args []string
		want errors.Code
	}{
		{"unknown registry", []string{"analyze", "cpan", "Moose"}, errors.ErrCodeInvalidRegistry},
		{"bad period", []string{"analyze", "npm", "react", "--period", "forever"}, errors.ErrCodeInvalidPeriod},
		{"record without store", []string{"analyze", "npm", "react", "--record"}, errors.ErrCodeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCLI()
			c.sources = map[string]downloads.Fetcher{"npm": &stubFetcher{}}
			_, err := execute(t, c, "", tt.args...)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want code %s", err, tt.want)
			}
		})
	}
}

func TestStatsJSON(t *testing.T) {
	out, err := execute(t, newTestCLI(), "[1, 2, null, 3, 4, 5]", "stats", "--json")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var a trend.Analysis
	if err := json.Unmarshal([]byte(out), &a); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if a.Observations != 5 || a.Mean != 3 {
		t.Errorf("analysis = %+v, want 5 observations with mean 3", a)
	}
}

func TestStatsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "series.txt")
	if err := os.WriteFile(path, []byte("10\n10\nNA\n10\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, newTestCLI(), "", "stats", path, "--json")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var a trend.Analysis
	if err := json.Unmarshal([]byte(out), &a); err != nil {
		t.Fatal(err)
	}
	if a.Observations != 3 || a.StandardDeviation != 0 || a.RSquared != nil {
		t.Errorf("flat series analysis = %+v", a)
	}
}

func TestStatsMissingFile(t *testing.T) {
	_, err := execute(t, newTestCLI(), "", "stats", filepath.Join(t.TempDir(), "nope.txt"))
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestWeeklyJSON(t *testing.T) {
	input := "2024-01-01,1\n2024-01-02,2\n2024-01-03,3\n2024-01-04,4\n2024-01-05,5\n"
	out, err := execute(t, newTestCLI(), input, "weekly", "--size", "2", "--json")
	if err != nil {
		t.Fatalf("weekly: %v", err)
	}
	var buckets []trend.Bucket
	if err := json.Unmarshal([]byte(out), &buckets); err != nil {
		t.Fatal(err)
	}
	want := []trend.Bucket{
		{PeriodStart: "2024-01-01", PeriodEnd: "2024-01-02", Total: 3, Days: 2},
		{PeriodStart: "2024-01-03", PeriodEnd: "2024-01-04", Total: 7, Days: 2},
		{PeriodStart: "2024-01-05", PeriodEnd: "2024-01-05", Total: 5, Days: 1},
	}
	if len(buckets) != len(want) {
		t.Fatalf("got %d buckets, want %d", len(buckets), len(want))
	}
	for i := range want {
		if buckets[i] != want[i] {
			t.Errorf("bucket %d = %+v, want %+v", i, buckets[i], want[i])
		}
	}
}

func TestWeeklyInvalidSize(t *testing.T) {
	_, err := execute(t, newTestCLI(), "[]", "weekly", "--size", "400")
	if !errors.Is(err, errors.ErrCodeInvalidBucketSize) {
		t.Errorf("error = %v, want INVALID_BUCKET_SIZE", err)
	}
}

func TestParseValues(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []any // float64 or nil
		wantErr bool
	}{
		{"json", "[1, null, 2.5]", []any{1.0, nil, 2.5}, false},
		{"lines", "1\n\n-\nnull\n4\n", []any{1.0, nil, nil, nil, 4.0}, false},
		{"trailing blank lines", "1\n2\n\n\n", []any{1.0, 2.0}, false},
		{"nan is a gap", "NaN\n3", []any{nil, 3.0}, false},
		{"empty", "", nil, false},
		{"bad number", "1\nabc\n", nil, true},
		{"bad json", "[1, 2", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseValues([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d values, want %d", len(got), len(tt.want))
			}
			for i, w := range tt.want {
				switch {
				case w == nil && got[i] != nil:
					t.Errorf("value %d = %v, want gap", i, *got[i])
				case w != nil && (got[i] == nil || *got[i] != w.(float64)):
					t.Errorf("value %d = %v, want %v", i, got[i], w)
				}
			}
		})
	}
}

func TestParseDaily(t *testing.T) {
	got, err := parseDaily([]byte("# label,value\nmon,1\ntue 2\nwed\tNA\n"))
	if err != nil {
		t.Fatalf("parseDaily: %v", err)
	}
	want := []trend.DailyPoint{{Label: "mon", Value: 1}, {Label: "tue", Value: 2}, {Label: "wed", Value: 0}}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("point %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if _, err := parseDaily([]byte("mon,1,2\n")); err == nil {
		t.Error("expected error for three fields")
	}
	if _, err := parseDaily([]byte(`[{"label": "mon", "value": 3}]`)); err != nil {
		t.Errorf("json input: %v", err)
	}
}

func TestCachePathAndClear(t *testing.T) {
	dir := isolate(t)

	out, err := execute(t, newTestCLI(), "", "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if strings.TrimSpace(out) != dir {
		t.Errorf("cache path = %q, want %q", strings.TrimSpace(out), dir)
	}

	c := newTestCLI()
	c.sources = map[string]downloads.Fetcher{"npm": &stubFetcher{}}
	if _, err := execute(t, c, "", "analyze", "npm", "react", "--json"); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if countFiles(t, dir) == 0 {
		t.Fatal("analyze should have written cache entries")
	}

	if _, err := execute(t, newTestCLI(), "", "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if n := countFiles(t, dir); n != 0 {
		t.Errorf("%d files left after cache clear", n)
	}
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	_ = filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			n++
		}
		return nil
	})
	return n
}

func TestConfigShow(t *testing.T) {
	isolate(t)
	t.Setenv("PKGTREND_REDIS_PASSWORD", "hunter2")

	out, err := execute(t, newTestCLI(), "", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, `backend = "file"`) {
		t.Errorf("config show output missing cache backend:\n%s", out)
	}
	if strings.Contains(out, "hunter2") {
		t.Error("config show must not print the redis password")
	}
}

func TestConfigFlag(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "pkgtrend.toml")
	if err := os.WriteFile(path, []byte("[cache]\nbackend = \"none\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, newTestCLI(), "", "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, `backend = "none"`) {
		t.Errorf("--config was not applied:\n%s", out)
	}

	_, err = execute(t, newTestCLI(), "", "--config", filepath.Join(t.TempDir(), "missing.toml"), "cache", "path")
	if err == nil {
		t.Error("missing --config file should be an error")
	}
}

func TestServeRunnerFallsBackToMemoryStore(t *testing.T) {
	isolate(t)
	c := newTestCLI()
	c.sources = map[string]downloads.Fetcher{"npm": &stubFetcher{}}
	ctx := context.Background()

	runner, err := c.newServeRunner(ctx)
	if err != nil {
		t.Fatalf("newServeRunner: %v", err)
	}
	defer runner.Close()

	if _, ok := runner.Store.(*storage.MemoryStore); !ok {
		t.Fatalf("Store = %T, want *storage.MemoryStore without mongo.uri", runner.Store)
	}
	if _, err := runner.Execute(ctx, pipeline.Options{Registry: "npm", Package: "react", Record: true}); err != nil {
		t.Fatalf("Execute with Record: %v", err)
	}
	snaps, err := runner.History(ctx, "npm", "react", 10)
	if err != nil || len(snaps) != 1 {
		t.Errorf("History = %d snapshots (%v), want 1", len(snaps), err)
	}
}

func TestRootAttachesLogger(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, log.InfoLevel)
	root := c.RootCommand()
	root.SetArgs([]string{"config", "path"})
	root.SetOut(io.Discard)

	var got *log.Logger
	root.PersistentPostRun = func(cmd *cobra.Command, _ []string) {
		got = loggerFromContext(cmd.Context())
	}
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got != c.Logger {
		t.Error("commands should find the CLI logger in their context")
	}
}

func TestCompletion(t *testing.T) {
	isolate(t)
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			out, err := execute(t, newTestCLI(), "", "completion", shell)
			if err != nil {
				t.Fatalf("completion %s: %v", shell, err)
			}
			if !strings.Contains(out, "pkgtrend") {
				t.Errorf("completion %s does not mention the binary", shell)
			}
		})
	}

	if _, err := execute(t, newTestCLI(), "", "completion", "tcsh"); err == nil {
		t.Error("expected error for unsupported shell")
	}
}
