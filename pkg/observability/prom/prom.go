// Package prom implements the observability hooks with Prometheus metrics.
package prom

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/pkgtrend/pkg/observability"
)

const namespace = "pkgtrend"

// Hooks records pipeline, cache and HTTP events as Prometheus metrics.
// It implements observability.PipelineHooks, CacheHooks and HTTPHooks.
type Hooks struct {
	FetchDuration  *prometheus.HistogramVec
	FetchErrors    *prometheus.CounterVec
	Analyses       *prometheus.CounterVec
	AnalyzeSeconds prometheus.Histogram

	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
	CacheBytes  *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPErrors   *prometheus.CounterVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Hooks {
	h := &Hooks{
		FetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_duration_seconds",
				Help:      "Duration of download series fetches",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"registry", "cached"},
		),
		FetchErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetch_errors_total",
				Help:      "Failed download series fetches",
			},
			[]string{"registry"},
		),
		Analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Trend analyses by resulting classification",
			},
			[]string{"trend", "volatility"},
		),
		AnalyzeSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analyze_duration_seconds",
				Help:      "Duration of trend analyses",
				Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1},
			},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Cache hits by key type",
			},
			[]string{"key_type"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Cache misses by key type",
			},
			[]string{"key_type"},
		),
		CacheBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_written_bytes_total",
				Help:      "Bytes written to the cache by key type",
			},
			[]string{"key_type"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registry_requests_total",
				Help:      "Outbound registry requests by host and status",
			},
			[]string{"host", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "registry_request_duration_seconds",
				Help:      "Outbound registry request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"host"},
		),
		HTTPErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registry_request_errors_total",
				Help:      "Outbound registry requests that failed before a response",
			},
			[]string{"host"},
		),
	}

	reg.MustRegister(
		h.FetchDuration, h.FetchErrors, h.Analyses, h.AnalyzeSeconds,
		h.CacheHits, h.CacheMisses, h.CacheBytes,
		h.HTTPRequests, h.HTTPDuration, h.HTTPErrors,
	)
	return h
}

// Register installs h as the global pipeline, cache and HTTP hooks.
func (h *Hooks) Register() {
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h *Hooks) OnFetchStart(context.Context, string, string) {}

func (h *Hooks) OnFetchComplete(_ context.Context, registry, _ string, _ int, cached bool, d time.Duration, err error) {
	if err != nil {
		h.FetchErrors.WithLabelValues(registry).Inc()
		return
	}
	label := "false"
	if cached {
		label = "true"
	}
	h.FetchDuration.WithLabelValues(registry, label).Observe(d.Seconds())
}

func (h *Hooks) OnAnalyze(_ context.Context, _ int, trend, volatility string, d time.Duration) {
	h.Analyses.WithLabelValues(trend, volatility).Inc()
	h.AnalyzeSeconds.Observe(d.Seconds())
}

func (h *Hooks) OnCacheHit(_ context.Context, keyType string) {
	h.CacheHits.WithLabelValues(keyType).Inc()
}

func (h *Hooks) OnCacheMiss(_ context.Context, keyType string) {
	h.CacheMisses.WithLabelValues(keyType).Inc()
}

func (h *Hooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (h *Hooks) OnRequest(context.Context, string, string, string) {}

func (h *Hooks) OnResponse(_ context.Context, _, host, _ string, status int, d time.Duration) {
	h.HTTPRequests.WithLabelValues(host, statusClass(status)).Inc()
	h.HTTPDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (h *Hooks) OnError(_ context.Context, _, host, _ string, _ error) {
	h.HTTPErrors.WithLabelValues(host).Inc()
}

// statusClass collapses a status code to "2xx", "4xx", ... to bound label
// cardinality.
func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "other"
	}
	return string(rune('0'+code/100)) + "xx"
}

var (
	_ observability.PipelineHooks = (*Hooks)(nil)
	_ observability.CacheHooks    = (*Hooks)(nil)
	_ observability.HTTPHooks     = (*Hooks)(nil)
)
