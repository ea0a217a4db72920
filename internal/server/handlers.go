package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/pkgtrend/pkg/buildinfo"
	"github.com/matzehuels/pkgtrend/pkg/downloads"
	"github.com/matzehuels/pkgtrend/pkg/errors"
	"github.com/matzehuels/pkgtrend/pkg/pipeline"
	"github.com/matzehuels/pkgtrend/pkg/trend"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *Server) handleRegistries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"registries":     pipeline.Registries(),
		"periods":        downloads.Periods(),
		"default_period": pipeline.DefaultPeriod,
		"bucket_size":    pipeline.DefaultBucketSize,
	})
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	opts, err := trendOptions(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		writeError(w, r, err)
		return
	}
	snaps, err := s.runner.History(r.Context(), chi.URLParam(r, "registry"), chi.URLParam(r, "*"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": snaps})
}

type analyzeRequest struct {
	Values []*float64 `json:"values"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.runner.AnalyzeRaw(r.Context(), req.Values)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type bucketsRequest struct {
	Daily      []trend.DailyPoint `json:"daily"`
	BucketSize int                `json:"bucket_size"`
}

type bucketsResponse struct {
	Buckets  []trend.Bucket `json:"buckets"`
	Analysis trend.Analysis `json:"analysis"`
}

func (s *Server) handleBuckets(w http.ResponseWriter, r *http.Request) {
	var req bucketsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	buckets, err := s.runner.Aggregate(r.Context(), req.Daily, req.BucketSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bucketsResponse{
		Buckets:  buckets,
		Analysis: pipeline.AnalyzeBuckets(buckets),
	})
}

func trendOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Registry: chi.URLParam(r, "registry"),
		Package:  chi.URLParam(r, "*"),
		Period:   downloads.Period(q.Get("period")),
	}
	var err error
	if opts.BucketSize, err = intParam(r, "bucket_size"); err != nil {
		return opts, err
	}
	if opts.Refresh, err = boolParam(r, "refresh"); err != nil {
		return opts, err
	}
	if opts.Record, err = boolParam(r, "record"); err != nil {
		return opts, err
	}
	return opts, nil
}

func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s must be a non-negative integer, got %q", name, v)
	}
	return n, nil
}

func boolParam(r *http.Request, name string) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New(errors.ErrCodeInvalidInput, "%s must be a boolean, got %q", name, v)
	}
	return b, nil
}
