// Package storage records analysis snapshots so that a package's trend can
// be compared over time.
//
// A [Store] is passed explicitly to whoever records or reads snapshots; there
// is no process-wide state. [MemoryStore] serves tests and single-process
// use, [MongoStore] persists snapshots in MongoDB for the API server.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/pkgtrend/pkg/downloads"
	"github.com/matzehuels/pkgtrend/pkg/trend"
)

// DefaultHistoryLimit is used when History is called with limit <= 0.
const DefaultHistoryLimit = 30

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage: store closed")

// Snapshot is the analysis of one package's downloads at a point in time.
type Snapshot struct {
	ID       uuid.UUID        `json:"id"`
	Registry string           `json:"registry"`
	Package  string           `json:"package"`
	Period   downloads.Period `json:"period"`
	TakenAt  time.Time        `json:"taken_at"`
	Total    int64            `json:"total"`
	Analysis trend.Analysis   `json:"analysis"`
}

// NewSnapshot captures the analysis of series over period.
func NewSnapshot(series *downloads.Series, period downloads.Period, a trend.Analysis) *Snapshot {
	return &Snapshot{
		ID:       uuid.New(),
		Registry: series.Registry,
		Package:  series.Package,
		Period:   period,
		TakenAt:  time.Now().UTC(),
		Total:    series.Total(),
		Analysis: a,
	}
}

// Store persists snapshots. Implementations must be safe for concurrent use.
type Store interface {
	// Save stores s. A zero ID or TakenAt is filled in.
	Save(ctx context.Context, s *Snapshot) error

	// History returns up to limit snapshots of a package, newest first.
	History(ctx context.Context, registry, pkg string, limit int) ([]Snapshot, error)

	// Close releases resources held by the store.
	Close() error
}

func prepare(s *Snapshot) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.TakenAt.IsZero() {
		s.TakenAt = time.Now().UTC()
	}
}

func historyLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return limit
}
