package storage

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps snapshots in memory.
type MemoryStore struct {
	mu     sync.RWMutex
	byPkg  map[string][]Snapshot
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byPkg: make(map[string][]Snapshot)}
}

func (m *MemoryStore) Save(_ context.Context, s *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	prepare(s)
	key := s.Registry + "/" + s.Package
	m.byPkg[key] = append(m.byPkg[key], *s)
	return nil
}

func (m *MemoryStore) History(_ context.Context, registry, pkg string, limit int) ([]Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	out := slices.Clone(m.byPkg[registry+"/"+pkg])
	slices.SortStableFunc(out, func(a, b Snapshot) int {
		return b.TakenAt.Compare(a.TakenAt)
	})
	if n := historyLimit(limit); len(out) > n {
		out = out[:n]
	}
	if out == nil {
		out = []Snapshot{}
	}
	return out, nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

var _ Store = (*MemoryStore)(nil)
