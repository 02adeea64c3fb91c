package repository

import (
	"slices"
	"sync/atomic"
	"time"

	"github.com/okian/followrank/internal/domain/model"
	"github.com/okian/followrank/internal/domain/ranking"
	"github.com/okian/followrank/pkg/metrics"
)

// published is one immutable generation of the store. The full descending
// order and the category list are derived once so readers never re-sort.
type published struct {
	snapshot   *model.Snapshot
	ordered    []model.RankedEntity
	categories []string
	loaded     bool
}

// SnapshotStore is the in-memory Store implementation.
type SnapshotStore struct {
	current atomic.Pointer[published]
	cache   *ranking.Cache
}

var _ Store = (*SnapshotStore)(nil)

// NewSnapshotStore creates a store holding an empty snapshot.
func NewSnapshotStore(opts ...Option) *SnapshotStore {
	s := &SnapshotStore{}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(derive(model.EmptySnapshot(), false))
	return s
}

func derive(snapshot *model.Snapshot, loaded bool) *published {
	entities := snapshot.Entities()
	return &published{
		snapshot:   snapshot,
		ordered:    ranking.SortByMetric(entities),
		categories: ranking.ExtractCategories(entities),
		loaded:     loaded,
	}
}

// Current implements Store.
func (s *SnapshotStore) Current() *model.Snapshot {
	return s.current.Load().snapshot
}

// Require implements Store.
func (s *SnapshotStore) Require() (*model.Snapshot, error) {
	p := s.current.Load()
	if !p.loaded {
		return nil, ErrNoSnapshot
	}
	return p.snapshot, nil
}

// Replace implements Store.
func (s *SnapshotStore) Replace(snapshot *model.Snapshot) error {
	if snapshot == nil {
		return ErrNilSnapshot
	}
	p := derive(snapshot, true)
	s.current.Store(p)
	if s.cache != nil {
		s.cache.Reset()
	}
	metrics.UpdateSnapshot(snapshot.Len(), len(p.categories)-1, snapshot.LoadedAt())
	return nil
}

// Ordered implements Store.
func (s *SnapshotStore) Ordered() (string, []model.RankedEntity) {
	p := s.current.Load()
	return p.snapshot.Version(), slices.Clone(p.ordered)
}

// Categories implements Store.
func (s *SnapshotStore) Categories() (string, []string) {
	p := s.current.Load()
	return p.snapshot.Version(), slices.Clone(p.categories)
}

// Count implements Store.
func (s *SnapshotStore) Count() int {
	return s.current.Load().snapshot.Len()
}

// Version implements Store.
func (s *SnapshotStore) Version() string {
	return s.current.Load().snapshot.Version()
}

// LoadedAt implements Store.
func (s *SnapshotStore) LoadedAt() time.Time {
	return s.current.Load().snapshot.LoadedAt()
}
