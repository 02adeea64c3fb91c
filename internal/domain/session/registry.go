// Package session keeps per-viewer ranking controllers behind opaque ids.
package session

import (
	"container/list"
	"sync"

	"github.com/google/uuid"

	"github.com/okian/followrank/internal/domain/model"
	"github.com/okian/followrank/internal/domain/ranking"
	"github.com/okian/followrank/pkg/metrics"
)

const defaultMaxSize = 10_000

type entry struct {
	id  string
	ctl *ranking.Controller
}

// Registry is a bounded, least-recently-used set of viewer sessions.
// Each session owns one Controller, so every viewer has its own
// category and page while sharing the published snapshot.
type Registry struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	order    *list.List // front is most recently used
	maxSize  int
	pageSize int
	cache    *ranking.Cache
}

// NewRegistry creates a registry whose controllers page by pageSize.
func NewRegistry(pageSize int, opts ...Option) (*Registry, error) {
	if err := ranking.ValidatePageSize(pageSize); err != nil {
		return nil, err
	}
	r := &Registry{
		maxSize:  defaultMaxSize,
		pageSize: pageSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.items = make(map[string]*list.Element)
	r.order = list.New()
	return r, nil
}

// Create starts a session on snapshot from the given state.
// When the registry is full the least recently used session is evicted.
func (r *Registry) Create(snapshot *model.Snapshot, state ranking.ViewState) (string, *ranking.Controller, error) {
	ctlOpts := []ranking.ControllerOption{ranking.WithInitialState(state)}
	if r.cache != nil {
		ctlOpts = append(ctlOpts, ranking.WithCache(r.cache))
	}
	ctl, err := ranking.NewController(snapshot, r.pageSize, ctlOpts...)
	if err != nil {
		return "", nil, err
	}
	id := uuid.NewString()

	r.mu.Lock()
	if r.order.Len() >= r.maxSize {
		r.evictOldest()
	}
	r.items[id] = r.order.PushFront(&entry{id: id, ctl: ctl})
	n := r.order.Len()
	r.mu.Unlock()

	metrics.RecordSessionCreated()
	metrics.UpdateSessionsActive(n)
	return id, ctl, nil
}

// Get returns the controller for id and marks it as recently used.
func (r *Registry) Get(id string) (*ranking.Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	el, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.order.MoveToFront(el)
	return el.Value.(*entry).ctl, nil
}

// Delete ends a session.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	el, ok := r.items[id]
	if ok {
		r.order.Remove(el)
		delete(r.items, id)
	}
	n := r.order.Len()
	r.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	metrics.UpdateSessionsActive(n)
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.order.Len()
}

// Broadcast moves every session onto snapshot, keeping each viewer's
// category and page (clamped). It returns the number of sessions updated.
func (r *Registry) Broadcast(snapshot *model.Snapshot) int {
	r.mu.Lock()
	ctls := make([]*ranking.Controller, 0, r.order.Len())
	for el := r.order.Front(); el != nil; el = el.Next() {
		ctls = append(ctls, el.Value.(*entry).ctl)
	}
	r.mu.Unlock()

	for _, ctl := range ctls {
		ctl.ReplaceSnapshot(snapshot)
	}
	return len(ctls)
}

// evictOldest drops the least recently used session. Caller holds r.mu.
func (r *Registry) evictOldest() {
	el := r.order.Back()
	if el == nil {
		return
	}
	r.order.Remove(el)
	delete(r.items, el.Value.(*entry).id)
	metrics.RecordSessionEvicted()
}
