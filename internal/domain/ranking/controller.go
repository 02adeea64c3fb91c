package ranking

import (
	"sync"

	"github.com/okian/followrank/internal/domain/model"
)

// Controller owns one viewer's ViewState and recomputes the bundle on each of
// the three triggers: snapshot replacement, category selection and page
// request. Triggers are serialized; a caller never observes a half-applied
// change.
type Controller struct {
	mu       sync.Mutex
	snapshot *model.Snapshot
	state    ViewState
	pageSize int
	cache    *Cache
}

// ControllerOption applies a configuration option to the Controller.
type ControllerOption func(*Controller)

// WithCache shares a memoization cache between controllers.
func WithCache(c *Cache) ControllerOption {
	return func(ctl *Controller) {
		ctl.cache = c
	}
}

// WithInitialState starts the controller from state instead of the default.
func WithInitialState(state ViewState) ControllerOption {
	return func(ctl *Controller) {
		ctl.state = state.normalized()
		if ctl.state.Page < 1 {
			ctl.state.Page = 1
		}
	}
}

// NewController creates a controller over snapshot with the default view
// state. A nil snapshot is treated as empty.
func NewController(snapshot *model.Snapshot, pageSize int, opts ...ControllerOption) (*Controller, error) {
	if err := ValidatePageSize(pageSize); err != nil {
		return nil, err
	}
	if snapshot == nil {
		snapshot = model.EmptySnapshot()
	}
	c := &Controller{
		snapshot: snapshot,
		state:    DefaultViewState(),
		pageSize: pageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// View recomputes the bundle for the current snapshot and state.
func (c *Controller) View() Bundle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recompute()
}

// State returns the stored view state.
func (c *Controller) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SnapshotVersion returns the version of the snapshot being viewed.
func (c *Controller) SnapshotVersion() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot.Version()
}

// ReplaceSnapshot swaps in a newly loaded snapshot and recomputes.
// The selected category and page are kept; the page is clamped if the new
// snapshot has fewer pages.
func (c *Controller) ReplaceSnapshot(snapshot *model.Snapshot) Bundle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if snapshot == nil {
		snapshot = model.EmptySnapshot()
	}
	c.snapshot = snapshot
	return c.recompute()
}

// SelectCategory applies a new filter. The stored page is reset to 1 before
// recomputing so a stale out-of-range page is never shown.
func (c *Controller) SelectCategory(category string) Bundle {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = ViewState{Category: category, Page: 1}.normalized()
	return c.recompute()
}

// RequestPage moves to page n.
func (c *Controller) RequestPage(n int) Bundle {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Page = n
	return c.recompute()
}

// recompute must be called with c.mu held. The clamped effective page is
// persisted so relative navigation continues from the page actually shown.
func (c *Controller) recompute() Bundle {
	b := assembleCached(c.cache, c.snapshot, c.state, c.pageSize)
	c.state.Page = b.EffectivePage
	return b
}
