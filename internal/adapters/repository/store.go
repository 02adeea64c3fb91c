// Package repository publishes the current ranking snapshot to readers.
package repository

import (
	"time"

	"github.com/okian/followrank/internal/domain/model"
)

// Store holds the snapshot every view is computed from. Replacement is
// atomic: readers see either the old snapshot or the new one, never a mix.
type Store interface {
	// Current returns the published snapshot, or an empty one before the first load.
	Current() *model.Snapshot
	// Require is Current but fails with ErrNoSnapshot before the first load.
	Require() (*model.Snapshot, error)
	// Replace publishes snapshot.
	Replace(snapshot *model.Snapshot) error
	// Ordered returns every entity of the current snapshot in descending order.
	Ordered() (version string, entities []model.RankedEntity)
	// Categories returns the selectable categories of the current snapshot.
	Categories() (version string, categories []string)
	// Count returns the number of entities in the current snapshot.
	Count() int
	// Version returns the current snapshot version.
	Version() string
	// LoadedAt returns when the current snapshot was loaded.
	LoadedAt() time.Time
}
