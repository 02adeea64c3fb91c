// Package model contains the ranked entity and snapshot types shared by the
// ranking engine, the data sources and the HTTP layer.
package model

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// AllCategories is the reserved sentinel meaning "no filter applied".
// Concrete entity categories must never use this value.
const AllCategories = "all"

// Attributes is descriptive payload the ranking engine never inspects.
type Attributes struct {
	SecondaryLabel string `json:"secondary_label,omitempty"` // e.g. store name
	ProfileURL     string `json:"profile_url,omitempty"`
	ImageURL       string `json:"image_url,omitempty"`
	Popularity     int    `json:"popularity,omitempty"` // auxiliary score
}

// RankedEntity is one participant in the ranking.
type RankedEntity struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	MetricValue int64      `json:"metric_value"` // follower count, the sole ranking key
	Category    string     `json:"category,omitempty"`
	Attributes  Attributes `json:"attributes"`
}

// Categorized reports whether the entity contributes a selectable category.
func (e RankedEntity) Categorized() bool {
	return e.Category != ""
}

// Snapshot is one immutable, validated collection of ranked entities.
// It is replaced wholesale on reload and never mutated.
type Snapshot struct {
	version  string
	loadedAt time.Time
	source   string
	entities []RankedEntity
}

// NewSnapshot validates entities and wraps a private copy of them.
// Invalid input yields a *ContractViolation.
func NewSnapshot(source string, entities []RankedEntity) (*Snapshot, error) {
	if err := Validate(entities); err != nil {
		return nil, err
	}
	return &Snapshot{
		version:  uuid.NewString(),
		loadedAt: time.Now().UTC(),
		source:   source,
		entities: slices.Clone(entities),
	}, nil
}

// EmptySnapshot returns a valid snapshot without entities.
func EmptySnapshot() *Snapshot {
	s, _ := NewSnapshot("empty", nil)
	return s
}

// Version identifies this snapshot; a reload always yields a new version.
func (s *Snapshot) Version() string { return s.version }

// LoadedAt is the time the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Source names the data source that produced the snapshot.
func (s *Snapshot) Source() string { return s.source }

// Len returns the number of entities.
func (s *Snapshot) Len() int { return len(s.entities) }

// Entities returns a copy of the entities in source order.
func (s *Snapshot) Entities() []RankedEntity {
	return slices.Clone(s.entities)
}

// Validate checks the snapshot rules: non-empty unique ids, non-negative
// metric values and no entity using the reserved sentinel category.
func Validate(entities []RankedEntity) error {
	seen := make(map[string]struct{}, len(entities))
	for i := range entities {
		e := &entities[i]
		switch {
		case e.ID == "":
			return &ContractViolation{Field: "id", Index: i, Reason: "empty id"}
		case e.MetricValue < 0:
			return &ContractViolation{Field: "metric_value", Index: i, ID: e.ID, Reason: "negative metric value"}
		case e.Category == AllCategories:
			return &ContractViolation{Field: "category", Index: i, ID: e.ID, Reason: "category uses reserved sentinel"}
		}
		if _, dup := seen[e.ID]; dup {
			return &ContractViolation{Field: "id", Index: i, ID: e.ID, Reason: "duplicate id"}
		}
		seen[e.ID] = struct{}{}
	}
	return nil
}
