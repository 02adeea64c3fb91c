package ranking

import "github.com/okian/followrank/internal/domain/model"

// Filter narrows entities to those whose category equals category, keeping
// their relative order. The All sentinel passes every entity through.
// An unknown category yields an empty, non-nil slice.
func Filter(entities []model.RankedEntity, category string) []model.RankedEntity {
	if category == All {
		out := make([]model.RankedEntity, len(entities))
		copy(out, entities)
		return out
	}
	out := make([]model.RankedEntity, 0)
	for i := range entities {
		if entities[i].Category == category {
			out = append(out, entities[i])
		}
	}
	return out
}
