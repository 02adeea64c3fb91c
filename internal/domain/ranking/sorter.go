package ranking

import (
	"cmp"
	"slices"

	"github.com/okian/followrank/internal/domain/model"
)

// SortByMetric returns a copy of entities ordered by MetricValue descending.
// Entities with equal metric values keep their input order.
func SortByMetric(entities []model.RankedEntity) []model.RankedEntity {
	out := slices.Clone(entities)
	if out == nil {
		out = make([]model.RankedEntity, 0)
	}
	slices.SortStableFunc(out, func(a, b model.RankedEntity) int {
		return cmp.Compare(b.MetricValue, a.MetricValue)
	})
	return out
}
