// Package ranking is the ranked-list view-model engine: category extraction,
// filtering, stable metric ordering, pagination and the assembled view bundle.
//
// Every function here is pure with respect to its inputs. Inputs are never
// mutated and every result is a freshly allocated slice.
package ranking

import "github.com/okian/followrank/internal/domain/model"

// All is the sentinel category meaning "no filter applied".
const All = model.AllCategories

// ExtractCategories returns the selectable filter values for entities: the All
// sentinel followed by each distinct non-empty category in first-seen order.
// First-seen (not alphabetical) order keeps whatever ordering the source data
// carries.
func ExtractCategories(entities []model.RankedEntity) []string {
	out := []string{All}
	seen := make(map[string]struct{})
	for i := range entities {
		c := entities[i].Category
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
