package ranking

import "github.com/okian/followrank/internal/domain/model"

// ViewState holds the inputs a viewer controls.
type ViewState struct {
	Category string // All or a concrete category
	Page     int    // 1-based
}

// DefaultViewState is the state of a fresh viewer: no filter, first page.
func DefaultViewState() ViewState {
	return ViewState{Category: All, Page: 1}
}

// normalized maps the empty category to All.
func (s ViewState) normalized() ViewState {
	if s.Category == "" {
		s.Category = All
	}
	return s
}

// Row is one visible entity together with its 1-based position in the
// filtered, ordered sequence.
type Row struct {
	Rank   int
	Entity model.RankedEntity
}

// Bundle is the complete, consistent result of one recomputation.
type Bundle struct {
	SnapshotVersion  string
	Categories       []string
	SelectedCategory string
	Rows             []Row
	TotalItems       int
	TotalPages       int
	EffectivePage    int
	PageSize         int
	HasPrev          bool
	HasNext          bool
}

// Clone returns a deep copy so cached bundles cannot be altered by callers.
func (b Bundle) Clone() Bundle {
	out := b
	out.Categories = append(make([]string, 0, len(b.Categories)), b.Categories...)
	out.Rows = append(make([]Row, 0, len(b.Rows)), b.Rows...)
	return out
}

// Assemble runs category extraction, filtering, ordering and pagination in
// that fixed order and returns the resulting bundle.
func Assemble(snapshot *model.Snapshot, state ViewState, pageSize int) (Bundle, error) {
	if err := ValidatePageSize(pageSize); err != nil {
		return Bundle{}, err
	}
	return assemble(snapshot, state, pageSize), nil
}

// assemble assumes pageSize > 0.
func assemble(snapshot *model.Snapshot, state ViewState, pageSize int) Bundle {
	if snapshot == nil {
		snapshot = model.EmptySnapshot()
	}
	state = state.normalized()

	entities := snapshot.Entities()
	categories := ExtractCategories(entities)
	ordered := SortByMetric(Filter(entities, state.Category))
	page := paginate(ordered, pageSize, state.Page)

	rows := make([]Row, len(page.Items))
	for i, e := range page.Items {
		rows[i] = Row{Rank: page.Offset + i + 1, Entity: e}
	}

	return Bundle{
		SnapshotVersion:  snapshot.Version(),
		Categories:       categories,
		SelectedCategory: state.Category,
		Rows:             rows,
		TotalItems:       page.TotalItems,
		TotalPages:       page.TotalPages,
		EffectivePage:    page.EffectivePage,
		PageSize:         page.PageSize,
		HasPrev:          page.HasPrev(),
		HasNext:          page.HasNext(),
	}
}
