package ranking

import "github.com/okian/followrank/internal/domain/model"

// Page is one window over an ordered sequence.
type Page[T any] struct {
	Items         []T
	TotalItems    int
	TotalPages    int // 0 when there are no items
	EffectivePage int // page actually used for slicing, 1-based
	PageSize      int
	Offset        int // zero-based index of Items[0] in the full sequence
}

// HasPrev reports whether a page precedes the effective one.
func (p Page[T]) HasPrev() bool { return p.EffectivePage > 1 }

// HasNext reports whether a page follows the effective one.
func (p Page[T]) HasNext() bool { return p.EffectivePage < p.TotalPages }

// Paginate slices items into the window for the requested 1-based page.
//
// The effective page is the requested page clamped to [1, max(TotalPages, 1)].
// The caller's stored page is not touched; it decides whether to persist the
// clamp. A non-positive pageSize is a contract violation.
func Paginate[T any](items []T, pageSize, requested int) (Page[T], error) {
	if err := ValidatePageSize(pageSize); err != nil {
		return Page[T]{}, err
	}
	return paginate(items, pageSize, requested), nil
}

// ValidatePageSize rejects non-positive page sizes.
func ValidatePageSize(pageSize int) error {
	if pageSize <= 0 {
		return &model.ContractViolation{Field: "page_size", Reason: "page size must be positive"}
	}
	return nil
}

// paginate assumes pageSize > 0.
func paginate[T any](items []T, pageSize, requested int) Page[T] {
	n := len(items)
	total := (n + pageSize - 1) / pageSize

	eff := max(requested, 1)
	eff = min(eff, max(total, 1))

	start := min((eff-1)*pageSize, n)
	end := min(start+pageSize, n)

	window := make([]T, end-start)
	copy(window, items[start:end])

	return Page[T]{
		Items:         window,
		TotalItems:    n,
		TotalPages:    total,
		EffectivePage: eff,
		PageSize:      pageSize,
		Offset:        start,
	}
}
