package rankcheck

import (
	"fmt"
	"slices"

	"github.com/okian/followrank/internal/domain/ranking"
	"github.com/okian/followrank/internal/domain/types"
)

// expectedRows filters the full metric order down to one category.
func expectedRows(all []types.Row, category string) []types.Row {
	if category == ranking.All {
		return all
	}
	out := make([]types.Row, 0, len(all))
	for _, r := range all {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}

// verifyWalk checks every page of one category against the expected order.
func verifyWalk(category string, pages []types.View, expected []types.Row) []string {
	var failures []string
	fail := func(format string, args ...any) {
		failures = append(failures, fmt.Sprintf("category %q: ", category)+fmt.Sprintf(format, args...))
	}

	if len(pages) == 0 {
		fail("no pages fetched")
		return failures
	}

	first := pages[0].Pagination
	version := pages[0].SnapshotVersion
	var walked []types.Row
	for i, view := range pages {
		p := view.Pagination
		if view.SnapshotVersion != version {
			fail("snapshot changed during walk (%s then %s)", version, view.SnapshotVersion)
		}
		if view.SelectedCategory != category {
			fail("page %d selected %q", i+1, view.SelectedCategory)
		}
		if p.Page != i+1 {
			fail("page %d reported as page %d", i+1, p.Page)
		}
		if p.TotalPages != first.TotalPages || p.TotalItems != first.TotalItems {
			fail("page %d totals %d/%d differ from %d/%d", i+1, p.TotalItems, p.TotalPages, first.TotalItems, first.TotalPages)
		}
		if p.HasPrev != (p.Page > 1) || p.HasNext != (p.Page < p.TotalPages) {
			fail("page %d navigation flags prev=%t next=%t", p.Page, p.HasPrev, p.HasNext)
		}
		if len(view.Rows) > p.PageSize {
			fail("page %d holds %d rows, page size %d", p.Page, len(view.Rows), p.PageSize)
		}
		if i < len(pages)-1 && len(view.Rows) != p.PageSize {
			fail("page %d is not full (%d of %d)", p.Page, len(view.Rows), p.PageSize)
		}
		for j, r := range view.Rows {
			if want := (p.Page-1)*p.PageSize + j + 1; r.Rank != want {
				fail("%s has rank %d, want %d", r.ID, r.Rank, want)
			}
			if category != ranking.All && r.Category != category {
				fail("%s belongs to %q", r.ID, r.Category)
			}
		}
		walked = append(walked, view.Rows...)
	}

	if len(walked) != first.TotalItems {
		fail("walked %d rows, total_items is %d", len(walked), first.TotalItems)
	}
	for i := 1; i < len(walked); i++ {
		if walked[i-1].MetricValue < walked[i].MetricValue {
			fail("%s (%d) ranked above %s (%d)", walked[i-1].ID, walked[i-1].MetricValue, walked[i].ID, walked[i].MetricValue)
		}
	}
	if got, want := rowIDs(walked), rowIDs(expected); !slices.Equal(got, want) {
		fail("pages %v do not match full order %v", got, want)
	}
	return failures
}

// verifySessionReset checks that selecting a category returns the session to page 1.
func verifySessionReset(paged, filtered types.SessionResponse, category string) []string {
	var failures []string
	if filtered.SessionID != paged.SessionID {
		failures = append(failures, fmt.Sprintf("session id changed from %s to %s", paged.SessionID, filtered.SessionID))
	}
	if filtered.View.SelectedCategory != category {
		failures = append(failures, fmt.Sprintf("session selected %q, want %q", filtered.View.SelectedCategory, category))
	}
	if filtered.View.Pagination.Page != 1 {
		failures = append(failures, fmt.Sprintf("session stayed on page %d after selecting %q", filtered.View.Pagination.Page, category))
	}
	return failures
}

func rowIDs(rows []types.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}
