package dashboard

import "github.com/xaenox/supportlens/internal/models"

// FilterState is the user's current filter selection. Queries are built from
// the selected category and the debounced search text only; RawSearch is what
// the user has typed so far.
type FilterState struct {
	SelectedCategory models.Category
	RawSearch        string
	DebouncedSearch  string
}

// NewFilterState starts with every category selected and no search.
func NewFilterState() FilterState {
	return FilterState{SelectedCategory: models.CategoryAll}
}

// SetCategory selects c ("All" or a category) and reports whether the
// effective query changed.
func (f *FilterState) SetCategory(c models.Category) bool {
	if c == "" {
		c = models.CategoryAll
	}
	before := f.Query()
	f.SelectedCategory = c
	return f.Query() != before
}

// SetRawSearch records typed text. It never changes the query.
func (f *FilterState) SetRawSearch(s string) {
	f.RawSearch = s
}

// Settle records a debounced search value and reports whether the effective
// query changed.
func (f *FilterState) Settle(s string) bool {
	before := f.Query()
	f.DebouncedSearch = s
	return f.Query() != before
}

// Query is the store query for the current selection.
func (f FilterState) Query() models.TraceQuery {
	return models.TraceQuery{
		Category: f.SelectedCategory,
		Search:   f.DebouncedSearch,
	}.Normalize()
}
