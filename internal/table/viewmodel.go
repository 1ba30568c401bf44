package table

// viewmodel.go assembles the render-ready snapshot handed to presentation
// and export collaborators. Derivation order in client mode: filter, then
// sort, then paginate. Concerns in server mode are taken from the last good
// fetch result instead of computed locally.

import "strings"

// PaginationView is the derived pagination descriptor.
type PaginationView struct {
	PageIndex  int `json:"pageIndex"`
	PageSize   int `json:"pageSize"`
	TotalRows  int `json:"totalRows"`
	TotalPages int `json:"totalPages"`
}

// FilterView is the derived filter descriptor.
type FilterView struct {
	Values         FilterValues  `json:"values"`
	Groups         []FilterGroup `json:"groups,omitempty"`
	ActiveColumns  []string      `json:"activeColumns,omitempty"`
	ActiveCount    int           `json:"activeCount"`
	ActivePresetID string        `json:"activePresetId,omitempty"`
	GlobalFilter   string        `json:"globalFilter,omitempty"`
}

// ViewModel is the fully derived snapshot of table state: the rows for the
// current page, the full filtered row set, and every state descriptor the
// rendering and export layers consume.
type ViewModel struct {
	Rows         []Record           // Current page, post sort
	FilteredRows []Record           // Full filtered set, pre pagination
	Columns      []ColumnDescriptor // Visible columns in original order

	Pagination PaginationView
	Sorts      []SortSpec
	Filters    FilterView
	Selection  []string
	Expansion  []string

	Fetching bool
	FetchErr error // Most recent data-source failure, nil after success
}

// View derives the current view model.
func (t *Table) View() ViewModel {
	t.mu.RLock()
	defer t.mu.RUnlock()

	filtered := t.materializedLocked()

	rows := filtered
	if !t.modes.ServerSorting {
		rows = sortRecords(rows, t.sorts, t.colByID)
	}

	page := t.pagination
	total := len(filtered)
	if t.modes.ServerPagination {
		total = t.serverTotal
	} else {
		totalPages := page.TotalPages(total)
		if page.PageIndex >= totalPages {
			page.PageIndex = totalPages - 1
		}
		start := page.PageIndex * page.PageSize
		end := start + page.PageSize
		if start > len(rows) {
			start = len(rows)
		}
		if end > len(rows) {
			end = len(rows)
		}
		rows = rows[start:end]
	}

	return ViewModel{
		Rows:         rows,
		FilteredRows: filtered,
		Columns:      t.visibility.VisibleColumns(t.columns),
		Pagination: PaginationView{
			PageIndex:  page.PageIndex,
			PageSize:   page.PageSize,
			TotalRows:  total,
			TotalPages: page.TotalPages(total),
		},
		Sorts: append([]SortSpec(nil), t.sorts...),
		Filters: FilterView{
			Values:         t.filters.Values(),
			Groups:         t.filters.Groups(),
			ActiveColumns:  t.filters.ActiveFilters(),
			ActiveCount:    t.filters.ActiveFilterCount(),
			ActivePresetID: t.filters.ActivePresetID(),
			GlobalFilter:   t.globalFilter,
		},
		Selection: sortedKeys(t.selection),
		Expansion: sortedKeys(t.expansion),
		Fetching:  t.fetching,
		FetchErr:  t.fetchErr,
	}
}

// materializedLocked returns the current record set after filtering and
// before pagination. In server-filtering mode this is the fetched page as
// delivered; callers hold t.mu.
func (t *Table) materializedLocked() []Record {
	base := t.data
	if t.modes.anyServer() {
		base = t.serverRows
	}

	if t.modes.ServerFiltering {
		return base
	}

	filtered := t.filters.FilteredData(base)
	if t.globalFilter != "" {
		filtered = globalSearch(filtered, t.filters.SearchColumns(), t.globalFilter)
	}
	return filtered
}

// materializedIDs returns the canonical ids of the materialized set.
func (t *Table) materializedIDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rows := t.materializedLocked()
	ids := make([]string, 0, len(rows))
	for _, rec := range rows {
		if id := RecordID(rec); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// globalSearch matches the search text case-insensitively against the
// string form of the given columns, the text-filterable ones.
func globalSearch(data []Record, columns []ColumnDescriptor, text string) []Record {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return data
	}

	var out []Record
	for _, rec := range data {
		for _, col := range columns {
			v := col.Value(rec)
			if v == nil {
				continue
			}
			if strings.Contains(strings.ToLower(asString(v)), needle) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}
