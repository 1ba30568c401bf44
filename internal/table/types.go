package table

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// Record is a single row of data as key-value pairs. Every record carries a
// stable identifier under the "id" key; the engine never interprets other
// fields except through column accessors.
type Record map[string]any

// RecordID returns the canonical string form of a record's identifier.
//
// Ids arrive as strings, ints, or floats depending on the data source, so
// selection and expansion normalize them once: integers render in decimal,
// whole floats drop the fraction, everything else uses its default string
// form. Records without an "id" field yield "".
func RecordID(r Record) string {
	return CanonicalID(r["id"])
}

// CanonicalID normalizes an arbitrary id value to its canonical string form.
func CanonicalID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case int:
		return strconv.Itoa(id)
	case int32:
		return strconv.FormatInt(int64(id), 10)
	case int64:
		return strconv.FormatInt(id, 10)
	case float64:
		if id == float64(int64(id)) {
			return strconv.FormatInt(int64(id), 10)
		}
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FilterType identifies the predicate semantics for a column.
type FilterType string

const (
	FilterText        FilterType = "text"
	FilterSelect      FilterType = "select"
	FilterMultiSelect FilterType = "multiselect"
	FilterBool        FilterType = "boolean"
	FilterDate        FilterType = "date"
	FilterDateRange   FilterType = "dateRange"
	FilterNumber      FilterType = "number"
	FilterNumberRange FilterType = "numberRange"
	FilterCustom      FilterType = "custom"
)

// Accessor extracts a cell value from a record. Columns without an explicit
// accessor read the record field named by the column id.
type Accessor func(Record) any

// Cell is a rendered cell handed to presentation collaborators.
type Cell struct {
	Value     any    // Raw cell value
	Formatted string // Display/export string form
}

// RowContext carries the row and column identity into a cell renderer.
type RowContext struct {
	Record Record
	Column string // Column id
	Index  int    // Row position within the current page
}

// CellRenderer is the column capability for custom cell production. It is
// resolved once per column at configuration time, never per call site.
type CellRenderer interface {
	Render(RowContext) Cell
}

// SelectOption is one choice for select/multiselect filter columns.
type SelectOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ColumnDescriptor is the static metadata for one table column: data access,
// display, and filter/sort/export eligibility. Behavior keys off ID, which
// must be unique within a column set.
type ColumnDescriptor struct {
	ID             string         // Unique column identifier
	Label          string         // Display name
	Accessor       Accessor       // Optional value extractor (default: record[ID])
	FilterType     FilterType     // Predicate semantics; empty means inferred
	FilterOptions  []SelectOption // Choices for select/multiselect columns
	Sortable       bool
	Filterable     bool
	Exportable     bool
	DefaultVisible *bool        // Optional initial visibility (default true)
	Renderer       CellRenderer // Optional cell capability, resolved at setup
}

// Value reads this column's cell from a record.
func (c ColumnDescriptor) Value(r Record) any {
	if c.Accessor != nil {
		return c.Accessor(r)
	}
	return r[c.ID]
}

// FilterValues maps column ids to their current filter value: a string,
// bool, number, two-element range slice, or string slice for multiselect.
// Absent, nil, or empty entries mean "no filter on that column".
type FilterValues map[string]any

// Clone returns a shallow copy of the filter values.
func (f FilterValues) Clone() FilterValues {
	if f == nil {
		return nil
	}
	out := make(FilterValues, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// GroupOperator combines the entries within one filter group.
type GroupOperator string

const (
	GroupAnd GroupOperator = "AND"
	GroupOr  GroupOperator = "OR"
)

// FilterGroup is a named cluster of column constraints combined with one
// boolean operator. Sibling groups are OR-combined with each other; a group
// with no non-empty entries is vacuous and excluded from evaluation.
type FilterGroup struct {
	ID       string        `json:"id"`
	Filters  FilterValues  `json:"filters"`
	Operator GroupOperator `json:"operator"`
}

// FilterPreset is a persisted, named snapshot of filter state.
type FilterPreset struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Filters   FilterValues  `json:"filters"`
	Groups    []FilterGroup `json:"groups,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// SortDirection orders a sorted column.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortSpec is a single sort field and direction. Multi-column sorts compare
// in sequence order; an empty sequence means original order.
type SortSpec struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// Pagination is the current page window. PageIndex is 0-based.
type Pagination struct {
	PageIndex int `json:"pageIndex"`
	PageSize  int `json:"pageSize"`
}

// TotalPages derives the page count for a total row count.
func (p Pagination) TotalPages(total int) int {
	if p.PageSize <= 0 {
		return 1
	}
	pages := (total + p.PageSize - 1) / p.PageSize
	if pages < 1 {
		pages = 1
	}
	return pages
}

// FetchRequest carries the delegated state to a server-mode data source.
type FetchRequest struct {
	PageIndex    int           `json:"pageIndex"`
	PageSize     int           `json:"pageSize"`
	Filters      FilterValues  `json:"filters"`
	Groups       []FilterGroup `json:"groups,omitempty"`
	Sorts        []SortSpec    `json:"sorting"`
	GlobalFilter string        `json:"globalFilter"`
}

// FetchResult is a server-mode page of records. TotalCount is preferred;
// Total is accepted from sources that report under the older name.
type FetchResult struct {
	Data       []Record `json:"data"`
	TotalCount *int     `json:"totalCount,omitempty"`
	Total      *int     `json:"total,omitempty"`
}

// ResolvedTotal returns the reported total row count, falling back to the
// page length when the source reports neither field.
func (r FetchResult) ResolvedTotal() int {
	if r.TotalCount != nil {
		return *r.TotalCount
	}
	if r.Total != nil {
		return *r.Total
	}
	return len(r.Data)
}

// DataSource fetches one page of records for delegated concerns. It is the
// sole asynchronous boundary in the core and owns its own timeout behavior.
type DataSource func(ctx context.Context, req FetchRequest) (FetchResult, error)
