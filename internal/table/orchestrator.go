package table

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/tablekit/tablekit/internal/persist"
)

// DefaultPageSize is used when options do not specify a page size.
const DefaultPageSize = 25

// Modes selects, per concern, whether computation happens locally or is
// delegated to the data source.
type Modes struct {
	ServerFiltering  bool
	ServerSorting    bool
	ServerPagination bool
}

// anyServer reports whether any concern is delegated.
func (m Modes) anyServer() bool {
	return m.ServerFiltering || m.ServerSorting || m.ServerPagination
}

// Options configures a Table.
type Options struct {
	// Columns is the initial column set. Ids must be unique.
	Columns []ColumnDescriptor

	// Data is the client-mode record set. Ignored for delegated concerns.
	Data []Record

	// Source fetches pages for delegated concerns. Required when any
	// Modes flag is set.
	Source DataSource

	Modes Modes

	// Initial state restored by Reset.
	Pagination   Pagination
	Sorts        []SortSpec
	Filters      FilterValues
	Groups       []FilterGroup
	GlobalFilter string

	// FilterConfigs overrides per-column filter derivation.
	FilterConfigs []FilterConfig

	// Visibility defaults.
	DefaultVisibility map[string]bool
	DefaultHidden     []string

	// Persistence for visibility and presets; nil disables both.
	Store    Store
	StoreKey string

	// OnError receives normalized data-source failures.
	OnError func(error)

	// Context bounds background fetches. Defaults to context.Background.
	Context context.Context
}

// Store re-exports the persistence contract so callers wiring a Table do not
// need to import the persist package for the common case.
type Store = persist.Store

// initialState is the construction-time snapshot Reset restores.
type initialState struct {
	pagination   Pagination
	sorts        []SortSpec
	filters      FilterValues
	groups       []FilterGroup
	globalFilter string
}

// Table composes filtering, sorting, pagination, selection, and expansion
// into one consistent view model, hiding whether each concern is computed
// locally or delegated to the data source.
//
// All exported methods are safe for concurrent use. Callbacks run without
// the internal lock held, so a fetch callback may invoke further mutators.
type Table struct {
	mu sync.RWMutex

	columns []ColumnDescriptor
	colByID map[string]ColumnDescriptor

	data []Record // Client-mode dataset

	filters    *FilterEngine
	visibility *Visibility

	pagination   Pagination
	sorts        []SortSpec
	globalFilter string

	selection map[string]struct{}
	expansion map[string]struct{}

	modes  Modes
	source DataSource

	// Server-mode row state. serverRows always holds the last good page
	// (stale-while-error); fetchSeq is the token of the newest request.
	serverRows  []Record
	serverTotal int
	fetchSeq    uint64
	fetching    bool
	fetchErr    error

	initial initialState
	onError func(error)
	baseCtx context.Context
}

// NewTable validates options and builds an orchestrator.
func NewTable(opts Options) (*Table, error) {
	if len(opts.Columns) == 0 {
		return nil, &ValidationError{Field: "columns", Reason: "at least one column is required"}
	}

	byID := make(map[string]ColumnDescriptor, len(opts.Columns))
	for _, col := range opts.Columns {
		if col.ID == "" {
			return nil, &ValidationError{Field: "columns", Reason: "column id cannot be empty"}
		}
		if _, dup := byID[col.ID]; dup {
			return nil, &ValidationError{Field: "columns", Reason: fmt.Sprintf("duplicate column id %q", col.ID)}
		}
		byID[col.ID] = col
	}

	if opts.Modes.anyServer() && opts.Source == nil {
		return nil, &ValidationError{Field: "source", Reason: "a data source is required for server modes"}
	}

	if opts.Pagination.PageSize <= 0 {
		opts.Pagination.PageSize = DefaultPageSize
	}
	if opts.Pagination.PageIndex < 0 {
		opts.Pagination.PageIndex = 0
	}

	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	t := &Table{
		columns:      opts.Columns,
		colByID:      byID,
		data:         opts.Data,
		pagination:   opts.Pagination,
		sorts:        append([]SortSpec(nil), opts.Sorts...),
		globalFilter: opts.GlobalFilter,
		selection:    make(map[string]struct{}),
		expansion:    make(map[string]struct{}),
		modes:        opts.Modes,
		source:       opts.Source,
		onError:      opts.OnError,
		baseCtx:      ctx,
		initial: initialState{
			pagination:   opts.Pagination,
			sorts:        append([]SortSpec(nil), opts.Sorts...),
			filters:      opts.Filters.Clone(),
			groups:       append([]FilterGroup(nil), opts.Groups...),
			globalFilter: opts.GlobalFilter,
		},
	}

	t.filters = NewFilterEngine(opts.Columns, FilterEngineOptions{
		Configs:  opts.FilterConfigs,
		Data:     opts.Data,
		Store:    opts.Store,
		StoreKey: opts.StoreKey,
	})
	if len(opts.Filters) > 0 || len(opts.Groups) > 0 {
		t.filters.ReplaceState(opts.Filters, opts.Groups)
	}

	t.visibility = NewVisibility(opts.Columns, VisibilityOptions{
		DefaultVisibility: opts.DefaultVisibility,
		DefaultHidden:     opts.DefaultHidden,
		Store:             opts.Store,
		StoreKey:          opts.StoreKey,
	})

	return t, nil
}

// Filters exposes the filter engine for reads (configs, presets, counts).
// The engine carries its own lock, so holding the reference across requests
// is safe. Mutations must still go through the Table methods so pagination
// resets and server fetches stay consistent.
func (t *Table) Filters() *FilterEngine {
	return t.filters
}

// Visibility exposes the column visibility manager.
func (t *Table) Visibility() *Visibility {
	return t.visibility
}

// Columns returns the current column set.
func (t *Table) Columns() []ColumnDescriptor {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.columns
}

// SetColumns reacts to a structural column change: visibility is reconciled
// (existing entries kept), filter values and sorts for removed columns are
// dropped, configs for surviving columns are carried over, and configs are
// derived only for columns not seen before.
func (t *Table) SetColumns(columns []ColumnDescriptor) error {
	byID := make(map[string]ColumnDescriptor, len(columns))
	for _, col := range columns {
		if _, dup := byID[col.ID]; dup {
			return &ValidationError{Field: "columns", Reason: fmt.Sprintf("duplicate column id %q", col.ID)}
		}
		byID[col.ID] = col
	}

	t.mu.Lock()
	t.columns = columns
	t.colByID = byID

	var keptSorts []SortSpec
	for _, s := range t.sorts {
		if _, ok := byID[s.Field]; ok {
			keptSorts = append(keptSorts, s)
		}
	}
	t.sorts = keptSorts

	// Rebuild the engine for the new column set, carrying over values for
	// columns that persist.
	oldValues := t.filters.Values()
	oldGroups := t.filters.Groups()
	kept := make(FilterValues)
	for id, v := range oldValues {
		if _, ok := byID[id]; ok {
			kept[id] = v
		}
	}

	// Surviving columns keep their configs, explicit ones included; type
	// inference runs only for columns the engine has not seen before.
	var configs []FilterConfig
	covered := make(map[string]bool)
	for _, cfg := range t.filters.Configs() {
		if _, ok := byID[cfg.ColumnID]; ok {
			configs = append(configs, cfg)
			covered[cfg.ColumnID] = true
		}
	}
	var added []ColumnDescriptor
	for _, col := range columns {
		if !covered[col.ID] {
			added = append(added, col)
		}
	}
	configs = append(configs, deriveConfigs(added, t.data)...)

	t.filters = NewFilterEngine(columns, FilterEngineOptions{
		Configs:  configs,
		Data:     t.data,
		Store:    t.filters.store,
		StoreKey: t.filters.storeKey,
	})
	t.filters.ReplaceState(kept, oldGroups)
	t.mu.Unlock()

	t.visibility.Reconcile(columns)
	return nil
}

// SetData replaces the client-mode record set, e.g. after an external reload.
func (t *Table) SetData(data []Record) {
	t.mu.Lock()
	t.data = data
	t.mu.Unlock()
}

// --- pagination ---

// SetPage moves to a 0-based page index. Negative indexes clamp to zero;
// clamping against the total happens at view time, when the total is known.
func (t *Table) SetPage(index int) {
	t.mu.Lock()
	if index < 0 {
		index = 0
	}
	t.pagination.PageIndex = index
	t.mu.Unlock()

	t.refreshIfServer()
}

// SetPageSize changes the page size and resets to the first page.
func (t *Table) SetPageSize(size int) {
	if size <= 0 {
		return
	}

	t.mu.Lock()
	t.pagination.PageSize = size
	t.pagination.PageIndex = 0
	t.mu.Unlock()

	t.refreshIfServer()
}

// --- sorting ---

// SetSorts replaces the sort sequence.
func (t *Table) SetSorts(sorts []SortSpec) {
	t.mu.Lock()
	t.sorts = append([]SortSpec(nil), sorts...)
	t.mu.Unlock()

	t.refreshIfServer()
}

// ToggleSort cycles one field through ascending, descending, and unsorted,
// replacing any other sorted fields. Unknown or unsortable fields are
// no-ops.
func (t *Table) ToggleSort(field string) {
	t.mu.Lock()
	col, ok := t.colByID[field]
	if !ok || !col.Sortable {
		t.mu.Unlock()
		return
	}

	next := []SortSpec{{Field: field, Direction: SortAsc}}
	for _, s := range t.sorts {
		if s.Field != field {
			continue
		}
		if s.Direction == SortAsc {
			next = []SortSpec{{Field: field, Direction: SortDesc}}
		} else {
			next = nil
		}
		break
	}
	t.sorts = next
	t.mu.Unlock()

	t.refreshIfServer()
}

// Sorts returns the current sort sequence.
func (t *Table) Sorts() []SortSpec {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]SortSpec(nil), t.sorts...)
}

// --- filtering ---

// SetFilter sets one column's filter value and resets to the first page.
func (t *Table) SetFilter(columnID string, value any) {
	t.mu.Lock()
	t.filters.SetFilter(columnID, value)
	t.pagination.PageIndex = 0
	t.mu.Unlock()

	t.refreshIfServer()
}

// RemoveFilter clears one column's filter and resets to the first page.
func (t *Table) RemoveFilter(columnID string) {
	t.mu.Lock()
	t.filters.RemoveFilter(columnID)
	t.pagination.PageIndex = 0
	t.mu.Unlock()

	t.refreshIfServer()
}

// ClearFilters removes all filters and groups and resets to the first page.
func (t *Table) ClearFilters() {
	t.mu.Lock()
	t.filters.ClearFilters()
	t.pagination.PageIndex = 0
	t.mu.Unlock()

	t.refreshIfServer()
}

// SetGroups replaces the filter groups and resets to the first page.
func (t *Table) SetGroups(groups []FilterGroup) {
	t.mu.Lock()
	t.filters.SetGroups(groups)
	t.pagination.PageIndex = 0
	t.mu.Unlock()

	t.refreshIfServer()
}

// SetGlobalFilter changes the global search text and resets to the first
// page.
func (t *Table) SetGlobalFilter(text string) {
	t.mu.Lock()
	if t.globalFilter == text {
		t.mu.Unlock()
		return
	}
	t.globalFilter = text
	t.pagination.PageIndex = 0
	t.mu.Unlock()

	t.refreshIfServer()
}

// SavePreset snapshots the current filter state under a name.
func (t *Table) SavePreset(name string) (FilterPreset, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.filters.SavePreset(name, nil, nil)
}

// LoadPreset restores a preset's filter state and resets to the first page.
// Returns nil when the id is unknown.
func (t *Table) LoadPreset(id string) *FilterPreset {
	t.mu.Lock()
	p := t.filters.LoadPreset(id)
	if p == nil {
		t.mu.Unlock()
		return nil
	}
	t.pagination.PageIndex = 0
	t.mu.Unlock()

	t.refreshIfServer()
	return p
}

// DeletePreset removes a preset. Unknown ids are no-ops.
func (t *Table) DeletePreset(id string) {
	t.mu.Lock()
	t.filters.DeletePreset(id)
	t.mu.Unlock()
}

// --- selection and expansion ---

// Select adds a record id to the selection.
func (t *Table) Select(id string) {
	t.mu.Lock()
	t.selection[id] = struct{}{}
	t.mu.Unlock()
}

// Deselect removes a record id from the selection.
func (t *Table) Deselect(id string) {
	t.mu.Lock()
	delete(t.selection, id)
	t.mu.Unlock()
}

// ToggleSelect flips a record id's selection.
func (t *Table) ToggleSelect(id string) {
	t.mu.Lock()
	if _, ok := t.selection[id]; ok {
		delete(t.selection, id)
	} else {
		t.selection[id] = struct{}{}
	}
	t.mu.Unlock()
}

// IsSelected reports whether a record id is selected.
func (t *Table) IsSelected(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.selection[id]
	return ok
}

// SelectAll selects every record in the currently materialized set: the
// filtered, pre-pagination rows, not the full unfiltered dataset.
func (t *Table) SelectAll() {
	ids := t.materializedIDs()

	t.mu.Lock()
	for _, id := range ids {
		t.selection[id] = struct{}{}
	}
	t.mu.Unlock()
}

// SelectNone clears the selection.
func (t *Table) SelectNone() {
	t.mu.Lock()
	t.selection = make(map[string]struct{})
	t.mu.Unlock()
}

// SelectInvert inverts selection over the currently materialized set.
// Materialized rows flip; selected ids outside the set stay selected.
func (t *Table) SelectInvert() {
	ids := t.materializedIDs()

	t.mu.Lock()
	for _, id := range ids {
		if _, ok := t.selection[id]; ok {
			delete(t.selection, id)
		} else {
			t.selection[id] = struct{}{}
		}
	}
	t.mu.Unlock()
}

// Selected returns the selected record ids in sorted order.
func (t *Table) Selected() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return sortedKeys(t.selection)
}

// Expand marks a record id expanded.
func (t *Table) Expand(id string) {
	t.mu.Lock()
	t.expansion[id] = struct{}{}
	t.mu.Unlock()
}

// Collapse removes a record id from the expansion set.
func (t *Table) Collapse(id string) {
	t.mu.Lock()
	delete(t.expansion, id)
	t.mu.Unlock()
}

// ToggleExpand flips a record id's expansion.
func (t *Table) ToggleExpand(id string) {
	t.mu.Lock()
	if _, ok := t.expansion[id]; ok {
		delete(t.expansion, id)
	} else {
		t.expansion[id] = struct{}{}
	}
	t.mu.Unlock()
}

// CollapseAll clears the expansion set.
func (t *Table) CollapseAll() {
	t.mu.Lock()
	t.expansion = make(map[string]struct{})
	t.mu.Unlock()
}

// Expanded returns the expanded record ids in sorted order.
func (t *Table) Expanded() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return sortedKeys(t.expansion)
}

// --- reset ---

// Reset restores pagination, sorting, filters, groups, and the global search
// text to their construction-time values and clears the selection. The
// expansion set is untouched.
func (t *Table) Reset() {
	t.mu.Lock()
	t.pagination = t.initial.pagination
	t.sorts = append([]SortSpec(nil), t.initial.sorts...)
	t.globalFilter = t.initial.globalFilter
	t.selection = make(map[string]struct{})
	t.filters.ReplaceState(t.initial.filters, t.initial.groups)
	t.mu.Unlock()

	t.refreshIfServer()
}

// sortedKeys renders a string set as a sorted slice.
func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// logger returns the package logger for orchestrator events.
func (t *Table) logger() *slog.Logger {
	return slog.Default().With("component", "table")
}
