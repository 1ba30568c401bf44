package table

import (
	"sync"
	"time"

	"github.com/tablekit/tablekit/internal/persist"
)

// FilterConfig describes the filter behavior of one column.
type FilterConfig struct {
	ColumnID string         `json:"columnId"`
	Label    string         `json:"label"`
	Type     FilterType     `json:"type"`
	Options  []SelectOption `json:"options,omitempty"`
}

// FilterEngine evaluates whether records pass the current filter
// configuration and maintains filter groups and named presets.
//
// The engine owns its state exclusively and guards it with its own lock, so
// handlers holding a reference from [Table.Filters] can use it alongside
// orchestrator mutations. Change callbacks run without the lock held.
type FilterEngine struct {
	mu sync.RWMutex

	columns  []ColumnDescriptor
	byID     map[string]ColumnDescriptor
	configs  []FilterConfig
	configBy map[string]FilterConfig

	values FilterValues
	groups []FilterGroup

	presets      []FilterPreset
	activePreset string

	store    persist.Store
	storeKey string
	onChange func()
}

// FilterEngineOptions configures a FilterEngine.
type FilterEngineOptions struct {
	// Configs overrides filter-config derivation when non-empty.
	Configs []FilterConfig

	// Data is scanned for type inference when configs are derived.
	Data []Record

	// Store persists presets; nil disables persistence.
	Store    persist.Store
	StoreKey string

	// OnChange is invoked after every filter mutation.
	OnChange func()
}

// NewFilterEngine builds an engine for the given column set. When no explicit
// configs are supplied, one config is derived per filterable column, inferring
// the filter type from the first non-null value in the dataset unless the
// column declares its own type.
func NewFilterEngine(columns []ColumnDescriptor, opts FilterEngineOptions) *FilterEngine {
	e := &FilterEngine{
		columns:  columns,
		byID:     make(map[string]ColumnDescriptor, len(columns)),
		configBy: make(map[string]FilterConfig),
		values:   make(FilterValues),
		store:    opts.Store,
		storeKey: opts.StoreKey,
		onChange: opts.OnChange,
	}
	for _, col := range columns {
		e.byID[col.ID] = col
	}

	if len(opts.Configs) > 0 {
		e.configs = opts.Configs
	} else {
		e.configs = deriveConfigs(columns, opts.Data)
	}
	for _, cfg := range e.configs {
		e.configBy[cfg.ColumnID] = cfg
	}

	e.loadPresets()
	return e
}

// deriveConfigs produces one filter config per filterable column.
func deriveConfigs(columns []ColumnDescriptor, data []Record) []FilterConfig {
	var configs []FilterConfig
	for _, col := range columns {
		if !col.Filterable {
			continue
		}

		ft := col.FilterType
		if ft == "" {
			ft = inferFilterType(col, data)
		}

		label := col.Label
		if label == "" {
			label = col.ID
		}

		configs = append(configs, FilterConfig{
			ColumnID: col.ID,
			Label:    label,
			Type:     ft,
			Options:  col.FilterOptions,
		})
	}
	return configs
}

// inferFilterType scans the dataset for the first non-null value of a column
// and maps its type: booleans to boolean, times and date-like strings to
// date, numbers to number, everything else to text.
func inferFilterType(col ColumnDescriptor, data []Record) FilterType {
	for _, rec := range data {
		v := col.Value(rec)
		if v == nil {
			continue
		}
		switch v.(type) {
		case bool:
			return FilterBool
		case time.Time:
			return FilterDate
		case float64, float32, int, int32, int64:
			return FilterNumber
		case string:
			if _, ok := asTime(v); ok {
				return FilterDate
			}
			return FilterText
		default:
			return FilterText
		}
	}
	return FilterText
}

// Configs returns the active filter configurations in column order.
func (e *FilterEngine) Configs() []FilterConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]FilterConfig, len(e.configs))
	copy(out, e.configs)
	return out
}

// SearchColumns returns the columns global search applies to: those with a
// text filter configuration. Matches the search semantics of server-side
// filtering.
func (e *FilterEngine) SearchColumns() []ColumnDescriptor {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []ColumnDescriptor
	for _, cfg := range e.configs {
		if cfg.Type != FilterText {
			continue
		}
		if col, ok := e.byID[cfg.ColumnID]; ok {
			out = append(out, col)
		}
	}
	return out
}

// Values returns a copy of the current flat filter values.
func (e *FilterEngine) Values() FilterValues {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.values.Clone()
}

// Groups returns the current filter groups.
func (e *FilterEngine) Groups() []FilterGroup {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.groups
}

// SetFilter sets the filter value for a column. Setting an empty value is
// equivalent to removing the filter. Unknown column ids are no-ops. Any
// manual change clears the active preset marker: the state has diverged.
func (e *FilterEngine) SetFilter(columnID string, value any) {
	e.mu.Lock()
	if _, ok := e.configBy[columnID]; !ok {
		e.mu.Unlock()
		return
	}

	if isEmptyFilterValue(value) {
		delete(e.values, columnID)
	} else {
		e.values[columnID] = value
	}

	e.activePreset = ""
	e.mu.Unlock()
	e.notify()
}

// RemoveFilter clears the filter on a column.
func (e *FilterEngine) RemoveFilter(columnID string) {
	e.mu.Lock()
	if _, ok := e.values[columnID]; !ok {
		e.mu.Unlock()
		return
	}
	delete(e.values, columnID)
	e.activePreset = ""
	e.mu.Unlock()
	e.notify()
}

// ClearFilters removes all flat filter values and groups.
func (e *FilterEngine) ClearFilters() {
	e.mu.Lock()
	e.values = make(FilterValues)
	e.groups = nil
	e.activePreset = ""
	e.mu.Unlock()
	e.notify()
}

// SetGroups replaces the current filter groups.
func (e *FilterEngine) SetGroups(groups []FilterGroup) {
	e.mu.Lock()
	e.groups = groups
	e.activePreset = ""
	e.mu.Unlock()
	e.notify()
}

// ReplaceState swaps in a full filter state without touching the active
// preset marker. Used by preset loading and orchestrator reset.
func (e *FilterEngine) ReplaceState(values FilterValues, groups []FilterGroup) {
	e.mu.Lock()
	e.replaceStateLocked(values, groups)
	e.mu.Unlock()
	e.notify()
}

func (e *FilterEngine) replaceStateLocked(values FilterValues, groups []FilterGroup) {
	e.values = values.Clone()
	if e.values == nil {
		e.values = make(FilterValues)
	}
	e.groups = groups
}

// ActiveFilters returns the column ids carrying a non-empty filter value.
func (e *FilterEngine) ActiveFilters() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.activeFilterIDs()
}

func (e *FilterEngine) activeFilterIDs() []string {
	var ids []string
	for _, cfg := range e.configs {
		if v, ok := e.values[cfg.ColumnID]; ok && !isEmptyFilterValue(v) {
			ids = append(ids, cfg.ColumnID)
		}
	}
	return ids
}

// ActiveFilterCount returns the number of columns with a non-empty filter.
func (e *FilterEngine) ActiveFilterCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.activeFilterIDs())
}

// HasActiveFilters reports whether any flat filter or group constrains data.
func (e *FilterEngine) HasActiveFilters() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hasActiveLocked()
}

func (e *FilterEngine) hasActiveLocked() bool {
	if len(e.activeFilterIDs()) > 0 {
		return true
	}
	for _, g := range e.groups {
		if !groupVacuous(g) {
			return true
		}
	}
	return false
}

// Passes reports whether a record satisfies the full filter configuration:
// every flat entry (AND across columns) and, when non-vacuous groups exist,
// at least one group (OR across groups).
func (e *FilterEngine) Passes(rec Record) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.passesLocked(rec)
}

func (e *FilterEngine) passesLocked(rec Record) bool {
	for columnID, fv := range e.values {
		if isEmptyFilterValue(fv) {
			continue
		}
		if !e.matchColumn(rec, columnID, fv) {
			return false
		}
	}

	anyGroup := false
	for _, g := range e.groups {
		if groupVacuous(g) {
			continue
		}
		anyGroup = true
		if e.passesGroup(rec, g) {
			return true
		}
	}
	return !anyGroup
}

// passesGroup evaluates one filter group against a record.
func (e *FilterEngine) passesGroup(rec Record, g FilterGroup) bool {
	if g.Operator == GroupOr {
		for columnID, fv := range g.Filters {
			if isEmptyFilterValue(fv) {
				continue
			}
			if e.matchColumn(rec, columnID, fv) {
				return true
			}
		}
		return false
	}

	for columnID, fv := range g.Filters {
		if isEmptyFilterValue(fv) {
			continue
		}
		if !e.matchColumn(rec, columnID, fv) {
			return false
		}
	}
	return true
}

// matchColumn evaluates one column predicate against a record.
func (e *FilterEngine) matchColumn(rec Record, columnID string, fv any) bool {
	ft := FilterText
	if cfg, ok := e.configBy[columnID]; ok {
		ft = cfg.Type
	}

	var cell any
	if col, ok := e.byID[columnID]; ok {
		cell = col.Value(rec)
	} else {
		cell = rec[columnID]
	}

	return matchValue(ft, cell, fv)
}

// groupVacuous reports whether a group has no non-empty entries. Vacuous
// groups are satisfied by every record and excluded from evaluation.
func groupVacuous(g FilterGroup) bool {
	for _, fv := range g.Filters {
		if !isEmptyFilterValue(fv) {
			return false
		}
	}
	return true
}

// FilteredData returns the records passing the current filters, preserving
// input order. With no active filters the input slice is returned as is.
func (e *FilterEngine) FilteredData(data []Record) []Record {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.hasActiveLocked() {
		return data
	}

	var out []Record
	for _, rec := range data {
		if e.passesLocked(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// notify fires the change callback if one is configured.
func (e *FilterEngine) notify() {
	if e.onChange != nil {
		e.onChange()
	}
}
