package table

// visibility.go is the single source of truth for per-column show/hide state.
// State is reconciled against a possibly-changing column set and persisted
// through the store on every mutation. Operations on unknown column ids are
// no-ops; nothing here returns an error.

import (
	"log/slog"
	"sync"

	"github.com/tablekit/tablekit/internal/persist"
)

// visibilityStoreSuffix scopes visibility state under the storage key.
const visibilityStoreSuffix = "columns"

// VisibilityState maps column ids to their shown/hidden flag.
type VisibilityState map[string]bool

// Clone returns a copy of the state.
func (s VisibilityState) Clone() VisibilityState {
	out := make(VisibilityState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Visibility tracks which columns of a table are shown. The manager guards
// its state with its own lock, so handlers holding a reference from
// [Table.Visibility] can use it alongside orchestrator mutations. The change
// callback runs without the lock held.
type Visibility struct {
	mu sync.RWMutex

	columns       []ColumnDescriptor
	overrides     map[string]bool // Explicit per-column defaults from the caller
	defaultHidden map[string]bool

	state VisibilityState

	store    persist.Store
	storeKey string
	onChange func(VisibilityState)
}

// VisibilityOptions configures a Visibility manager.
type VisibilityOptions struct {
	// DefaultVisibility wins over a column's own DefaultVisible flag.
	DefaultVisibility map[string]bool

	// DefaultHidden lists column ids hidden unless otherwise specified.
	DefaultHidden []string

	// Store persists state; nil disables persistence.
	Store    persist.Store
	StoreKey string

	// OnChange is invoked with the new state after every mutation.
	OnChange func(VisibilityState)
}

// NewVisibility computes the initial state for a column set. Per column the
// default is: explicit DefaultVisibility entry, else the column's own
// DefaultVisible flag, else hidden only when listed in DefaultHidden. A
// persisted snapshot overrides the computed default for columns still
// present; entries for columns no longer present are discarded.
func NewVisibility(columns []ColumnDescriptor, opts VisibilityOptions) *Visibility {
	v := &Visibility{
		columns:       columns,
		overrides:     opts.DefaultVisibility,
		defaultHidden: make(map[string]bool, len(opts.DefaultHidden)),
		state:         make(VisibilityState, len(columns)),
		store:         opts.Store,
		storeKey:      opts.StoreKey,
		onChange:      opts.OnChange,
	}
	for _, id := range opts.DefaultHidden {
		v.defaultHidden[id] = true
	}

	for _, col := range columns {
		v.state[col.ID] = v.defaultFor(col)
	}

	// Persisted entries win over computed defaults, but only for columns
	// that still exist.
	var saved VisibilityState
	if v.store != nil && v.storeKey != "" &&
		persist.LoadJSON(v.store, persist.Key(v.storeKey, visibilityStoreSuffix), &saved) {
		for _, col := range columns {
			if shown, ok := saved[col.ID]; ok {
				v.state[col.ID] = shown
			}
		}
	}

	return v
}

// defaultFor computes the default visibility of one column.
func (v *Visibility) defaultFor(col ColumnDescriptor) bool {
	if v.overrides != nil {
		if shown, ok := v.overrides[col.ID]; ok {
			return shown
		}
	}
	if col.DefaultVisible != nil {
		return *col.DefaultVisible
	}
	return !v.defaultHidden[col.ID]
}

// State returns a copy of the current visibility state.
func (v *Visibility) State() VisibilityState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state.Clone()
}

// IsVisible reports whether a column is shown. Unknown ids report false.
func (v *Visibility) IsVisible(id string) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state[id]
}

// Reconcile updates the manager for a changed column set: entries are added
// for new columns using the default rule, and existing entries are never
// removed or overwritten. Reconciling twice with the same columns is a
// no-op.
func (v *Visibility) Reconcile(columns []ColumnDescriptor) {
	v.mu.Lock()
	v.columns = columns

	changed := false
	for _, col := range columns {
		if _, ok := v.state[col.ID]; !ok {
			v.state[col.ID] = v.defaultFor(col)
			changed = true
		}
	}

	if !changed {
		v.mu.Unlock()
		return
	}
	snap := v.state.Clone()
	v.mu.Unlock()
	v.mutated(snap)
}

// Toggle inverts one column's visibility. Unknown ids are no-ops.
func (v *Visibility) Toggle(id string) {
	v.mu.Lock()
	if _, ok := v.state[id]; !ok {
		v.mu.Unlock()
		return
	}
	v.state[id] = !v.state[id]
	snap := v.state.Clone()
	v.mu.Unlock()
	v.mutated(snap)
}

// Set assigns one column's visibility. Unknown ids are no-ops.
func (v *Visibility) Set(id string, visible bool) {
	v.mu.Lock()
	if shown, ok := v.state[id]; !ok || shown == visible {
		v.mu.Unlock()
		return
	}
	v.state[id] = visible
	snap := v.state.Clone()
	v.mu.Unlock()
	v.mutated(snap)
}

// ShowAll marks every column visible.
func (v *Visibility) ShowAll() {
	v.mu.Lock()
	for id := range v.state {
		v.state[id] = true
	}
	snap := v.state.Clone()
	v.mu.Unlock()
	v.mutated(snap)
}

// HideAll marks every column hidden.
func (v *Visibility) HideAll() {
	v.mu.Lock()
	for id := range v.state {
		v.state[id] = false
	}
	snap := v.state.Clone()
	v.mu.Unlock()
	v.mutated(snap)
}

// ToggleAll sets every column to target. With a nil target the set inverts:
// everything hides when all columns are currently visible, otherwise
// everything shows.
func (v *Visibility) ToggleAll(target *bool) {
	v.mu.Lock()
	var show bool
	if target != nil {
		show = *target
	} else {
		show = !v.allVisible()
	}

	for id := range v.state {
		v.state[id] = show
	}
	snap := v.state.Clone()
	v.mu.Unlock()
	v.mutated(snap)
}

// Reset recomputes state from the construction inputs, discarding both
// manual overrides and the persisted snapshot.
func (v *Visibility) Reset() {
	v.mu.Lock()
	v.state = make(VisibilityState, len(v.columns))
	for _, col := range v.columns {
		v.state[col.ID] = v.defaultFor(col)
	}
	snap := v.state.Clone()
	v.mu.Unlock()
	v.mutated(snap)
}

// VisibleColumns filters a column set down to the shown columns, preserving
// original order. Columns absent from the state are treated as visible.
func (v *Visibility) VisibleColumns(columns []ColumnDescriptor) []ColumnDescriptor {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var out []ColumnDescriptor
	for _, col := range columns {
		if shown, ok := v.state[col.ID]; !ok || shown {
			out = append(out, col)
		}
	}
	return out
}

// allVisible reports whether every tracked column is currently shown.
func (v *Visibility) allVisible() bool {
	for _, shown := range v.state {
		if !shown {
			return false
		}
	}
	return true
}

// mutated persists a state snapshot and notifies the caller. Runs without
// the lock held. Persistence failures are logged; the in-memory state stands.
func (v *Visibility) mutated(snap VisibilityState) {
	if v.store != nil && v.storeKey != "" {
		key := persist.Key(v.storeKey, visibilityStoreSuffix)
		if err := persist.SaveJSON(v.store, key, snap); err != nil {
			slog.Warn("visibility: persistence failed", "key", key, "error", err)
		}
	}
	if v.onChange != nil {
		v.onChange(snap.Clone())
	}
}
