package table

import (
	"testing"

	"github.com/tablekit/tablekit/internal/persist"
)

func visColumns() []ColumnDescriptor {
	hidden := false
	return []ColumnDescriptor{
		{ID: "a", Label: "A"},
		{ID: "b", Label: "B"},
		{ID: "c", Label: "C", DefaultVisible: &hidden},
		{ID: "d", Label: "D"},
	}
}

func TestNewVisibility_DefaultRulePrecedence(t *testing.T) {
	v := NewVisibility(visColumns(), VisibilityOptions{
		// Explicit map wins over the column flag and the hidden list.
		DefaultVisibility: map[string]bool{"c": true, "d": true},
		DefaultHidden:     []string{"b", "d"},
	})

	if !v.IsVisible("a") {
		t.Error("a should default visible")
	}
	if v.IsVisible("b") {
		t.Error("b is in DefaultHidden and should start hidden")
	}
	if !v.IsVisible("c") {
		t.Error("explicit DefaultVisibility should override the column's DefaultVisible flag")
	}
	if !v.IsVisible("d") {
		t.Error("explicit DefaultVisibility should override DefaultHidden")
	}
}

func TestNewVisibility_ColumnFlagBeatsHiddenList(t *testing.T) {
	shown := true
	cols := []ColumnDescriptor{
		{ID: "x", DefaultVisible: &shown},
	}
	v := NewVisibility(cols, VisibilityOptions{DefaultHidden: []string{"x"}})
	if !v.IsVisible("x") {
		t.Error("the column's own DefaultVisible flag should beat DefaultHidden")
	}
}

func TestVisibility_ToggleAndSet(t *testing.T) {
	v := NewVisibility(visColumns(), VisibilityOptions{})

	v.Toggle("a")
	if v.IsVisible("a") {
		t.Error("Toggle should hide a visible column")
	}
	v.Toggle("a")
	if !v.IsVisible("a") {
		t.Error("Toggle should re-show a hidden column")
	}

	v.Set("b", false)
	if v.IsVisible("b") {
		t.Error("Set(false) should hide the column")
	}

	// Unknown ids are no-ops, not panics.
	v.Toggle("nope")
	v.Set("nope", true)
	if v.IsVisible("nope") {
		t.Error("unknown id should never become visible")
	}
}

func TestVisibility_ToggleAll(t *testing.T) {
	v := NewVisibility(visColumns(), VisibilityOptions{})

	// c starts hidden, so a nil target shows everything first.
	v.ToggleAll(nil)
	for _, id := range []string{"a", "b", "c", "d"} {
		if !v.IsVisible(id) {
			t.Fatalf("column %q should be visible after ToggleAll(nil) from mixed state", id)
		}
	}

	// All visible now, so the next nil toggle hides everything.
	v.ToggleAll(nil)
	for _, id := range []string{"a", "b", "c", "d"} {
		if v.IsVisible(id) {
			t.Fatalf("column %q should be hidden after second ToggleAll(nil)", id)
		}
	}

	// Explicit target.
	show := true
	v.ToggleAll(&show)
	if !v.IsVisible("c") {
		t.Error("ToggleAll(&true) should show every column")
	}
}

func TestVisibility_ReconcileAddsOnly(t *testing.T) {
	cols := visColumns()
	v := NewVisibility(cols, VisibilityOptions{})
	v.Toggle("a") // manual: hide a

	extended := append(cols, ColumnDescriptor{ID: "e", Label: "E"})
	v.Reconcile(extended)

	if v.IsVisible("a") {
		t.Error("Reconcile must not overwrite the manual hide of a")
	}
	if !v.IsVisible("e") {
		t.Error("Reconcile should add the new column with its default")
	}

	// Idempotent: a second pass changes nothing.
	before := v.State()
	v.Reconcile(extended)
	after := v.State()
	if len(before) != len(after) {
		t.Fatalf("state size changed on repeat reconcile: %d -> %d", len(before), len(after))
	}
	for id, shown := range before {
		if after[id] != shown {
			t.Errorf("column %q changed on repeat reconcile", id)
		}
	}
}

func TestVisibility_Reset(t *testing.T) {
	v := NewVisibility(visColumns(), VisibilityOptions{DefaultHidden: []string{"b"}})
	v.ShowAll()
	v.Reset()

	if !v.IsVisible("a") {
		t.Error("a should be visible after Reset")
	}
	if v.IsVisible("b") {
		t.Error("b should return to its default hidden state after Reset")
	}
	if v.IsVisible("c") {
		t.Error("c should return to its DefaultVisible=false state after Reset")
	}
}

func TestVisibility_VisibleColumnsPreservesOrder(t *testing.T) {
	cols := visColumns()
	v := NewVisibility(cols, VisibilityOptions{})
	v.Set("b", false)

	visible := v.VisibleColumns(cols)
	wantOrder := []string{"a", "d"}
	if len(visible) != len(wantOrder) {
		t.Fatalf("visible count = %d, want %d", len(visible), len(wantOrder))
	}
	for i, id := range wantOrder {
		if visible[i].ID != id {
			t.Errorf("visible[%d] = %q, want %q", i, visible[i].ID, id)
		}
	}
}

func TestVisibility_PersistAcrossManagers(t *testing.T) {
	store := persist.NewMemoryStore()
	cols := visColumns()

	v := NewVisibility(cols, VisibilityOptions{Store: store, StoreKey: "people"})
	v.Toggle("a")
	v.Set("c", true)

	// A fresh manager over the same store restores the snapshot.
	v2 := NewVisibility(cols, VisibilityOptions{Store: store, StoreKey: "people"})
	if v2.IsVisible("a") {
		t.Error("persisted hide of a should survive reconstruction")
	}
	if !v2.IsVisible("c") {
		t.Error("persisted show of c should survive reconstruction")
	}

	// Reset discards the persisted snapshot in favor of defaults.
	v2.Reset()
	if !v2.IsVisible("a") {
		t.Error("Reset should restore a to its default visible state")
	}
}

func TestVisibility_PersistedEntryForRemovedColumnDiscarded(t *testing.T) {
	store := persist.NewMemoryStore()
	cols := visColumns()

	v := NewVisibility(cols, VisibilityOptions{Store: store, StoreKey: "people"})
	v.Toggle("d")

	// Rebuild without column d: its persisted entry must not leak in.
	v2 := NewVisibility(cols[:3], VisibilityOptions{Store: store, StoreKey: "people"})
	state := v2.State()
	if _, ok := state["d"]; ok {
		t.Error("state should not carry entries for columns no longer present")
	}
}

func TestVisibility_OnChangeNotified(t *testing.T) {
	var got VisibilityState
	v := NewVisibility(visColumns(), VisibilityOptions{
		OnChange: func(s VisibilityState) { got = s },
	})

	v.Toggle("a")
	if got == nil {
		t.Fatal("OnChange should fire on mutation")
	}
	if got["a"] {
		t.Error("OnChange snapshot should reflect the new state")
	}
}
