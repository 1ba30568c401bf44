package web

import (
	"testing"
	"time"

	"github.com/tablekit/tablekit/internal/table"
)

func newTestTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.NewTable(table.Options{
		Columns: []table.ColumnDescriptor{{ID: "id"}},
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tbl
}

func TestSessionStore(t *testing.T) {
	store := NewSessionStore()

	a := store.Create("people", false, newTestTable(t))
	b := store.Create("orders", true, newTestTable(t))
	if a.ID == b.ID {
		t.Fatal("session ids should be unique")
	}

	got, ok := store.Get(a.ID)
	if !ok || got.DatasetKey != "people" {
		t.Errorf("Get = %+v/%v, want people session", got, ok)
	}
	if store.Count() != 2 {
		t.Errorf("Count = %d, want 2", store.Count())
	}

	store.Delete(a.ID)
	if _, ok := store.Get(a.ID); ok {
		t.Error("session still present after Delete")
	}
	if store.Count() != 1 {
		t.Errorf("Count after delete = %d, want 1", store.Count())
	}
}

func TestSessionStore_AllOrdered(t *testing.T) {
	store := NewSessionStore()
	store.Create("a", false, newTestTable(t))
	store.Create("b", false, newTestTable(t))
	store.Create("c", false, newTestTable(t))

	all := store.All()
	if len(all) != 3 {
		t.Fatalf("All length = %d, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.Before(all[i-1].CreatedAt) {
			t.Errorf("sessions out of creation order at %d", i)
		}
	}
}

func TestSessionTouch(t *testing.T) {
	store := NewSessionStore()
	sess := store.Create("people", false, newTestTable(t))

	before := sess.Updated()
	time.Sleep(time.Millisecond)
	sess.Touch()
	if !sess.Updated().After(before) {
		t.Errorf("Updated() = %v, want after %v", sess.Updated(), before)
	}
}
