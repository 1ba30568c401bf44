package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tablekit/tablekit/internal/table"
)

func sample(key, group string) Dataset {
	return Dataset{
		Key:     key,
		Group:   group,
		Label:   key,
		Columns: []table.ColumnDescriptor{{ID: "id"}},
	}
}

// ----------------------------------------------------------------------------
// Registry
// ----------------------------------------------------------------------------

func TestRegisterAndGet(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	Register(sample("orders", "Sales"))

	ds, ok := Get("orders")
	if !ok {
		t.Fatal("Get(orders) = false, want true")
	}
	if ds.Group != "Sales" {
		t.Errorf("Group = %q, want Sales", ds.Group)
	}

	if _, ok := Get("missing"); ok {
		t.Error("Get(missing) = true, want false")
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	Register(sample("orders", "Sales"))

	defer func() {
		if recover() == nil {
			t.Error("duplicate Register should panic")
		}
	}()
	Register(sample("orders", "Sales"))
}

func TestAll_SortedByGroupThenKey(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	Register(sample("users", "Admin"))
	Register(sample("orders", "Sales"))
	Register(sample("invoices", "Sales"))

	all := All()
	if len(all) != 3 {
		t.Fatalf("All length = %d, want 3", len(all))
	}
	wantKeys := []string{"users", "invoices", "orders"}
	for i, want := range wantKeys {
		if all[i].Key != want {
			t.Errorf("All[%d].Key = %q, want %q", i, all[i].Key, want)
		}
	}
}

func TestByGroupAndGroups(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	Register(sample("orders", "Sales"))
	Register(sample("invoices", "Sales"))
	Register(sample("users", "Admin"))

	sales := ByGroup("Sales")
	if len(sales) != 2 || sales[0].Key != "invoices" || sales[1].Key != "orders" {
		t.Errorf("ByGroup(Sales) keys = %v, want [invoices orders]", sales)
	}

	groups := Groups()
	if len(groups) != 2 || groups[0] != "Admin" || groups[1] != "Sales" {
		t.Errorf("Groups = %v, want [Admin Sales]", groups)
	}

	if Count() != 3 {
		t.Errorf("Count = %d, want 3", Count())
	}
}

// ----------------------------------------------------------------------------
// YAML loading
// ----------------------------------------------------------------------------

const ordersYAML = `key: orders
group: Sales
label: Orders
columns:
  - id: id
    label: ID
    filterable: false
  - id: status
    label: Status
    type: select
    options: [open, shipped]
  - id: internal
    visible: false
records:
  - id: "1"
    status: open
  - id: "2"
    status: shipped
`

func writeDataset(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write dataset file: %v", err)
	}
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeDataset(t, t.TempDir(), "orders.yaml", ordersYAML)

	ds, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if ds.Key != "orders" || ds.Label != "Orders" || ds.Group != "Sales" {
		t.Errorf("metadata = %q/%q/%q", ds.Key, ds.Label, ds.Group)
	}
	if len(ds.Columns) != 3 {
		t.Fatalf("columns = %d, want 3", len(ds.Columns))
	}

	id := ds.Columns[0]
	if id.Filterable {
		t.Error("id column should not be filterable")
	}
	if !id.Sortable || !id.Exportable {
		t.Error("unset flags should default to true")
	}

	status := ds.Columns[1]
	if status.FilterType != table.FilterSelect {
		t.Errorf("status FilterType = %q, want select", status.FilterType)
	}
	if len(status.FilterOptions) != 2 || status.FilterOptions[0].Value != "open" {
		t.Errorf("status options = %v", status.FilterOptions)
	}

	internal := ds.Columns[2]
	if internal.Label != "internal" {
		t.Errorf("label fallback = %q, want column id", internal.Label)
	}
	if internal.DefaultVisible == nil || *internal.DefaultVisible {
		t.Error("internal column should default hidden")
	}

	if len(ds.Records) != 2 {
		t.Errorf("records = %d, want 2", len(ds.Records))
	}
}

func TestLoadFile_Validation(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"missing key", "group: Sales\ncolumns:\n  - id: a\n"},
		{"no columns", "key: x\n"},
		{"column without id", "key: x\ncolumns:\n  - label: A\n"},
		{"invalid yaml", "key: [unclosed\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeDataset(t, dir, "bad.yaml", tt.content)
			if _, err := LoadFile(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadDir(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	dir := t.TempDir()
	writeDataset(t, dir, "orders.yaml", ordersYAML)
	writeDataset(t, dir, "users.yml", "key: users\ncolumns:\n  - id: id\n")
	writeDataset(t, dir, "notes.txt", "ignored")

	count, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if _, ok := Get("orders"); !ok {
		t.Error("orders not registered")
	}
	if _, ok := Get("users"); !ok {
		t.Error("users not registered")
	}
}

func TestLoadDir_MissingDirectory(t *testing.T) {
	Clear()
	t.Cleanup(Clear)

	count, err := LoadDir(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Errorf("LoadDir on missing dir = %v, want nil", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}
