// Package dataset manages the named datasets the demo server exposes as
// tables: column descriptors plus in-memory records, registered in code or
// loaded from YAML files.
package dataset

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tablekit/tablekit/internal/table"
)

// Dataset is one registerable table: metadata, columns, and records.
type Dataset struct {
	Key     string // Unique identifier: "orders"
	Group   string // Logical grouping for listings: "Sales"
	Label   string // Display name: "Orders"
	Columns []table.ColumnDescriptor
	Records []table.Record
}

var (
	registry   = make(map[string]Dataset)
	registryMu sync.RWMutex
)

// Register adds a dataset to the registry.
// Panics if a dataset with the same key is already registered.
func Register(ds Dataset) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[ds.Key]; exists {
		panic(fmt.Sprintf("dataset already registered: %s", ds.Key))
	}

	registry[ds.Key] = ds
}

// Get returns a dataset by key.
// Returns false if not found.
func Get(key string) (Dataset, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	ds, ok := registry[key]
	return ds, ok
}

// All returns all registered datasets.
// Sorted by group then by key for consistent ordering.
func All() []Dataset {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Dataset, 0, len(registry))
	for _, ds := range registry {
		result = append(result, ds)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Group != result[j].Group {
			return result[i].Group < result[j].Group
		}
		return result[i].Key < result[j].Key
	})

	return result
}

// ByGroup returns all datasets for a specific group, sorted by key.
func ByGroup(group string) []Dataset {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var result []Dataset
	for _, ds := range registry {
		if ds.Group == group {
			result = append(result, ds)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// Groups returns all unique group names, sorted alphabetically.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, ds := range registry {
		seen[ds.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// Count returns the number of registered datasets.
func Count() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered datasets.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]Dataset)
}
