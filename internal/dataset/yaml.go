package dataset

// yaml.go loads dataset definitions from YAML files, so demo data can change
// without a rebuild. One file defines one dataset.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tablekit/tablekit/internal/table"
	"gopkg.in/yaml.v3"
)

// fileDef is the on-disk shape of a dataset definition.
type fileDef struct {
	Key     string           `yaml:"key"`
	Group   string           `yaml:"group"`
	Label   string           `yaml:"label"`
	Columns []fileColumn     `yaml:"columns"`
	Records []map[string]any `yaml:"records"`
}

type fileColumn struct {
	ID         string   `yaml:"id"`
	Label      string   `yaml:"label"`
	Type       string   `yaml:"type"` // text, select, boolean, date, number, ...
	Options    []string `yaml:"options"`
	Sortable   *bool    `yaml:"sortable"`
	Filterable *bool    `yaml:"filterable"`
	Exportable *bool    `yaml:"exportable"`
	Visible    *bool    `yaml:"visible"`
}

// LoadFile parses one dataset definition file.
func LoadFile(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset file: %w", err)
	}

	var def fileDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Dataset{}, fmt.Errorf("parse dataset file %s: %w", filepath.Base(path), err)
	}

	if def.Key == "" {
		return Dataset{}, fmt.Errorf("dataset file %s: missing key", filepath.Base(path))
	}
	if len(def.Columns) == 0 {
		return Dataset{}, fmt.Errorf("dataset file %s: no columns", filepath.Base(path))
	}

	ds := Dataset{
		Key:   def.Key,
		Group: def.Group,
		Label: def.Label,
	}
	if ds.Label == "" {
		ds.Label = def.Key
	}

	for _, fc := range def.Columns {
		if fc.ID == "" {
			return Dataset{}, fmt.Errorf("dataset file %s: column without id", filepath.Base(path))
		}

		col := table.ColumnDescriptor{
			ID:         fc.ID,
			Label:      fc.Label,
			FilterType: table.FilterType(fc.Type),
			Sortable:   boolOr(fc.Sortable, true),
			Filterable: boolOr(fc.Filterable, true),
			Exportable: boolOr(fc.Exportable, true),
		}
		if col.Label == "" {
			col.Label = fc.ID
		}
		if fc.Visible != nil {
			col.DefaultVisible = fc.Visible
		}
		for _, opt := range fc.Options {
			col.FilterOptions = append(col.FilterOptions, table.SelectOption{
				Value: opt,
				Label: opt,
			})
		}

		ds.Columns = append(ds.Columns, col)
	}

	for _, rec := range def.Records {
		ds.Records = append(ds.Records, table.Record(rec))
	}

	return ds, nil
}

// LoadDir loads and registers every .yaml/.yml dataset file in a directory.
// Returns the number of datasets registered. A missing directory is not an
// error; individual file failures abort the load.
func LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read dataset directory: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		ds, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return count, err
		}
		Register(ds)
		count++
	}

	return count, nil
}

// boolOr returns the pointed-to value, or def when nil.
func boolOr(p *bool, def bool) bool {
	if p != nil {
		return *p
	}
	return def
}
