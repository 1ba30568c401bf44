// Package export builds tabular projections of a table's derived view model:
// header labels plus formatted cell strings, ready for encoding. Final
// encodings beyond the CSV helper (spreadsheet markup, print documents) are
// external collaborators consuming the same projection.
package export

import (
	"fmt"
	"time"

	"github.com/tablekit/tablekit/internal/table"
)

// Projection is a fully formatted tabular snapshot.
type Projection struct {
	Headers []string
	Rows    [][]string
}

// Build projects the filtered (pre-pagination) row set of a view model over
// its visible, exportable columns. Column order follows the column set;
// columns with a renderer capability produce their rendered cell string.
func Build(vm table.ViewModel) Projection {
	var cols []table.ColumnDescriptor
	for _, col := range vm.Columns {
		if col.Exportable {
			cols = append(cols, col)
		}
	}

	p := Projection{Headers: make([]string, len(cols))}
	for i, col := range cols {
		label := col.Label
		if label == "" {
			label = col.ID
		}
		p.Headers[i] = label
	}

	p.Rows = make([][]string, 0, len(vm.FilteredRows))
	for idx, rec := range vm.FilteredRows {
		row := make([]string, len(cols))
		for i, col := range cols {
			if col.Renderer != nil {
				cell := col.Renderer.Render(table.RowContext{
					Record: rec,
					Column: col.ID,
					Index:  idx,
				})
				row[i] = cell.Formatted
				continue
			}
			row[i] = FormatCell(col.Value(rec))
		}
		p.Rows = append(p.Rows, row)
	}

	return p
}

// FormatCell formats a cell value for export. Nil renders empty, dates
// render as YYYY-MM-DD, booleans as Yes/No, and whole floats drop the
// fraction.
func FormatCell(v any) string {
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format("2006-01-02")

	case bool:
		if val {
			return "Yes"
		}
		return "No"

	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%.0f", val)
		}
		return fmt.Sprintf("%.2f", val)

	case float32:
		return FormatCell(float64(val))

	case string:
		return val

	default:
		return fmt.Sprintf("%v", v)
	}
}
