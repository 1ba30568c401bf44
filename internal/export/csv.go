package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV encodes a projection as CSV. The writer is flushed before
// returning; encoding errors carry the failing row index.
func WriteCSV(w io.Writer, p Projection) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(p.Headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range p.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
