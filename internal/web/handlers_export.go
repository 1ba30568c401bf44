package web

import (
	"fmt"
	"net/http"

	"github.com/tablekit/tablekit/internal/export"
	"github.com/tablekit/tablekit/internal/logging"
)

// handleExportCSV streams the session's filtered rows as CSV. Only visible,
// exportable columns are included; pagination does not apply.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	projection := export.Build(sess.Table.View())

	filename := fmt.Sprintf("%s-export.csv", sess.DatasetKey)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	logger := logging.ForSession(r.Context(), sess.ID, sess.DatasetKey)
	if err := export.WriteCSV(w, projection); err != nil {
		// Headers are already sent; log and abandon the response.
		logger.Error("csv export failed", "error", err)
		return
	}

	logger.Info("csv export completed", "rows", len(projection.Rows))
}
