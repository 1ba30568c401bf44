package web

// handlers_state.go contains the mutators: pagination, sorting, filtering,
// presets, column visibility, selection, and expansion. Every mutator
// responds with the refreshed session snapshot so clients stay in sync
// without a follow-up read.

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tablekit/tablekit/internal/table"
)

// handleSetPage moves the session to a page index.
func (s *Server) handleSetPage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req struct {
		PageIndex int `json:"pageIndex"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, r, "body", "invalid JSON payload")
		return
	}

	sess.Table.SetPage(req.PageIndex)
	sess.Touch()
	writeJSON(w, s.viewResponseFor(sess))
}

// handleSetPageSize changes rows-per-page and returns to the first page.
func (s *Server) handleSetPageSize(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req struct {
		PageSize int `json:"pageSize"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, r, "body", "invalid JSON payload")
		return
	}
	if req.PageSize <= 0 {
		s.respondBadRequest(w, r, "pageSize", "must be positive")
		return
	}
	if req.PageSize > s.cfg.Defaults.MaxPageSize {
		s.respondBadRequest(w, r, "pageSize", "exceeds maximum page size")
		return
	}

	sess.Table.SetPageSize(req.PageSize)
	sess.Touch()
	writeJSON(w, s.viewResponseFor(sess))
}

// handleSetSorts replaces the sort sequence.
func (s *Server) handleSetSorts(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Sorts []table.SortSpec `json:"sorts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, r, "body", "invalid JSON payload")
		return
	}

	sess.Table.SetSorts(req.Sorts)
	sess.Touch()
	writeJSON(w, s.viewResponseFor(sess))
}

// handleToggleSort cycles one column through asc, desc, and unsorted.
func (s *Server) handleToggleSort(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Field string `json:"field"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, r, "body", "invalid JSON payload")
		return
	}
	if strings.TrimSpace(req.Field) == "" {
		s.respondBadRequest(w, r, "field", "must not be blank")
		return
	}

	sess.Table.ToggleSort(req.Field)
	sess.Touch()
	writeJSON(w, s.viewResponseFor(sess))
}

// handleSetFilter sets one column's filter value.
func (s *Server) handleSetFilter(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Value any `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, r, "body", "invalid JSON payload")
		return
	}

	sess.Table.SetFilter(chi.URLParam(r, "columnID"), req.Value)
	sess.Touch()
	writeJSON(w, s.viewResponseFor(sess))
}

// handleRemoveFilter clears one column's filter.
func (s *Server) handleRemoveFilter(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	sess.Table.RemoveFilter(chi.URLParam(r, "columnID"))
	sess.Touch()
	writeJSON(w, s.viewResponseFor(sess))
}

// handleClearFilters clears all filter values and groups.
func (s *Server) handleClearFilters(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	sess.Table.ClearFilters()
	sess.Touch()
	writeJSON(w, s.viewResponseFor(sess))
}

// handleSetGroups replaces the filter groups.
func (s *Server) handleSetGroups(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Groups []table.FilterGroup `json:"groups"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, r, "body", "invalid JSON payload")
		return
	}

	sess.Table.SetGroups(req.Groups)
	sess.Touch()
	writeJSON(w, s.viewResponseFor(sess))
}

// handleSetSearch sets the global search text.
func (s *Server) handleSetSearch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, r, "body", "invalid JSON payload")
		return
	}

	sess.Table.SetGlobalFilter(req.Query)
	sess.Touch()
	writeJSON(w, s.viewResponseFor(sess))
}

// handleListPresets returns the session's saved presets.
func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, map[string]any{
		"presets":        sess.Table.Filters().Presets(),
		"activePresetId": sess.Table.Filters().ActivePresetID(),
	})
}

// handleSavePreset snapshots the current filter state under a name.
func (s *Server) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, r, "body", "invalid JSON payload")
		return
	}

	preset, err := sess.Table.SavePreset(req.Name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	sess.Touch()

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, preset)
}

// handleLoadPreset applies a saved preset to the session.
func (s *Server) handleLoadPreset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "presetID")
	if sess.Table.LoadPreset(id) == nil {
		s.respondNotFound(w, r, "preset", id)
		return
	}
	sess.Touch()
	writeJSON(w, s.viewResponseFor(sess))
}

// handleDeletePreset removes a saved preset.
func (s *Server) handleDeletePreset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	sess.Table.DeletePreset(chi.URLParam(r, "presetID"))
	sess.Touch()
	w.WriteHeader(http.StatusNoContent)
}

// handleColumnState returns per-column visibility.
func (s *Server) handleColumnState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, columnMetaFor(sess.Table.Columns(), sess.Table.Visibility()))
}

// handleToggleColumn flips one column's visibility.
func (s *Server) handleToggleColumn(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	sess.Table.Visibility().Toggle(chi.URLParam(r, "columnID"))
	sess.Touch()
	writeJSON(w, columnMetaFor(sess.Table.Columns(), sess.Table.Visibility()))
}

// handleToggleAllColumns shows or hides every column. With no explicit
// target the set inverts based on whether everything is currently visible.
func (s *Server) handleToggleAllColumns(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Visible *bool `json:"visible"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, r, "body", "invalid JSON payload")
		return
	}

	sess.Table.Visibility().ToggleAll(req.Visible)
	sess.Touch()
	writeJSON(w, columnMetaFor(sess.Table.Columns(), sess.Table.Visibility()))
}

// handleResetColumns restores default visibility for every column.
func (s *Server) handleResetColumns(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	sess.Table.Visibility().Reset()
	sess.Touch()
	writeJSON(w, columnMetaFor(sess.Table.Columns(), sess.Table.Visibility()))
}

// selectionRequest drives both selection and expansion mutations.
type selectionRequest struct {
	Op  string   `json:"op"`
	IDs []string `json:"ids"`
}

// handleSelection applies a selection operation.
func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, r, "body", "invalid JSON payload")
		return
	}

	switch req.Op {
	case "select":
		for _, id := range req.IDs {
			sess.Table.Select(id)
		}
	case "deselect":
		for _, id := range req.IDs {
			sess.Table.Deselect(id)
		}
	case "toggle":
		for _, id := range req.IDs {
			sess.Table.ToggleSelect(id)
		}
	case "all":
		sess.Table.SelectAll()
	case "none":
		sess.Table.SelectNone()
	case "invert":
		sess.Table.SelectInvert()
	default:
		s.respondBadRequest(w, r, "op", "unknown selection operation")
		return
	}

	sess.Touch()
	writeJSON(w, s.viewResponseFor(sess))
}

// handleExpansion applies a row expansion operation.
func (s *Server) handleExpansion(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, r, "body", "invalid JSON payload")
		return
	}

	switch req.Op {
	case "expand":
		for _, id := range req.IDs {
			sess.Table.Expand(id)
		}
	case "collapse":
		for _, id := range req.IDs {
			sess.Table.Collapse(id)
		}
	case "toggle":
		for _, id := range req.IDs {
			sess.Table.ToggleExpand(id)
		}
	case "collapse-all":
		sess.Table.CollapseAll()
	default:
		s.respondBadRequest(w, r, "op", "unknown expansion operation")
		return
	}

	sess.Touch()
	writeJSON(w, s.viewResponseFor(sess))
}

// handleResetSession restores the session's initial state.
func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	sess.Table.Reset()
	sess.Touch()
	writeJSON(w, s.viewResponseFor(sess))
}

// handleRefreshSession synchronously re-runs the server-mode fetch.
func (s *Server) handleRefreshSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	if err := sess.Table.Refresh(r.Context()); err != nil {
		s.respondError(w, r, err)
		return
	}
	sess.Touch()
	writeJSON(w, s.viewResponseFor(sess))
}
