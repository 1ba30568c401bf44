package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tablekit/tablekit/internal/dataset"
	"github.com/tablekit/tablekit/internal/datasource"
	"github.com/tablekit/tablekit/internal/logging"
	"github.com/tablekit/tablekit/internal/table"
)

// columnMeta is the JSON shape for one column descriptor plus its current
// visibility.
type columnMeta struct {
	ID         string               `json:"id"`
	Label      string               `json:"label"`
	Type       string               `json:"type,omitempty"`
	Options    []table.SelectOption `json:"options,omitempty"`
	Sortable   bool                 `json:"sortable"`
	Filterable bool                 `json:"filterable"`
	Exportable bool                 `json:"exportable"`
	Visible    bool                 `json:"visible"`
}

// datasetInfo is the JSON shape for one catalog entry.
type datasetInfo struct {
	Key     string       `json:"key"`
	Group   string       `json:"group,omitempty"`
	Label   string       `json:"label"`
	Columns []columnMeta `json:"columns"`
	Rows    int          `json:"rows"`
}

// sessionInfo is the JSON shape for session metadata.
type sessionInfo struct {
	ID         string    `json:"id"`
	Dataset    string    `json:"dataset"`
	ServerMode bool      `json:"serverMode"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// viewResponse is the JSON shape of a full session snapshot.
type viewResponse struct {
	Session    sessionInfo          `json:"session"`
	Rows       []table.Record       `json:"rows"`
	Columns    []columnMeta         `json:"columns"`
	Pagination table.PaginationView `json:"pagination"`
	Sorts      []table.SortSpec     `json:"sorts,omitempty"`
	Filters    table.FilterView     `json:"filters"`
	Selection  []string             `json:"selection,omitempty"`
	Expansion  []string             `json:"expansion,omitempty"`
	Fetching   bool                 `json:"fetching,omitempty"`
	FetchError string               `json:"fetchError,omitempty"`
}

// handleListDatasets returns the dataset catalog.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	all := dataset.All()
	out := make([]datasetInfo, len(all))
	for i, ds := range all {
		out[i] = datasetInfo{
			Key:     ds.Key,
			Group:   ds.Group,
			Label:   ds.Label,
			Columns: columnMetaFor(ds.Columns, nil),
			Rows:    len(ds.Records),
		}
	}
	writeJSON(w, out)
}

// createSessionRequest is the payload for opening a session.
type createSessionRequest struct {
	Dataset       string   `json:"dataset"`
	ServerMode    bool     `json:"serverMode"`
	PageSize      int      `json:"pageSize"`
	HiddenColumns []string `json:"hiddenColumns"`
}

// handleCreateSession opens a new table session over a registered dataset.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondBadRequest(w, r, "body", "invalid JSON payload")
		return
	}

	ds, ok := dataset.Get(req.Dataset)
	if !ok {
		s.respondNotFound(w, r, "dataset", req.Dataset)
		return
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = s.cfg.Defaults.PageSize
	}
	if pageSize > s.cfg.Defaults.MaxPageSize {
		s.respondBadRequest(w, r, "pageSize", "exceeds maximum page size")
		return
	}

	opts := table.Options{
		Columns:       ds.Columns,
		Data:          ds.Records,
		Pagination:    table.Pagination{PageSize: pageSize},
		DefaultHidden: req.HiddenColumns,
		Store:         s.store,
		StoreKey:      ds.Key,
		OnError: func(err error) {
			logging.FromContext(r.Context()).Warn("session fetch failed", "dataset", ds.Key, "error", err)
		},
	}

	if req.ServerMode {
		if s.pool == nil {
			s.respondBadRequest(w, r, "serverMode", "no database configured")
			return
		}
		src, err := datasource.New(s.pool, ds.Key, ds.Columns)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		opts.Source = src.DataSource()
		opts.Modes = table.Modes{ServerFiltering: true, ServerSorting: true, ServerPagination: true}
	}

	tbl, err := table.NewTable(opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	sess := s.sessions.Create(ds.Key, req.ServerMode, tbl)
	logging.ForSession(r.Context(), sess.ID, ds.Key).Info("session created",
		"server_mode", req.ServerMode,
	)

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, s.viewResponseFor(sess))
}

// handleListSessions returns metadata for all live sessions.
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	all := s.sessions.All()
	out := make([]sessionInfo, len(all))
	for i, sess := range all {
		out[i] = sessionInfoFor(sess)
	}
	writeJSON(w, out)
}

// handleSessionView returns the full derived snapshot for one session.
func (s *Server) handleSessionView(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.viewResponseFor(sess))
}

// handleDeleteSession closes a session.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if _, ok := s.sessions.Get(id); !ok {
		s.respondNotFound(w, r, "session", id)
		return
	}
	s.sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// session resolves the session named in the URL, writing a 404 when absent.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := chi.URLParam(r, "sessionID")
	sess, ok := s.sessions.Get(id)
	if !ok {
		s.respondNotFound(w, r, "session", id)
		return nil, false
	}
	return sess, true
}

// viewResponseFor assembles the JSON snapshot for a session.
func (s *Server) viewResponseFor(sess *Session) viewResponse {
	vm := sess.Table.View()

	resp := viewResponse{
		Session:    sessionInfoFor(sess),
		Rows:       vm.Rows,
		Columns:    columnMetaFor(sess.Table.Columns(), sess.Table.Visibility()),
		Pagination: vm.Pagination,
		Sorts:      vm.Sorts,
		Filters:    vm.Filters,
		Selection:  vm.Selection,
		Expansion:  vm.Expansion,
		Fetching:   vm.Fetching,
	}
	if vm.FetchErr != nil {
		resp.FetchError = vm.FetchErr.Error()
	}
	return resp
}

func sessionInfoFor(sess *Session) sessionInfo {
	return sessionInfo{
		ID:         sess.ID,
		Dataset:    sess.DatasetKey,
		ServerMode: sess.ServerMode,
		CreatedAt:  sess.CreatedAt,
		UpdatedAt:  sess.Updated(),
	}
}

// columnMetaFor builds column metadata; a nil visibility marks every column
// visible.
func columnMetaFor(columns []table.ColumnDescriptor, vis *table.Visibility) []columnMeta {
	out := make([]columnMeta, len(columns))
	for i, col := range columns {
		visible := true
		if vis != nil {
			visible = vis.IsVisible(col.ID)
		}
		out[i] = columnMeta{
			ID:         col.ID,
			Label:      col.Label,
			Type:       string(col.FilterType),
			Options:    col.FilterOptions,
			Sortable:   col.Sortable,
			Filterable: col.Filterable,
			Exportable: col.Exportable,
			Visible:    visible,
		}
	}
	return out
}
