package web

// errors.go provides unified error response handling for the API.
//
// Domain errors carry enough type information to pick an HTTP status:
// validation failures map to 400, unknown resources to 404, data source
// failures to 502, and persistence failures to 500. The technical error is
// logged with the request ID for correlation; clients get a stable JSON
// shape with a machine-readable code.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/tablekit/tablekit/internal/table"
)

// ErrorResponse is the JSON structure for API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError logs the technical error server-side and writes a JSON error
// response with a status derived from the error's type.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classifyError(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error: err.Error(),
		Code:  code,
	})
}

// classifyError maps domain error types to HTTP status and error code.
func classifyError(err error) (int, string) {
	var (
		vErr *table.ValidationError
		nErr *table.NotFoundError
		dErr *table.DataSourceError
		pErr *table.PersistenceError
	)

	switch {
	case errors.As(err, &vErr):
		return http.StatusBadRequest, "VALIDATION"
	case errors.As(err, &nErr):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.As(err, &dErr):
		return http.StatusBadGateway, "DATA_SOURCE"
	case errors.As(err, &pErr):
		return http.StatusInternalServerError, "PERSISTENCE"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

// respondBadRequest writes a 400 for malformed request payloads.
func (s *Server) respondBadRequest(w http.ResponseWriter, r *http.Request, field, reason string) {
	s.respondError(w, r, &table.ValidationError{Field: field, Reason: reason})
}

// respondNotFound writes a 404 for unknown resources.
func (s *Server) respondNotFound(w http.ResponseWriter, r *http.Request, kind, id string) {
	s.respondError(w, r, &table.NotFoundError{Kind: kind, ID: id})
}
