package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResponseWriter_CapturesStatusAndBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	ww := &responseWriter{ResponseWriter: rec, status: http.StatusOK}

	ww.WriteHeader(http.StatusNotFound)
	ww.WriteHeader(http.StatusOK) // later calls are ignored
	if _, err := ww.Write([]byte("missing")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if ww.status != http.StatusNotFound {
		t.Errorf("status = %d, want %d", ww.status, http.StatusNotFound)
	}
	if ww.written != int64(len("missing")) {
		t.Errorf("written = %d, want %d", ww.written, len("missing"))
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("recorded code = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestResponseWriter_WriteImpliesOK(t *testing.T) {
	rec := httptest.NewRecorder()
	ww := &responseWriter{ResponseWriter: rec, status: http.StatusOK}

	if _, err := ww.Write([]byte("ok")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if ww.status != http.StatusOK {
		t.Errorf("status = %d, want %d", ww.status, http.StatusOK)
	}
	if !ww.wroteHeader {
		t.Error("Write should mark the header as sent")
	}
}
