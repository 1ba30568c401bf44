// Package web provides the HTTP server and JSON API for table sessions.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablekit/tablekit/internal/config"
	"github.com/tablekit/tablekit/internal/dataset"
	"github.com/tablekit/tablekit/internal/persist"
	"github.com/tablekit/tablekit/internal/web/middleware"
)

// Server is the HTTP server for the table session API.
type Server struct {
	cfg      *config.Config
	store    persist.Store
	pool     *pgxpool.Pool
	sessions *SessionStore
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a new Server instance. The pool may be nil; sessions
// then run entirely in client mode.
func NewServer(cfg *config.Config, store persist.Store, pool *pgxpool.Pool) *Server {
	s := &Server{
		cfg:      cfg,
		store:    store,
		pool:     pool,
		sessions: NewSessionStore(),
	}
	s.router = chi.NewRouter()
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))

	s.router.Use(securityHeaders)

	// Rate limiting: 100 requests per minute per IP
	limiter := newRateLimiter(100, time.Minute)
	s.router.Use(limiter.middleware)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Dataset catalog
		r.Get("/datasets", s.handleListDatasets)

		// Session lifecycle
		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions", s.handleCreateSession)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleSessionView)
			r.Delete("/", s.handleDeleteSession)

			// Pagination and sorting
			r.Post("/page", s.handleSetPage)
			r.Post("/page-size", s.handleSetPageSize)
			r.Post("/sorts", s.handleSetSorts)
			r.Post("/sorts/toggle", s.handleToggleSort)

			// Filtering
			r.Post("/filters/{columnID}", s.handleSetFilter)
			r.Delete("/filters/{columnID}", s.handleRemoveFilter)
			r.Delete("/filters", s.handleClearFilters)
			r.Post("/groups", s.handleSetGroups)
			r.Post("/search", s.handleSetSearch)

			// Presets
			r.Get("/presets", s.handleListPresets)
			r.Post("/presets", s.handleSavePreset)
			r.Post("/presets/{presetID}/load", s.handleLoadPreset)
			r.Delete("/presets/{presetID}", s.handleDeletePreset)

			// Column visibility
			r.Get("/columns", s.handleColumnState)
			r.Post("/columns/{columnID}/toggle", s.handleToggleColumn)
			r.Post("/columns/toggle-all", s.handleToggleAllColumns)
			r.Post("/columns/reset", s.handleResetColumns)

			// Selection and expansion
			r.Post("/selection", s.handleSelection)
			r.Post("/expansion", s.handleExpansion)

			// State control
			r.Post("/reset", s.handleResetSession)
			r.Post("/refresh", s.handleRefreshSession)

			// Export
			r.Get("/export", s.handleExportCSV)
		})
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":   "ok",
		"datasets": dataset.Count(),
		"sessions": s.sessions.Count(),
	})
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	// Start cleanup goroutine
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every minute.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{
			tokens:    rl.rate - 1, // consume one token
			lastReset: time.Now(),
		}
		return true
	}

	// Reset tokens if window has passed
	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	// Check if we have tokens left
	if v.tokens <= 0 {
		return false
	}

	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		// Use X-Real-IP if set (by RealIP middleware)
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			ip = realIP
		}

		if !rl.allow(ip) {
			w.Header().Set("Retry-After", "60")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit exceeded"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
