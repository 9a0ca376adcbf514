// Package web provides the HTTP server and handlers for the sheet editor.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/geardb/internal/config"
	"github.com/JonMunkholm/geardb/internal/core"
	mw "github.com/JonMunkholm/geardb/internal/web/middleware"
)

// Server is the HTTP server for one editing session.
type Server struct {
	cfg     *config.Config
	editor  *core.Editor
	store   core.SaveFileStore
	jobs    *core.JobLimiter
	router  *chi.Mux
	server  *http.Server
	limiter *rateLimiter
}

// NewServer wires the router around editor. store backs the /api/files
// routes and jobs bounds concurrent imports and exports.
func NewServer(cfg *config.Config, editor *core.Editor, store core.SaveFileStore, jobs *core.JobLimiter) *Server {
	s := &Server{
		cfg:    cfg,
		editor: editor,
		store:  store,
		jobs:   jobs,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Order matters: the real IP must be known before logging and rate
// limiting, and auth runs last so rejected keys are still logged.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	// Security hardening
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.limiter = newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(s.limiter.middleware)
	}

	s.router.Use(mw.APIKeyAuth(&s.cfg.Security))
}

func (s *Server) setupRoutes() {
	// Pages
	s.router.Get("/", s.handlePreview)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/types", s.handleListTypes)
		r.Get("/status", s.handleStatus)

		// Sheet collection
		r.Get("/sheets", s.handleListSheets)
		r.Post("/sheets", s.handleCreateSheet)
		r.Get("/sheets/{sheetID}", s.handleGetSheet)
		r.Patch("/sheets/{sheetID}", s.handleRenameSheet)
		r.Delete("/sheets/{sheetID}", s.handleDeleteSheet)
		r.Post("/sheets/{sheetID}/activate", s.handleActivateSheet)

		// Active sheet
		r.Route("/sheet", func(r chi.Router) {
			r.Get("/", s.handleActiveSheet)

			r.Post("/columns", s.handleAddColumn)
			r.Patch("/columns/{columnID}", s.handleUpdateColumn)
			r.Delete("/columns/{columnID}", s.handleDeleteColumn)

			r.Post("/rows", s.handleAddRows)
			r.Delete("/rows/{index}", s.handleDeleteRow)

			r.Put("/cells/{rowID}/{columnID}", s.handleSetCell)
			r.Get("/cells/{rowID}/{columnID}/sheet", s.handleGetNested)
			r.Post("/cells/{rowID}/{columnID}/columns", s.handleNestedAddColumn)
			r.Post("/cells/{rowID}/{columnID}/rows", s.handleNestedAddRows)

			r.Post("/import", s.handleImportCSV)
			r.Get("/export.csv", s.handleExportCSV)
			r.Get("/export.xlsx", s.handleExportXLSX)
		})

		// Save files
		r.Get("/savedata", s.handleGetSaveData)
		r.Put("/savedata", s.handlePutSaveData)
		r.Post("/new", s.handleNewWorkbook)
		r.Get("/files", s.handleListFiles)
		r.Post("/files/{name}/save", s.handleSaveFile)
		r.Post("/files/{name}/open", s.handleOpenFile)
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
	if s.limiter != nil {
		s.limiter.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// storeContext bounds a round trip to the save-file store.
func (s *Server) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.Store.Timeout)
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Prevent MIME type sniffing
			w.Header().Set("X-Content-Type-Options", "nosniff")

			// Prevent clickjacking
			w.Header().Set("X-Frame-Options", "DENY")

			// The preview page only uses its own inline styles.
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
			}

			// Control referrer information
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimiter allows rate requests per client IP in each fixed window.
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window
	rate    int
	period  time.Duration
	done    chan struct{}
	once    sync.Once
}

// window is one client's budget for the period starting at start.
type window struct {
	start time.Time
	used  int
}

func newRateLimiter(rate int, period time.Duration) *rateLimiter {
	rl := &rateLimiter{
		clients: make(map[string]*window),
		rate:    rate,
		period:  period,
		done:    make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// sweep forgets clients idle for two periods until stop is called.
func (rl *rateLimiter) sweep() {
	ticker := time.NewTicker(rl.period)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for ip, w := range rl.clients {
				if now.Sub(w.start) > 2*rl.period {
					delete(rl.clients, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.once.Do(func() { close(rl.done) })
}

// allow spends one request from ip's budget.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	w, ok := rl.clients[ip]
	if !ok || now.Sub(w.start) > rl.period {
		rl.clients[ip] = &window{start: now, used: 1}
		return true
	}
	if w.used >= rl.rate {
		return false
	}
	w.used++
	return true
}

// middleware rejects clients over budget with 429. RemoteAddr has already
// been rewritten by TrustedRealIP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.period.Seconds())))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr when present.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// writeError writes a JSON error response for failures detected in the
// web layer itself (bad request bodies, rate limits).
func writeError(w http.ResponseWriter, status int, message string) {
	slog.Warn("http error", "status", status, "message", message)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   message,
		Message: message,
		Code:    "HTTP" + strconv.Itoa(status),
	})
}

// writeJSON writes v with status 200. Encoding errors can only be logged
// because the header is already out.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus is writeJSON with an explicit status code.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
