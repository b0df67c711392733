// Package http provides the web server: authenticated HTML pages, HTMX
// partials, chart and export downloads, and the live update stream.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"spendtrack/internal/cache"
	"spendtrack/internal/log"
	"spendtrack/internal/services"
	"spendtrack/internal/store"
	"spendtrack/internal/stream"
	appweb "spendtrack/web"
)

type Server struct {
	http.Server

	templates *template.Template
	svc       *services.ExpenseService
	users     store.UserStore
	sessions  store.SessionStore
	hub       *stream.Hub
	logger    *log.Logger

	rateLimiter  *rateLimiter
	chartCache   *cache.LRUCache[[]byte]
	cacheManager *cache.Manager

	secureCookie    bool
	sessionDuration time.Duration

	shutdownOnce sync.Once
}

// Options carries the dependencies the server needs.
type Options struct {
	Addr            string
	Service         *services.ExpenseService
	Store           store.Store
	Hub             *stream.Hub
	Logger          *log.Logger
	SecureCookie    bool
	SessionDuration time.Duration
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server.
func NewServer(opts Options) *Server {
	mux := http.NewServeMux()

	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		Server: http.Server{
			Addr:    opts.Addr,
			Handler: mux,
		},
		svc:             opts.Service,
		users:           opts.Store,
		sessions:        opts.Store,
		hub:             opts.Hub,
		logger:          logger.WithComponent(log.ComponentHTTP),
		rateLimiter:     newRateLimiter(),
		chartCache:      cache.NewLRUCache[[]byte](200, 5*time.Minute),
		cacheManager:    cache.NewManager(),
		secureCookie:    opts.SecureCookie,
		sessionDuration: opts.SessionDuration,
	}
	s.cacheManager.Register(s.chartCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	// Remote changes arrive through the hub, not through this instance's
	// write handlers; cached charts go stale either way.
	if s.hub != nil {
		s.hub.OnNotify(func(userID string) {
			s.chartCache.DeletePrefix(userID + "|")
		})
	}

	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html", "templates/partials/*.html")
	if err != nil {
		s.logger.Warn("failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("/logout", s.withSecurityHeaders(s.handleLogout))

	mux.HandleFunc("/", s.withSecurityHeaders(s.requireAuth(s.handleIndex)))
	mux.HandleFunc("/expenses", s.withSecurityHeaders(s.requireAuth(s.handleCreateExpense)))
	mux.HandleFunc("/expenses/delete", s.withSecurityHeaders(s.requireAuth(s.handleDeleteExpense)))

	// UI partials
	mux.HandleFunc("/ui/expense-list", s.withSecurityHeaders(s.requireAuth(s.handleExpenseList)))
	mux.HandleFunc("/ui/stats", s.withSecurityHeaders(s.requireAuth(s.handleStats)))
	mux.HandleFunc("/ui/report", s.withSecurityHeaders(s.requireAuth(s.handleReport)))

	mux.HandleFunc("/report/chart.png", s.withSecurityHeaders(s.requireAuth(s.handleReportChart)))
	mux.HandleFunc("/report/export", s.withSecurityHeaders(s.requireAuth(s.handleReportExport)))

	mux.HandleFunc("/events", s.requireAuth(s.handleEvents))

	return s
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "rate limit exceeded",
				"request_id", requestID, "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusServiceUnavailable)
		return
	}
	if _, err := s.svc.ListExpenses(r.Context(), "readiness-probe"); err != nil {
		s.logger.ErrorContext(r.Context(), "readiness check failed", "error", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
