// Package http exposes the expense tracker as a JSON API. Handlers stay
// thin: parsing and status mapping here, semantics in the services and
// report packages.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"financas/internal/cache"
	applog "financas/internal/log"
	"financas/internal/middleware/ratelimit"
	"financas/internal/middleware/security"
	"financas/internal/middleware/trace"
	"financas/internal/receipt"
	"financas/internal/services"
	"financas/internal/storage"
	"financas/internal/suggest"
)

// Deps collects everything the server needs. Suggester may be nil when no
// API key is configured; the endpoint then reports unavailable.
type Deps struct {
	Expenses   *services.ExpenseService
	Categories *services.CategoryService
	Settings   *services.SettingsService
	Store      storage.Store
	Suggester  *suggest.Client
	Receipts   *receipt.Normalizer
}

type Server struct {
	http.Server

	expenses   *services.ExpenseService
	categories *services.CategoryService
	settings   *services.SettingsService
	store      storage.Store
	suggester  *suggest.Client
	receipts   *receipt.Normalizer

	logger      *applog.Logger
	rateLimiter *ratelimit.Limiter
	detector    *security.Detector

	// Derived-data caches. Any write to expenses, categories or settings
	// clears both; recomputing is cheap, serving stale figures is not.
	summaryCache *cache.LRUCache[summaryResponse]
	chartsCache  *cache.LRUCache[chartsResponse]
	cacheManager *cache.Manager

	shutdownOnce sync.Once

	now func() time.Time
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		expenses:   deps.Expenses,
		categories: deps.Categories,
		settings:   deps.Settings,
		store:      deps.Store,
		suggester:  deps.Suggester,
		receipts:   deps.Receipts,

		logger:      applog.ForComponent(applog.ComponentHTTP),
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:    security.NewDetector(),

		summaryCache: cache.NewLRUCache[summaryResponse](16, 5*time.Minute),
		chartsCache:  cache.NewLRUCache[chartsResponse](100, 5*time.Minute),
		cacheManager: cache.NewManager(),

		now: time.Now,
	}

	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.chartsCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/charts", s.handleCharts)

	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handleUpdateSettings)

	mux.HandleFunc("GET /api/backup", s.handleExportBackup)
	mux.HandleFunc("POST /api/backup", s.handleImportBackup)

	mux.HandleFunc("POST /api/suggest", s.handleSuggest)
	mux.HandleFunc("POST /api/receipts", s.handleReceipt)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(s.detector.ExtractClientIP)

	handler := http.Handler(mux)
	handler = s.limitMutations(handler)
	handler = s.flagProbes(handler)
	handler = security.NoStoreMiddleware(handler)
	handler = headers.Middleware(handler)
	handler = tracer.Middleware(handler)
	s.Handler = handler

	return s
}

// limitMutations rate-limits writes per client IP. Reads stay unlimited so
// dashboard polling never trips the limiter.
func (s *Server) limitMutations(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			clientIP := s.detector.ExtractClientIP(r)
			if !s.rateLimiter.Allow(clientIP) {
				s.logger.WarnContext(r.Context(), "Rate limit exceeded",
					applog.FieldClientIP, clientIP,
					applog.FieldMethod, r.Method,
					applog.FieldPath, r.URL.Path)
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// flagProbes logs suspicious requests without blocking them.
func (s *Server) flagProbes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			s.logger.WarnContext(r.Context(), "Suspicious request detected",
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldUserAgent, r.Header.Get("User-Agent"))
		}
		next.ServeHTTP(w, r)
	})
}

// invalidateDerived drops all cached report figures. Called after every
// write that can change them.
func (s *Server) invalidateDerived() {
	s.summaryCache.Clear()
	s.chartsCache.Clear()
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.Settings(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store not ready")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
