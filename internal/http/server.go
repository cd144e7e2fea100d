package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/smartyoni/inaeFlexbook/internal/backend"
	"github.com/smartyoni/inaeFlexbook/internal/cache"
)

// Server is the JSON API over one backend. Report responses are cached
// per query; every write purges the cache so aggregates never go stale.
type Server struct {
	http.Server
	backend     *backend.Backend
	rateLimiter *rateLimiter

	reportCache  *cache.LRUCache[[]byte]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, b *backend.Backend) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		backend:      b,
		rateLimiter:  newRateLimiter(),
		reportCache:  cache.NewLRUCache[[]byte](200, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}

	s.cacheManager.Register(s.reportCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	// Reports
	mux.HandleFunc("GET /api/reports/category", s.secure(s.handleCategoryReport))
	mux.HandleFunc("GET /api/reports/payment-method", s.secure(s.handlePaymentMethodReport))
	mux.HandleFunc("GET /api/reports/daily", s.secure(s.handleDailyReport))
	mux.HandleFunc("GET /api/reports/trend", s.secure(s.handleTrendReport))
	mux.HandleFunc("GET /api/summary", s.secure(s.handleSummary))

	// Transactions
	mux.HandleFunc("GET /api/transactions", s.secure(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.secure(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/{id}", s.secure(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.secure(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.secure(s.handleDeleteTransaction))

	// Categories
	mux.HandleFunc("GET /api/categories", s.secure(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.secure(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.secure(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.secure(s.handleDeleteCategory))
	mux.HandleFunc("POST /api/categories/reorder", s.secure(s.handleReorderCategories))

	// Payment methods
	mux.HandleFunc("GET /api/payment-methods", s.secure(s.handleListPaymentMethods))
	mux.HandleFunc("POST /api/payment-methods", s.secure(s.handleCreatePaymentMethod))
	mux.HandleFunc("PUT /api/payment-methods/{id}", s.secure(s.handleUpdatePaymentMethod))
	mux.HandleFunc("DELETE /api/payment-methods/{id}", s.secure(s.handleDeletePaymentMethod))
	mux.HandleFunc("POST /api/payment-methods/reorder", s.secure(s.handleReorderPaymentMethods))

	// Recurring templates
	mux.HandleFunc("GET /api/recurring", s.secure(s.handleListRecurring))
	mux.HandleFunc("POST /api/recurring", s.secure(s.handleCreateRecurring))
	mux.HandleFunc("GET /api/recurring/{id}", s.secure(s.handleGetRecurring))
	mux.HandleFunc("PUT /api/recurring/{id}", s.secure(s.handleUpdateRecurring))
	mux.HandleFunc("DELETE /api/recurring/{id}", s.secure(s.handleDeleteRecurring))

	// Projects
	mux.HandleFunc("GET /api/projects", s.secure(s.handleListProjects))
	mux.HandleFunc("POST /api/projects", s.secure(s.handleCreateProject))
	mux.HandleFunc("GET /api/projects/{id}", s.secure(s.handleGetProject))
	mux.HandleFunc("GET /api/projects/{id}/transactions", s.secure(s.handleProjectTransactions))
	mux.HandleFunc("PUT /api/projects/{id}", s.secure(s.handleUpdateProject))
	mux.HandleFunc("DELETE /api/projects/{id}", s.secure(s.handleDeleteProject))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// purgeReportCache is called after any write so the next report read
// recomputes from the store.
func (s *Server) purgeReportCache() {
	s.reportCache.Purge()
}

// secure adds security headers, rate limiting, request IDs and request
// logging around a handler.
func (s *Server) secure(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP,
				"method", r.Method,
				"url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}
