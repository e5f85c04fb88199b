// Package http exposes the ledger, dashboard and sync operations as a JSON
// API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"financepro/internal/cache"
	"financepro/internal/ledger"
	applog "financepro/internal/log"
	"financepro/internal/report"
	"financepro/internal/syncer"
)

// SyncPublisher enqueues a sync request for the background worker. When no
// queue is configured the server falls back to pushing inline.
type SyncPublisher interface {
	PublishSyncRequest(ctx context.Context, reason string) error
}

type Server struct {
	http.Server

	store     *ledger.Store
	target    syncer.Target
	publisher SyncPublisher
	logger    *applog.Logger

	rateLimiter *rateLimiter

	// Dashboard aggregates are cached per ledger revision; a mutation bumps
	// the revision and the next read recomputes.
	categoryCache *cache.LRU[[]report.CategoryTotal]
	seriesCache   *cache.LRU[[]report.MonthPoint]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// Simple in-memory rate limiter
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		if rl.stopCleanup != nil {
			close(rl.stopCleanup)
		}
	})
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]

	if !exists {
		rl.clients[clientIP] = &clientInfo{
			lastRequest: now,
			requests:    1,
		}
		return true
	}

	// Reset counter if more than 1 minute has passed
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 requests per minute
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

// NewServer configures all routes and returns a ready-to-run server.
// publisher may be nil; sync pushes then run inline in the request.
func NewServer(addr string, store *ledger.Store, target syncer.Target, publisher SyncPublisher, logger *applog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:            store,
		target:           target,
		publisher:        publisher,
		logger:           logger.WithComponent(applog.ComponentHTTP),
		rateLimiter:      newRateLimiter(),
		categoryCache:    cache.NewLRU[[]report.CategoryTotal](100, 5*time.Minute),
		seriesCache:      cache.NewLRU[[]report.MonthPoint](100, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /api/snapshot", s.secure(s.handleGetSnapshot))

	mux.HandleFunc("POST /api/expenses", s.secure(s.handleCreateExpense))
	mux.HandleFunc("DELETE /api/expenses/{id}", s.secure(s.handleDeleteExpense))
	mux.HandleFunc("POST /api/incomes", s.secure(s.handleCreateIncome))
	mux.HandleFunc("DELETE /api/incomes/{id}", s.secure(s.handleDeleteIncome))
	mux.HandleFunc("POST /api/cdts", s.secure(s.handleCreateCDT))
	mux.HandleFunc("DELETE /api/cdts/{id}", s.secure(s.handleDeleteCDT))

	mux.HandleFunc("GET /api/dashboard/summary", s.secure(s.handleSummary))
	mux.HandleFunc("GET /api/dashboard/categories", s.secure(s.handleCategories))
	mux.HandleFunc("GET /api/dashboard/monthly", s.secure(s.handleMonthlySeries))
	mux.HandleFunc("GET /api/dashboard/cdts", s.secure(s.handleCDTOverview))

	mux.HandleFunc("POST /api/sync/push", s.secure(s.handleSyncPush))
	mux.HandleFunc("POST /api/sync/pull", s.secure(s.handleSyncPull))
	mux.HandleFunc("GET /api/settings/sync-url", s.secure(s.handleGetSyncURL))
	mux.HandleFunc("PUT /api/settings/sync-url", s.secure(s.handleSetSyncURL))

	mux.HandleFunc("GET /api/export", s.secure(s.handleExport))
	mux.HandleFunc("POST /api/import", s.secure(s.handleImport))
	mux.HandleFunc("POST /api/reset", s.secure(s.handleReset))

	return s
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			catCleaned := s.categoryCache.CleanExpired()
			seriesCleaned := s.seriesCache.CleanExpired()
			if catCleaned > 0 || seriesCleaned > 0 {
				s.logger.Debug("Cache cleanup completed",
					"category_entries_removed", catCleaned,
					"series_entries_removed", seriesCleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the background cleanup routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// secure adds security headers, rate limiting and request logging.
func (s *Server) secure(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		s.logger.InfoContext(ctx, "Request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP)

		// Rate limit mutations only; dashboard reads are cached and cheap.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.logger.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, duration.Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
