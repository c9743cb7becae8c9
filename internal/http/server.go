// Package http exposes the JSON API: transaction CRUD, period summaries,
// and the Google sign-in flow.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// UserStore provisions accounts resolved by the OAuth callback.
type UserStore interface {
	UpsertUser(ctx context.Context, u core.User) (core.User, error)
}

// ActivityReader serves the recent-activity feed. Nil when the backend has
// no audit log.
type ActivityReader interface {
	RecentAuditEvents(ctx context.Context, ownerID string, limit int) ([]storage.AuditEntry, error)
}

type Server struct {
	http.Server

	transactions *services.TransactionService
	summaries    *cache.SummaryCache
	cacheManager *cache.Manager
	rateLimiter  *rateLimiter

	tokens   *auth.Manager
	google   *auth.GoogleAuthenticator
	users    UserStore
	activity ActivityReader

	shutdownOnce sync.Once
}

// Options carries the optional collaborators.
type Options struct {
	Google           *auth.GoogleAuthenticator
	Users            UserStore
	Activity         ActivityReader
	RateLimitPerMin  int
	SummaryCacheSize int
	SummaryCacheTTL  time.Duration
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, txService *services.TransactionService, tokens *auth.Manager, opts Options) *Server {
	if opts.RateLimitPerMin <= 0 {
		opts.RateLimitPerMin = 60
	}
	if opts.SummaryCacheSize <= 0 {
		opts.SummaryCacheSize = 256
	}
	if opts.SummaryCacheTTL <= 0 {
		opts.SummaryCacheTTL = 5 * time.Minute
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		transactions: txService,
		summaries:    cache.NewSummaryCache(opts.SummaryCacheSize, opts.SummaryCacheTTL),
		cacheManager: cache.NewManager(),
		rateLimiter:  newRateLimiter(opts.RateLimitPerMin),
		tokens:       tokens,
		google:       opts.Google,
		users:        opts.Users,
		activity:     opts.Activity,
	}

	s.cacheManager.Register(s.summaries)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/auth/google", s.withRequestLogging(s.handleGoogleLogin))
	mux.HandleFunc("/api/auth/google/callback", s.withRequestLogging(s.handleGoogleCallback))
	mux.HandleFunc("/api/auth/logout", s.withRequestLogging(s.handleLogout))

	mux.Handle("/api/auth/check", s.protected(s.handleAuthCheck))
	mux.Handle("/api/transactions", s.protected(s.handleTransactions))
	mux.Handle("/api/transactions/", s.protected(s.handleTransactionByID))
	mux.Handle("/api/summary", s.protected(s.handleSummary))
	mux.Handle("/api/activity", s.protected(s.handleActivity))

	return s
}

// protected wraps a handler with request logging, rate limiting, and auth.
func (s *Server) protected(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(s.withRequestLogging(func(w http.ResponseWriter, r *http.Request) {
		s.tokens.Middleware(next).ServeHTTP(w, r)
	}))
}

// withRequestLogging adds security headers, rate limiting on mutating
// methods, a request id, and structured request logs.
func (s *Server) withRequestLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
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

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

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
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
