// Package http exposes the budget services as a JSON API.
package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"budget/internal/cache"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/middleware/ratelimit"
	"budget/internal/middleware/security"
	"budget/internal/middleware/trace"
	"budget/internal/services"
)

const (
	userIDHeader   = "X-User-ID"
	maxBodyBytes   = 1 << 20
	maxImportBytes = 10 << 20
)

type Config struct {
	Addr           string
	RequestTimeout time.Duration
	// RateLimit is requests per minute per user (or IP); 0 disables.
	RateLimit int
	CacheTTL  time.Duration
	CacheSize int
}

type Server struct {
	http.Server
	svc     *services.Services
	logger  *log.Logger
	clock   services.Clock
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
	started time.Time

	// Read models keyed by cache.Key(user, ...); dropped per user on writes.
	reports *cache.LRUCache[core.AnalyticsReport]
	history *cache.LRUCache[core.History]

	cacheManager   *cache.Manager
	stopCleanup    context.CancelFunc
	shutdownOnce   sync.Once
	requestTimeout time.Duration
}

// NewServer wires routes and middleware. Call Shutdown to stop the
// background cleanup goroutines as well as the listener.
func NewServer(cfg Config, svc *services.Services, clock services.Clock, logger *log.Logger) *Server {
	if clock == nil {
		clock = services.SystemClock
	}
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		svc:            svc,
		logger:         logger,
		clock:          clock,
		tracer:         trace.NewMiddleware(security.ClientIP),
		started:        clock(),
		reports:        cache.NewLRUCache[core.AnalyticsReport](cfg.CacheSize, cfg.CacheTTL),
		history:        cache.NewLRUCache[core.History](cfg.CacheSize, cfg.CacheTTL),
		cacheManager:   cache.NewManager(),
		requestTimeout: cfg.RequestTimeout,
	}
	s.cacheManager.Register(s.reports)
	s.cacheManager.Register(s.history)
	ctx, cancel := context.WithCancel(context.Background())
	s.stopCleanup = cancel
	s.cacheManager.StartCleanup(ctx, 10*time.Minute)

	mux := http.NewServeMux()
	s.routes(mux)

	api := http.Handler(mux)
	if cfg.RateLimit > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimit})
		api = s.limiter.Middleware(rateLimitKey, s.handleRateLimited)(api)
	}
	api = s.withTimeout(api)
	api = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(api)
	api = s.tracer.Middleware(api)
	api = log.Middleware(logger)(api)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /dashboard", s.handleDashboard)

	mux.HandleFunc("GET /transactions", s.handleListTransactions)
	mux.HandleFunc("POST /transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /categories", s.handleListCategories)
	mux.HandleFunc("POST /categories", s.handleCreateCategory)
	mux.HandleFunc("DELETE /categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /currencies", s.handleListCurrencies)
	mux.HandleFunc("POST /currencies", s.handleCreateCurrency)
	mux.HandleFunc("PUT /currencies/{code}/rate", s.handleUpdateRate)
	mux.HandleFunc("DELETE /currencies/{id}", s.handleDeleteCurrency)

	mux.HandleFunc("GET /budgets", s.handleListBudgets)
	mux.HandleFunc("POST /budgets", s.handleCreateBudget)
	mux.HandleFunc("DELETE /budgets/{id}", s.handleDeleteBudget)
	mux.HandleFunc("GET /budgets/report", s.handleBudgetReport)

	mux.HandleFunc("GET /monthly-budgets", s.handleListMonthlyBudgets)
	mux.HandleFunc("POST /monthly-budgets", s.handleCreateMonthlyBudget)
	mux.HandleFunc("PUT /monthly-budgets/{id}", s.handleUpdateMonthlyBudget)
	mux.HandleFunc("GET /monthly-budgets/summary", s.handleMonthlySummary)

	mux.HandleFunc("GET /recurring", s.handleListRecurring)
	mux.HandleFunc("POST /recurring", s.handleCreateRecurring)
	mux.HandleFunc("PATCH /recurring/{id}", s.handleSetRecurringActive)
	mux.HandleFunc("DELETE /recurring/{id}", s.handleDeleteRecurring)
	mux.HandleFunc("POST /recurring/process", s.handleProcessRecurring)

	mux.HandleFunc("GET /analytics", s.handleAnalytics)
	mux.HandleFunc("GET /summary", s.handleSummary)

	mux.HandleFunc("GET /preferences", s.handleGetPreferences)
	mux.HandleFunc("PUT /preferences", s.handleUpdatePreferences)

	mux.HandleFunc("GET /export.csv", s.handleExport)
	mux.HandleFunc("POST /import", s.handleImport)
}

// Shutdown stops the listener, then the cleanup goroutines. Safe to call
// more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.Server.Shutdown(ctx)
		s.stopCleanup()
		s.cacheManager.Wait()
		if s.limiter != nil {
			s.limiter.Stop()
		}
	})
	return err
}

func (s *Server) withTimeout(next http.Handler) http.Handler {
	if s.requestTimeout <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// rateLimitKey throttles per user when identified, per address otherwise.
func rateLimitKey(r *http.Request) string {
	if id, err := strconv.ParseInt(r.Header.Get(userIDHeader), 10, 64); err == nil && id > 0 {
		return "user:" + strconv.FormatInt(id, 10)
	}
	return "ip:" + security.ClientIP(r)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, security.ClientIP(r),
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
}

// invalidate drops every cached read model of userID.
func (s *Server) invalidate(userID int64) {
	prefix := cache.UserPrefix(userID)
	n := s.reports.DeletePrefix(prefix) + s.history.DeletePrefix(prefix)
	if n > 0 {
		s.logger.Debug("Invalidated cached reports", log.FieldUserID, userID, "entries", n)
	}
}
