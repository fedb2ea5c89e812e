// Package http exposes the ledger over a JSON API: investment CRUD,
// payment marking, reports, settings, and import/export. Every
// response is wrapped in a {data}/{error} envelope.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"lendbook/internal/cache"
	"lendbook/internal/log"
	"lendbook/internal/middleware/ratelimit"
	"lendbook/internal/middleware/security"
	"lendbook/internal/middleware/trace"
	"lendbook/internal/services"
)

const (
	// Report payloads are keyed by snapshot generation, so the TTL only
	// bounds memory, not staleness.
	reportCacheTTL  = 30 * time.Second
	reportCacheSize = 64
	cleanupInterval = 5 * time.Minute
)

// Server wires the ledger service to the JSON API with security
// headers, request tracing, and rate limiting on mutating methods.
type Server struct {
	*http.Server

	service  *services.LedgerService
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	headers  *security.HeadersMiddleware
	detector *security.Detector

	reportCache  *cache.LRUCache[[]byte]
	cacheManager *cache.Manager

	notePolicy services.NotePolicy

	metrics   appMetrics
	startTime time.Time
}

// appMetrics counts domain events for the metrics endpoint.
type appMetrics struct {
	investmentsCreated int64
	paymentsMarked     int64
	importsRun         int64
	exportsServed      int64
}

// NewServer builds the API server around the given service. A nil
// logger falls back to the default text logger.
func NewServer(addr string, service *services.LedgerService, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}

	s := &Server{
		service:      service,
		logger:       logger,
		limiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector:     security.NewDetector(),
		headers:      security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		reportCache:  cache.NewLRUCache[[]byte](reportCacheSize, reportCacheTTL),
		cacheManager: cache.NewManager(),
		startTime:    time.Now(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)
	s.cacheManager.Register(s.reportCache)
	s.cacheManager.StartCleanup(cleanupInterval)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/ready", s.handleReady)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/investments", s.handleListInvestments)
	mux.HandleFunc("POST /api/investments", s.handleCreateInvestment)
	mux.HandleFunc("GET /api/investments/{id}", s.handleGetInvestment)
	mux.HandleFunc("PUT /api/investments/{id}", s.handleUpdateInvestment)
	mux.HandleFunc("DELETE /api/investments/{id}", s.handleDeleteInvestment)
	mux.HandleFunc("POST /api/investments/reorder", s.handleReorderInvestments)
	mux.HandleFunc("POST /api/investments/{id}/renew", s.handleRenewInvestment)
	mux.HandleFunc("POST /api/investments/{id}/copy", s.handleCopyInvestment)
	mux.HandleFunc("POST /api/investments/{id}/payments/{period}", s.handleMarkPayment)
	mux.HandleFunc("POST /api/investments/{id}/bonus", s.handleMarkBonus)
	mux.HandleFunc("POST /api/payments/mark-month", s.handleMarkMonth)

	mux.HandleFunc("GET /api/reports/monthly", s.handleMonthlyReport)
	mux.HandleFunc("GET /api/reports/chart", s.handleChartSeries)
	mux.HandleFunc("GET /api/reports/stats", s.handleStats)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handleUpdateSettings)

	mux.HandleFunc("GET /api/export/table", s.handleExportTable)
	mux.HandleFunc("GET /api/export/json", s.handleExportDocument)
	mux.HandleFunc("POST /api/import/table", s.handleImportTable)
	mux.HandleFunc("POST /api/import/json", s.handleImportDocument)

	handler := s.headers.Middleware(s.tracer.Middleware(s.withScreening(mux)))

	s.Server = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// SetDefaultNotePolicy sets the note policy applied by the bulk
// mark-month endpoint when the request does not name one.
func (s *Server) SetDefaultNotePolicy(policy services.NotePolicy) {
	s.notePolicy = policy
}

// withScreening flags hostile request patterns and rate limits
// mutating methods per client IP. Reads stay unlimited.
func (s *Server) withScreening(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			s.logger.WarnContext(r.Context(), "Suspicious request pattern",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, s.detector.ExtractClientIP(r))
		}

		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			if !s.limiter.Allow(s.detector.ExtractClientIP(r)) {
				w.Header().Set("Retry-After", "60")
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// Shutdown stops the listener, the rate limiter cleanup, and the cache
// manager.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Server.Shutdown(ctx)
	s.limiter.Stop()
	s.cacheManager.Stop()
	if err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
