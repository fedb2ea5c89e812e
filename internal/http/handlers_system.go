package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
	})
}

// handleReady probes the storage path. A failing check answers 503 so
// orchestrators hold traffic until the store is reachable.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := map[string]string{"storage": "ok"}
	if _, err := s.service.Generation(ctx); err != nil {
		status = http.StatusServiceUnavailable
		checks["storage"] = err.Error()
	}

	state := "ready"
	if status != http.StatusOK {
		state = "unavailable"
	}
	writeData(w, status, map[string]any{
		"status": state,
		"checks": checks,
	})
}

// handleMetrics exposes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	uptime := int64(time.Since(s.startTime).Seconds())
	traceMetrics := s.tracer.GetMetrics()
	limiterMetrics := s.limiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()

	fmt.Fprintf(w, "# HELP lendbook_uptime_seconds Time since the server started.\n")
	fmt.Fprintf(w, "# TYPE lendbook_uptime_seconds counter\n")
	fmt.Fprintf(w, "lendbook_uptime_seconds %d\n\n", uptime)

	fmt.Fprintf(w, "# HELP lendbook_requests_total Total HTTP requests handled.\n")
	fmt.Fprintf(w, "# TYPE lendbook_requests_total counter\n")
	fmt.Fprintf(w, "lendbook_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP lendbook_response_time_avg_microseconds Average response time.\n")
	fmt.Fprintf(w, "# TYPE lendbook_response_time_avg_microseconds gauge\n")
	fmt.Fprintf(w, "lendbook_response_time_avg_microseconds %d\n\n", traceMetrics.AverageResponseTime)

	fmt.Fprintf(w, "# HELP lendbook_rate_limit_hits_total Requests rejected by the rate limiter.\n")
	fmt.Fprintf(w, "# TYPE lendbook_rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "lendbook_rate_limit_hits_total %d\n\n", limiterMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP lendbook_rate_limit_clients Active clients tracked by the rate limiter.\n")
	fmt.Fprintf(w, "# TYPE lendbook_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "lendbook_rate_limit_clients %d\n\n", limiterMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP lendbook_suspicious_requests_total Requests matching hostile patterns.\n")
	fmt.Fprintf(w, "# TYPE lendbook_suspicious_requests_total counter\n")
	fmt.Fprintf(w, "lendbook_suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP lendbook_investments_created_total Investments created, renewed, or copied.\n")
	fmt.Fprintf(w, "# TYPE lendbook_investments_created_total counter\n")
	fmt.Fprintf(w, "lendbook_investments_created_total %d\n\n", atomic.LoadInt64(&s.metrics.investmentsCreated))

	fmt.Fprintf(w, "# HELP lendbook_payments_marked_total Payment periods marked via the API.\n")
	fmt.Fprintf(w, "# TYPE lendbook_payments_marked_total counter\n")
	fmt.Fprintf(w, "lendbook_payments_marked_total %d\n\n", atomic.LoadInt64(&s.metrics.paymentsMarked))

	fmt.Fprintf(w, "# HELP lendbook_imports_total Import runs accepted.\n")
	fmt.Fprintf(w, "# TYPE lendbook_imports_total counter\n")
	fmt.Fprintf(w, "lendbook_imports_total %d\n\n", atomic.LoadInt64(&s.metrics.importsRun))

	fmt.Fprintf(w, "# HELP lendbook_exports_total Export payloads served.\n")
	fmt.Fprintf(w, "# TYPE lendbook_exports_total counter\n")
	fmt.Fprintf(w, "lendbook_exports_total %d\n\n", atomic.LoadInt64(&s.metrics.exportsServed))

	fmt.Fprintf(w, "# HELP lendbook_report_cache_entries Cached report payloads.\n")
	fmt.Fprintf(w, "# TYPE lendbook_report_cache_entries gauge\n")
	fmt.Fprintf(w, "lendbook_report_cache_entries %d\n", s.reportCache.Size())
}
