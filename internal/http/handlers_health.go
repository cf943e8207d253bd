package http

import (
	"context"
	"net/http"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": s.clock().Sub(s.started).Round(time.Second).String(),
	})
}

// handleReady reports 503 while the store cannot be reached.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]any{
		"cache": map[string]int{
			"reports": s.reports.Size(),
			"history": s.history.Size(),
		},
	}
	status, code := "ready", http.StatusOK
	if err := s.svc.Store.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", "error", err)
		checks["store"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}
	if s.limiter != nil {
		checks["rate_limiter"] = map[string]int64{
			"active_clients": int64(s.limiter.ActiveClients()),
			"rejected":       s.limiter.Hits(),
		}
	}
	metrics := s.tracer.GetMetrics()
	checks["requests"] = map[string]int64{
		"total":         metrics.TotalRequests,
		"server_errors": metrics.ServerErrors,
	}

	writeJSON(w, code, map[string]any{
		"status": status,
		"checks": checks,
	})
}
