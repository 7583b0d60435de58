package control

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// CheckFunc reports whether a dependency is usable.
// netwatch.Watcher.Check and checkpoint.RedisStore.Check have this shape.
type CheckFunc func(ctx context.Context) error

// Checks maps check names to check functions.
type Checks map[string]CheckFunc

// HealthResponse is the JSON body of the health endpoints.
type HealthResponse struct {
	Checks map[string]CheckResult `json:"checks,omitempty"`
	Status string                 `json:"status"`
}

// CheckResult is the outcome of one named check.
type CheckResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func livenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if wantsJSON(r) {
			writeJSON(w, http.StatusOK, &HealthResponse{Status: StatusHealthy})
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

func readinessHandler(checks Checks, timeout time.Duration, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := runChecks(r.Context(), checks, timeout, logger)

		status := http.StatusOK
		if resp.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		if wantsJSON(r) {
			writeJSON(w, status, resp)
			return
		}

		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte("OK"))
		} else {
			_, _ = w.Write([]byte("Service Unavailable"))
		}
	}
}

// runChecks executes all checks concurrently under one timeout.
func runChecks(ctx context.Context, checks Checks, timeout time.Duration, logger *slog.Logger) *HealthResponse {
	if len(checks) == 0 {
		return &HealthResponse{Status: StatusHealthy}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]CheckResult, len(checks))
		failed  bool
	)
	for name, check := range checks {
		wg.Go(func() {
			res := CheckResult{Status: StatusHealthy}
			if err := check(ctx); err != nil {
				res = CheckResult{Status: StatusUnhealthy, Error: err.Error()}
				logger.WarnContext(ctx, "readiness check failed",
					slog.String("check", name),
					slog.String("error", err.Error()),
				)
			}

			mu.Lock()
			defer mu.Unlock()
			results[name] = res
			failed = failed || res.Status == StatusUnhealthy
		})
	}
	wg.Wait()

	status := StatusHealthy
	if failed {
		status = StatusUnhealthy
	}
	return &HealthResponse{Status: status, Checks: results}
}

// wantsJSON checks ?format=json first, then the Accept header.
func wantsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
