package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"fxresolver/internal/currency"
)

const (
	readyOK       = "ok"
	readyDisabled = "disabled"
	checkTimeout  = 2 * time.Second
)

// ResolverInfo describes the configured resolution chain.
type ResolverInfo interface {
	Pivot() currency.Code
	AdapterCount() int
	ReferenceVersion() string
}

// ResolverStatus is the resolution chain part of the readiness response
type ResolverStatus struct {
	Pivot            string `json:"pivot" example:"USD"`
	Adapters         int    `json:"adapters" example:"3"`
	ReferenceVersion string `json:"reference_version" example:"2026.1"`
}

// ReadyResponse represents the readiness response
type ReadyResponse struct {
	Status   string            `json:"status" example:"ready"`
	Checks   map[string]string `json:"checks"`
	Resolver *ResolverStatus   `json:"resolver,omitempty"`
}

// HandleHealthz godoc
// @Summary Health check (liveness)
// @Description Always returns 200 OK if the service is running. Used for liveness probes.
// @Tags health
// @Produce plain
// @Success 200 {string} string "OK"
// @Router /healthz [get]
func HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("OK"))
	}
}

// HandleReadyz godoc
// @Summary Readiness check
// @Description Pings each configured dependency (postgres, cache and queue Redis) and reports them individually. Unconfigured dependencies are reported as disabled. Rate resolution never blocks readiness because it degrades to local tiers; its pivot, adapter count and reference table version are reported for diagnosis.
// @Tags health
// @Produce json
// @Success 200 {object} ReadyResponse "All configured dependencies ready"
// @Failure 503 {object} ReadyResponse "At least one dependency unavailable"
// @Router /readyz [get]
func HandleReadyz(info ResolverInfo, db *sql.DB, cache, asynqRedis *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		resp := ReadyResponse{Status: "ready", Checks: map[string]string{
			"postgres": readyDisabled,
			"cache":    readyDisabled,
			"queue":    readyDisabled,
		}}
		if info != nil {
			resp.Resolver = &ResolverStatus{
				Pivot:            info.Pivot().String(),
				Adapters:         info.AdapterCount(),
				ReferenceVersion: info.ReferenceVersion(),
			}
		}
		record := func(name string, err error) {
			if err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "not ready"
				return
			}
			resp.Checks[name] = readyOK
		}

		if db != nil {
			record("postgres", db.PingContext(ctx))
		}
		if cache != nil {
			record("cache", cache.Ping(ctx).Err())
		}
		if asynqRedis != nil {
			record("queue", asynqRedis.Ping(ctx).Err())
		}

		status := http.StatusOK
		if resp.Status != "ready" {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}
