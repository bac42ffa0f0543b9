package http

import (
	"net/http"
	"time"

	"github.com/taskgrove/taskadmin/internal/auth/service"
	"github.com/taskgrove/taskadmin/internal/auth/store"
	"github.com/taskgrove/taskadmin/pkg/httpx"
)

// HealthChecks reports the state of critical dependencies.
type HealthChecks struct {
	Database string `json:"database,omitempty"`
	Signer   string `json:"signer,omitempty"`
}

// HealthResponse is the body of the livez and readyz probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// LivezHandler is the liveness probe: 200 whenever the process is serving.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler is the readiness probe: checks database connectivity and
// that signing key material is obtainable.
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	tokens *service.TokenService,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &HealthChecks{
			Database: "ok",
			Signer:   "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if _, err := tokens.JWKSet(); err != nil {
			checks.Signer = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
