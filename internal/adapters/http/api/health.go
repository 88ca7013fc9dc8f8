package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/edurate/pkg/metrics"
)

// HealthHandler handles health check requests.
type HealthHandler struct{}

// NewHealthHandler creates a new health handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// HandleHealth handles GET /healthz requests with the Prometheus exposition.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	// Use our custom metrics registry to serve metrics
	promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// StatusDependencies reports what the service can currently do.
type StatusDependencies interface {
	TextGenAvailable() bool
}

// StatusHandler handles the JSON health endpoint.
type StatusHandler struct {
	deps StatusDependencies
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(deps StatusDependencies) *StatusHandler {
	return &StatusHandler{deps: deps}
}

type statusResponse struct {
	Status           string    `json:"status"`
	TextGenAvailable bool      `json:"textgen_available"`
	ModelLoaded      bool      `json:"model_loaded"`
	Timestamp        time.Time `json:"timestamp"`
}

// HandleStatus handles GET /api/health requests.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Status:           "healthy",
		TextGenAvailable: h.deps.TextGenAvailable(),
		ModelLoaded:      true,
		Timestamp:        now(),
	})
}
