package api

import (
	"context"
	"net/http"
	"time"

	"github.com/okian/edurate/internal/domain/rating"
)

// PerformanceDependencies defines the interface for model performance reads.
type PerformanceDependencies interface {
	Performance(ctx context.Context) (rating.Performance, error)
}

// PerformanceHandler handles performance requests.
type PerformanceHandler struct {
	deps PerformanceDependencies
}

// NewPerformanceHandler creates a new performance handler.
func NewPerformanceHandler(deps PerformanceDependencies) *PerformanceHandler {
	return &PerformanceHandler{deps: deps}
}

type performanceResponse struct {
	Success   bool               `json:"success"`
	Metrics   rating.Performance `json:"metrics"`
	Timestamp time.Time          `json:"timestamp"`
}

// HandlePerformance handles GET /api/performance requests.
func (h *PerformanceHandler) HandlePerformance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	p, err := h.deps.Performance(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, performanceResponse{Success: true, Metrics: p, Timestamp: now()})
}
