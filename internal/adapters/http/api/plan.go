package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	service "github.com/okian/edurate/internal/app"
	"github.com/okian/edurate/internal/domain/improvement"
	"github.com/okian/edurate/internal/domain/prediction"
)

// PlanDependencies defines the interface for improvement plans and forecasts.
type PlanDependencies interface {
	CreatePlan(ctx context.Context, req service.PlanRequest) (service.PlanResult, error)
	Predict(ctx context.Context, req service.PredictRequest) (prediction.Prediction, error)
}

// PlanHandler handles improvement plan and prediction requests.
type PlanHandler struct {
	deps PlanDependencies
}

// NewPlanHandler creates a new plan handler.
func NewPlanHandler(deps PlanDependencies) *PlanHandler {
	return &PlanHandler{deps: deps}
}

type planRequest struct {
	Student        studentRequest `json:"student"`
	Recommendation string         `json:"recommendation"`
	WeakCategory   string         `json:"weak_category"`
	TeacherNote    string         `json:"teacher_note"`
	NumTasks       int            `json:"num_tasks"`
}

type planResponse struct {
	Success   bool                       `json:"success"`
	Plan      improvement.Plan           `json:"plan"`
	Reusable  []improvement.ReusableNote `json:"reusable_tasks"`
	Timestamp time.Time                  `json:"timestamp"`
}

type predictRequest struct {
	Student   studentRequest     `json:"student"`
	Tasks     []improvement.Task `json:"tasks"`
	Timelines []string           `json:"timelines"`
}

type predictResponse struct {
	Success    bool                  `json:"success"`
	Prediction prediction.Prediction `json:"prediction"`
	Timestamp  time.Time             `json:"timestamp"`
}

// HandleCreatePlan handles POST /api/improvement-plan requests.
func (h *PlanHandler) HandleCreatePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req planRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	if req.NumTasks < 0 || req.NumTasks > improvement.MaxTasks {
		writeError(w, http.StatusBadRequest, "bad_request",
			fmt.Errorf("%w: num_tasks must be between 1 and %d", ErrBadRequest, improvement.MaxTasks))
		return
	}

	res, err := h.deps.CreatePlan(r.Context(), service.PlanRequest{
		Record:         req.Student.record(),
		Recommendation: req.Recommendation,
		WeakCategory:   req.WeakCategory,
		TeacherNote:    req.TeacherNote,
		NumTasks:       req.NumTasks,
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, planResponse{
		Success:   true,
		Plan:      res.Plan,
		Reusable:  res.Reusable,
		Timestamp: now(),
	})
}

// HandlePredict handles POST /api/predict requests.
func (h *PlanHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req predictRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}

	p, err := h.deps.Predict(r.Context(), service.PredictRequest{
		Record:    req.Student.record(),
		Tasks:     req.Tasks,
		Timelines: req.Timelines,
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, predictResponse{Success: true, Prediction: p, Timestamp: now()})
}
