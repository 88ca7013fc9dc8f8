package service

import (
	"context"

	"github.com/okian/edurate/internal/domain/improvement"
	"github.com/okian/edurate/internal/domain/model"
	"github.com/okian/edurate/internal/domain/prediction"
)

// PlanRequest asks for an improvement plan. When WeakCategory is empty the
// record is rated first and its recommendation is used.
type PlanRequest struct {
	Record         model.StudentRecord
	Recommendation string
	WeakCategory   string
	TeacherNote    string
	// NumTasks falls back to the configured default when zero.
	NumTasks int
}

// PlanResult is a plan plus notes about earlier plans for the same category.
type PlanResult struct {
	Plan     improvement.Plan
	Reusable []improvement.ReusableNote
}

// CreatePlan builds an improvement plan.
func (s *Service) CreatePlan(ctx context.Context, req PlanRequest) (PlanResult, error) {
	if err := s.ready(); err != nil {
		return PlanResult{}, err
	}

	weak, advice := req.WeakCategory, req.Recommendation
	if weak == "" {
		a, err := s.rate(ctx, req.Record)
		if err != nil {
			return PlanResult{}, err
		}
		weak, advice = a.Recommendation.WeakCategory, a.Recommendation.Text
	}

	n := req.NumTasks
	if n == 0 {
		n = s.defaultTasks
	}

	// Earlier plans are looked up before this one joins the history.
	reusable := s.planner.ReusableTasks(weak)
	plan, err := s.planner.CreatePlan(ctx, req.Record, advice, req.TeacherNote, weak, n)
	if err != nil {
		return PlanResult{}, err
	}
	return PlanResult{Plan: plan, Reusable: reusable}, nil
}

// PredictRequest asks for an improvement forecast.
type PredictRequest struct {
	Record model.StudentRecord
	Tasks  []improvement.Task
	// Timelines selects timeline codes; empty means all of them.
	Timelines []string
}

// Predict forecasts the record's improvement under the planned tasks.
func (s *Service) Predict(ctx context.Context, req PredictRequest) (prediction.Prediction, error) {
	if err := s.ready(); err != nil {
		return prediction.Prediction{}, err
	}
	return s.predictor.Predict(ctx, req.Record, req.Tasks, req.Timelines...)
}
