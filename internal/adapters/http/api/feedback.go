package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/edurate/internal/adapters/mq/queue"
	"github.com/okian/edurate/internal/domain/model"
)

// FeedbackDependencies defines the interface for feedback submission.
type FeedbackDependencies interface {
	// SubmitFeedback queues feedback; duplicate reports an already seen id.
	SubmitFeedback(ctx context.Context, fb model.Feedback) (id string, duplicate bool, err error)
}

// FeedbackHandler handles feedback requests.
type FeedbackHandler struct {
	deps FeedbackDependencies
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(deps FeedbackDependencies) *FeedbackHandler {
	return &FeedbackHandler{deps: deps}
}

// feedbackRequest mirrors the OpenAPI schema for POST /api/feedback.
type feedbackRequest struct {
	FeedbackID      string   `json:"feedback_id"`
	StudentID       string   `json:"student_id"`
	PredictedRating *float64 `json:"predicted_rating"`
	ActualRating    *float64 `json:"actual_rating"`
	WeakCategory    string   `json:"weak_category"`
}

func (f feedbackRequest) validate() error {
	switch {
	case strings.TrimSpace(f.StudentID) == "":
		return errors.New("missing student_id")
	case f.PredictedRating == nil:
		return errors.New("missing predicted_rating")
	case f.ActualRating == nil:
		return errors.New("missing actual_rating")
	}
	return nil
}

type feedbackResponse struct {
	Success    bool      `json:"success"`
	Message    string    `json:"message"`
	FeedbackID string    `json:"feedback_id"`
	Duplicate  bool      `json:"duplicate"`
	Timestamp  time.Time `json:"timestamp"`
}

// HandlePostFeedback handles POST /api/feedback requests. Feedback is applied
// asynchronously; 202 means queued, 200 means the id was already seen.
func (h *FeedbackHandler) HandlePostFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}

	id, duplicate, err := h.deps.SubmitFeedback(r.Context(), model.Feedback{
		FeedbackID:      strings.TrimSpace(req.FeedbackID),
		StudentID:       req.StudentID,
		PredictedRating: *req.PredictedRating,
		ActualRating:    *req.ActualRating,
		WeakCategory:    req.WeakCategory,
	})
	if err != nil {
		if errors.Is(err, queue.ErrFull) {
			writeError(w, http.StatusTooManyRequests, "backpressure", fmt.Errorf("%w: %v", ErrBackpressure, err))
			return
		}
		writeFailure(w, err)
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, feedbackResponse{
			Success: true, Message: "Feedback already recorded", FeedbackID: id, Duplicate: true, Timestamp: now(),
		})
		return
	}
	writeJSON(w, http.StatusAccepted, feedbackResponse{
		Success: true, Message: "Feedback recorded successfully", FeedbackID: id, Timestamp: now(),
	})
}
