package model

// Feedback is an observed rating reported after a prediction.
type Feedback struct {
	// FeedbackID makes submissions idempotent.
	FeedbackID      string  `json:"feedback_id"`
	StudentID       string  `json:"student_id"`
	ActualRating    float64 `json:"actual_rating"`
	PredictedRating float64 `json:"predicted_rating"`
	WeakCategory    string  `json:"weak_category"`
}

// Delta is the signed difference between actual and predicted ratings.
func (f Feedback) Delta() float64 {
	return f.ActualRating - f.PredictedRating
}
