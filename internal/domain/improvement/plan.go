// Package improvement merges rating advice with teacher notes into an
// improvement strategy and a task list.
package improvement

import "time"

// Strategy sources.
const (
	SourceLive     = "ai"
	SourceFallback = "fallback"
)

// Priority levels.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Task difficulties.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// TaskStatusPending is the status of every newly planned task.
const TaskStatusPending = "pending"

// Strategy is the merged improvement advice.
type Strategy struct {
	MergedStrategy string   `json:"merged_strategy"`
	KeyFocusAreas  []string `json:"key_focus_areas"`
	Reasoning      string   `json:"reasoning"`
	PriorityLevel  string   `json:"priority_level"`
	Source         string   `json:"source"`
}

// Task is one actionable step of a plan.
type Task struct {
	TaskID         int       `json:"task_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	TimeEstimate   string    `json:"time_estimate"`
	Difficulty     string    `json:"difficulty"`
	ExpectedImpact string    `json:"expected_impact"`
	ReusableFor    string    `json:"reusable_for"`
	CreatedDate    time.Time `json:"created_date"`
	Status         string    `json:"status"`

	// XP and TimeEstimateMinutes feed forecasts; generated plans leave them unset.
	XP                  float64 `json:"xp,omitempty"`
	TimeEstimateMinutes float64 `json:"time_estimate_minutes,omitempty"`
}

// Suggestions are the two inputs a plan was merged from.
type Suggestions struct {
	RatingModel string `json:"rating_model"`
	Teacher     string `json:"teacher"`
}

// Plan is a complete improvement plan for one student.
type Plan struct {
	PlanID              string      `json:"plan_id"`
	StudentID           string      `json:"student_id"`
	GeneratedDate       time.Time   `json:"generated_date"`
	WeakCategory        string      `json:"weak_category"`
	MergedStrategy      Strategy    `json:"merged_strategy"`
	Tasks               []Task      `json:"tasks"`
	OriginalSuggestions Suggestions `json:"original_suggestions"`
	ModelVersion        string      `json:"model_version"`
}

// HistoryEntry records that a plan was produced.
type HistoryEntry struct {
	PlanID       string    `json:"plan_id"`
	StudentID    string    `json:"student_id"`
	Date         time.Time `json:"date"`
	WeakCategory string    `json:"weak_category"`
	NumTasks     int       `json:"num_tasks"`
}

// ReusableNote points at earlier plans made for the same weak category.
type ReusableNote struct {
	Note      string `json:"note"`
	Available bool   `json:"available"`
}
