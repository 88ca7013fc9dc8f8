package improvement

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/okian/edurate/internal/domain/model"
	"github.com/okian/edurate/pkg/logger"
	"github.com/okian/edurate/pkg/metrics"
)

const (
	mergeSystem = "You are an expert educational advisor who creates personalized improvement strategies. Always respond in valid JSON format."
	tasksSystem = "You are an expert educational task planner. Create specific, actionable tasks. Always respond in valid JSON format."

	mergeTemperature = 0.3
	mergeMaxTokens   = 500
	tasksTemperature = 0.4
	tasksMaxTokens   = 800
)

// Completer is the text generation capability the live advisor needs.
type Completer interface {
	Complete(ctx context.Context, p model.Prompt) (string, error)
}

// LLMAdvisor asks a text generation service for the strategy and tasks.
// Each step falls back to the template advisor independently.
type LLMAdvisor struct {
	client   Completer
	fallback FallbackAdvisor
	now      func() time.Time
	log      logger.Logger
}

// LLMOption configures an LLMAdvisor.
type LLMOption func(*LLMAdvisor)

// WithAdvisorClock overrides the time source for task dates.
func WithAdvisorClock(now func() time.Time) LLMOption {
	return func(a *LLMAdvisor) {
		if now != nil {
			a.now = now
		}
	}
}

// WithAdvisorLogger sets the advisor logger.
func WithAdvisorLogger(l logger.Logger) LLMOption {
	return func(a *LLMAdvisor) {
		if l != nil {
			a.log = l
		}
	}
}

// NewLLMAdvisor creates a live advisor over client.
func NewLLMAdvisor(client Completer, opts ...LLMOption) *LLMAdvisor {
	a := &LLMAdvisor{
		client: client,
		now:    time.Now,
		log:    logger.Get().Named("improvement"),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.fallback = NewFallbackAdvisor(a.now)
	return a
}

// Merge asks for a unified strategy; any failure yields the template merge.
func (a *LLMAdvisor) Merge(ctx context.Context, rec model.StudentRecord, recommendation, teacherNote, weakCategory string) Strategy {
	reply, err := a.client.Complete(ctx, model.Prompt{
		System:      mergeSystem,
		User:        mergePrompt(rec, recommendation, teacherNote, weakCategory),
		Temperature: mergeTemperature,
		MaxTokens:   mergeMaxTokens,
	})
	if err == nil {
		var s Strategy
		if s, err = parseStrategy(reply); err == nil {
			return s
		}
	}

	metrics.RecordFallback("improvement_merge")
	a.log.Warn(ctx, "strategy merge failed, using template",
		logger.String("student_id", rec.StudentID),
		logger.Error(err))
	return a.fallback.Merge(ctx, rec, recommendation, teacherNote, weakCategory)
}

// Tasks asks for n tasks. The reply is padded with template tasks or
// truncated so exactly n are returned; a failed call yields template tasks.
func (a *LLMAdvisor) Tasks(ctx context.Context, s Strategy, rec model.StudentRecord, n int) []Task {
	reply, err := a.client.Complete(ctx, model.Prompt{
		System:      tasksSystem,
		User:        tasksPrompt(s, rec, n),
		Temperature: tasksTemperature,
		MaxTokens:   tasksMaxTokens,
	})
	if err == nil {
		var tasks []Task
		if tasks, err = a.parseTasks(reply); err == nil {
			if len(tasks) > n {
				tasks = tasks[:n]
			}
			if len(tasks) < n {
				tasks = append(tasks, a.fallback.tasksFrom(s, len(tasks), n)...)
			}
			return tasks
		}
	}

	metrics.RecordFallback("improvement_tasks")
	a.log.Warn(ctx, "task generation failed, using template",
		logger.String("student_id", rec.StudentID),
		logger.Error(err))
	return a.fallback.Tasks(ctx, s, rec, n)
}

// stripFence returns the body of the first fenced block, preferring a json
// fence. A missing closing fence takes the rest of the reply.
func stripFence(s string) string {
	for _, open := range []string{"```json", "```"} {
		if _, after, found := strings.Cut(s, open); found {
			body, _, _ := strings.Cut(after, "```")
			return strings.TrimSpace(body)
		}
	}
	return strings.TrimSpace(s)
}

func parseStrategy(reply string) (Strategy, error) {
	var raw struct {
		MergedStrategy string   `json:"merged_strategy"`
		KeyFocusAreas  []string `json:"key_focus_areas"`
		Reasoning      string   `json:"reasoning"`
		PriorityLevel  string   `json:"priority_level"`
	}
	if err := json.Unmarshal([]byte(stripFence(reply)), &raw); err != nil {
		return Strategy{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if raw.KeyFocusAreas == nil {
		raw.KeyFocusAreas = []string{}
	}
	return Strategy{
		MergedStrategy: raw.MergedStrategy,
		KeyFocusAreas:  raw.KeyFocusAreas,
		Reasoning:      raw.Reasoning,
		PriorityLevel:  normalizePriority(raw.PriorityLevel),
		Source:         SourceLive,
	}, nil
}

func (a *LLMAdvisor) parseTasks(reply string) ([]Task, error) {
	// ids and dates are assigned locally, so only the text fields are read
	var raw struct {
		Tasks []struct {
			Title          string `json:"title"`
			Description    string `json:"description"`
			Category       string `json:"category"`
			TimeEstimate   string `json:"time_estimate"`
			Difficulty     string `json:"difficulty"`
			ExpectedImpact string `json:"expected_impact"`
			ReusableFor    string `json:"reusable_for"`
		} `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(stripFence(reply)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	now := a.now()
	out := make([]Task, 0, len(raw.Tasks))
	for _, t := range raw.Tasks {
		task := Task{
			TaskID:         len(out) + 1,
			Title:          t.Title,
			Description:    t.Description,
			Category:       t.Category,
			TimeEstimate:   t.TimeEstimate,
			Difficulty:     normalizeDifficulty(t.Difficulty),
			ExpectedImpact: t.ExpectedImpact,
			ReusableFor:    t.ReusableFor,
			CreatedDate:    now,
			Status:         TaskStatusPending,
		}
		if task.TimeEstimate == "" {
			task.TimeEstimate = fallbackTime
		}
		out = append(out, task)
	}
	return out, nil
}

// normalizePriority maps free text onto High, Medium or Low; Medium by default.
func normalizePriority(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "high":
		return PriorityHigh
	case "low":
		return PriorityLow
	default:
		return PriorityMedium
	}
}

func normalizeDifficulty(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "easy":
		return DifficultyEasy
	case "hard":
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

func studentContext(rec model.StudentRecord) string {
	skills, _ := json.MarshalIndent(rec.Skills, "", "  ")
	return fmt.Sprintf(`Student ID: %s
Attendance: %g%%
Homework Score: %g/10
Classwork Score: %g/10
Class Focus: %g%%
Exam Score: %g%%
Skills: %s`, rec.StudentID, rec.Attendance, rec.Homework, rec.Classwork, rec.ClassFocus, rec.Exam, skills)
}

func mergePrompt(rec model.StudentRecord, recommendation, teacherNote, weakCategory string) string {
	return fmt.Sprintf(`You are an expert educational advisor. Analyze and merge two improvement suggestions for a student.

STUDENT PERFORMANCE DATA:
%s

WEAKEST AREA: %s

AI MODEL RECOMMENDATION:
%s

TEACHER SUGGESTION:
%s

TASK:
1. Analyze both suggestions and identify the most critical improvements
2. Create a unified, specific improvement strategy that combines the best of both
3. Prioritize based on the student's weakest area (%s)
4. Make the strategy actionable and measurable

Respond in JSON format with these fields:
{
  "merged_strategy": "The unified improvement strategy (2-3 sentences)",
  "key_focus_areas": ["area1", "area2", "area3"],
  "reasoning": "Why this approach will work for this student",
  "priority_level": "High/Medium/Low"
}
`, studentContext(rec), weakCategory, recommendation, teacherNote, weakCategory)
}

func tasksPrompt(s Strategy, rec model.StudentRecord, n int) string {
	return fmt.Sprintf(`You are creating a personalized improvement plan for a student.

IMPROVEMENT STRATEGY:
%s

KEY FOCUS AREAS:
%s

WEAKEST AREA: %s

TASK:
Generate %d specific, actionable tasks for the student. Each task should:
1. Be clear and measurable
2. Target the key focus areas
3. Be achievable within 1-2 weeks
4. Be reusable for other students with similar issues
5. Include an estimated time commitment
6. Have a difficulty level (Easy/Medium/Hard)

Respond in JSON format:
{
  "tasks": [
    {
      "task_id": 1,
      "title": "Task title",
      "description": "Detailed description",
      "category": "Which focus area it addresses",
      "time_estimate": "e.g., 30 minutes daily",
      "difficulty": "Easy/Medium/Hard",
      "expected_impact": "What improvement to expect",
      "reusable_for": "Description of similar student profiles"
    }
  ]
}
`, s.MergedStrategy, strings.Join(s.KeyFocusAreas, ", "), weakestRaw(rec), n)
}

// weakestRaw picks the lowest raw signal, scaling the 1..10 fields by ten.
func weakestRaw(rec model.StudentRecord) string {
	scores := []struct {
		name  string
		value float64
	}{
		{model.CategoryAttendance, rec.Attendance},
		{model.CategoryHomework, rec.Homework * 10},
		{model.CategoryClasswork, rec.Classwork * 10},
		{model.CategoryClassFocus, rec.ClassFocus},
		{model.CategoryExam, rec.Exam},
	}
	weakest := scores[0]
	for _, s := range scores[1:] {
		if s.value < weakest.value {
			weakest = s
		}
	}
	return weakest.name
}
