package improvement

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/edurate/internal/domain/model"
)

const (
	fallbackReasoning = "Combined model and teacher suggestions"
	fallbackTime      = "30 minutes daily"
	fallbackImpact    = "Gradual improvement in this area"
	generalArea       = "General"
)

// Advisor produces the two generated parts of a plan.
type Advisor interface {
	Merge(ctx context.Context, rec model.StudentRecord, recommendation, teacherNote, weakCategory string) Strategy
	Tasks(ctx context.Context, s Strategy, rec model.StudentRecord, n int) []Task
}

// FallbackAdvisor builds plans from templates.
type FallbackAdvisor struct {
	now func() time.Time
}

// NewFallbackAdvisor creates the deterministic advisor. A nil clock means time.Now.
func NewFallbackAdvisor(now func() time.Time) FallbackAdvisor {
	if now == nil {
		now = time.Now
	}
	return FallbackAdvisor{now: now}
}

// Merge concatenates the rating advice and the teacher note.
func (FallbackAdvisor) Merge(_ context.Context, _ model.StudentRecord, recommendation, teacherNote, weakCategory string) Strategy {
	return Strategy{
		MergedStrategy: fmt.Sprintf("%s Additionally, %s", recommendation, teacherNote),
		KeyFocusAreas:  []string{weakCategory, "Consistency", "Practice"},
		Reasoning:      fallbackReasoning,
		PriorityLevel:  PriorityHigh,
		Source:         SourceFallback,
	}
}

// Tasks cycles through the focus areas to produce exactly n tasks.
func (f FallbackAdvisor) Tasks(_ context.Context, s Strategy, _ model.StudentRecord, n int) []Task {
	return f.tasksFrom(s, 0, n)
}

// tasksFrom builds tasks with ids first+1..n.
func (f FallbackAdvisor) tasksFrom(s Strategy, first, n int) []Task {
	areas := s.KeyFocusAreas
	if len(areas) == 0 {
		areas = []string{generalArea}
	}
	now := f.now()
	tasks := make([]Task, 0, max(n-first, 0))
	for i := first; i < n; i++ {
		area := areas[i%len(areas)]
		tasks = append(tasks, Task{
			TaskID:         i + 1,
			Title:          "Improve " + area,
			Description:    s.MergedStrategy,
			Category:       area,
			TimeEstimate:   fallbackTime,
			Difficulty:     DifficultyMedium,
			ExpectedImpact: fallbackImpact,
			ReusableFor:    "Students struggling with " + area,
			CreatedDate:    now,
			Status:         TaskStatusPending,
		})
	}
	return tasks
}
