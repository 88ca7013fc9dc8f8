package improvement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/edurate/internal/domain/model"
	"github.com/okian/edurate/pkg/logger"
	"github.com/okian/edurate/pkg/metrics"
)

// ModelVersion is stamped on plans and snapshots.
const ModelVersion = "1.0"

// Task count bounds accepted by CreatePlan.
const (
	DefaultTasks = 5
	MaxTasks     = 10
)

const dateLayout = "2006-01-02"

// Snapshot is the persisted form of the improvement history.
type Snapshot struct {
	ModelVersion       string         `json:"model_version"`
	CreatedDate        string         `json:"created_date"`
	ImprovementHistory []HistoryEntry `json:"improvement_history"`
}

// Model creates improvement plans and remembers which categories they targeted.
type Model struct {
	mu          sync.RWMutex
	history     []HistoryEntry
	createdDate string

	advisor Advisor
	now     func() time.Time
	newID   func() string
	log     logger.Logger
}

// Option configures a Model.
type Option func(*Model)

// WithAdvisor sets the advisor; the template advisor is the default.
func WithAdvisor(a Advisor) Option {
	return func(m *Model) {
		if a != nil {
			m.advisor = a
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Model) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the model logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.log = l
		}
	}
}

// NewModel creates an improvement model.
func NewModel(opts ...Option) *Model {
	m := &Model{
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
		log:   logger.Get().Named("improvement"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.advisor == nil {
		m.advisor = NewFallbackAdvisor(m.now)
	}
	m.createdDate = m.now().Format(dateLayout)
	return m
}

// CreatePlan merges the rating recommendation with the teacher note and
// produces exactly n tasks. n must be within 1..MaxTasks.
func (m *Model) CreatePlan(ctx context.Context, rec model.StudentRecord, recommendation, teacherNote, weakCategory string, n int) (Plan, error) {
	if n < 1 || n > MaxTasks {
		return Plan{}, fmt.Errorf("%w: %d not in 1..%d", ErrInvalidTasks, n, MaxTasks)
	}

	strategy := m.advisor.Merge(ctx, rec, recommendation, teacherNote, weakCategory)
	tasks := m.advisor.Tasks(ctx, strategy, rec, n)

	studentID := rec.StudentID
	if studentID == "" {
		studentID = model.DefaultStudentID
	}
	now := m.now()
	plan := Plan{
		PlanID:         m.newID(),
		StudentID:      studentID,
		GeneratedDate:  now,
		WeakCategory:   weakCategory,
		MergedStrategy: strategy,
		Tasks:          tasks,
		OriginalSuggestions: Suggestions{
			RatingModel: recommendation,
			Teacher:     teacherNote,
		},
		ModelVersion: ModelVersion,
	}

	m.mu.Lock()
	m.history = append(m.history, HistoryEntry{
		PlanID:       plan.PlanID,
		StudentID:    studentID,
		Date:         now,
		WeakCategory: weakCategory,
		NumTasks:     len(tasks),
	})
	m.mu.Unlock()

	metrics.RecordPlanGenerated()
	m.log.Info(ctx, "improvement plan created",
		logger.String("plan_id", plan.PlanID),
		logger.String("student_id", studentID),
		logger.String("weak_category", weakCategory),
		logger.String("strategy_source", strategy.Source),
		logger.Int("tasks", len(tasks)))

	return plan, nil
}

// ReusableTasks returns one note per earlier plan made for category.
func (m *Model) ReusableTasks(category string) []ReusableNote {
	m.mu.RLock()
	defer m.mu.RUnlock()

	notes := make([]ReusableNote, 0)
	for _, h := range m.history {
		if h.WeakCategory == category {
			notes = append(notes, ReusableNote{
				Note:      fmt.Sprintf("Tasks for %s from previous students", category),
				Available: true,
			})
		}
	}
	return notes
}

// History returns a copy of the plan history.
func (m *Model) History() []HistoryEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]HistoryEntry(nil), m.history...)
}

// Snapshot captures the history for persistence.
func (m *Model) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		ModelVersion:       ModelVersion,
		CreatedDate:        m.createdDate,
		ImprovementHistory: append([]HistoryEntry(nil), m.history...),
	}
}

// Restore replaces the history with a snapshot.
func (m *Model) Restore(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append([]HistoryEntry(nil), s.ImprovementHistory...)
	if s.CreatedDate != "" {
		m.createdDate = s.CreatedDate
	}
}
