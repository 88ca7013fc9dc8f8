package prediction

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/edurate/internal/domain/improvement"
	"github.com/okian/edurate/internal/domain/model"
	"github.com/okian/edurate/pkg/logger"
	"github.com/okian/edurate/pkg/metrics"
)

// ModelVersion is stamped on predictions and snapshots.
const ModelVersion = "1.0"

const dateLayout = "2006-01-02"

// Snapshot is the persisted form of the prediction model. Learners are
// refitted after a restore.
type Snapshot struct {
	ModelVersion        string             `json:"model_version"`
	CreatedDate         string             `json:"created_date"`
	FeatureColumns      []string           `json:"feature_cols"`
	TimelineMultipliers map[string]float64 `json:"timeline_multipliers"`
	RetainTraining      bool               `json:"retain_training"`
	PredictionsServed   int                `json:"predictions_served"`
}

// Model produces multi-timeline improvement forecasts. By default it fits a
// fresh learner on every call; WithRetainTraining keeps the first one.
type Model struct {
	mu           sync.Mutex
	rng          *rand.Rand
	sessions     int
	retain       bool
	newPredictor func() Predictor

	trained   Predictor
	scaler    Scaler
	served    int
	createdAt string

	now func() time.Time
	log logger.Logger
}

// Option configures a Model.
type Option func(*Model)

// WithRand sets the random source of the synthetic history.
func WithRand(r *rand.Rand) Option {
	return func(m *Model) {
		if r != nil {
			m.rng = r
		}
	}
}

// WithSeed seeds the synthetic history. Zero keeps the clock-based seed.
func WithSeed(seed int64) Option {
	return func(m *Model) {
		if seed != 0 {
			m.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // not security sensitive
		}
	}
}

// WithRetainTraining keeps the first fitted learner for later calls.
func WithRetainTraining(retain bool) Option {
	return func(m *Model) {
		m.retain = retain
	}
}

// WithHistorySessions sets the synthetic history length. Zero disables the
// history and uses the default aggregate.
func WithHistorySessions(n int) Option {
	return func(m *Model) {
		if n >= 0 {
			m.sessions = n
		}
	}
}

// WithPredictor sets the learner factory.
func WithPredictor(f func() Predictor) Option {
	return func(m *Model) {
		if f != nil {
			m.newPredictor = f
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

// NewModel creates a prediction model.
func NewModel(opts ...Option) *Model {
	m := &Model{
		sessions:     DefaultSessions,
		newPredictor: func() Predictor { return NewCentroidPredictor() },
		now:          time.Now,
		log:          logger.Get().Named("prediction"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(m.now().UnixNano())) //nolint:gosec // not security sensitive
	}
	m.createdAt = m.now().Format(dateLayout)
	return m
}

// Predict forecasts rec's improvement under the planned tasks for the given
// timeline codes, or every timeline when none are given.
func (m *Model) Predict(ctx context.Context, rec model.StudentRecord, tasks []improvement.Task, codes ...string) (Prediction, error) {
	start := time.Now()
	timelines, err := LookupTimelines(codes...)
	if err != nil {
		return Prediction{}, err
	}
	studentID := rec.StudentID
	if studentID == "" {
		studentID = model.DefaultStudentID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	history := SynthesizeHistory(m.rng, studentID, rec.Exam, now, m.sessions)
	agg, ok := AggregateHistory(history)
	if !ok {
		agg = DefaultAggregate(rec.Exam)
	}
	features := BuildFeatures(rec, agg, LoadFromTasks(tasks))

	if m.trained == nil || !m.retain {
		p, s, err := m.fit([]Features{features})
		if err != nil {
			return Prediction{}, err
		}
		m.trained, m.scaler = p, s
	}

	results := make([]TimelineResult, 0, len(timelines))
	for _, t := range timelines {
		x, err := m.scaler.Transform(features.Scaled(t.Multiplier).Vector())
		if err != nil {
			return Prediction{}, err
		}
		prob, inc, err := m.trained.Predict(x)
		if err != nil {
			return Prediction{}, fmt.Errorf("timeline %s: %w", t.Code, err)
		}
		results = append(results, TimelineResult{
			StudentID:             studentID,
			Subject:               subjectGeneral,
			Timeline:              t.Code,
			ImproveProbability:    prob,
			PredictedMarkIncrease: inc,
			WillImprove:           prob >= 0.5,
		})
	}
	m.served++

	out := Prediction{
		StudentID:     studentID,
		GeneratedDate: now,
		Features:      features,
		Timelines:     results,
		Summary:       Summarize(results),
		Visualization: Visualize(results),
		ModelVersion:  ModelVersion,
	}

	metrics.RecordPredictionLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	m.log.Debug(ctx, "prediction computed",
		logger.String("student_id", studentID),
		logger.Int("tasks", len(tasks)),
		logger.Float64("probability", out.Summary.OverallImprovementProbability),
		logger.String("best_timeline", out.Summary.BestTimeline))
	return out, nil
}

// fit trains a learner on rows. When every row carries the same label the
// first one is flipped.
func (m *Model) fit(rows []Features) (Predictor, Scaler, error) {
	x := make([][]float64, 0, len(rows))
	improves := make([]bool, 0, len(rows))
	increases := make([]float64, 0, len(rows))
	for _, r := range rows {
		imp, inc := r.Labels()
		x = append(x, r.Vector())
		improves = append(improves, imp)
		increases = append(increases, inc)
	}
	if uniform(improves) {
		improves[0] = !improves[0]
	}

	s, err := FitScaler(x)
	if err != nil {
		return nil, Scaler{}, err
	}
	scaled := make([][]float64, 0, len(x))
	for _, r := range x {
		t, err := s.Transform(r)
		if err != nil {
			return nil, Scaler{}, err
		}
		scaled = append(scaled, t)
	}
	p := m.newPredictor()
	if err := p.Fit(scaled, improves, increases); err != nil {
		return nil, Scaler{}, err
	}
	return p, s, nil
}

func uniform(labels []bool) bool {
	for _, l := range labels[1:] {
		if l != labels[0] {
			return false
		}
	}
	return true
}

// Snapshot captures the model metadata for persistence.
func (m *Model) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		ModelVersion:        ModelVersion,
		CreatedDate:         m.createdAt,
		FeatureColumns:      append([]string(nil), FeatureNames...),
		TimelineMultipliers: multipliers(),
		RetainTraining:      m.retain,
		PredictionsServed:   m.served,
	}
}

// Restore loads metadata from a snapshot and drops any retained learner.
func (m *Model) Restore(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.CreatedDate != "" {
		m.createdAt = s.CreatedDate
	}
	m.served = s.PredictionsServed
	m.trained = nil
}
