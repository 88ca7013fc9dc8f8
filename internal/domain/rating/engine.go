package rating

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/okian/edurate/internal/domain/model"
	"github.com/okian/edurate/pkg/logger"
	"github.com/okian/edurate/pkg/metrics"
)

// ModelVersion is stamped on every snapshot.
const ModelVersion = "1.0"

const dateLayout = "2006-01-02"

// advice holds the static recommendation for each main category.
var advice = map[string]string{
	model.CategoryAttendance:        "Improve class presence; track absences and ensure punctuality.",
	model.CategoryHomeworkClasswork: "Submit homework & classwork on time; improve quality and consistency.",
	model.CategoryClassFocus:        "Increase concentration in class; use short quizzes and active participation.",
	model.CategoryExam:              "Practice exam strategy, time management, and answer organization.",
	model.CategorySkills:            "Enhance key skills through practice, presentations, and problem-solving drills.",
}

// mainCategories is the tie-break order for Recommend: the first minimum wins.
var mainCategories = []string{
	model.CategoryAttendance,
	model.CategoryHomeworkClasswork,
	model.CategoryClassFocus,
	model.CategoryExam,
	model.CategorySkills,
}

// Advice returns the static recommendation for a main category.
func Advice(category string) string {
	return advice[category]
}

// Metrics are the running counters kept alongside the weights.
type Metrics struct {
	TotalPredictions int       `json:"total_predictions"`
	AccuracyScores   []float64 `json:"accuracy_scores"`
	FeedbackCount    int       `json:"feedback_count"`
}

// Performance is the read-only view returned by Engine.Performance.
type Performance struct {
	TotalPredictions int     `json:"total_predictions"`
	FeedbackCount    int     `json:"feedback_count"`
	AverageError     float64 `json:"average_error"`
	CurrentWeights   Weights `json:"current_weights"`
	ImprovementRate  float64 `json:"improvement_rate"`
}

// Snapshot is the persisted form of the engine state.
type Snapshot struct {
	ModelVersion       string               `json:"model_version"`
	CreatedDate        string               `json:"created_date"`
	Weights            Weights              `json:"weights"`
	PredictionHistory  []model.RatingResult `json:"prediction_history"`
	PerformanceMetrics Metrics              `json:"performance_metrics"`
	Timestamp          time.Time            `json:"timestamp"`
}

// Engine computes weighted ratings and adapts its weights from feedback.
// It is safe for concurrent use.
type Engine struct {
	mu           sync.RWMutex
	weights      Weights
	history      []model.RatingResult
	metrics      Metrics
	historyLimit int
	createdDate  string

	now func() time.Time
	log logger.Logger
}

// NewEngine creates an engine with the default weights.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		weights: DefaultWeights(),
		now:     time.Now,
		log:     logger.Get().Named("rating"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.createdDate = e.now().Format(dateLayout)
	return e
}

// Compute rates one record under the current weights and appends the result
// to the prediction history. The record is not modified.
func (e *Engine) Compute(ctx context.Context, rec model.StudentRecord) model.RatingResult {
	start := time.Now()

	rAtt := Normalize(rec.Attendance, 0, 100)
	rHW := Normalize(rec.Homework, 1, 10)
	rCW := Normalize(rec.Classwork, 1, 10)
	rFocus := Normalize(rec.ClassFocus, 0, 100)
	rExam := Normalize(rec.Exam, 0, 100)

	skills := rec.Skills
	if len(skills) == 0 {
		skills = map[string]float64{
			model.SkillProblemSolving: model.DefaultSkill,
			model.SkillCommunication:  model.DefaultSkill,
			model.SkillDiscipline:     model.DefaultSkill,
		}
	}
	rSkills := make(map[string]float64, len(skills))
	skillValues := make([]float64, 0, len(skills))
	for _, k := range sortedKeys(skills) {
		v := Normalize(skills[k], 1, 10)
		rSkills[k] = round2(v)
		skillValues = append(skillValues, v)
	}

	studentID := rec.StudentID
	if studentID == "" {
		studentID = model.DefaultStudentID
	}

	e.mu.Lock()
	w := e.weights
	overall := rAtt*w[WeightAttendance] +
		rHW*w[WeightHomework] +
		rCW*w[WeightClasswork] +
		rFocus*w[WeightClassFocus] +
		rExam*w[WeightExam] +
		mean(skillValues)*w[WeightSkills]
	overall = round2(overall)

	result := model.RatingResult{
		StudentID:     studentID,
		OverallRating: overall,
		Tier:          model.Tier(overall),
		Subcategories: model.Subcategories{
			Attendance: round2(rAtt),
			Homework:   round2(rHW),
			Classwork:  round2(rCW),
			ClassFocus: round2(rFocus),
			Exam:       round2(rExam),
			Skills:     rSkills,
		},
		Timestamp: e.now(),
	}
	e.history = append(e.history, result)
	if e.historyLimit > 0 && len(e.history) > e.historyLimit {
		e.history = append([]model.RatingResult(nil), e.history[len(e.history)-e.historyLimit:]...)
	}
	e.metrics.TotalPredictions++
	e.mu.Unlock()

	weak := Recommend(result)
	metrics.RecordRatingComputed(overall, weak.WeakCategory, float64(time.Since(start).Microseconds())/1000.0)
	e.log.Debug(ctx, "rating computed",
		logger.String("student_id", studentID),
		logger.Float64("overall", overall),
		logger.String("weak_category", weak.WeakCategory))

	return result
}

// MainScores collapses a result into the five main categories.
func MainScores(result model.RatingResult) map[string]float64 {
	s := result.Subcategories
	skills := make([]float64, 0, len(s.Skills))
	for _, k := range sortedKeys(s.Skills) {
		skills = append(skills, s.Skills[k])
	}
	return map[string]float64{
		model.CategoryAttendance:        s.Attendance,
		model.CategoryHomeworkClasswork: (s.Homework + s.Classwork) / 2,
		model.CategoryClassFocus:        s.ClassFocus,
		model.CategoryExam:              s.Exam,
		model.CategorySkills:            mean(skills),
	}
}

// Recommend picks the weakest main category of a result and its static advice.
// Ties go to the earlier category in Attendance, Homework/Classwork,
// Class Focus, Exam, Skills order.
func Recommend(result model.RatingResult) model.Recommendation {
	scores := MainScores(result)
	weakest := mainCategories[0]
	for _, c := range mainCategories[1:] {
		if scores[c] < scores[weakest] {
			weakest = c
		}
	}
	return model.Recommendation{
		WeakCategory: weakest,
		Score:        scores[weakest],
		Text:         advice[weakest],
	}
}

// Recommend is a convenience wrapper around the package-level Recommend.
func (e *Engine) Recommend(result model.RatingResult) model.Recommendation {
	return Recommend(result)
}

// AdaptWeights applies one feedback observation. When the lower-cased weak
// category names a weight, that weight grows by one step (capped at 0.5) and
// the vector is renormalized. The absolute error and feedback count are
// recorded either way.
func (e *Engine) AdaptWeights(ctx context.Context, fb model.Feedback) {
	delta := fb.Delta()
	step := weightStep * sign(delta)
	key := strings.ToLower(fb.WeakCategory)

	e.mu.Lock()
	adjusted := false
	if _, ok := e.weights[key]; ok {
		next := e.weights.Clone()
		next[key] = math.Min(weightCap, next[key]+math.Abs(step))
		e.weights = next.normalized()
		adjusted = true
	}
	e.metrics.FeedbackCount++
	e.metrics.AccuracyScores = append(e.metrics.AccuracyScores, math.Abs(delta))
	e.mu.Unlock()

	e.log.Debug(ctx, "feedback applied",
		logger.String("student_id", fb.StudentID),
		logger.String("weak_category", fb.WeakCategory),
		logger.Float64("error", delta),
		logger.Bool("weights_adjusted", adjusted))
}

// Performance reports the running counters and current weights.
func (e *Engine) Performance() Performance {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return Performance{
		TotalPredictions: e.metrics.TotalPredictions,
		FeedbackCount:    e.metrics.FeedbackCount,
		AverageError:     round2(mean(e.metrics.AccuracyScores)),
		CurrentWeights:   e.weights.Clone(),
		ImprovementRate:  improvementRate(e.metrics.AccuracyScores),
	}
}

// Weights returns a copy of the current weight vector.
func (e *Engine) Weights() Weights {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.weights.Clone()
}

// History returns a copy of the retained prediction history.
func (e *Engine) History() []model.RatingResult {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]model.RatingResult(nil), e.history...)
}

// Snapshot captures the engine state for persistence.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return Snapshot{
		ModelVersion:      ModelVersion,
		CreatedDate:       e.createdDate,
		Weights:           e.weights.Clone(),
		PredictionHistory: append([]model.RatingResult(nil), e.history...),
		PerformanceMetrics: Metrics{
			TotalPredictions: e.metrics.TotalPredictions,
			AccuracyScores:   append([]float64(nil), e.metrics.AccuracyScores...),
			FeedbackCount:    e.metrics.FeedbackCount,
		},
		Timestamp: e.now(),
	}
}

// Restore replaces the engine state with a snapshot.
func (e *Engine) Restore(s Snapshot) error {
	if !s.Weights.valid() {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, ErrInvalidWeights)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if math.Abs(s.Weights.Sum()-1) < epsilon {
		e.weights = s.Weights.Clone()
	} else {
		e.weights = s.Weights.normalized()
	}
	e.history = append([]model.RatingResult(nil), s.PredictionHistory...)
	if e.historyLimit > 0 && len(e.history) > e.historyLimit {
		e.history = e.history[len(e.history)-e.historyLimit:]
	}
	e.metrics = Metrics{
		TotalPredictions: s.PerformanceMetrics.TotalPredictions,
		AccuracyScores:   append([]float64(nil), s.PerformanceMetrics.AccuracyScores...),
		FeedbackCount:    s.PerformanceMetrics.FeedbackCount,
	}
	if s.CreatedDate != "" {
		e.createdDate = s.CreatedDate
	}
	return nil
}

// improvementRate compares the mean error of the first half of the errors
// with the second half, split at n/2.
func improvementRate(errs []float64) float64 {
	if len(errs) < 2 {
		return 0
	}
	mid := len(errs) / 2
	first := mean(errs[:mid])
	second := mean(errs[mid:])
	if first == 0 {
		return 0
	}
	return round2((first - second) / first * 100)
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
