package prediction

import (
	"math"
	"math/rand"
	"time"
)

const (
	// DefaultSessions is the length of the synthetic history.
	DefaultSessions = 10

	historySpanDays = 60
	historyStepDays = 6
	scoreNoiseSD    = 2.0
	scoreDrift      = 0.5
	minTimeSpent    = 20
	maxTimeSpent    = 60
	completionP     = 0.8

	subjectGeneral = "General"
)

var taskTypes = []string{"homework", "quiz", "revision"}

// Session is one fabricated past study session.
type Session struct {
	StudentID        string    `json:"student_id"`
	Date             time.Time `json:"date"`
	Subject          string    `json:"subject"`
	Score            float64   `json:"score"`
	TaskType         string    `json:"task_type"`
	TimeSpentMinutes int       `json:"time_spent_minutes"`
	Completed        bool      `json:"completed"`
}

// SynthesizeHistory fabricates n sessions ending near now. Session i is dated
// 60-6i days back and scores exam plus N(0.5i, 2), clipped to [0,100].
func SynthesizeHistory(rng *rand.Rand, studentID string, exam float64, now time.Time, n int) []Session {
	out := make([]Session, 0, n)
	for i := 0; i < n; i++ {
		score := exam + rng.NormFloat64()*scoreNoiseSD + scoreDrift*float64(i)
		out = append(out, Session{
			StudentID:        studentID,
			Date:             now.AddDate(0, 0, -(historySpanDays - historyStepDays*i)),
			Subject:          subjectGeneral,
			Score:            clip(score, 0, 100),
			TaskType:         taskTypes[rng.Intn(len(taskTypes))],
			TimeSpentMinutes: minTimeSpent + rng.Intn(maxTimeSpent-minTimeSpent),
			Completed:        rng.Float64() < completionP,
		})
	}
	return out
}

// Aggregate summarizes a session history.
type Aggregate struct {
	MeanScore             float64 `json:"mean_score"`
	FirstScore            float64 `json:"first_score"`
	LastScore             float64 `json:"last_score"`
	Sessions              int     `json:"sessions"`
	AvgTimeSpent          float64 `json:"avg_time_spent"`
	CompletionRate        float64 `json:"completion_rate"`
	ImprovementPerSession float64 `json:"improvement_per_session"`
	ImprovementTotal      float64 `json:"improvement_total"`
}

// AggregateHistory reduces sessions in order. It reports false for an empty history.
func AggregateHistory(sessions []Session) (Aggregate, bool) {
	if len(sessions) == 0 {
		return Aggregate{}, false
	}
	var sum, spent, done float64
	for _, s := range sessions {
		sum += s.Score
		spent += float64(s.TimeSpentMinutes)
		if s.Completed {
			done++
		}
	}
	n := float64(len(sessions))
	first := sessions[0].Score
	last := sessions[len(sessions)-1].Score
	return Aggregate{
		MeanScore:             sum / n,
		FirstScore:            first,
		LastScore:             last,
		Sessions:              len(sessions),
		AvgTimeSpent:          spent / n,
		CompletionRate:        done / n,
		ImprovementPerSession: (last - first) / (n + 1e-9),
		ImprovementTotal:      last - first,
	}, true
}

// DefaultAggregate stands in for a missing history.
func DefaultAggregate(exam float64) Aggregate {
	return Aggregate{
		MeanScore:             exam,
		FirstScore:            exam,
		LastScore:             exam,
		Sessions:              5,
		AvgTimeSpent:          30,
		CompletionRate:        0.7,
		ImprovementPerSession: 1.0,
		ImprovementTotal:      5.0,
	}
}

func clip(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
