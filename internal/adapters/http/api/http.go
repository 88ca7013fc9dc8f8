// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/edurate/internal/domain/model"
	"github.com/okian/edurate/internal/domain/types"
)

const defaultMaxLimit = 100

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	AnalysisDependencies
	FeedbackDependencies
	PerformanceDependencies
	PlanDependencies
	LeaderboardDependencies
	RankDependencies
	StatusDependencies
}

// Entry mirrors the read shape returned by standings queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statusHandler      *StatusHandler
	statsHandler       *StatsHandler
	analysisHandler    *AnalysisHandler
	feedbackHandler    *FeedbackHandler
	performanceHandler *PerformanceHandler
	planHandler        *PlanHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
}

// NewServer creates a new API server with all handlers. maxLimit bounds
// the leaderboard size; zero or less uses the default.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	if maxLimit <= 0 {
		maxLimit = defaultMaxLimit
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statusHandler:      NewStatusHandler(deps),
		statsHandler:       NewStatsHandler(statsProvider),
		analysisHandler:    NewAnalysisHandler(deps),
		feedbackHandler:    NewFeedbackHandler(deps),
		performanceHandler: NewPerformanceHandler(deps),
		planHandler:        NewPlanHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		rankHandler:        NewRankHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))

	mux.HandleFunc("/api/health", MetricsMiddleware(s.statusHandler.HandleStatus, "health"))
	mux.HandleFunc("/api/analyze", MetricsMiddleware(s.analysisHandler.HandleAnalyze, "analyze"))
	mux.HandleFunc("/api/upload-csv", MetricsMiddleware(s.analysisHandler.HandleUploadReport, "upload_csv"))
	mux.HandleFunc("/api/roster", MetricsMiddleware(s.analysisHandler.HandleUploadRoster, "roster"))
	mux.HandleFunc("/api/summary", MetricsMiddleware(s.leaderboardHandler.HandleGetSummary, "summary"))
	mux.HandleFunc("/api/feedback", MetricsMiddleware(s.feedbackHandler.HandlePostFeedback, "feedback"))
	mux.HandleFunc("/api/performance", MetricsMiddleware(s.performanceHandler.HandlePerformance, "performance"))
	mux.HandleFunc("/api/improvement-plan", MetricsMiddleware(s.planHandler.HandleCreatePlan, "improvement_plan"))
	mux.HandleFunc("/api/predict", MetricsMiddleware(s.planHandler.HandlePredict, "predict"))
}

// studentRequest carries one student's inputs. Absent fields take the
// manual-entry defaults.
type studentRequest struct {
	StudentID      *string  `json:"student_id"`
	Attendance     *float64 `json:"attendance"`
	Homework       *float64 `json:"homework"`
	Classwork      *float64 `json:"classwork"`
	ClassFocus     *float64 `json:"class_focus"`
	Exam           *float64 `json:"exam"`
	ProblemSolving *float64 `json:"problem_solving"`
	Communication  *float64 `json:"communication"`
	Discipline     *float64 `json:"discipline"`
}

func (s studentRequest) record() model.StudentRecord {
	skills := make(map[string]float64, len(model.SkillKeys))
	for k, v := range map[string]*float64{
		model.SkillProblemSolving: s.ProblemSolving,
		model.SkillCommunication:  s.Communication,
		model.SkillDiscipline:     s.Discipline,
	} {
		if v != nil {
			skills[k] = *v
		}
	}
	return model.WithDefaults(model.PartialRecord{
		StudentID:  s.StudentID,
		Attendance: s.Attendance,
		Homework:   s.Homework,
		Classwork:  s.Classwork,
		ClassFocus: s.ClassFocus,
		Exam:       s.Exam,
		Skills:     skills,
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure classifies err and writes the matching error response.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func now() time.Time {
	return time.Now().UTC()
}
