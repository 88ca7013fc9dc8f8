package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/edurate/internal/adapters/http/api"
	service "github.com/okian/edurate/internal/app"
	"github.com/okian/edurate/internal/adapters/mq/queue"
	"github.com/okian/edurate/internal/adapters/standings"
	"github.com/okian/edurate/internal/domain/improvement"
	"github.com/okian/edurate/internal/domain/model"
	"github.com/okian/edurate/internal/domain/prediction"
	"github.com/okian/edurate/internal/domain/rating"
	"github.com/okian/edurate/internal/domain/records"
	"github.com/okian/edurate/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDependencies records what handlers pass in and returns canned results.
type mockDependencies struct {
	analyzeErr  error
	lastRecord  model.StudentRecord
	reportName  string
	reportBody  string
	reportErr   error
	roster      []service.Analysis
	rosterErr   error
	feedback    []model.Feedback
	seen        map[string]bool
	feedbackErr error
	planReq     service.PlanRequest
	planErr     error
	predictReq  service.PredictRequest
	predictErr  error
	topN        []types.Entry
	topNErr     error
	lastLimit   int
	rank        types.Entry
	rankErr     error
	textgen     bool
}

func analysisFor(rec model.StudentRecord) service.Analysis {
	res := model.RatingResult{
		StudentID:     rec.StudentID,
		OverallRating: 75.94,
		Tier:          model.TierExcellent,
	}
	return service.Analysis{
		Result: res,
		Recommendation: model.Recommendation{
			WeakCategory: model.CategoryHomeworkClasswork,
			Score:        72.5,
			Text:         rating.Advice(model.CategoryHomeworkClasswork),
		},
		AllScores: map[string]float64{model.CategoryExam: 72.28},
	}
}

func (m *mockDependencies) Analyze(_ context.Context, rec model.StudentRecord) (service.Analysis, error) {
	m.lastRecord = rec
	if m.analyzeErr != nil {
		return service.Analysis{}, m.analyzeErr
	}
	return analysisFor(rec), nil
}

func (m *mockDependencies) AnalyzeReport(_ context.Context, r io.Reader, fallbackName string) (service.Analysis, error) {
	body, _ := io.ReadAll(r)
	m.reportBody, m.reportName = string(body), fallbackName
	if m.reportErr != nil {
		return service.Analysis{}, m.reportErr
	}
	return analysisFor(model.StudentRecord{StudentID: fallbackName}), nil
}

func (m *mockDependencies) AnalyzeRoster(_ context.Context, r io.Reader) ([]service.Analysis, error) {
	body, _ := io.ReadAll(r)
	m.reportBody = string(body)
	return m.roster, m.rosterErr
}

func (m *mockDependencies) SubmitFeedback(_ context.Context, fb model.Feedback) (string, bool, error) {
	if m.feedbackErr != nil {
		return "", false, m.feedbackErr
	}
	if fb.FeedbackID == "" {
		fb.FeedbackID = "generated"
	}
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if m.seen[fb.FeedbackID] {
		return fb.FeedbackID, true, nil
	}
	m.seen[fb.FeedbackID] = true
	m.feedback = append(m.feedback, fb)
	return fb.FeedbackID, false, nil
}

func (m *mockDependencies) Performance(context.Context) (rating.Performance, error) {
	return rating.Performance{TotalPredictions: 3, CurrentWeights: rating.DefaultWeights()}, nil
}

func (m *mockDependencies) CreatePlan(_ context.Context, req service.PlanRequest) (service.PlanResult, error) {
	m.planReq = req
	if m.planErr != nil {
		return service.PlanResult{}, m.planErr
	}
	return service.PlanResult{Plan: improvement.Plan{
		PlanID:       "plan-1",
		StudentID:    req.Record.StudentID,
		WeakCategory: req.WeakCategory,
		Tasks:        make([]improvement.Task, req.NumTasks),
	}}, nil
}

func (m *mockDependencies) Predict(_ context.Context, req service.PredictRequest) (prediction.Prediction, error) {
	m.predictReq = req
	if m.predictErr != nil {
		return prediction.Prediction{}, m.predictErr
	}
	return prediction.Prediction{StudentID: req.Record.StudentID, ModelVersion: prediction.ModelVersion}, nil
}

func (m *mockDependencies) TopN(_ context.Context, n int) ([]types.Entry, error) {
	m.lastLimit = n
	if m.topNErr != nil {
		return nil, m.topNErr
	}
	if n > len(m.topN) {
		return m.topN, nil
	}
	return m.topN[:n], nil
}

func (m *mockDependencies) Summary(context.Context) (types.Summary, error) {
	return types.Summarize(m.topN), nil
}

func (m *mockDependencies) Rank(_ context.Context, _ string) (types.Entry, error) {
	if m.rankErr != nil {
		return types.Entry{}, m.rankErr
	}
	return m.rank, nil
}

func (m *mockDependencies) TextGenAvailable() bool { return m.textgen }

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps *mockDependencies) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, 50).
		Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decode(w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(w.Body.Bytes(), &out), ShouldBeNil)
	return out
}

func multipartCSV(filename, content string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	So(err, ShouldBeNil)
	_, err = fw.Write([]byte(content))
	So(err, ShouldBeNil)
	So(mw.Close(), ShouldBeNil)
	return &buf, mw.FormDataContentType()
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDependencies{textgen: true}
		mux := newMux(deps)

		Convey("Then the metrics endpoint is served", func() {
			w := do(mux, http.MethodGet, "/healthz", "", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then the stats endpoint is served", func() {
			w := do(mux, http.MethodGet, "/stats", "", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode(w)["started"], ShouldEqual, true)
		})

		Convey("Then the JSON health endpoint reports capabilities", func() {
			w := do(mux, http.MethodGet, "/api/health", "", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["status"], ShouldEqual, "healthy")
			So(body["textgen_available"], ShouldEqual, true)
			So(body["model_loaded"], ShouldEqual, true)
		})

		Convey("Then wrong methods are not found", func() {
			So(do(mux, http.MethodGet, "/api/analyze", "", nil).Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/api/health", "", nil).Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/leaderboard", "", nil).Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestAnalysisHandler_HandleAnalyze(t *testing.T) {
	Convey("Given the analyze endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When posting a partial student", func() {
			w := do(mux, http.MethodPost, "/api/analyze", "application/json",
				strings.NewReader(`{"student_id":"STU001","exam":72,"discipline":9}`))

			Convey("Then missing fields take defaults and the analysis is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastRecord.StudentID, ShouldEqual, "STU001")
				So(deps.lastRecord.Exam, ShouldEqual, 72)
				So(deps.lastRecord.Attendance, ShouldEqual, model.DefaultAttendance)
				So(deps.lastRecord.Skills[model.SkillDiscipline], ShouldEqual, 9)
				So(deps.lastRecord.Skills[model.SkillCommunication], ShouldEqual, model.DefaultSkill)

				body := decode(w)
				So(body["success"], ShouldEqual, true)
				So(body["overall_rating"], ShouldEqual, 75.94)
				So(body["weak_category"], ShouldEqual, model.CategoryHomeworkClasswork)
				So(body["ai_suggestions"], ShouldBeNil)
			})
		})

		Convey("When posting invalid JSON or unknown fields", func() {
			w1 := do(mux, http.MethodPost, "/api/analyze", "application/json", strings.NewReader(`{`))
			w2 := do(mux, http.MethodPost, "/api/analyze", "application/json", strings.NewReader(`{"grade":"A"}`))

			Convey("Then it should return bad request status", func() {
				So(w1.Code, ShouldEqual, http.StatusBadRequest)
				So(w2.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w1)["code"], ShouldEqual, "bad_request")
			})
		})

		Convey("When the service is not started", func() {
			deps.analyzeErr = service.ErrNotStarted
			w := do(mux, http.MethodPost, "/api/analyze", "application/json", strings.NewReader(`{}`))

			Convey("Then it should return service unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})
	})
}

func TestAnalysisHandler_Uploads(t *testing.T) {
	Convey("Given the upload endpoints", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)
		report := "attendance,HW_issue,CW_issue,daily_exam1_mark,daily_exam2_mark\nPresent,False,False,9,8\n"

		Convey("When a report is uploaded as multipart", func() {
			body, ct := multipartCSV("rahim.csv", report)
			w := do(mux, http.MethodPost, "/api/upload-csv", ct, body)

			Convey("Then the student is named after the file", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.reportName, ShouldEqual, "Rahim")
				So(deps.reportBody, ShouldEqual, report)
				out := decode(w)
				So(out["count"], ShouldEqual, 1.0)
				results := out["results"].([]any)
				So(results[0].(map[string]any)["student_id"], ShouldEqual, "Rahim")
			})
		})

		Convey("When the student query parameter is set", func() {
			body, ct := multipartCSV("rahim.csv", report)
			w := do(mux, http.MethodPost, "/api/upload-csv?student=Nadia", ct, body)

			Convey("Then it overrides the file name", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.reportName, ShouldEqual, "Nadia")
			})
		})

		Convey("When the upload is not a CSV file", func() {
			body, ct := multipartCSV("notes.txt", report)
			w := do(mux, http.MethodPost, "/api/upload-csv", ct, body)

			Convey("Then it should return bad request status", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the report lacks columns", func() {
			deps.reportErr = fmt.Errorf("%w: HW_issue", records.ErrMissingColumns)
			body, ct := multipartCSV("rahim.csv", "attendance\nPresent\n")
			w := do(mux, http.MethodPost, "/api/upload-csv", ct, body)

			Convey("Then it should return bad request status", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When a roster is posted as raw CSV", func() {
			deps.roster = []service.Analysis{
				analysisFor(model.StudentRecord{StudentID: "A1"}),
				analysisFor(model.StudentRecord{StudentID: "A2"}),
			}
			w := do(mux, http.MethodPost, "/api/roster", "text/csv", strings.NewReader("student_id\nA1\nA2\n"))

			Convey("Then every student is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.reportBody, ShouldEqual, "student_id\nA1\nA2\n")
				So(decode(w)["count"], ShouldEqual, 2.0)
			})
		})

		Convey("When a roster has no students", func() {
			w := do(mux, http.MethodPost, "/api/roster", "text/csv", strings.NewReader("student_id\n"))

			Convey("Then it should return bad request status", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestFeedbackHandler_HandlePostFeedback(t *testing.T) {
	Convey("Given the feedback endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)
		valid := `{"feedback_id":"fb-1","student_id":"STU001","predicted_rating":75.94,"actual_rating":80,"weak_category":"exam"}`

		Convey("When posting valid feedback", func() {
			w := do(mux, http.MethodPost, "/api/feedback", "application/json", strings.NewReader(valid))

			Convey("Then it should return accepted status", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				body := decode(w)
				So(body["message"], ShouldEqual, "Feedback recorded successfully")
				So(body["duplicate"], ShouldEqual, false)
				So(deps.feedback, ShouldHaveLength, 1)
				So(deps.feedback[0].Delta(), ShouldAlmostEqual, 4.06, 1e-9)
			})
		})

		Convey("When posting the same feedback twice", func() {
			_ = do(mux, http.MethodPost, "/api/feedback", "application/json", strings.NewReader(valid))
			w := do(mux, http.MethodPost, "/api/feedback", "application/json", strings.NewReader(valid))

			Convey("Then it should return duplicate status", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(decode(w)["duplicate"], ShouldEqual, true)
				So(deps.feedback, ShouldHaveLength, 1)
			})
		})

		Convey("When required fields are missing", func() {
			w := do(mux, http.MethodPost, "/api/feedback", "application/json",
				strings.NewReader(`{"student_id":"STU001","predicted_rating":70}`))

			Convey("Then it should return bad request status", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decode(w)["message"], ShouldContainSubstring, "actual_rating")
			})
		})

		Convey("When the queue is full", func() {
			deps.feedbackErr = fmt.Errorf("enqueue feedback: %w", queue.ErrFull)
			w := do(mux, http.MethodPost, "/api/feedback", "application/json", strings.NewReader(valid))

			Convey("Then it should return too many requests status", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(decode(w)["code"], ShouldEqual, "backpressure")
			})
		})
	})
}

func TestPerformanceHandler(t *testing.T) {
	Convey("Given the performance endpoint", t, func() {
		mux := newMux(&mockDependencies{})
		w := do(mux, http.MethodGet, "/api/performance", "", nil)

		Convey("Then the metrics are wrapped in an envelope", func() {
			So(w.Code, ShouldEqual, http.StatusOK)
			body := decode(w)
			So(body["success"], ShouldEqual, true)
			m := body["metrics"].(map[string]any)
			So(m["total_predictions"], ShouldEqual, 3.0)
			So(m["current_weights"].(map[string]any)["exam"], ShouldEqual, 0.25)
		})
	})
}

func TestPlanHandler(t *testing.T) {
	Convey("Given the plan endpoints", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When requesting a plan", func() {
			w := do(mux, http.MethodPost, "/api/improvement-plan", "application/json", strings.NewReader(
				`{"student":{"student_id":"STU001"},"weak_category":"Exam","recommendation":"Practice.","teacher_note":"Revise daily","num_tasks":4}`))

			Convey("Then the request is passed through", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.planReq.Record.StudentID, ShouldEqual, "STU001")
				So(deps.planReq.TeacherNote, ShouldEqual, "Revise daily")
				So(deps.planReq.NumTasks, ShouldEqual, 4)
				plan := decode(w)["plan"].(map[string]any)
				So(plan["tasks"], ShouldHaveLength, 4)
			})
		})

		Convey("When num_tasks is out of range", func() {
			w := do(mux, http.MethodPost, "/api/improvement-plan", "application/json",
				strings.NewReader(`{"num_tasks":11}`))

			Convey("Then it should return bad request status", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the model rejects the task count", func() {
			deps.planErr = fmt.Errorf("%w: 0", improvement.ErrInvalidTasks)
			w := do(mux, http.MethodPost, "/api/improvement-plan", "application/json", strings.NewReader(`{}`))

			Convey("Then it should return bad request status", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When requesting a prediction", func() {
			w := do(mux, http.MethodPost, "/api/predict", "application/json", strings.NewReader(
				`{"student":{"student_id":"STU001","exam":72},"tasks":[{"title":"Drill","difficulty":"Hard","time_estimate":"45 minutes"}],"timelines":["1w","1m"]}`))

			Convey("Then tasks and timelines are passed through", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.predictReq.Tasks, ShouldHaveLength, 1)
				So(deps.predictReq.Tasks[0].Difficulty, ShouldEqual, "Hard")
				So(deps.predictReq.Timelines, ShouldResemble, []string{"1w", "1m"})
				So(decode(w)["prediction"].(map[string]any)["student_id"], ShouldEqual, "STU001")
			})
		})

		Convey("When tasks carry xp and minutes", func() {
			w := do(mux, http.MethodPost, "/api/predict", "application/json", strings.NewReader(
				`{"tasks":[{"title":"t","xp":50,"time_estimate_minutes":90}]}`))

			Convey("Then the task load fields are accepted", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.predictReq.Tasks, ShouldHaveLength, 1)
				So(deps.predictReq.Tasks[0].XP, ShouldEqual, 50.0)
				So(deps.predictReq.Tasks[0].TimeEstimateMinutes, ShouldEqual, 90.0)
			})
		})

		Convey("When a timeline is unknown", func() {
			deps.predictErr = fmt.Errorf("%w: 10y", prediction.ErrUnknownTimeline)
			w := do(mux, http.MethodPost, "/api/predict", "application/json", strings.NewReader(`{"timelines":["10y"]}`))

			Convey("Then it should return bad request status", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestLeaderboardHandler_HandleGetLeaderboard(t *testing.T) {
	Convey("Given a leaderboard with entries", t, func() {
		deps := &mockDependencies{topN: []types.Entry{
			{Rank: 1, StudentID: "a", Rating: 90, Tier: model.TierElite},
			{Rank: 2, StudentID: "b", Rating: 80, Tier: model.TierExcellent},
			{Rank: 3, StudentID: "c", Rating: 70, Tier: model.TierGood},
		}}
		mux := newMux(deps)

		Convey("When requesting top N entries", func() {
			w := do(mux, http.MethodGet, "/leaderboard?limit=2", "", nil)

			Convey("Then it should return the top N entries", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var entries []types.Entry
				So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].StudentID, ShouldEqual, "a")
			})
		})

		Convey("When no limit is specified", func() {
			w := do(mux, http.MethodGet, "/leaderboard", "", nil)

			Convey("Then the maximum limit is used", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastLimit, ShouldEqual, 50)
			})
		})

		Convey("When the limit is invalid or too large", func() {
			So(do(mux, http.MethodGet, "/leaderboard?limit=0", "", nil).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/leaderboard?limit=x", "", nil).Code, ShouldEqual, http.StatusBadRequest)
			w := do(mux, http.MethodGet, "/leaderboard?limit=51", "", nil)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(w)["code"], ShouldEqual, "limit_exceeded")
		})

		Convey("When the standings fail", func() {
			deps.topNErr = errors.New("boom")
			w := do(mux, http.MethodGet, "/leaderboard?limit=2", "", nil)

			Convey("Then it should return internal server error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When requesting the summary", func() {
			w := do(mux, http.MethodGet, "/api/summary", "", nil)

			Convey("Then count, average, highest and lowest are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["count"], ShouldEqual, 3.0)
				So(body["average"], ShouldEqual, 80.0)
				So(body["highest"], ShouldEqual, 90.0)
				So(body["lowest"], ShouldEqual, 70.0)
			})
		})
	})
}

func TestRankHandler_HandleGetRank(t *testing.T) {
	Convey("Given a rank handler", t, func() {
		deps := &mockDependencies{rank: types.Entry{Rank: 2, StudentID: "STU001", Rating: 75.94}}
		mux := newMux(deps)

		Convey("When requesting rank for an existing student", func() {
			w := do(mux, http.MethodGet, "/rank/STU001", "", nil)

			Convey("Then it should return the rank information", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode(w)
				So(body["rank"], ShouldEqual, 2.0)
				So(body["overall_rating"], ShouldEqual, 75.94)
			})
		})

		Convey("When requesting rank for an unknown student", func() {
			deps.rankErr = fmt.Errorf("%w: ghost", standings.ErrNotFound)
			w := do(mux, http.MethodGet, "/rank/ghost", "", nil)

			Convey("Then it should return not found status", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the standings return another error", func() {
			deps.rankErr = errors.New("boom")
			w := do(mux, http.MethodGet, "/rank/STU001", "", nil)

			Convey("Then it should return internal server error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When the path is malformed", func() {
			So(do(mux, http.MethodGet, "/rank/", "", nil).Code, ShouldEqual, http.StatusBadRequest)
			So(do(mux, http.MethodGet, "/rank/a/b", "", nil).Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}
