package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	service "github.com/okian/edurate/internal/app"
	"github.com/okian/edurate/internal/domain/improvement"
	"github.com/okian/edurate/internal/domain/model"
	"github.com/okian/edurate/internal/domain/records"
)

const (
	maxUploadBytes = 10 << 20
	uploadField    = "file"
)

// AnalysisDependencies defines the interface for rating operations.
type AnalysisDependencies interface {
	Analyze(ctx context.Context, rec model.StudentRecord) (service.Analysis, error)
	AnalyzeReport(ctx context.Context, r io.Reader, fallbackName string) (service.Analysis, error)
	AnalyzeRoster(ctx context.Context, r io.Reader) ([]service.Analysis, error)
}

// AnalysisHandler handles single-student and CSV rating requests.
type AnalysisHandler struct {
	deps AnalysisDependencies
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(deps AnalysisDependencies) *AnalysisHandler {
	return &AnalysisHandler{deps: deps}
}

type analyzeResponse struct {
	Success        bool                   `json:"success"`
	StudentID      string                 `json:"student_id"`
	OverallRating  float64                `json:"overall_rating"`
	Tier           string                 `json:"tier"`
	Subcategories  model.Subcategories    `json:"subcategories"`
	WeakCategory   string                 `json:"weak_category"`
	Recommendation string                 `json:"recommendation"`
	AllScores      map[string]float64     `json:"all_scores"`
	AISuggestions  *improvement.Narrative `json:"ai_suggestions"`
	Timestamp      time.Time              `json:"timestamp"`
}

type batchResult struct {
	StudentID     string             `json:"student_id"`
	OverallRating float64            `json:"overall_rating"`
	Tier          string             `json:"tier"`
	WeakCategory  string             `json:"weak_category"`
	AllScores     map[string]float64 `json:"all_scores"`
}

type batchResponse struct {
	Success   bool          `json:"success"`
	Count     int           `json:"count"`
	Results   []batchResult `json:"results"`
	Timestamp time.Time     `json:"timestamp"`
}

func toBatchResult(a service.Analysis) batchResult {
	return batchResult{
		StudentID:     a.Result.StudentID,
		OverallRating: a.Result.OverallRating,
		Tier:          a.Result.Tier,
		WeakCategory:  a.Recommendation.WeakCategory,
		AllScores:     a.AllScores,
	}
}

// HandleAnalyze handles POST /api/analyze requests.
func (h *AnalysisHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req studentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	a, err := h.deps.Analyze(r.Context(), req.record())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{
		Success:        true,
		StudentID:      a.Result.StudentID,
		OverallRating:  a.Result.OverallRating,
		Tier:           a.Result.Tier,
		Subcategories:  a.Result.Subcategories,
		WeakCategory:   a.Recommendation.WeakCategory,
		Recommendation: a.Recommendation.Text,
		AllScores:      a.AllScores,
		AISuggestions:  a.Narrative,
		Timestamp:      now(),
	})
}

// HandleUploadReport handles POST /api/upload-csv requests carrying one
// student's daily report. The student is named by the report's own column,
// else the "student" query parameter, else the uploaded file name.
func (h *AnalysisHandler) HandleUploadReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	body, name, err := uploadedCSV(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	defer func() { _ = body.Close() }()

	student := records.StudentNameFromPath(name)
	if q := strings.TrimSpace(r.URL.Query().Get("student")); q != "" {
		student = q
	}
	a, err := h.deps.AnalyzeReport(r.Context(), body, student)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{
		Success:   true,
		Count:     1,
		Results:   []batchResult{toBatchResult(a)},
		Timestamp: now(),
	})
}

// HandleUploadRoster handles POST /api/roster requests. The roster is read
// from the multipart "file" field, or from the raw body for text/csv.
func (h *AnalysisHandler) HandleUploadRoster(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	body, _, err := uploadedCSV(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	defer func() { _ = body.Close() }()

	out, err := h.deps.AnalyzeRoster(r.Context(), body)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if len(out) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: no valid students found in CSV", ErrBadRequest))
		return
	}
	results := make([]batchResult, 0, len(out))
	for _, a := range out {
		results = append(results, toBatchResult(a))
	}
	writeJSON(w, http.StatusOK, batchResponse{
		Success:   true,
		Count:     len(results),
		Results:   results,
		Timestamp: now(),
	})
}

// uploadedCSV returns the uploaded CSV body and its file name. Multipart
// requests use the "file" field; anything else is read as the raw body.
func uploadedCSV(w http.ResponseWriter, r *http.Request) (io.ReadCloser, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.Body, "upload.csv", nil
	}
	f, hdr, err := r.FormFile(uploadField)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if ext := strings.ToLower(filepath.Ext(hdr.Filename)); ext != ".csv" {
		_ = f.Close()
		return nil, "", fmt.Errorf("%w: expected a .csv file, got %q", ErrBadRequest, hdr.Filename)
	}
	return f, hdr.Filename, nil
}
