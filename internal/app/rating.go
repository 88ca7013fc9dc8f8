package service

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/okian/edurate/internal/domain/improvement"
	"github.com/okian/edurate/internal/domain/model"
	"github.com/okian/edurate/internal/domain/rating"
	"github.com/okian/edurate/internal/domain/records"
	"github.com/okian/edurate/internal/domain/types"
	"github.com/okian/edurate/pkg/logger"
	"github.com/okian/edurate/pkg/metrics"
)

// Analysis is the outcome of rating one record.
type Analysis struct {
	Result         model.RatingResult
	Recommendation model.Recommendation
	AllScores      map[string]float64
	// Narrative is set only when live text generation is configured.
	Narrative *improvement.Narrative
}

// Analyze rates rec, records the rating in the standings and, when text
// generation is live, attaches a narrative.
func (s *Service) Analyze(ctx context.Context, rec model.StudentRecord) (Analysis, error) {
	a, err := s.rate(ctx, rec)
	if err != nil {
		return Analysis{}, err
	}
	if s.narrator.Live() {
		n := s.narrator.Narrate(ctx, a.Result, a.Recommendation)
		a.Narrative = &n
	}
	return a, nil
}

func (s *Service) rate(ctx context.Context, rec model.StudentRecord) (Analysis, error) {
	if err := s.ready(); err != nil {
		return Analysis{}, err
	}
	res := s.engine.Compute(ctx, rec)
	s.standings.Upsert(ctx, res.StudentID, res.OverallRating, res.Tier)
	return Analysis{
		Result:         res,
		Recommendation: rating.Recommend(res),
		AllScores:      rating.MainScores(res),
	}, nil
}

// AnalyzeReport extracts one student's daily report and rates it.
func (s *Service) AnalyzeReport(ctx context.Context, r io.Reader, fallbackName string) (Analysis, error) {
	if err := s.ready(); err != nil {
		return Analysis{}, err
	}
	rec, err := s.extractor.Extract(ctx, r, fallbackName)
	if err != nil {
		return Analysis{}, err
	}
	return s.rate(ctx, rec)
}

// AnalyzeRoster rates every row of a flat roster CSV.
func (s *Service) AnalyzeRoster(ctx context.Context, r io.Reader) ([]Analysis, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	recs, err := records.ReadRoster(r)
	if err != nil {
		return nil, err
	}
	out := make([]Analysis, 0, len(recs))
	for _, rec := range recs {
		a, err := s.rate(ctx, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	s.logger.Info(ctx, "roster rated", logger.Int("students", len(out)))
	return out, nil
}

// SubmitFeedback queues fb for the weight adaptation worker. A missing
// feedback id is generated. duplicate is true when the id was seen before;
// nothing is queued in that case. A rejected enqueue forgets the id so the
// caller can retry.
func (s *Service) SubmitFeedback(ctx context.Context, fb model.Feedback) (id string, duplicate bool, err error) {
	if err := s.ready(); err != nil {
		return "", false, err
	}
	if fb.FeedbackID == "" {
		fb.FeedbackID = uuid.NewString()
	}

	if s.deduper.SeenAndRecord(ctx, fb.FeedbackID) {
		metrics.RecordFeedbackDuplicate()
		s.logger.Debug(ctx, "duplicate feedback detected, skipping",
			logger.String("feedback_id", fb.FeedbackID),
			logger.String("student_id", fb.StudentID))
		return fb.FeedbackID, true, nil
	}

	if err := s.queue.Enqueue(ctx, fb); err != nil {
		s.deduper.Unrecord(ctx, fb.FeedbackID)
		s.logger.Warn(ctx, "feedback rejected",
			logger.String("feedback_id", fb.FeedbackID),
			logger.Error(err))
		return fb.FeedbackID, false, fmt.Errorf("enqueue feedback: %w", err)
	}
	return fb.FeedbackID, false, nil
}

// Performance reports the rating engine's counters and weights.
func (s *Service) Performance(_ context.Context) (rating.Performance, error) {
	if err := s.ready(); err != nil {
		return rating.Performance{}, err
	}
	return s.engine.Performance(), nil
}

// TopN returns the top n standings entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.standings.TopN(ctx, n)
}

// Rank returns the standing of one student.
func (s *Service) Rank(ctx context.Context, studentID string) (types.Entry, error) {
	if err := s.ready(); err != nil {
		return types.Entry{}, err
	}
	if studentID == "" {
		return types.Entry{}, ErrEmptyID
	}
	return s.standings.Rank(ctx, studentID)
}

// Summary aggregates every student's latest rating.
func (s *Service) Summary(ctx context.Context) (types.Summary, error) {
	if err := s.ready(); err != nil {
		return types.Summary{}, err
	}
	return types.Summarize(s.standings.All(ctx)), nil
}
