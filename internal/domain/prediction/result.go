package prediction

import (
	"fmt"
	"math"
	"time"
)

// TimelineResult is the forecast for one horizon.
type TimelineResult struct {
	StudentID             string  `json:"student_id"`
	Subject               string  `json:"subject"`
	Timeline              string  `json:"timeline"`
	ImproveProbability    float64 `json:"improve_probability"`
	PredictedMarkIncrease float64 `json:"predicted_mark_increase"`
	WillImprove           bool    `json:"will_improve"`
}

// Summary condenses the per-timeline forecasts.
type Summary struct {
	OverallImprovementProbability float64 `json:"overall_improvement_probability"`
	AveragePredictedIncrease      float64 `json:"average_predicted_increase"`
	BestTimeline                  string  `json:"best_timeline"`
	BestTimelineIncrease          float64 `json:"best_timeline_increase"`
	BestTimelineProbability       float64 `json:"best_timeline_probability"`
	Recommendation                string  `json:"recommendation"`
}

// Visualization holds chart-ready series in timeline order.
type Visualization struct {
	Timelines        []string  `json:"timelines"`
	TimelineCodes    []string  `json:"timeline_codes"`
	Probabilities    []float64 `json:"probabilities"`
	MarkIncreases    []float64 `json:"mark_increases"`
	WillImproveFlags []bool    `json:"will_improve_flags"`
}

// Prediction is the full forecast for one student.
type Prediction struct {
	StudentID     string           `json:"student_id"`
	GeneratedDate time.Time        `json:"generated_date"`
	Features      Features         `json:"features"`
	Timelines     []TimelineResult `json:"timelines"`
	Summary       Summary          `json:"summary"`
	Visualization Visualization    `json:"visualization_data"`
	ModelVersion  string           `json:"model_version"`
}

// Summarize averages the forecasts and picks the timeline with the largest
// increase; the earliest wins ties.
func Summarize(results []TimelineResult) Summary {
	if len(results) == 0 {
		return Summary{}
	}
	best := results[0]
	var probSum, incSum float64
	for _, r := range results {
		probSum += r.ImproveProbability
		incSum += r.PredictedMarkIncrease
		if r.PredictedMarkIncrease > best.PredictedMarkIncrease {
			best = r
		}
	}
	n := float64(len(results))
	avgProb := probSum / n
	avgInc := incSum / n
	return Summary{
		OverallImprovementProbability: round1(avgProb * 100),
		AveragePredictedIncrease:      round1(avgInc),
		BestTimeline:                  best.Timeline,
		BestTimelineIncrease:          round1(best.PredictedMarkIncrease),
		BestTimelineProbability:       round1(best.ImproveProbability * 100),
		Recommendation:                recommendation(avgProb, avgInc, best),
	}
}

func recommendation(avgProb, avgInc float64, best TimelineResult) string {
	outlook := "moderate"
	switch {
	case avgProb >= 0.7:
		outlook = "excellent"
	case avgProb >= 0.5:
		outlook = "good"
	}
	text := fmt.Sprintf("The student has %s improvement prospects with an average %.1f mark increase expected. ", outlook, avgInc) +
		fmt.Sprintf("Best results anticipated in %s timeline with %.1f marks improvement. ", best.Timeline, best.PredictedMarkIncrease)
	switch {
	case avgProb < 0.5:
		text += "Consider additional support or revised task plans."
	case avgInc > 10:
		text += "Strong potential for significant improvement!"
	}
	return text
}

// Visualize orders results by the fixed timeline order and labels them.
func Visualize(results []TimelineResult) Visualization {
	v := Visualization{
		Timelines:        make([]string, 0, len(results)),
		TimelineCodes:    make([]string, 0, len(results)),
		Probabilities:    make([]float64, 0, len(results)),
		MarkIncreases:    make([]float64, 0, len(results)),
		WillImproveFlags: make([]bool, 0, len(results)),
	}
	for _, t := range Timelines {
		for _, r := range results {
			if r.Timeline != t.Code {
				continue
			}
			v.Timelines = append(v.Timelines, t.Label)
			v.TimelineCodes = append(v.TimelineCodes, t.Code)
			v.Probabilities = append(v.Probabilities, round1(r.ImproveProbability*100))
			v.MarkIncreases = append(v.MarkIncreases, round1(r.PredictedMarkIncrease))
			v.WillImproveFlags = append(v.WillImproveFlags, r.WillImprove)
		}
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
