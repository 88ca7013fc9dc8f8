package model

import "time"

// Category labels used in results and recommendations.
const (
	CategoryAttendance        = "Attendance"
	CategoryHomework          = "Homework"
	CategoryClasswork         = "Classwork"
	CategoryHomeworkClasswork = "Homework/Classwork"
	CategoryClassFocus        = "Class Focus"
	CategoryExam              = "Exam"
	CategorySkills            = "Skills"
)

// Subcategories holds the normalized per-category scores of one rating.
type Subcategories struct {
	Attendance float64            `json:"Attendance"`
	Homework   float64            `json:"Homework"`
	Classwork  float64            `json:"Classwork"`
	ClassFocus float64            `json:"Class Focus"`
	Exam       float64            `json:"Exam"`
	Skills     map[string]float64 `json:"Skills"`
}

// RatingResult is the outcome of rating one student record.
type RatingResult struct {
	StudentID     string        `json:"student_id"`
	OverallRating float64       `json:"overall_rating"`
	Tier          string        `json:"tier"`
	Subcategories Subcategories `json:"subcategories"`
	Timestamp     time.Time     `json:"timestamp"`
}

// Recommendation names the weakest category and the advice attached to it.
type Recommendation struct {
	WeakCategory string  `json:"weak_category"`
	Score        float64 `json:"score"`
	Text         string  `json:"recommendation"`
}

// Tier labels.
const (
	TierElite            = "ELITE"
	TierExcellent        = "EXCELLENT"
	TierGood             = "GOOD"
	TierDeveloping       = "DEVELOPING"
	TierNeedsImprovement = "NEEDS IMPROVEMENT"
)

// Tier maps an overall rating to its display band.
func Tier(overall float64) string {
	switch {
	case overall >= 85:
		return TierElite
	case overall >= 75:
		return TierExcellent
	case overall >= 65:
		return TierGood
	case overall >= 50:
		return TierDeveloping
	default:
		return TierNeedsImprovement
	}
}
