package prediction

import (
	"github.com/okian/edurate/internal/domain/improvement"
	"github.com/okian/edurate/internal/domain/model"
)

// FeatureNames is the column order of Features.Vector.
var FeatureNames = []string{
	"mean_score",
	"last_score",
	"sessions",
	"avg_time_spent",
	"completion_rate",
	"improvement_per_session",
	"total_xp",
	"n_tasks",
	"est_minutes",
	"hardwork",
	"determination",
	"focus",
	"discipline",
	"creativity",
}

// defaultTaskMinutes is assumed for a task without time_estimate_minutes.
const defaultTaskMinutes = 30

// TaskLoad is the planned work a forecast assumes.
type TaskLoad struct {
	TotalXP    float64 `json:"total_xp"`
	NTasks     int     `json:"n_tasks"`
	EstMinutes float64 `json:"est_minutes"`
}

// LoadFromTasks sums the tasks' experience points and minutes. A task without
// xp adds nothing; one without time_estimate_minutes adds 30 minutes.
func LoadFromTasks(tasks []improvement.Task) TaskLoad {
	load := TaskLoad{NTasks: len(tasks)}
	for _, t := range tasks {
		load.TotalXP += t.XP
		if t.TimeEstimateMinutes > 0 {
			load.EstMinutes += t.TimeEstimateMinutes
		} else {
			load.EstMinutes += defaultTaskMinutes
		}
	}
	return load
}

// Features is one forecast input row.
type Features struct {
	Aggregate
	TaskLoad

	Hardwork      float64 `json:"hardwork"`
	Determination float64 `json:"determination"`
	Focus         float64 `json:"focus"`
	Discipline    float64 `json:"discipline"`
	Creativity    float64 `json:"creativity"`
}

// BuildFeatures joins a history aggregate, a task load and attribute proxies
// derived from the record.
func BuildFeatures(rec model.StudentRecord, agg Aggregate, load TaskLoad) Features {
	creativity := model.DefaultSkill
	if v, ok := rec.Skills[model.SkillProblemSolving]; ok {
		creativity = v
	}
	return Features{
		Aggregate:     agg,
		TaskLoad:      load,
		Hardwork:      rec.Homework / 10,
		Determination: rec.ClassFocus / 100,
		Focus:         rec.Classwork / 10,
		Discipline:    rec.Attendance / 100,
		Creativity:    creativity / 10,
	}
}

// Vector lays the row out in FeatureNames order.
func (f Features) Vector() []float64 {
	return []float64{
		f.MeanScore,
		f.LastScore,
		float64(f.Sessions),
		f.AvgTimeSpent,
		f.CompletionRate,
		f.ImprovementPerSession,
		f.TotalXP,
		float64(f.NTasks),
		f.EstMinutes,
		f.Hardwork,
		f.Determination,
		f.Focus,
		f.Discipline,
		f.Creativity,
	}
}

// Scaled returns a copy with the task load scaled for a timeline.
func (f Features) Scaled(multiplier float64) Features {
	f.TotalXP *= multiplier
	f.EstMinutes *= multiplier
	return f
}

// Labels derives the training targets of a row: whether the student improves
// and the expected mark increase, capped at 30.
func (f Features) Labels() (improves bool, increase float64) {
	improves = f.ImprovementPerSession+f.TotalXP/200 > 0.3
	increase = clip(f.ImprovementPerSession*float64(f.NTasks)*1.5, 0, maxIncrease)
	return improves, increase
}
