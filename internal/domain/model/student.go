// Package model contains domain models passed between layers.
package model

// Skill keys every record is expected to carry.
const (
	SkillProblemSolving = "problem_solving"
	SkillCommunication  = "communication"
	SkillDiscipline     = "discipline"
)

// SkillKeys lists the required skills in their canonical order.
var SkillKeys = []string{SkillProblemSolving, SkillCommunication, SkillDiscipline}

// Manual-entry defaults applied by WithDefaults.
const (
	DefaultStudentID  = "unknown"
	DefaultAttendance = 80.0
	DefaultHomework   = 7.0
	DefaultClasswork  = 7.0
	DefaultClassFocus = 70.0
	DefaultExam       = 65.0
	DefaultSkill      = 7.0
)

// StudentRecord is one student's raw signals for a single rating.
// Attendance, ClassFocus and Exam are percentages; Homework, Classwork and
// skills sit on a 1..10 scale.
type StudentRecord struct {
	StudentID  string             `json:"student_id"`
	Attendance float64            `json:"attendance"`
	Homework   float64            `json:"homework"`
	Classwork  float64            `json:"classwork"`
	ClassFocus float64            `json:"class_focus"`
	Exam       float64            `json:"exam"`
	Skills     map[string]float64 `json:"skills"`
}

// Skill returns the named skill score, or the default when it is absent.
func (r StudentRecord) Skill(name string) float64 {
	if v, ok := r.Skills[name]; ok {
		return v
	}
	return DefaultSkill
}

// PartialRecord mirrors StudentRecord with optional fields, as decoded from
// manual entry forms and JSON requests.
type PartialRecord struct {
	StudentID  *string            `json:"student_id"`
	Attendance *float64           `json:"attendance"`
	Homework   *float64           `json:"homework"`
	Classwork  *float64           `json:"classwork"`
	ClassFocus *float64           `json:"class_focus"`
	Exam       *float64           `json:"exam"`
	Skills     map[string]float64 `json:"skills"`
}

// WithDefaults builds a complete record, filling every missing field with the
// manual-entry default. The input is not modified.
func WithDefaults(p PartialRecord) StudentRecord {
	rec := StudentRecord{
		StudentID:  DefaultStudentID,
		Attendance: DefaultAttendance,
		Homework:   DefaultHomework,
		Classwork:  DefaultClasswork,
		ClassFocus: DefaultClassFocus,
		Exam:       DefaultExam,
		Skills:     make(map[string]float64, len(SkillKeys)),
	}
	if p.StudentID != nil && *p.StudentID != "" {
		rec.StudentID = *p.StudentID
	}
	if p.Attendance != nil {
		rec.Attendance = *p.Attendance
	}
	if p.Homework != nil {
		rec.Homework = *p.Homework
	}
	if p.Classwork != nil {
		rec.Classwork = *p.Classwork
	}
	if p.ClassFocus != nil {
		rec.ClassFocus = *p.ClassFocus
	}
	if p.Exam != nil {
		rec.Exam = *p.Exam
	}
	for k, v := range p.Skills {
		rec.Skills[k] = v
	}
	for _, k := range SkillKeys {
		if _, ok := rec.Skills[k]; !ok {
			rec.Skills[k] = DefaultSkill
		}
	}
	return rec
}
