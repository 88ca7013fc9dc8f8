package records

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/edurate/internal/domain/model"
)

// Roster columns, one row per student.
const (
	ColStudentID      = "student_id"
	ColHomework       = "homework"
	ColClasswork      = "classwork"
	ColClassFocus     = "class_focus"
	ColExam           = "exam"
	ColProblemSolving = model.SkillProblemSolving
	ColCommunication  = model.SkillCommunication
	ColDiscipline     = model.SkillDiscipline
)

// ReadRoster parses a one-row-per-student CSV. Absent columns and blank
// cells take the manual-entry defaults.
func ReadRoster(r io.Reader) ([]model.StudentRecord, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return nil, err
	}
	idx := indexColumns(header)

	out := make([]model.StudentRecord, 0, len(rows))
	for i, row := range rows {
		line := i + 2
		var p model.PartialRecord
		if col, ok := idx[ColStudentID]; ok {
			if v := strings.TrimSpace(cell(row, col)); v != "" {
				p.StudentID = &v
			}
		}
		fields := []struct {
			col string
			dst **float64
		}{
			{ColAttendance, &p.Attendance},
			{ColHomework, &p.Homework},
			{ColClasswork, &p.Classwork},
			{ColClassFocus, &p.ClassFocus},
			{ColExam, &p.Exam},
		}
		for _, f := range fields {
			v, ok, err := rosterNumber(row, idx, f.col)
			if err != nil {
				return nil, fmt.Errorf("line %d %s: %w", line, f.col, err)
			}
			if ok {
				*f.dst = &v
			}
		}
		p.Skills = make(map[string]float64, len(model.SkillKeys))
		for _, k := range model.SkillKeys {
			v, ok, err := rosterNumber(row, idx, k)
			if err != nil {
				return nil, fmt.Errorf("line %d %s: %w", line, k, err)
			}
			if ok {
				p.Skills[k] = v
			}
		}
		out = append(out, model.WithDefaults(p))
	}
	return out, nil
}

func rosterNumber(row []string, idx map[string]int, col string) (float64, bool, error) {
	i, ok := idx[col]
	if !ok {
		return 0, false, nil
	}
	s := strings.TrimSpace(cell(row, i))
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, s)
	}
	return v, true, nil
}
