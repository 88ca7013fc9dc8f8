// Package records turns tabular student reports into StudentRecords.
package records

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/okian/edurate/internal/domain/model"
	"github.com/okian/edurate/internal/domain/skills"
	"github.com/okian/edurate/pkg/logger"
)

// Daily report columns.
const (
	ColAttendance = "attendance"
	ColHWIssue    = "HW_issue"
	ColCWIssue    = "CW_issue"
	ColExam1      = "daily_exam1_mark"
	ColExam2      = "daily_exam2_mark"
	ColStudent    = "student"
	ColComment    = "teacher_comment"
)

// RequiredColumns must appear in every daily report.
var RequiredColumns = []string{ColAttendance, ColHWIssue, ColCWIssue, ColExam1, ColExam2}

const (
	examMarkScale = 10.0
	focusExam     = 0.45
	focusAtt      = 0.25
	focusHW       = 0.15
	focusCW       = 0.15
)

// Extractor reads one student's daily report CSV and derives a record.
type Extractor struct {
	assessor skills.Assessor
	log      logger.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithAssessor sets the skill assessor; the keyword assessor is the default.
func WithAssessor(a skills.Assessor) Option {
	return func(x *Extractor) {
		if a != nil {
			x.assessor = a
		}
	}
}

// WithLogger sets the extractor logger.
func WithLogger(l logger.Logger) Option {
	return func(x *Extractor) {
		if l != nil {
			x.log = l
		}
	}
}

// NewExtractor creates an Extractor.
func NewExtractor(opts ...Option) *Extractor {
	x := &Extractor{
		assessor: skills.NewKeywordAssessor(),
		log:      logger.Get().Named("records"),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// StudentNameFromPath derives a display name from a report file name:
// base name, extension stripped, first letter upper-cased, rest lower-cased.
func StudentNameFromPath(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" {
		return model.DefaultStudentID
	}
	runes := []rune(strings.ToLower(name))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// ExtractFile opens path and extracts it, naming the student after the file
// when the report has no student column.
func (x *Extractor) ExtractFile(ctx context.Context, path string) (model.StudentRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.StudentRecord{}, fmt.Errorf("open report: %w", err)
	}
	defer func() { _ = f.Close() }()
	return x.Extract(ctx, f, StudentNameFromPath(path))
}

// Extract parses a daily report. fallbackName is used when the report has no
// student column or the column is blank.
func (x *Extractor) Extract(ctx context.Context, r io.Reader, fallbackName string) (model.StudentRecord, error) {
	header, rows, err := readAll(r)
	if err != nil {
		return model.StudentRecord{}, err
	}

	idx := indexColumns(header)
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return model.StudentRecord{}, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	if len(rows) == 0 {
		return model.StudentRecord{}, fmt.Errorf("%w: no data rows", ErrEmptyInput)
	}

	name := fallbackName
	if col, ok := idx[ColStudent]; ok {
		for _, row := range rows {
			if v := strings.TrimSpace(cell(row, col)); v != "" {
				name = v
				break
			}
		}
	}
	if name == "" {
		name = model.DefaultStudentID
	}

	present, hwDone, cwDone := 0, 0, 0
	var exam1, exam2 []float64
	var comments []string
	for i, row := range rows {
		line := i + 2
		if strings.EqualFold(strings.TrimSpace(cell(row, idx[ColAttendance])), "present") {
			present++
		}
		hwIssue, err := parseFlag(cell(row, idx[ColHWIssue]))
		if err != nil {
			return model.StudentRecord{}, fmt.Errorf("line %d %s: %w", line, ColHWIssue, err)
		}
		if !hwIssue {
			hwDone++
		}
		cwIssue, err := parseFlag(cell(row, idx[ColCWIssue]))
		if err != nil {
			return model.StudentRecord{}, fmt.Errorf("line %d %s: %w", line, ColCWIssue, err)
		}
		if !cwIssue {
			cwDone++
		}
		if v, ok, err := parseMark(cell(row, idx[ColExam1])); err != nil {
			return model.StudentRecord{}, fmt.Errorf("line %d %s: %w", line, ColExam1, err)
		} else if ok {
			exam1 = append(exam1, v)
		}
		if v, ok, err := parseMark(cell(row, idx[ColExam2])); err != nil {
			return model.StudentRecord{}, fmt.Errorf("line %d %s: %w", line, ColExam2, err)
		} else if ok {
			exam2 = append(exam2, v)
		}
		if col, ok := idx[ColComment]; ok {
			if c := strings.TrimSpace(cell(row, col)); c != "" {
				comments = append(comments, c)
			}
		}
	}

	total := float64(len(rows))
	attendance := float64(present) / total * 100
	homework := doneScore(float64(hwDone) / total)
	classwork := doneScore(float64(cwDone) / total)
	exam := meanOfMeans(exam1, exam2) / examMarkScale * 100
	focus := focusExam*exam + focusAtt*attendance + focusHW*homework*10 + focusCW*classwork*10

	var skillScores map[string]float64
	if _, ok := idx[ColComment]; ok {
		skillScores = x.assessor.Assess(ctx, name, strings.Join(comments, " "))
	} else {
		skillScores = skills.Defaults()
	}

	x.log.Debug(ctx, "report extracted",
		logger.String("student", name),
		logger.Int("rows", len(rows)),
		logger.Int("comments", len(comments)))

	return model.StudentRecord{
		StudentID:  name,
		Attendance: round2(attendance),
		Homework:   homework,
		Classwork:  classwork,
		ClassFocus: round2(focus),
		Exam:       round2(exam),
		Skills:     skillScores,
	}, nil
}

// doneScore maps a completion ratio to 1..10, rounding half to even.
func doneScore(ratio float64) float64 {
	return math.RoundToEven(1 + ratio*9)
}

// meanOfMeans averages each column, then averages the column means that exist.
func meanOfMeans(cols ...[]float64) float64 {
	total, n := 0.0, 0
	for _, c := range cols {
		if len(c) == 0 {
			continue
		}
		sum := 0.0
		for _, v := range c {
			sum += v
		}
		total += sum / float64(len(c))
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y", "t":
		return true, nil
	case "false", "0", "no", "n", "f", "":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, s)
	}
}

// parseMark returns ok=false for blank cells, which are skipped.
func parseMark(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, s)
	}
	return v, true, nil
}

func readAll(r io.Reader) ([]string, [][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrEmptyInput
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	return header, rows, nil
}

func indexColumns(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return idx
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
