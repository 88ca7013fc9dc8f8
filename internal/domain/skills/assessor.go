// Package skills infers 1..10 skill scores from free-text teacher comments.
package skills

import (
	"context"
	"strings"

	"github.com/okian/edurate/internal/domain/model"
)

const (
	minScore = 1
	maxScore = 10

	// DefaultScore is used for every skill when no comments exist.
	DefaultScore = 5
)

// Assessor turns teacher comments into skill scores keyed by model.SkillKeys.
// Implementations never fail; a live assessor degrades to keywords.
type Assessor interface {
	Assess(ctx context.Context, student, comments string) map[string]float64
}

// Completer is the text generation capability a live assessor needs.
type Completer interface {
	Complete(ctx context.Context, p model.Prompt) (string, error)
}

// keywords per skill; a skill scores two points per distinct keyword present.
var keywords = map[string][]string{
	model.SkillProblemSolving: {"math", "science", "logical", "problem", "solve", "reason"},
	model.SkillCommunication:  {"communication", "speak", "english", "bangla", "write", "express"},
	model.SkillDiscipline:     {"regular", "punctual", "attendance", "disciplined", "homework"},
}

// Defaults returns the scores used when a report has no comment column.
func Defaults() map[string]float64 {
	out := make(map[string]float64, len(model.SkillKeys))
	for _, k := range model.SkillKeys {
		out[k] = DefaultScore
	}
	return out
}

// KeywordAssessor scores skills by keyword presence.
type KeywordAssessor struct{}

// NewKeywordAssessor creates the deterministic assessor.
func NewKeywordAssessor() KeywordAssessor {
	return KeywordAssessor{}
}

// Assess counts distinct keywords per skill and scales the count to 1..10.
func (KeywordAssessor) Assess(_ context.Context, _ string, comments string) map[string]float64 {
	text := strings.ToLower(comments)
	out := make(map[string]float64, len(model.SkillKeys))
	for _, skill := range model.SkillKeys {
		n := 0
		for _, kw := range keywords[skill] {
			if strings.Contains(text, kw) {
				n++
			}
		}
		out[skill] = float64(clamp(2 * n))
	}
	return out
}

func clamp(n int) int {
	if n < minScore {
		return minScore
	}
	if n > maxScore {
		return maxScore
	}
	return n
}
