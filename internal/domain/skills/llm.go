package skills

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/edurate/internal/domain/model"
	"github.com/okian/edurate/pkg/logger"
	"github.com/okian/edurate/pkg/metrics"
)

const (
	systemPrompt = "You are an educational assessment expert. Analyze teacher comments and provide skill scores."
	temperature  = 0.3
	maxTokens    = 50
)

// LLMAssessor asks a text generation service for scores and falls back to
// the keyword assessor on any failure.
type LLMAssessor struct {
	client   Completer
	fallback Assessor
	log      logger.Logger
}

// LLMOption configures an LLMAssessor.
type LLMOption func(*LLMAssessor)

// WithFallback replaces the keyword fallback.
func WithFallback(a Assessor) LLMOption {
	return func(l *LLMAssessor) {
		if a != nil {
			l.fallback = a
		}
	}
}

// WithLogger sets the assessor logger.
func WithLogger(lg logger.Logger) LLMOption {
	return func(l *LLMAssessor) {
		if lg != nil {
			l.log = lg
		}
	}
}

// NewLLMAssessor creates a live assessor over client.
func NewLLMAssessor(client Completer, opts ...LLMOption) *LLMAssessor {
	l := &LLMAssessor{
		client:   client,
		fallback: NewKeywordAssessor(),
		log:      logger.Get().Named("skills"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Assess returns generated scores clamped to 1..10, or the fallback scores.
func (l *LLMAssessor) Assess(ctx context.Context, student, comments string) map[string]float64 {
	reply, err := l.client.Complete(ctx, model.Prompt{
		System:      systemPrompt,
		User:        buildPrompt(student, comments),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err == nil {
		var scores map[string]float64
		if scores, err = ParseScores(reply); err == nil {
			return scores
		}
	}

	metrics.RecordFallback("skills")
	l.log.Warn(ctx, "skill analysis failed, using keywords",
		logger.String("student", student),
		logger.Error(err))
	return l.fallback.Assess(ctx, student, comments)
}

// ParseScores reads "a,b,c" as problem solving, communication and discipline.
func ParseScores(reply string) (map[string]float64, error) {
	parts := strings.Split(strings.TrimSpace(reply), ",")
	if len(parts) < len(model.SkillKeys) {
		return nil, fmt.Errorf("%w: %q", ErrMalformedScores, reply)
	}
	out := make(map[string]float64, len(model.SkillKeys))
	for i, k := range model.SkillKeys {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedScores, reply)
		}
		out[k] = float64(clamp(n))
	}
	return out, nil
}

func buildPrompt(student, comments string) string {
	return fmt.Sprintf(`Analyze the following teacher comments for student %s and rate their skills on a scale of 1-10.

Teacher Comments: %s

Based on these comments, provide scores (1-10, where 10 is excellent) for:
1. Problem Solving: Ability to solve math, science, logical reasoning problems
2. Communication: English/Bangla speaking, writing, expression skills
3. Discipline: Punctuality, attendance, homework completion, behavior

Respond ONLY with three numbers separated by commas: problem_solving,communication,discipline
Example: 7,8,6
`, student, comments)
}
