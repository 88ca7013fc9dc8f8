package improvement

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/okian/edurate/internal/domain/model"
	"github.com/okian/edurate/pkg/logger"
	"github.com/okian/edurate/pkg/metrics"
)

// Narrative is long-form prose about one rating.
type Narrative struct {
	ImprovementPlan string `json:"improvement_plan"`
	Strengths       string `json:"strengths_analysis"`
	TeacherGuidance string `json:"teacher_recommendations"`
	Source          string `json:"source"`
}

// Narrator writes prose around a rating. Without a client, or when a call
// fails, it writes deterministic text from the scores.
type Narrator struct {
	client Completer
	log    logger.Logger
}

// NewNarrator creates a narrator; client may be nil.
func NewNarrator(client Completer) *Narrator {
	return &Narrator{
		client: client,
		log:    logger.Get().Named("narrator"),
	}
}

// Live reports whether a text generation client is configured.
func (n *Narrator) Live() bool {
	return n.client != nil
}

// Narrate produces the plan, strengths and teacher guidance texts.
func (n *Narrator) Narrate(ctx context.Context, res model.RatingResult, rec model.Recommendation) Narrative {
	out := Narrative{
		ImprovementPlan: fallbackPlanText(res, rec),
		Strengths:       fallbackStrengths(res),
		TeacherGuidance: fallbackGuidance(res, rec),
		Source:          SourceFallback,
	}
	if n.client == nil {
		return out
	}

	live := 0
	if text, ok := n.complete(ctx, "plan", res.StudentID, model.Prompt{
		System:      "You are an expert educational consultant who creates detailed, actionable improvement plans for students.",
		User:        planPrompt(res, rec),
		Temperature: 0.7,
		MaxTokens:   2000,
	}); ok {
		out.ImprovementPlan = text
		live++
	}
	if text, ok := n.complete(ctx, "strengths", res.StudentID, model.Prompt{
		System:      "You are a supportive educational coach.",
		User:        strengthsPrompt(res),
		Temperature: 0.7,
		MaxTokens:   300,
	}); ok {
		out.Strengths = text
		live++
	}
	if text, ok := n.complete(ctx, "guidance", res.StudentID, model.Prompt{
		System:      "You are an educational consultant advising teachers.",
		User:        guidancePrompt(res, rec),
		Temperature: 0.7,
		MaxTokens:   400,
	}); ok {
		out.TeacherGuidance = text
		live++
	}
	if live > 0 {
		out.Source = SourceLive
	}
	return out
}

func (n *Narrator) complete(ctx context.Context, part, studentID string, p model.Prompt) (string, bool) {
	text, err := n.client.Complete(ctx, p)
	if err == nil && strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text), true
	}
	metrics.RecordFallback("narrator")
	n.log.Warn(ctx, "narrative generation failed, using template",
		logger.String("part", part),
		logger.String("student_id", studentID),
		logger.Error(err))
	return "", false
}

type scored struct {
	name  string
	value float64
}

// rankedScores lists the main categories and each skill, highest first.
func rankedScores(r model.RatingResult) []scored {
	s := r.Subcategories
	out := []scored{
		{model.CategoryAttendance, s.Attendance},
		{model.CategoryHomework, s.Homework},
		{model.CategoryClasswork, s.Classwork},
		{model.CategoryClassFocus, s.ClassFocus},
		{model.CategoryExam, s.Exam},
	}
	for _, k := range model.SkillKeys {
		if v, ok := s.Skills[k]; ok {
			out = append(out, scored{strings.ReplaceAll(k, "_", " "), v})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].value > out[j].value })
	return out
}

func fallbackPlanText(r model.RatingResult, rec model.Recommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Improvement plan for %s (overall %.2f/100, %s).\n", r.StudentID, r.OverallRating, r.Tier)
	fmt.Fprintf(&b, "Focus area: %s (%.2f/100).\n", rec.WeakCategory, rec.Score)
	fmt.Fprintf(&b, "Immediate actions (weeks 1-2): %s\n", rec.Text)
	b.WriteString("Short-term goal (month 1): raise the focus area by 5 points and review progress weekly.\n")
	b.WriteString("Success metrics: track the focus area score after each assessment.")
	return b.String()
}

func fallbackStrengths(r model.RatingResult) string {
	ranked := rankedScores(r)
	top := ranked[:min(3, len(ranked))]
	parts := make([]string, 0, len(top))
	for _, s := range top {
		parts = append(parts, fmt.Sprintf("%s (%.2f)", s.name, s.value))
	}
	return fmt.Sprintf("Top strengths for %s: %s. Use these to support weaker areas.", r.StudentID, strings.Join(parts, ", "))
}

func fallbackGuidance(r model.RatingResult, rec model.Recommendation) string {
	return fmt.Sprintf("For %s, prioritise %s in class: %s Share weekly progress with parents and acknowledge gains.",
		r.StudentID, rec.WeakCategory, rec.Text)
}

func planPrompt(r model.RatingResult, rec model.Recommendation) string {
	s := r.Subcategories
	return fmt.Sprintf(`You are an educational consultant AI. Analyze this student's performance and create a detailed, actionable improvement plan.

STUDENT ID: %s
OVERALL RATING: %.2f/100

PERFORMANCE BREAKDOWN:
- Attendance: %.2f/100
- Homework: %.2f/100
- Classwork: %.2f/100
- Class Focus: %.2f/100
- Exam: %.2f/100
- Skills:
  * Problem Solving: %.2f/100
  * Communication: %.2f/100
  * Discipline: %.2f/100

WEAKEST AREA: %s (%.2f/100)
BASIC RECOMMENDATION: %s

Please create a comprehensive improvement plan with:
1. **Immediate Actions** (Week 1-2): Specific steps to take right away
2. **Short-term Goals** (Month 1): Measurable objectives for the first month
3. **Medium-term Strategy** (Months 2-3): Sustained improvement approach
4. **Long-term Development** (3+ months): Building lasting habits
5. **Success Metrics**: How to measure progress
6. **Additional Resources**: Tools, techniques, or resources that can help

Focus especially on the weakest area (%s) but provide a holistic approach.
Be specific, actionable, and encouraging. Format with clear sections and bullet points.
`, r.StudentID, r.OverallRating, s.Attendance, s.Homework, s.Classwork, s.ClassFocus, s.Exam,
		s.Skills[model.SkillProblemSolving], s.Skills[model.SkillCommunication], s.Skills[model.SkillDiscipline],
		rec.WeakCategory, rec.Score, rec.Text, rec.WeakCategory)
}

func strengthsPrompt(r model.RatingResult) string {
	s := r.Subcategories
	return fmt.Sprintf(`Analyze this student's strengths and provide encouragement.

STUDENT ID: %s
OVERALL RATING: %.2f/100

SCORES:
- Attendance: %.2f/100
- Homework: %.2f/100
- Classwork: %.2f/100
- Class Focus: %.2f/100
- Exam: %.2f/100
- Skills: %v

Identify the top 3 strengths and explain how they can leverage these strengths to improve weaker areas.
Be specific and encouraging. Keep it under 200 words.
`, r.StudentID, r.OverallRating, s.Attendance, s.Homework, s.Classwork, s.ClassFocus, s.Exam, s.Skills)
}

func guidancePrompt(r model.RatingResult, rec model.Recommendation) string {
	return fmt.Sprintf(`As an educational expert, provide recommendations for teachers/educators working with this student.

STUDENT: %s
OVERALL RATING: %.2f/100
WEAKEST AREA: %s

PERFORMANCE DATA:
%+v

Provide:
1. Teaching strategies tailored to this student
2. Classroom interventions
3. Ways to provide targeted support
4. Communication tips for parent/teacher conferences

Keep it practical and actionable for educators. About 150-200 words.
`, r.StudentID, r.OverallRating, rec.WeakCategory, r.Subcategories)
}
