package grading

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stemsi/classhub-backend/internal/model"
)

// progressStatus is Phase 4: if any result is still PENDING_REVIEW after
// consensus, stop there; otherwise compute analytics, ask the LLM for a
// short narrative, and complete the job.
func (p *Pipeline) progressStatus(ctx context.Context, assessmentID string, cfg model.AssessmentConfig, log zerolog.Logger) error {
	pending, err := p.store.CountPendingReview(ctx, assessmentID)
	if err != nil {
		return err
	}
	if pending > 0 {
		log.Info().Int("pending_review", pending).Msg("job awaiting teacher review")
		return p.store.SetAssessmentStatus(ctx, assessmentID, model.AssessmentPendingReview)
	}

	if err := p.store.SetAssessmentStatus(ctx, assessmentID, model.AssessmentSummarising); err != nil {
		return err
	}

	results, err := p.store.ListResultsByAssessment(ctx, assessmentID)
	if err != nil {
		return err
	}
	report := buildAnalytics(results, cfg)

	narrative, err := p.llm.CompleteText(ctx, narrativePrompt(report))
	if err != nil {
		log.Warn().Err(err).Msg("narrative generation failed, completing without it")
	} else if err := p.store.SetAssessmentSummary(ctx, assessmentID, narrative); err != nil {
		return err
	}

	return p.store.SetAssessmentStatus(ctx, assessmentID, model.AssessmentCompleted)
}

// analyticsReport mirrors quiz_grading_service.py's get_session_analytics
// counterpart for assessments: class average/median percentage and a
// letter-grade distribution. It holds no per-question average.
type analyticsReport struct {
	AveragePercent float64
	MedianPercent  float64
	LetterCounts   map[string]int
}

func buildAnalytics(results []model.Result, cfg model.AssessmentConfig) analyticsReport {
	maxScores := make(map[string]float64)
	for _, q := range cfg.Questions() {
		if q.MaxScore != nil {
			maxScores[q.ID] = *q.MaxScore
		} else {
			maxScores[q.ID] = 100
		}
	}

	totals := make(map[string]float64) // entity id -> earned
	maxes := make(map[string]float64)   // entity id -> possible
	for _, r := range results {
		if r.Grade == nil {
			continue
		}
		key := entityKeyOf(r)
		totals[key] += *r.Grade
		maxes[key] += maxScores[r.QuestionID]
	}

	percentages := make([]float64, 0, len(totals))
	for key, earned := range totals {
		if maxes[key] <= 0 {
			continue
		}
		percentages = append(percentages, (earned/maxes[key])*100)
	}

	report := analyticsReport{LetterCounts: map[string]int{"A": 0, "B": 0, "C": 0, "D": 0, "F": 0}}
	if len(percentages) == 0 {
		return report
	}
	sum := 0.0
	for _, pct := range percentages {
		sum += pct
		report.LetterCounts[letterGrade(pct)]++
	}
	report.AveragePercent = sum / float64(len(percentages))
	report.MedianPercent = median(percentages)
	return report
}

func entityKeyOf(r model.Result) string {
	if r.StudentID != nil {
		return "student:" + *r.StudentID
	}
	if r.OutsiderID != nil {
		return "outsider:" + *r.OutsiderID
	}
	return r.ID
}

// letterGrade buckets a percentage per spec.md's F<60, D<70, C<80, B<90,
// A<=100 cut points.
func letterGrade(pct float64) string {
	switch {
	case pct < 60:
		return "F"
	case pct < 70:
		return "D"
	case pct < 80:
		return "C"
	case pct < 90:
		return "B"
	default:
		return "A"
	}
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func narrativePrompt(r analyticsReport) string {
	var b strings.Builder
	b.WriteString("Write a short (2-3 sentence) narrative summary of this class's assessment results for the teacher.\n")
	fmt.Fprintf(&b, "Average: %.1f%%. Median: %.1f%%.\n", r.AveragePercent, r.MedianPercent)
	fmt.Fprintf(&b, "Grade distribution: A=%d B=%d C=%d D=%d F=%d\n",
		r.LetterCounts["A"], r.LetterCounts["B"], r.LetterCounts["C"], r.LetterCounts["D"], r.LetterCounts["F"])
	return b.String()
}
