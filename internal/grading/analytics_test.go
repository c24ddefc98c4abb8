package grading

import (
	"testing"

	"github.com/stemsi/classhub-backend/internal/model"
)

func maxScorePtr(v float64) *float64 { return &v }

func gradePtr(v float64) *float64 { return &v }

func TestLetterGradeCutPoints(t *testing.T) {
	cases := []struct {
		pct  float64
		want string
	}{
		{100, "A"}, {90, "A"}, {89.9, "B"},
		{80, "B"}, {79.9, "C"},
		{70, "C"}, {69.9, "D"},
		{60, "D"}, {59.9, "F"},
		{0, "F"},
	}
	for _, c := range cases {
		if got := letterGrade(c.pct); got != c.want {
			t.Errorf("letterGrade(%v) = %q, want %q", c.pct, got, c.want)
		}
	}
}

func TestMedianEvenAndOdd(t *testing.T) {
	if got := median([]float64{3, 1, 2}); got != 2 {
		t.Errorf("median(odd) = %v, want 2", got)
	}
	if got := median([]float64{1, 2, 3, 4}); got != 2.5 {
		t.Errorf("median(even) = %v, want 2.5", got)
	}
}

func TestBuildAnalyticsAggregatesPerEntity(t *testing.T) {
	student1 := "s1"
	student2 := "s2"
	cfg := model.AssessmentConfig{Sections: SectionsFixture()}

	results := []model.Result{
		{QuestionID: "q1", StudentID: &student1, Grade: gradePtr(10)},
		{QuestionID: "q2", StudentID: &student1, Grade: gradePtr(10)},
		{QuestionID: "q1", StudentID: &student2, Grade: gradePtr(5)},
		{QuestionID: "q2", StudentID: &student2, Grade: gradePtr(5)},
	}

	report := buildAnalytics(results, cfg)
	if report.AveragePercent != 75 {
		t.Errorf("got average %v, want 75 ((100+50)/2)", report.AveragePercent)
	}
	if report.LetterCounts["A"] != 1 || report.LetterCounts["F"] != 1 {
		t.Errorf("got letter counts %+v, want one A (student1=100%%) and one F (student2=50%%)", report.LetterCounts)
	}
}

func TestBuildAnalyticsIgnoresUngradedResults(t *testing.T) {
	cfg := model.AssessmentConfig{Sections: SectionsFixture()}
	results := []model.Result{{QuestionID: "q1", Grade: nil}}
	report := buildAnalytics(results, cfg)
	if len(report.LetterCounts) == 0 || report.AveragePercent != 0 {
		t.Errorf("expected an empty report for an all-ungraded result set, got %+v", report)
	}
}

// SectionsFixture is a two-question, max-10-each config shared by the
// analytics tests above.
func SectionsFixture() []model.SectionConfig {
	return []model.SectionConfig{{
		ID:    "sec-1",
		Title: "Section 1",
		Questions: []model.QuestionConfig{
			{ID: "q1", MaxScore: maxScorePtr(10)},
			{ID: "q2", MaxScore: maxScorePtr(10)},
		},
	}}
}
