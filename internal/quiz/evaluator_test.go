package quiz

import (
	"encoding/json"
	"testing"

	"github.com/stemsi/classhub-backend/internal/model"
)

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestEvaluateMultipleChoice(t *testing.T) {
	e := Evaluator{}
	q := &model.Question{
		QuestionType:  model.MultipleChoice,
		Points:        10,
		CorrectAnswer: mustJSON(t, model.MultipleChoiceAnswerKey{Answer: "b"}),
	}
	v, err := e.Evaluate(q, mustJSON(t, model.MultipleChoiceAnswer{Selected: "b"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.IsCorrect == nil || !*v.IsCorrect || v.Points != 10 {
		t.Errorf("got %+v, want correct with 10 points", v)
	}

	v, err = e.Evaluate(q, mustJSON(t, model.MultipleChoiceAnswer{Selected: "a"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.IsCorrect == nil || *v.IsCorrect || v.Points != 0 {
		t.Errorf("got %+v, want incorrect with 0 points", v)
	}
}

func TestEvaluateTrueFalseNilIsAlwaysWrong(t *testing.T) {
	e := Evaluator{}
	q := &model.Question{
		QuestionType:  model.TrueFalse,
		Points:        5,
		CorrectAnswer: mustJSON(t, model.TrueFalseAnswerKey{Answer: false}),
	}
	v, err := e.Evaluate(q, mustJSON(t, model.TrueFalseAnswer{Selected: nil}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.IsCorrect == nil || *v.IsCorrect {
		t.Errorf("nil selection must never be correct, got %+v", v)
	}

	f := false
	v, err = e.Evaluate(q, mustJSON(t, model.TrueFalseAnswer{Selected: &f}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.IsCorrect == nil || !*v.IsCorrect || v.Points != 5 {
		t.Errorf("explicit false matching key should be correct, got %+v", v)
	}
}

func TestEvaluateShortAnswerKeywordThreshold(t *testing.T) {
	e := Evaluator{DefaultMinKeywordRatio: 0.5}
	q := &model.Question{
		QuestionType: model.ShortAnswer,
		Points:       8,
		CorrectAnswer: mustJSON(t, model.ShortAnswerKey{
			Keywords: []string{"mitochondria", "powerhouse", "cell"},
		}),
	}
	// 2 of 3 keywords present, ceil(3*0.5)=2 required -> correct.
	v, err := e.Evaluate(q, mustJSON(t, model.ShortAnswerAnswer{Text: "The mitochondria is the powerhouse"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.IsCorrect == nil || !*v.IsCorrect {
		t.Errorf("expected correct with 2/3 keywords, got %+v", v)
	}

	// Only 1 keyword present -> below threshold.
	v, err = e.Evaluate(q, mustJSON(t, model.ShortAnswerAnswer{Text: "cell"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.IsCorrect == nil || *v.IsCorrect {
		t.Errorf("expected incorrect with 1/3 keywords, got %+v", v)
	}
}

func TestEvaluateShortAnswerExplicitZeroMinKeywords(t *testing.T) {
	e := Evaluator{}
	zero := 0
	q := &model.Question{
		QuestionType: model.ShortAnswer,
		Points:       8,
		CorrectAnswer: mustJSON(t, model.ShortAnswerKey{
			Keywords:    []string{"photosynthesis", "chlorophyll"},
			MinKeywords: &zero,
		}),
	}
	v, err := e.Evaluate(q, mustJSON(t, model.ShortAnswerAnswer{Text: "chlorophyll absorbs light"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.IsCorrect == nil || !*v.IsCorrect {
		t.Errorf("explicit min_keywords=0 should accept a single match, got %+v", v)
	}
}

func TestEvaluatePollAwardsParticipationPoints(t *testing.T) {
	e := Evaluator{}
	q := &model.Question{
		QuestionType:  model.Poll,
		CorrectAnswer: mustJSON(t, model.PollAnswerKey{ParticipationPoints: 3}),
	}
	v, err := e.Evaluate(q, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.IsCorrect != nil {
		t.Errorf("poll verdicts must never set IsCorrect, got %+v", v.IsCorrect)
	}
	if v.Points != 3 {
		t.Errorf("got %d points, want 3", v.Points)
	}
}

func TestEvaluatePollDefaultParticipationPoints(t *testing.T) {
	e := Evaluator{}
	q := &model.Question{
		QuestionType:  model.Poll,
		CorrectAnswer: mustJSON(t, model.PollAnswerKey{}),
	}
	v, err := e.Evaluate(q, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Points != model.DefaultParticipationPoints {
		t.Errorf("got %d points, want default %d", v.Points, model.DefaultParticipationPoints)
	}
}
