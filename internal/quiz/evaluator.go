// Package quiz implements C6, the QuizSessionEngine that drives a live
// session's join/start/advance/submit_answer/end/leaderboard operations.
// Grounded on the teacher's quiz/exam domain services generalized from a
// single-pass exam submission into a multi-question live room, and on
// internal/worker's bulk-operation idioms for the leaderboard batching
// path.
package quiz

import (
	"strings"

	"github.com/stemsi/classhub-backend/internal/model"
)

// Verdict is one question's grading outcome: whether the answer was
// correct (nil for poll-type, which is never "wrong") and how many
// points it earned.
type Verdict struct {
	IsCorrect *bool
	Points    int
}

// Evaluator grades a single submitted answer against a question's
// correct_answer, switching exhaustively over QuestionType. All-or-
// nothing scoring is isolated here so it can be swapped without touching
// session orchestration.
type Evaluator struct {
	// DefaultMinKeywordRatio is applied to len(keywords), rounded up, when
	// a short_answer question has keywords but no explicit min_keywords; a
	// value <= 0 falls back to 0.5 (SPEC_FULL.md Open Question #4).
	DefaultMinKeywordRatio float64
}

// Evaluate grades one answer. q.CorrectAnswer and rawAnswer both arrive as
// raw tagged-sum-type JSON; Evaluate decodes them into the concrete
// variant for q.QuestionType.
func (e Evaluator) Evaluate(q *model.Question, rawAnswer []byte) (Verdict, error) {
	switch q.QuestionType {
	case model.MultipleChoice:
		return e.evaluateMultipleChoice(q, rawAnswer)
	case model.TrueFalse:
		return e.evaluateTrueFalse(q, rawAnswer)
	case model.ShortAnswer:
		return e.evaluateShortAnswer(q, rawAnswer)
	case model.Poll:
		return e.evaluatePoll(q)
	default:
		return Verdict{}, errUnknownQuestionType(q.QuestionType)
	}
}

func boolPtr(b bool) *bool { return &b }

func (e Evaluator) evaluateMultipleChoice(q *model.Question, rawAnswer []byte) (Verdict, error) {
	var key model.MultipleChoiceAnswerKey
	if err := unmarshal(q.CorrectAnswer, &key); err != nil {
		return Verdict{}, err
	}
	var ans model.MultipleChoiceAnswer
	if err := unmarshal(rawAnswer, &ans); err != nil {
		return Verdict{}, err
	}
	correct := ans.Selected != "" && ans.Selected == key.Answer
	points := 0
	if correct {
		points = q.Points
	}
	return Verdict{IsCorrect: boolPtr(correct), Points: points}, nil
}

func (e Evaluator) evaluateTrueFalse(q *model.Question, rawAnswer []byte) (Verdict, error) {
	var key model.TrueFalseAnswerKey
	if err := unmarshal(q.CorrectAnswer, &key); err != nil {
		return Verdict{}, err
	}
	var ans model.TrueFalseAnswer
	if err := unmarshal(rawAnswer, &ans); err != nil {
		return Verdict{}, err
	}
	// A nil Selected is "no answer submitted" — always wrong, distinct
	// from an explicit `false` that happens to disagree with the key.
	correct := ans.Selected != nil && *ans.Selected == key.Answer
	points := 0
	if correct {
		points = q.Points
	}
	return Verdict{IsCorrect: boolPtr(correct), Points: points}, nil
}

func (e Evaluator) evaluateShortAnswer(q *model.Question, rawAnswer []byte) (Verdict, error) {
	var key model.ShortAnswerKey
	if err := unmarshal(q.CorrectAnswer, &key); err != nil {
		return Verdict{}, err
	}
	var ans model.ShortAnswerAnswer
	if err := unmarshal(rawAnswer, &ans); err != nil {
		return Verdict{}, err
	}

	caseSensitive := key.CaseSensitive != nil && *key.CaseSensitive
	submitted := normalize(ans.Text, caseSensitive)

	var correct bool
	switch {
	case len(key.Keywords) > 0:
		correct = e.matchesKeywordThreshold(submitted, key, caseSensitive)
	case key.Answer != nil:
		correct = submitted == normalize(*key.Answer, caseSensitive)
	default:
		correct = false
	}

	points := 0
	if correct {
		points = q.Points
	}
	return Verdict{IsCorrect: boolPtr(correct), Points: points}, nil
}

func (e Evaluator) matchesKeywordThreshold(submitted string, key model.ShortAnswerKey, caseSensitive bool) bool {
	required := e.requiredKeywordCount(key)
	if required <= 0 {
		// An explicit min_keywords of 0 means any single keyword match
		// suffices (SPEC_FULL.md Open Question #4).
		required = 1
	}
	matched := 0
	for _, kw := range key.Keywords {
		if strings.Contains(submitted, normalize(kw, caseSensitive)) {
			matched++
		}
	}
	return matched >= required
}

func (e Evaluator) requiredKeywordCount(key model.ShortAnswerKey) int {
	if key.MinKeywords != nil {
		return *key.MinKeywords
	}
	ratio := e.DefaultMinKeywordRatio
	if ratio <= 0 {
		ratio = 0.5
	}
	n := int(float64(len(key.Keywords))*ratio + 0.999999) // ceil
	if n < 1 {
		n = 1
	}
	return n
}

func (e Evaluator) evaluatePoll(q *model.Question) (Verdict, error) {
	var key model.PollAnswerKey
	if err := unmarshal(q.CorrectAnswer, &key); err != nil {
		return Verdict{}, err
	}
	points := key.ParticipationPoints
	if points == 0 {
		points = model.DefaultParticipationPoints
	}
	// Poll questions have no right answer — participation alone earns
	// points, and IsCorrect stays nil to keep it out of accuracy stats.
	return Verdict{IsCorrect: nil, Points: points}, nil
}

func normalize(s string, caseSensitive bool) string {
	t := strings.TrimSpace(s)
	if !caseSensitive {
		t = strings.ToLower(t)
	}
	return t
}
