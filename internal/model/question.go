package model

import "encoding/json"

// QuestionType discriminates the tagged-sum-type JSON blobs (options,
// correct_answer, a response's answer) a Question carries. Design Note:
// runtime-typed JSON is modelled as a tagged sum keyed by this
// discriminator rather than loosely-typed maps, so the grading evaluator
// can switch over it exhaustively.
type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
	Poll           QuestionType = "poll"
)

// Question belongs to a Quiz. OrderIndex values are the contiguous set
// 0..n-1 within a quiz at all observable times.
type Question struct {
	ID               string          `json:"id"`
	QuizID           string          `json:"quiz_id"`
	QuestionType     QuestionType    `json:"question_type"`
	Text             string          `json:"text"`
	OrderIndex       int             `json:"order_index"`
	Points           int             `json:"points"`
	TimeLimitSeconds *int            `json:"time_limit_seconds,omitempty"`
	Options          json.RawMessage `json:"options"`
	CorrectAnswer    json.RawMessage `json:"correct_answer"`
	Explanation      string          `json:"explanation,omitempty"`
	MediaURL         string          `json:"media_url,omitempty"`
}

// --- options variants (spec.md §6) ---

type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type MultipleChoiceOptions struct {
	Choices        []Choice `json:"choices"`
	ShuffleOptions bool     `json:"shuffle_options,omitempty"`
}

type ShortAnswerOptions struct {
	MaxLength   *int   `json:"max_length,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

type PollOptions struct {
	Choices []Choice `json:"choices"`
}

// --- correct_answer variants ---

type MultipleChoiceAnswerKey struct {
	Answer string `json:"answer"`
}

type TrueFalseAnswerKey struct {
	Answer bool `json:"answer"`
}

// ShortAnswerKey supports either keyword-threshold grading or whole-string
// equality when Keywords is empty. MinKeywords, when nil, falls back to the
// globally configured ratio (see internal/quiz.Evaluator).
type ShortAnswerKey struct {
	Answer        *string  `json:"answer,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
	MinKeywords   *int     `json:"min_keywords,omitempty"`
	CaseSensitive *bool    `json:"case_sensitive,omitempty"`
}

type PollAnswerKey struct {
	ParticipationPoints int `json:"participation_points"`
}

// --- response.answer variants ---

// MultipleChoiceAnswer and PollAnswer share the same {selected} shape.
type MultipleChoiceAnswer struct {
	Selected string `json:"selected"`
}

// TrueFalseAnswer uses a pointer so "no answer selected" (nil) is
// distinguishable from a genuine, present `false` value — the same
// distinction the original grading service makes with `is None`.
type TrueFalseAnswer struct {
	Selected *bool `json:"selected"`
}

type ShortAnswerAnswer struct {
	Text string `json:"text"`
}

type PollAnswer struct {
	Selected string `json:"selected"`
}

// AddQuestionRequest is the payload for appending a question to a quiz.
type AddQuestionRequest struct {
	QuestionType     QuestionType    `json:"question_type" binding:"required,oneof=multiple_choice true_false short_answer poll"`
	Text             string          `json:"text" binding:"required,min=1,max=2000"`
	Points           int             `json:"points" binding:"min=0"`
	TimeLimitSeconds *int            `json:"time_limit_seconds,omitempty"`
	Options          json.RawMessage `json:"options"`
	CorrectAnswer    json.RawMessage `json:"correct_answer"`
	Explanation      string          `json:"explanation,omitempty"`
	MediaURL         string          `json:"media_url,omitempty"`
}
