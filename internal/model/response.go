package model

import (
	"encoding/json"
	"time"
)

// Response is a single participant's submitted answer to one question.
// Unique on (session_id, participant_id, question_id) — a participant
// answers each question at most once. IsCorrect is nil for poll-type
// questions.
type Response struct {
	ID            string          `json:"id"`
	SessionID     string          `json:"session_id"`
	ParticipantID string          `json:"participant_id"`
	QuestionID    string          `json:"question_id"`
	Answer        json.RawMessage `json:"answer"`
	IsCorrect     *bool           `json:"is_correct"`
	PointsEarned  int             `json:"points_earned"`
	TimeTakenMs   int64           `json:"time_taken_ms"`
	AnsweredAt    time.Time       `json:"answered_at"`
}
