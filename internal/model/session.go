package model

import (
	"encoding/json"
	"time"
)

// SessionStatus is the live-quiz session state machine (spec.md §4.4):
//
//	waiting --start--> in_progress --advance--> in_progress (++idx)
//	  |                    |                         |
//	  |                    +--end(completed)---------+--> completed
//	  |                    +--end(cancelled)--------------> cancelled
//	  |                    +--auto_timeout---------------> completed  (auto_ended_at set)
//	  +--end(cancelled)----------------------------------> cancelled
type SessionStatus string

const (
	SessionWaiting    SessionStatus = "waiting"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
	SessionCancelled  SessionStatus = "cancelled"
)

// EndReason distinguishes why a session transitioned to a terminal state.
type EndReason string

const (
	EndReasonHost    EndReason = "host_ended"
	EndReasonCancel  EndReason = "cancelled"
	EndReasonTimeout EndReason = "timeout"
)

// SnapshotQuestion is the frozen per-question shape captured into a
// session's config_snapshot at create time (grounded on
// quiz_session_service.py's _create_session_config_snapshot).
type SnapshotQuestion struct {
	ID               string          `json:"id"`
	QuestionText     string          `json:"question_text"`
	QuestionType     QuestionType    `json:"question_type"`
	OrderIndex       int             `json:"order_index"`
	Points           int             `json:"points"`
	TimeLimitSeconds int             `json:"time_limit_seconds"`
	Options          json.RawMessage `json:"options"`
	CorrectAnswer    json.RawMessage `json:"correct_answer"`
}

// ConfigSnapshot is the frozen copy of a quiz's settings and questions
// taken when the session is created, so mid-session edits to the quiz never perturb a
// running session.
type ConfigSnapshot struct {
	QuizTitle       string             `json:"quiz_title"`
	QuizSettings    json.RawMessage    `json:"quiz_settings"`
	TotalQuestions  int                `json:"total_questions"`
	Questions       []SnapshotQuestion `json:"questions"`
}

// Session is a live run of a published quiz, room-coded for guest join.
// Invariants: status=in_progress => started_at != nil;
// status in {completed, cancelled} => ended_at != nil.
type Session struct {
	ID                  string          `json:"id"`
	QuizID              string          `json:"quiz_id"`
	TenantID            string          `json:"tenant_id"`
	Status              SessionStatus   `json:"status"`
	RoomCode            string          `json:"room_code"`
	CurrentQuestionIdx  int             `json:"current_question_index"`
	ConfigSnapshot      json.RawMessage `json:"config_snapshot"`
	TimeoutHours        float64         `json:"timeout_hours"`
	StartedAt           *time.Time      `json:"started_at,omitempty"`
	EndedAt             *time.Time      `json:"ended_at,omitempty"`
	AutoEndedAt         *time.Time      `json:"auto_ended_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// DecodeSnapshot unmarshals the session's frozen config_snapshot.
func (s *Session) DecodeSnapshot() (ConfigSnapshot, error) {
	var cs ConfigSnapshot
	if len(s.ConfigSnapshot) == 0 {
		return cs, nil
	}
	err := json.Unmarshal(s.ConfigSnapshot, &cs)
	return cs, err
}
