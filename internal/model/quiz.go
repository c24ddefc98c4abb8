package model

import (
	"encoding/json"
	"time"
)

// QuizStatus is the lifecycle state of a Quiz.
type QuizStatus string

const (
	QuizDraft     QuizStatus = "draft"
	QuizPublished QuizStatus = "published"
	QuizArchived  QuizStatus = "archived"
)

// QuizSettings is the subset of the free-form settings blob a Quiz carries
// that the core reads directly when building a session snapshot. It is
// decoded from Quiz.Settings with unknown keys ignored; missing fields fall
// back to the package defaults below.
type QuizSettings struct {
	ParticipationPoints *int `json:"participation_points,omitempty"`
	QuestionTimeDefault *int `json:"question_time_default,omitempty"`
}

// DefaultParticipationPoints is awarded for poll-type answers when the
// quiz's settings blob omits participation_points.
const DefaultParticipationPoints = 5

// DefaultQuestionTimeSeconds is used for a question with no explicit
// time_limit_seconds and no quiz-level override.
const DefaultQuestionTimeSeconds = 30

// ParseSettings decodes a Quiz's raw settings JSON, tolerating an empty or
// nil blob.
func ParseSettings(raw json.RawMessage) QuizSettings {
	var s QuizSettings
	if len(raw) == 0 {
		return s
	}
	_ = json.Unmarshal(raw, &s)
	return s
}

// Quiz is a tenant-owned, optionally class-scoped collection of questions.
// Soft-deleted quizzes (DeletedAt != nil) are excluded from every list/read
// query the Store exposes, unless a dedicated admin flag is set — this is
// an invariant of the Store interface, not of callers (Design Note).
type Quiz struct {
	ID           string          `json:"id"`
	TenantID     string          `json:"tenant_id"`
	ClassID      *string         `json:"class_id,omitempty"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Status       QuizStatus      `json:"status"`
	Settings     json.RawMessage `json:"settings"`
	LastRoomCode *string         `json:"last_room_code,omitempty"`
	DeletedAt    *time.Time      `json:"deleted_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CreateQuizRequest is the payload for creating a quiz in draft status.
type CreateQuizRequest struct {
	Title       string          `json:"title" binding:"required,min=1,max=200"`
	Description string          `json:"description" binding:"max=2000"`
	ClassID     *string         `json:"class_id,omitempty"`
	Settings    json.RawMessage `json:"settings,omitempty"`
}

// UpdateQuizRequest is the payload for editing a quiz, including status
// transitions (draft -> published -> archived).
type UpdateQuizRequest struct {
	Title       *string         `json:"title,omitempty" binding:"omitempty,min=1,max=200"`
	Description *string         `json:"description,omitempty" binding:"omitempty,max=2000"`
	Status      *QuizStatus     `json:"status,omitempty" binding:"omitempty,oneof=draft published archived"`
	Settings    json.RawMessage `json:"settings,omitempty"`
}
