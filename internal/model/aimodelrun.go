package model

import (
	"encoding/json"
	"time"
)

// AIModelRun records one individual LLM grading attempt, for audit and for
// the Phase 3 consensus reconciliation. run_index is 0, 1, or 2 — one per
// independent vision call made for a given (entity, question) pair.
type AIModelRun struct {
	ID           string             `json:"id"`
	AssessmentID string             `json:"assessment_id"`
	IdentityKind ResultIdentityKind `json:"identity_kind"`
	StudentID    *string            `json:"student_id,omitempty"`
	OutsiderID   *string            `json:"outsider_student_id,omitempty"`
	QuestionID   string             `json:"question_id"`
	RunIndex     int                `json:"run_index"`
	RawJSON      json.RawMessage    `json:"raw_json"`
	Grade        *float64           `json:"grade,omitempty"`
	Comment      *string            `json:"comment,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
}
