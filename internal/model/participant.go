package model

import "time"

// IdentityKind discriminates a Participant's identity variant. Exactly one
// is populated per Design Note ("explicit identity variant enums instead
// of dual nullable columns").
type IdentityKind string

const (
	IdentityStudent         IdentityKind = "student"
	IdentityGuest           IdentityKind = "guest"
	IdentityIdentifiedGuest IdentityKind = "identified_guest"
)

// Participant is a single joiner of a live session. Score counters are
// monotone non-decreasing during a session except on teacher-initiated
// adjustments (out of core scope).
type Participant struct {
	ID             string       `json:"id"`
	SessionID      string       `json:"session_id"`
	IdentityKind   IdentityKind `json:"identity_kind"`
	StudentID      *string      `json:"student_id,omitempty"`
	DisplayName    string       `json:"display_name"`
	GuestToken     *string      `json:"-"`
	Score          int          `json:"score"`
	CorrectAnswers int          `json:"correct_answers"`
	TotalTimeMs    int64        `json:"total_time_ms"`
	IsActive       bool         `json:"is_active"`
	JoinedAt       time.Time    `json:"joined_at"`
	LastSeenAt     time.Time    `json:"last_seen_at"`
	AnonymisedAt   *time.Time   `json:"anonymised_at,omitempty"`
}

// Joiner is the tagged union of ways a principal can join a session,
// mirroring spec.md §4.4 operation 2's `{Guest{name}, Student{external_id},
// IdentifiedGuest{name, external_id}}`.
type Joiner struct {
	Kind       IdentityKind
	Name       string // Guest, IdentifiedGuest
	ExternalID string // Student, IdentifiedGuest
}
