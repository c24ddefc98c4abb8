package model

import "time"

// Class is a tenant-owned grouping that rosters students via
// StudentClassMembership. Deleting a class cascades to its memberships but
// never to the Student rows themselves.
type Class struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StudentClassMembership links a Student to a Class. Unique on
// (student_id, class_id).
type StudentClassMembership struct {
	ID        string `json:"id"`
	StudentID string `json:"student_id"`
	ClassID   string `json:"class_id"`
}
