package model

import "time"

// Student is tenant-scoped but shared across classes via
// StudentClassMembership; ExternalID is teacher-assigned and unique within
// a tenant.
type Student struct {
	ID                string    `json:"id"`
	TenantID          string    `json:"tenant_id,omitempty"`
	Name              string    `json:"name"`
	ExternalID        string    `json:"external_id"`
	OverallGradeCache *float64  `json:"overall_grade_cache,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CreateStudentRequest is the payload for rostering a new student.
type CreateStudentRequest struct {
	Name       string `json:"name" binding:"required,min=1,max=200"`
	ExternalID string `json:"external_id" binding:"required,min=1,max=100"`
}
