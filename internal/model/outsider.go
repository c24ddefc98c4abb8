package model

// OutsiderStudent materialises an unrostered student discovered during
// Phase 1 file-to-entity matching, or created directly for a manual-upload
// job. Scoped to a single assessment job.
type OutsiderStudent struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	AssessmentID string `json:"assessment_id"`
}

// UnknownStudentName is the literal fallback used when vision name
// extraction fails to produce any text, matching the original's
// "Unknown Student" constant.
const UnknownStudentName = "Unknown Student"
