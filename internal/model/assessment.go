package model

import (
	"encoding/json"
	"time"
)

// AssessmentStatus drives the GradingPipeline job state machine (spec.md
// §3 lifecycle summary / §4.5 Phase 4).
type AssessmentStatus string

const (
	AssessmentQueued        AssessmentStatus = "QUEUED"
	AssessmentProcessing    AssessmentStatus = "PROCESSING"
	AssessmentSummarising   AssessmentStatus = "SUMMARISING"
	AssessmentPendingReview AssessmentStatus = "PENDING_REVIEW"
	AssessmentCompleted     AssessmentStatus = "COMPLETED"
	AssessmentFailed        AssessmentStatus = "FAILED"
)

// ScoringMethod is carried in the job config but the core's own consensus
// and analytics logic only depends on PerQuestion; the other values are
// accepted and stored for the (out-of-scope) report renderer.
type ScoringMethod string

const (
	ScoringPerQuestion ScoringMethod = "per_question"
	ScoringPerSection  ScoringMethod = "per_section"
	ScoringTotalScore  ScoringMethod = "total_score"
)

// GradingMode records how the teacher set up the job's answer key. Phase 2
// prompt construction does not read it: the prompt includes a question's
// answer key whenever one is present.
type GradingMode string

const (
	GradingAnswerKeyProvided GradingMode = "answer_key_provided"
	GradingAIAutoGrade       GradingMode = "ai_auto_grade"
	GradingLibrary           GradingMode = "library"
)

// QuestionConfig is one question inside a grading-job config section
// (spec.md §6 "Grading job config (V2)").
type QuestionConfig struct {
	ID       string          `json:"id"`
	Text     string          `json:"text"`
	Rubric   string          `json:"rubric,omitempty"`
	MaxScore *float64        `json:"maxScore,omitempty"`
	Answer   json.RawMessage `json:"answer,omitempty"`
}

// SectionConfig groups questions under a titled section.
type SectionConfig struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	TotalScore *int             `json:"total_score,omitempty"`
	Questions  []QuestionConfig `json:"questions"`
}

// AssessmentConfig is the V2 grading-job configuration shape. V1 (flat
// `questions`, no sections) existed in the original system for backward
// compatibility but has no caller in this core — see SPEC_FULL.md §4 — so
// only V2 is modelled here.
type AssessmentConfig struct {
	AssessmentName        string          `json:"assessmentName"`
	ClassID               string          `json:"classId"`
	ScoringMethod         ScoringMethod   `json:"scoringMethod"`
	TotalScore            *int            `json:"totalScore,omitempty"`
	Sections              []SectionConfig `json:"sections"`
	GradingMode           GradingMode     `json:"gradingMode"`
	IncludeImprovementTips bool           `json:"includeImprovementTips"`
	IsManualUpload        bool            `json:"is_manual_upload,omitempty"`
}

// Questions flattens every section's questions in section order, matching
// the original's `[q for s in config.sections for q in s.questions]`.
func (c AssessmentConfig) Questions() []QuestionConfig {
	out := make([]QuestionConfig, 0)
	for _, s := range c.Sections {
		out = append(out, s.Questions...)
	}
	return out
}

// AnswerSheetFile references one uploaded answer-sheet document awaiting
// entity matching.
type AnswerSheetFile struct {
	Path        string `json:"path"`
	ContentType string `json:"contentType"`
}

// Assessment is a bulk AI-grading job.
type Assessment struct {
	ID               string           `json:"id"`
	TenantID         string           `json:"tenant_id"`
	Status           AssessmentStatus `json:"status"`
	Config           json.RawMessage  `json:"config"`
	AnswerSheetPaths json.RawMessage  `json:"answer_sheet_paths"`
	AISummary        *string          `json:"ai_summary,omitempty"`
	TotalPages       *int             `json:"total_pages,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// DecodeConfig unmarshals the job's V2 config.
func (a *Assessment) DecodeConfig() (AssessmentConfig, error) {
	var cfg AssessmentConfig
	if len(a.Config) == 0 {
		return cfg, nil
	}
	err := json.Unmarshal(a.Config, &cfg)
	return cfg, err
}

// DecodeAnswerSheets unmarshals the job's pending answer-sheet file list.
func (a *Assessment) DecodeAnswerSheets() ([]AnswerSheetFile, error) {
	var files []AnswerSheetFile
	if len(a.AnswerSheetPaths) == 0 {
		return files, nil
	}
	err := json.Unmarshal(a.AnswerSheetPaths, &files)
	return files, err
}
