// Package store implements C2, the tenant-scoped transactional Store that
// both the quiz engine and the grading pipeline depend on. Every method
// that reads or writes an owned entity filters on the caller's tenant id
// and returns apperror.NotFound if that filter excludes the row — this is
// an invariant of every method below, not a convention callers must
// remember (Design Note "soft-delete/tenant leakage").
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stemsi/classhub-backend/internal/identity"
	"github.com/stemsi/classhub-backend/internal/model"
)

// Store is C2. One method per domain operation named in spec.md §4.1, plus
// the supporting CRUD the thin handler layer needs to build quizzes,
// rosters and assessment jobs in the first place.
type Store interface {
	// --- tenant ---
	CreateTenant(ctx context.Context, email, passwordHash string) (*model.Tenant, error)
	GetTenantByEmail(ctx context.Context, email string) (*model.Tenant, error)

	// --- class / roster ---
	CreateClass(ctx context.Context, id identity.Context, name, description string) (*model.Class, error)
	ListClasses(ctx context.Context, id identity.Context) ([]model.Class, error)
	CreateStudent(ctx context.Context, id identity.Context, req model.CreateStudentRequest) (*model.Student, error)
	GetStudentByExternalID(ctx context.Context, id identity.Context, externalID string) (*model.Student, error)
	AddStudentToClass(ctx context.Context, id identity.Context, studentID, classID string) error
	ListStudentsByClass(ctx context.Context, id identity.Context, classID string) ([]model.Student, error)

	// --- quiz / question ---
	CreateQuiz(ctx context.Context, id identity.Context, req model.CreateQuizRequest) (*model.Quiz, error)
	GetQuiz(ctx context.Context, id identity.Context, quizID string) (*model.Quiz, error)
	UpdateQuiz(ctx context.Context, id identity.Context, quizID string, req model.UpdateQuizRequest) (*model.Quiz, error)
	SetQuizLastRoomCode(ctx context.Context, quizID, roomCode string) error
	ListQuizzes(ctx context.Context, id identity.Context) ([]model.Quiz, error)
	AddQuestion(ctx context.Context, id identity.Context, quizID string, req model.AddQuestionRequest) (*model.Question, error)
	ListQuestions(ctx context.Context, id identity.Context, quizID string) ([]model.Question, error)
	CountQuestions(ctx context.Context, id identity.Context, quizID string) (int, error)

	// --- session (spec.md §4.1) ---
	CreateQuizSession(ctx context.Context, id identity.Context, quizID, roomCode string, snapshot model.ConfigSnapshot, timeoutHours float64) (*model.Session, error)
	GetSession(ctx context.Context, id identity.Context, sessionID string) (*model.Session, error)
	GetSessionByRoomCode(ctx context.Context, roomCode string) (*model.Session, error)
	IsRoomCodeLive(ctx context.Context, roomCode string) (bool, error)
	StartSession(ctx context.Context, id identity.Context, sessionID string, now time.Time) (*model.Session, error)
	EndSession(ctx context.Context, id identity.Context, sessionID string, reason model.EndReason, now time.Time) (*model.Session, error)
	AdvanceSession(ctx context.Context, id identity.Context, sessionID string, now time.Time) (*model.Session, error)
	GetTimedOutSessions(ctx context.Context, now time.Time) ([]model.Session, error)
	AutoEndSession(ctx context.Context, sessionID string, now time.Time) (*model.Session, error)

	// --- participant ---
	// AddParticipant persists a join. resolvedStudentID must already be
	// looked up by the caller (student/identified_guest kinds only) — the
	// Store never resolves external_id itself.
	AddParticipant(ctx context.Context, sessionID string, kind model.IdentityKind, resolvedStudentID *string, displayName string, token *string) (*model.Participant, error)
	GetParticipant(ctx context.Context, participantID string) (*model.Participant, error)
	ListParticipantNames(ctx context.Context, sessionID string) ([]string, error)
	CountParticipants(ctx context.Context, sessionID string) (int, error)
	FindParticipantByStudent(ctx context.Context, sessionID, studentID string) (*model.Participant, error)
	UpdateParticipantScore(ctx context.Context, participantID string, addPoints int, addTimeMs int64, isCorrect *bool) error
	GetLeaderboard(ctx context.Context, sessionID string, limit int) ([]model.Participant, error)
	AnonymiseOldGuests(ctx context.Context, now time.Time, retentionDays int) (int, error)

	// --- response ---
	SubmitResponse(ctx context.Context, sessionID, participantID, questionID string, answer json.RawMessage, isCorrect *bool, pointsEarned int, timeTakenMs int64, now time.Time) (*model.Response, error)
	HasResponded(ctx context.Context, sessionID, participantID, questionID string) (bool, error)
	CountDistinctResponders(ctx context.Context, sessionID, questionID string) (int, error)
	GetQuestion(ctx context.Context, questionID string) (*model.Question, error)
	SessionAnalytics(ctx context.Context, sessionID string) (SessionAnalytics, error)

	// --- assessment / grading pipeline ---
	CreateAssessment(ctx context.Context, id identity.Context, cfg model.AssessmentConfig, files []model.AnswerSheetFile, totalPages int) (*model.Assessment, error)
	GetAssessment(ctx context.Context, id identity.Context, assessmentID string) (*model.Assessment, error)
	SetAssessmentStatus(ctx context.Context, assessmentID string, status model.AssessmentStatus) error
	SetAssessmentSummary(ctx context.Context, assessmentID string, summary string) error
	SetAssessmentFailed(ctx context.Context, assessmentID string) error
	ClearPendingAnswerSheets(ctx context.Context, assessmentID string) error

	GetStudentsByClass(ctx context.Context, id identity.Context, classID string) ([]model.Student, error)
	FindOutsiderByName(ctx context.Context, assessmentID, name string) (*model.OutsiderStudent, error)
	CreateOutsiderStudent(ctx context.Context, name, assessmentID string) (*model.OutsiderStudent, error)

	CreateResultsForEntity(ctx context.Context, assessmentID, questionID string, identityKind model.ResultIdentityKind, studentID, outsiderID *string, file model.AnswerSheetFile) (*model.Result, error)
	ListResultsByAssessment(ctx context.Context, assessmentID string) ([]model.Result, error)
	ListResultsByQuestion(ctx context.Context, assessmentID, questionID string) ([]model.Result, error)
	ListResultsByEntity(ctx context.Context, assessmentID string, identityKind model.ResultIdentityKind, entityID string) ([]model.Result, error)
	SetResultExtractedAnswer(ctx context.Context, resultID, extracted string) error
	FinaliseResult(ctx context.Context, resultID string, status model.ResultStatus, grade *float64, feedback *string, finalisedBy *model.FinalisedBy) error
	CountPendingReview(ctx context.Context, assessmentID string) (int, error)

	SaveAIModelRun(ctx context.Context, run model.AIModelRun) error
	ListAIModelRuns(ctx context.Context, assessmentID, questionID string, identityKind model.ResultIdentityKind, entityID string) ([]model.AIModelRun, error)
}

// SessionAnalytics is the supplemented session-level analytics report
// (SPEC_FULL.md §4), grounded on quiz_grading_service.py's
// get_session_analytics.
type SessionAnalytics struct {
	OverallAverageScore float64                    `json:"overall_average_score"`
	PerQuestion         []QuestionAnalytics        `json:"per_question"`
}

type QuestionAnalytics struct {
	QuestionID        string  `json:"question_id"`
	TotalAttempts      int     `json:"total_attempts"`
	CorrectCount        int     `json:"correct_count"`
	CorrectPercentage    float64 `json:"correct_percentage"`
	AvgTimeMs           float64 `json:"avg_time_ms"`
}
