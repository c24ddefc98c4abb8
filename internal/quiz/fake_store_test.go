package quiz

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/stemsi/classhub-backend/internal/apperror"
	"github.com/stemsi/classhub-backend/internal/identity"
	"github.com/stemsi/classhub-backend/internal/model"
	"github.com/stemsi/classhub-backend/internal/store"
)

// fakeStore is a minimal in-memory stand-in for store.Store, covering only
// what the engine's session/participant/response paths touch. Grounded on
// the teacher's in-repo handler tests, which construct plain struct
// fixtures rather than generated mocks.
type fakeStore struct {
	quizzes      map[string]*model.Quiz
	questions    map[string][]model.Question
	sessions     map[string]*model.Session
	students     map[string]*model.Student
	participants map[string]*model.Participant
	responses    map[string]*model.Response
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		quizzes:      map[string]*model.Quiz{},
		questions:    map[string][]model.Question{},
		sessions:     map[string]*model.Session{},
		students:     map[string]*model.Student{},
		participants: map[string]*model.Participant{},
		responses:    map[string]*model.Response{},
	}
}

func (f *fakeStore) CreateTenant(ctx context.Context, email, passwordHash string) (*model.Tenant, error) {
	return nil, nil
}
func (f *fakeStore) GetTenantByEmail(ctx context.Context, email string) (*model.Tenant, error) {
	return nil, nil
}
func (f *fakeStore) CreateClass(ctx context.Context, id identity.Context, name, description string) (*model.Class, error) {
	return nil, nil
}
func (f *fakeStore) ListClasses(ctx context.Context, id identity.Context) ([]model.Class, error) {
	return nil, nil
}
func (f *fakeStore) CreateStudent(ctx context.Context, id identity.Context, req model.CreateStudentRequest) (*model.Student, error) {
	return nil, nil
}
func (f *fakeStore) GetStudentByExternalID(ctx context.Context, id identity.Context, externalID string) (*model.Student, error) {
	for _, s := range f.students {
		if s.TenantID == id.TenantID && s.ExternalID == externalID {
			return s, nil
		}
	}
	return nil, apperror.NotFound("STUDENT_NOT_FOUND", "no student with external id %q", externalID)
}
func (f *fakeStore) AddStudentToClass(ctx context.Context, id identity.Context, studentID, classID string) error {
	return nil
}
func (f *fakeStore) ListStudentsByClass(ctx context.Context, id identity.Context, classID string) ([]model.Student, error) {
	return nil, nil
}
func (f *fakeStore) CreateQuiz(ctx context.Context, id identity.Context, req model.CreateQuizRequest) (*model.Quiz, error) {
	return nil, nil
}
func (f *fakeStore) GetQuiz(ctx context.Context, id identity.Context, quizID string) (*model.Quiz, error) {
	q, ok := f.quizzes[quizID]
	if !ok {
		return nil, apperror.NotFound("QUIZ_NOT_FOUND", "quiz %q not found", quizID)
	}
	return q, nil
}
func (f *fakeStore) UpdateQuiz(ctx context.Context, id identity.Context, quizID string, req model.UpdateQuizRequest) (*model.Quiz, error) {
	return nil, nil
}
func (f *fakeStore) SetQuizLastRoomCode(ctx context.Context, quizID, roomCode string) error {
	if q, ok := f.quizzes[quizID]; ok {
		q.LastRoomCode = &roomCode
	}
	return nil
}
func (f *fakeStore) ListQuizzes(ctx context.Context, id identity.Context) ([]model.Quiz, error) {
	return nil, nil
}
func (f *fakeStore) AddQuestion(ctx context.Context, id identity.Context, quizID string, req model.AddQuestionRequest) (*model.Question, error) {
	return nil, nil
}
func (f *fakeStore) ListQuestions(ctx context.Context, id identity.Context, quizID string) ([]model.Question, error) {
	return f.questions[quizID], nil
}
func (f *fakeStore) CountQuestions(ctx context.Context, id identity.Context, quizID string) (int, error) {
	return len(f.questions[quizID]), nil
}
func (f *fakeStore) CreateQuizSession(ctx context.Context, id identity.Context, quizID, roomCode string, snapshot model.ConfigSnapshot, timeoutHours float64) (*model.Session, error) {
	for _, s := range f.sessions {
		if s.RoomCode == roomCode && (s.Status == model.SessionWaiting || s.Status == model.SessionInProgress) {
			return nil, apperror.Conflict("ROOM_CODE_TAKEN", "room code %q is already live", roomCode)
		}
	}
	raw, _ := json.Marshal(snapshot)
	se := &model.Session{
		ID: uuid.New().String(), QuizID: quizID, TenantID: id.TenantID,
		Status: model.SessionWaiting, RoomCode: roomCode, CurrentQuestionIdx: 0,
		ConfigSnapshot: raw, TimeoutHours: timeoutHours, CreatedAt: time.Now(),
	}
	f.sessions[se.ID] = se
	return se, nil
}
func (f *fakeStore) GetSession(ctx context.Context, id identity.Context, sessionID string) (*model.Session, error) {
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, apperror.NotFound("SESSION_NOT_FOUND", "session %q not found", sessionID)
	}
	return s, nil
}
func (f *fakeStore) GetSessionByRoomCode(ctx context.Context, roomCode string) (*model.Session, error) {
	for _, s := range f.sessions {
		if s.RoomCode == roomCode && (s.Status == model.SessionWaiting || s.Status == model.SessionInProgress) {
			return s, nil
		}
	}
	return nil, apperror.NotFound("SESSION_NOT_FOUND", "no live session with room code %q", roomCode)
}
func (f *fakeStore) IsRoomCodeLive(ctx context.Context, roomCode string) (bool, error) {
	for _, s := range f.sessions {
		if s.RoomCode == roomCode && (s.Status == model.SessionWaiting || s.Status == model.SessionInProgress) {
			return true, nil
		}
	}
	return false, nil
}
func (f *fakeStore) StartSession(ctx context.Context, id identity.Context, sessionID string, now time.Time) (*model.Session, error) {
	s, err := f.GetSession(ctx, id, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Status != model.SessionWaiting {
		return nil, apperror.Precondition("SESSION_NOT_WAITING", "session is not in waiting state")
	}
	s.Status = model.SessionInProgress
	s.StartedAt = &now
	return s, nil
}
func (f *fakeStore) EndSession(ctx context.Context, id identity.Context, sessionID string, reason model.EndReason, now time.Time) (*model.Session, error) {
	s, err := f.GetSession(ctx, id, sessionID)
	if err != nil {
		return nil, err
	}
	if reason == model.EndReasonCancel {
		s.Status = model.SessionCancelled
	} else {
		s.Status = model.SessionCompleted
	}
	s.EndedAt = &now
	return s, nil
}
func (f *fakeStore) AdvanceSession(ctx context.Context, id identity.Context, sessionID string, now time.Time) (*model.Session, error) {
	s, err := f.GetSession(ctx, id, sessionID)
	if err != nil {
		return nil, err
	}
	s.CurrentQuestionIdx++
	return s, nil
}
func (f *fakeStore) GetTimedOutSessions(ctx context.Context, now time.Time) ([]model.Session, error) {
	return nil, nil
}
func (f *fakeStore) AutoEndSession(ctx context.Context, sessionID string, now time.Time) (*model.Session, error) {
	return nil, nil
}
func (f *fakeStore) AddParticipant(ctx context.Context, sessionID string, kind model.IdentityKind, resolvedStudentID *string, displayName string, token *string) (*model.Participant, error) {
	p := &model.Participant{
		ID: uuid.New().String(), SessionID: sessionID, IdentityKind: kind,
		StudentID: resolvedStudentID, DisplayName: displayName, GuestToken: token,
		IsActive: true, JoinedAt: time.Now(), LastSeenAt: time.Now(),
	}
	f.participants[p.ID] = p
	return p, nil
}
func (f *fakeStore) GetParticipant(ctx context.Context, participantID string) (*model.Participant, error) {
	p, ok := f.participants[participantID]
	if !ok {
		return nil, apperror.NotFound("PARTICIPANT_NOT_FOUND", "participant %q not found", participantID)
	}
	return p, nil
}
func (f *fakeStore) ListParticipantNames(ctx context.Context, sessionID string) ([]string, error) {
	var names []string
	for _, p := range f.participants {
		if p.SessionID == sessionID {
			names = append(names, p.DisplayName)
		}
	}
	return names, nil
}
func (f *fakeStore) CountParticipants(ctx context.Context, sessionID string) (int, error) {
	n := 0
	for _, p := range f.participants {
		if p.SessionID == sessionID {
			n++
		}
	}
	return n, nil
}
func (f *fakeStore) FindParticipantByStudent(ctx context.Context, sessionID, studentID string) (*model.Participant, error) {
	for _, p := range f.participants {
		if p.SessionID == sessionID && p.StudentID != nil && *p.StudentID == studentID {
			return p, nil
		}
	}
	return nil, nil
}
func (f *fakeStore) UpdateParticipantScore(ctx context.Context, participantID string, addPoints int, addTimeMs int64, isCorrect *bool) error {
	p, ok := f.participants[participantID]
	if !ok {
		return apperror.NotFound("PARTICIPANT_NOT_FOUND", "participant %q not found", participantID)
	}
	p.Score += addPoints
	p.TotalTimeMs += addTimeMs
	if isCorrect != nil && *isCorrect {
		p.CorrectAnswers++
	}
	return nil
}
func (f *fakeStore) GetLeaderboard(ctx context.Context, sessionID string, limit int) ([]model.Participant, error) {
	var out []model.Participant
	for _, p := range f.participants {
		if p.SessionID == sessionID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].TotalTimeMs < out[j].TotalTimeMs
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
func (f *fakeStore) AnonymiseOldGuests(ctx context.Context, now time.Time, retentionDays int) (int, error) {
	return 0, nil
}
func (f *fakeStore) SubmitResponse(ctx context.Context, sessionID, participantID, questionID string, answer json.RawMessage, isCorrect *bool, pointsEarned int, timeTakenMs int64, now time.Time) (*model.Response, error) {
	r := &model.Response{
		ID: uuid.New().String(), SessionID: sessionID, ParticipantID: participantID, QuestionID: questionID,
		Answer: answer, IsCorrect: isCorrect, PointsEarned: pointsEarned, TimeTakenMs: timeTakenMs, AnsweredAt: now,
	}
	f.responses[r.ID] = r
	return r, f.UpdateParticipantScore(ctx, participantID, pointsEarned, timeTakenMs, isCorrect)
}
func (f *fakeStore) HasResponded(ctx context.Context, sessionID, participantID, questionID string) (bool, error) {
	for _, r := range f.responses {
		if r.SessionID == sessionID && r.ParticipantID == participantID && r.QuestionID == questionID {
			return true, nil
		}
	}
	return false, nil
}
func (f *fakeStore) CountDistinctResponders(ctx context.Context, sessionID, questionID string) (int, error) {
	seen := map[string]bool{}
	for _, r := range f.responses {
		if r.SessionID == sessionID && r.QuestionID == questionID {
			seen[r.ParticipantID] = true
		}
	}
	return len(seen), nil
}
func (f *fakeStore) GetQuestion(ctx context.Context, questionID string) (*model.Question, error) {
	for _, qs := range f.questions {
		for _, q := range qs {
			if q.ID == questionID {
				return &q, nil
			}
		}
	}
	return nil, apperror.NotFound("QUESTION_NOT_FOUND", "question %q not found", questionID)
}
func (f *fakeStore) SessionAnalytics(ctx context.Context, sessionID string) (store.SessionAnalytics, error) {
	return store.SessionAnalytics{}, nil
}
func (f *fakeStore) CreateAssessment(ctx context.Context, id identity.Context, cfg model.AssessmentConfig, files []model.AnswerSheetFile, totalPages int) (*model.Assessment, error) {
	return nil, nil
}
func (f *fakeStore) GetAssessment(ctx context.Context, id identity.Context, assessmentID string) (*model.Assessment, error) {
	return nil, nil
}
func (f *fakeStore) SetAssessmentStatus(ctx context.Context, assessmentID string, status model.AssessmentStatus) error {
	return nil
}
func (f *fakeStore) SetAssessmentSummary(ctx context.Context, assessmentID string, summary string) error {
	return nil
}
func (f *fakeStore) SetAssessmentFailed(ctx context.Context, assessmentID string) error { return nil }
func (f *fakeStore) ClearPendingAnswerSheets(ctx context.Context, assessmentID string) error {
	return nil
}
func (f *fakeStore) GetStudentsByClass(ctx context.Context, id identity.Context, classID string) ([]model.Student, error) {
	return nil, nil
}
func (f *fakeStore) FindOutsiderByName(ctx context.Context, assessmentID, name string) (*model.OutsiderStudent, error) {
	return nil, nil
}
func (f *fakeStore) CreateOutsiderStudent(ctx context.Context, name, assessmentID string) (*model.OutsiderStudent, error) {
	return nil, nil
}
func (f *fakeStore) CreateResultsForEntity(ctx context.Context, assessmentID, questionID string, identityKind model.ResultIdentityKind, studentID, outsiderID *string, file model.AnswerSheetFile) (*model.Result, error) {
	return nil, nil
}
func (f *fakeStore) ListResultsByAssessment(ctx context.Context, assessmentID string) ([]model.Result, error) {
	return nil, nil
}
func (f *fakeStore) ListResultsByQuestion(ctx context.Context, assessmentID, questionID string) ([]model.Result, error) {
	return nil, nil
}
func (f *fakeStore) ListResultsByEntity(ctx context.Context, assessmentID string, identityKind model.ResultIdentityKind, entityID string) ([]model.Result, error) {
	return nil, nil
}
func (f *fakeStore) SetResultExtractedAnswer(ctx context.Context, resultID, extracted string) error {
	return nil
}
func (f *fakeStore) FinaliseResult(ctx context.Context, resultID string, status model.ResultStatus, grade *float64, feedback *string, finalisedBy *model.FinalisedBy) error {
	return nil
}
func (f *fakeStore) CountPendingReview(ctx context.Context, assessmentID string) (int, error) {
	return 0, nil
}
func (f *fakeStore) SaveAIModelRun(ctx context.Context, run model.AIModelRun) error { return nil }
func (f *fakeStore) ListAIModelRuns(ctx context.Context, assessmentID, questionID string, identityKind model.ResultIdentityKind, entityID string) ([]model.AIModelRun, error) {
	return nil, nil
}
