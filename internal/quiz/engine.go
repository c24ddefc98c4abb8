package quiz

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/stemsi/classhub-backend/internal/apperror"
	"github.com/stemsi/classhub-backend/internal/clockrand"
	"github.com/stemsi/classhub-backend/internal/config"
	"github.com/stemsi/classhub-backend/internal/identity"
	"github.com/stemsi/classhub-backend/internal/model"
	"github.com/stemsi/classhub-backend/internal/store"
	"github.com/stemsi/classhub-backend/internal/wsconn"
)

// Engine is C6, the QuizSessionEngine. It is the single place business
// rules about a live session live — handlers and the WS read loop call
// into it, never into Store or Registry directly for anything beyond
// plain reads.
type Engine struct {
	store     store.Store
	registry  *wsconn.Registry
	clock     clockrand.Clock
	rand      clockrand.Random
	cfg       *config.Config
	evaluator Evaluator
	log       zerolog.Logger
}

// New builds an Engine.
func New(st store.Store, registry *wsconn.Registry, clock clockrand.Clock, rnd clockrand.Random, cfg *config.Config, log zerolog.Logger) *Engine {
	return &Engine{
		store:     st,
		registry:  registry,
		clock:     clock,
		rand:      rnd,
		cfg:       cfg,
		evaluator: Evaluator{DefaultMinKeywordRatio: cfg.ShortAnswerMinKeywordMatch},
		log:       log.With().Str("component", "quiz_engine").Logger(),
	}
}

// CreateSession freezes the quiz's current questions and settings into a
// config_snapshot and opens a waiting-room session with a fresh room
// code, retrying generation up to RoomCodeRetries times if a collision
// is hit against a still-live session.
func (e *Engine) CreateSession(ctx context.Context, id identity.Context, quizID string) (*model.Session, error) {
	quiz, err := e.store.GetQuiz(ctx, id, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.Status != model.QuizPublished {
		return nil, apperror.Precondition("QUIZ_NOT_PUBLISHED", "only published quizzes can be run as a live session")
	}
	questions, err := e.store.ListQuestions(ctx, id, quizID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, apperror.Precondition("QUIZ_HAS_NO_QUESTIONS", "quiz must have at least one question to start a session")
	}

	snapshot := buildSnapshot(quiz, questions)

	roomCode, err := e.generateUniqueRoomCode(ctx)
	if err != nil {
		return nil, err
	}

	se, err := e.store.CreateQuizSession(ctx, id, quizID, roomCode, snapshot, e.cfg.SessionTimeoutHours)
	if err != nil {
		return nil, err
	}
	if err := e.store.SetQuizLastRoomCode(ctx, quizID, roomCode); err != nil {
		return nil, err
	}
	return se, nil
}

func (e *Engine) generateUniqueRoomCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < e.cfg.RoomCodeRetries; attempt++ {
		code, err := e.rand.RoomCode(e.cfg.RoomCodeLength)
		if err != nil {
			return "", apperror.Transient("ROOM_CODE_GEN_FAILED", err)
		}
		live, err := e.store.IsRoomCodeLive(ctx, code)
		if err != nil {
			return "", err
		}
		if !live {
			return code, nil
		}
	}
	return "", apperror.Exhausted("ROOM_CODE_RETRIES_EXHAUSTED", "could not find a free room code after %d attempts", e.cfg.RoomCodeRetries)
}

func buildSnapshot(quiz *model.Quiz, questions []model.Question) model.ConfigSnapshot {
	settings := model.ParseSettings(quiz.Settings)
	snapQuestions := make([]model.SnapshotQuestion, 0, len(questions))
	for _, q := range questions {
		timeLimit := model.DefaultQuestionTimeSeconds
		if q.TimeLimitSeconds != nil {
			timeLimit = *q.TimeLimitSeconds
		} else if settings.QuestionTimeDefault != nil {
			timeLimit = *settings.QuestionTimeDefault
		}
		snapQuestions = append(snapQuestions, model.SnapshotQuestion{
			ID: q.ID, QuestionText: q.Text, QuestionType: q.QuestionType, OrderIndex: q.OrderIndex,
			Points: q.Points, TimeLimitSeconds: timeLimit, Options: q.Options, CorrectAnswer: q.CorrectAnswer,
		})
	}
	return model.ConfigSnapshot{
		QuizTitle: quiz.Title, QuizSettings: quiz.Settings,
		TotalQuestions: len(snapQuestions), Questions: snapQuestions,
	}
}

// Join admits a participant into a waiting-room session looked up by its
// room code — the only operation that resolves a session cross-tenant,
// since a joiner knows nothing but the code.
func (e *Engine) Join(ctx context.Context, roomCode string, joiner model.Joiner) (*model.Participant, error) {
	se, err := e.store.GetSessionByRoomCode(ctx, roomCode)
	if err != nil {
		return nil, err
	}
	if se.Status != model.SessionWaiting {
		return nil, apperror.Precondition("SESSION_NOT_JOINABLE", "session is not accepting new participants")
	}
	count, err := e.store.CountParticipants(ctx, se.ID)
	if err != nil {
		return nil, err
	}
	if count >= e.cfg.MaxParticipantsPerSession {
		return nil, apperror.Exhausted("SESSION_FULL", "session has reached its participant limit of %d", e.cfg.MaxParticipantsPerSession)
	}

	var resolvedStudentID *string
	displayName := joiner.Name
	tenantCtx := identity.Context{TenantID: se.TenantID}

	switch joiner.Kind {
	case model.IdentityStudent:
		st, err := e.store.GetStudentByExternalID(ctx, tenantCtx, joiner.ExternalID)
		if err != nil {
			return nil, err
		}
		if existing, err := e.store.FindParticipantByStudent(ctx, se.ID, st.ID); err != nil {
			return nil, err
		} else if existing != nil {
			return existing, nil // re-join is idempotent, not a new participant
		}
		resolvedStudentID = &st.ID
		displayName = st.Name
	case model.IdentityIdentifiedGuest:
		st, err := e.store.GetStudentByExternalID(ctx, tenantCtx, joiner.ExternalID)
		if err == nil {
			resolvedStudentID = &st.ID
		}
		// Unknown external_id degrades to a plain guest identity rather
		// than failing the join outright — identified_guest is a
		// best-effort roster match, not a hard requirement.
	case model.IdentityGuest:
		// no resolution needed
	default:
		return nil, apperror.Validation("UNKNOWN_IDENTITY_KIND", "unrecognized joiner kind %q", string(joiner.Kind))
	}

	displayName, err = e.dedupeDisplayName(ctx, se.ID, displayName)
	if err != nil {
		return nil, err
	}

	var token *string
	if joiner.Kind != model.IdentityStudent {
		t, err := e.rand.GuestToken(e.cfg.GuestTokenLength)
		if err != nil {
			return nil, apperror.Transient("GUEST_TOKEN_GEN_FAILED", err)
		}
		token = &t
	}

	p, err := e.store.AddParticipant(ctx, se.ID, joiner.Kind, resolvedStudentID, displayName, token)
	if err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(p)
	e.registry.Broadcast(se.ID, wsconn.Envelope{Type: wsconn.EventParticipantJoined, Payload: payload})
	return p, nil
}

// dedupeDisplayName appends " (2)", " (3)", ... when a name is already
// taken within the session, so two guests named "Alex" are both visible
// on the leaderboard.
func (e *Engine) dedupeDisplayName(ctx context.Context, sessionID, name string) (string, error) {
	existing, err := e.store.ListParticipantNames(ctx, sessionID)
	if err != nil {
		return "", err
	}
	taken := make(map[string]bool, len(existing))
	for _, n := range existing {
		taken[n] = true
	}
	if !taken[name] {
		return name, nil
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s (%d)", name, i)
		if !taken[candidate] {
			return candidate, nil
		}
	}
}

// Start transitions a waiting session to in_progress and broadcasts the
// first question.
func (e *Engine) Start(ctx context.Context, id identity.Context, sessionID string) (*model.Session, error) {
	se, err := e.store.StartSession(ctx, id, sessionID, e.clock.Now())
	if err != nil {
		return nil, err
	}
	e.registry.Broadcast(se.ID, wsconn.Envelope{Type: wsconn.EventSessionStarted})
	if err := e.broadcastCurrentQuestion(se); err != nil {
		return nil, err
	}
	return se, nil
}

// Advance moves to the next question. Advancing past the last question
// is a precondition failure — the host must call End explicitly.
func (e *Engine) Advance(ctx context.Context, id identity.Context, sessionID string) (*model.Session, error) {
	se, err := e.store.GetSession(ctx, id, sessionID)
	if err != nil {
		return nil, err
	}
	snapshot, err := se.DecodeSnapshot()
	if err != nil {
		return nil, apperror.ParseErr("SNAPSHOT_DECODE_FAILED", err)
	}
	if se.CurrentQuestionIdx+1 >= snapshot.TotalQuestions {
		return nil, apperror.Precondition("NO_MORE_QUESTIONS", "no more questions to advance to")
	}
	se, err = e.store.AdvanceSession(ctx, id, sessionID, e.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := e.broadcastCurrentQuestion(se); err != nil {
		return nil, err
	}
	return se, nil
}

func (e *Engine) broadcastCurrentQuestion(se *model.Session) error {
	snapshot, err := se.DecodeSnapshot()
	if err != nil {
		return apperror.ParseErr("SNAPSHOT_DECODE_FAILED", err)
	}
	if se.CurrentQuestionIdx < 0 || se.CurrentQuestionIdx >= len(snapshot.Questions) {
		return apperror.Precondition("QUESTION_INDEX_OUT_OF_RANGE", "current question index out of range")
	}
	q := snapshot.Questions[se.CurrentQuestionIdx]
	payload, _ := json.Marshal(q)
	e.registry.Broadcast(se.ID, wsconn.Envelope{Type: wsconn.EventQuestionStarted, Payload: payload})
	return nil
}

// End transitions a session to its terminal state and broadcasts the
// final leaderboard.
func (e *Engine) End(ctx context.Context, id identity.Context, sessionID string, reason model.EndReason) (*model.Session, error) {
	se, err := e.store.EndSession(ctx, id, sessionID, reason, e.clock.Now())
	if err != nil {
		return nil, err
	}
	board, err := e.store.GetLeaderboard(ctx, sessionID, e.cfg.MaxParticipantsPerSession)
	if err != nil {
		return nil, err
	}
	payload, _ := json.Marshal(board)
	e.registry.Broadcast(se.ID, wsconn.Envelope{Type: wsconn.EventSessionEnded, Payload: payload})
	return se, nil
}

// SubmitAnswer grades and persists one participant's answer to the
// session's current question, then nudges the host view's leaderboard.
// A participant may answer the current question at most once; a repeat
// submission is a conflict (ALREADY_ANSWERED), not silently ignored.
func (e *Engine) SubmitAnswer(ctx context.Context, sessionID, participantID, questionID string, rawAnswer json.RawMessage, timeTakenMs int64) (*model.Response, error) {
	se, err := e.store.GetSession(ctx, identity.Public, sessionID)
	if err != nil {
		return nil, err
	}
	if se.Status != model.SessionInProgress {
		return nil, apperror.Precondition("SESSION_NOT_IN_PROGRESS", "session is not accepting answers")
	}
	snapshot, err := se.DecodeSnapshot()
	if err != nil {
		return nil, apperror.ParseErr("SNAPSHOT_DECODE_FAILED", err)
	}
	if se.CurrentQuestionIdx >= len(snapshot.Questions) || snapshot.Questions[se.CurrentQuestionIdx].ID != questionID {
		return nil, apperror.Precondition("NOT_CURRENT_QUESTION", "submitted answer is not for the session's current question")
	}

	already, err := e.store.HasResponded(ctx, sessionID, participantID, questionID)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, apperror.Conflict("ALREADY_ANSWERED", "participant has already answered this question")
	}

	question, err := e.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	verdict, err := e.evaluator.Evaluate(question, rawAnswer)
	if err != nil {
		return nil, err
	}

	resp, err := e.store.SubmitResponse(ctx, sessionID, participantID, questionID, rawAnswer, verdict.IsCorrect, verdict.Points, timeTakenMs, e.clock.Now())
	if err != nil {
		return nil, err
	}

	payload, _ := json.Marshal(map[string]any{"participant_id": participantID, "verdict": verdict})
	e.registry.SendToParticipant(sessionID, participantID, wsconn.Envelope{Type: wsconn.EventAnswerAccepted, Payload: payload})

	if board, err := e.store.GetLeaderboard(ctx, sessionID, e.cfg.MaxParticipantsPerSession); err == nil {
		boardPayload, _ := json.Marshal(board)
		e.registry.BroadcastToHosts(sessionID, wsconn.Envelope{Type: wsconn.EventLeaderboardUpdate, Payload: boardPayload})
	}

	return resp, nil
}

// Leaderboard returns the current ranking, ordered score desc, total
// time asc, join time asc (spec.md §4.1).
func (e *Engine) Leaderboard(ctx context.Context, sessionID string, limit int) ([]model.Participant, error) {
	if limit <= 0 || limit > e.cfg.MaxParticipantsPerSession {
		limit = e.cfg.MaxParticipantsPerSession
	}
	return e.store.GetLeaderboard(ctx, sessionID, limit)
}

// Analytics returns the session's supplemented analytics report
// (SPEC_FULL.md §4).
func (e *Engine) Analytics(ctx context.Context, sessionID string) (store.SessionAnalytics, error) {
	return e.store.SessionAnalytics(ctx, sessionID)
}
