package quiz

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/classhub-backend/internal/apperror"
	"github.com/stemsi/classhub-backend/internal/clockrand"
	"github.com/stemsi/classhub-backend/internal/config"
	"github.com/stemsi/classhub-backend/internal/identity"
	"github.com/stemsi/classhub-backend/internal/model"
	"github.com/stemsi/classhub-backend/internal/wsconn"
)

func testEngine(t *testing.T, fs *fakeStore) (*Engine, identity.Context) {
	t.Helper()
	cfg := &config.Config{
		MaxParticipantsPerSession: 5,
		RoomCodeLength:            6,
		RoomCodeRetries:           3,
		GuestTokenLength:          16,
		ShortAnswerMinKeywordMatch: 0.5,
	}
	registry := wsconn.NewRegistry(nil, time.Second, time.Second, zerolog.Nop())
	rnd := &clockrand.SequenceRandom{RoomCodes: []string{"ABCDEF"}}
	clock := &clockrand.FixedClock{T: time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)}
	return New(fs, registry, clock, rnd, cfg, zerolog.Nop()), identity.Context{TenantID: "tenant-1"}
}

func seedQuiz(fs *fakeStore, tenantID string) (quizID string, questionID string) {
	quizID = "quiz-1"
	questionID = "q-1"
	key, _ := json.Marshal(model.MultipleChoiceAnswerKey{Answer: "b"})
	fs.quizzes[quizID] = &model.Quiz{ID: quizID, TenantID: tenantID, Title: "Cells", Status: model.QuizPublished}
	fs.questions[quizID] = []model.Question{{
		ID: questionID, QuizID: quizID, QuestionType: model.MultipleChoice, Text: "2+2?",
		OrderIndex: 0, Points: 10,
		CorrectAnswer: key,
	}}
	return
}

func TestCreateSessionGeneratesRoomCode(t *testing.T) {
	fs := newFakeStore()
	engine, id := testEngine(t, fs)
	quizID, _ := seedQuiz(fs, id.TenantID)

	se, err := engine.CreateSession(context.Background(), id, quizID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if se.RoomCode != "ABCDEF" {
		t.Errorf("got room code %q, want ABCDEF", se.RoomCode)
	}
	if se.Status != model.SessionWaiting {
		t.Errorf("got status %q, want waiting", se.Status)
	}
}

func TestJoinDedupesDisplayName(t *testing.T) {
	fs := newFakeStore()
	engine, id := testEngine(t, fs)
	quizID, _ := seedQuiz(fs, id.TenantID)

	se, err := engine.CreateSession(context.Background(), id, quizID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	p1, err := engine.Join(context.Background(), se.RoomCode, model.Joiner{Kind: model.IdentityGuest, Name: "Alex"})
	if err != nil {
		t.Fatalf("join 1: %v", err)
	}
	p2, err := engine.Join(context.Background(), se.RoomCode, model.Joiner{Kind: model.IdentityGuest, Name: "Alex"})
	if err != nil {
		t.Fatalf("join 2: %v", err)
	}
	if p1.DisplayName != "Alex" {
		t.Errorf("got %q, want Alex", p1.DisplayName)
	}
	if p2.DisplayName != "Alex (2)" {
		t.Errorf("got %q, want 'Alex (2)'", p2.DisplayName)
	}
}

func TestJoinRejectsFullSession(t *testing.T) {
	fs := newFakeStore()
	engine, id := testEngine(t, fs)
	engine.cfg.MaxParticipantsPerSession = 1
	quizID, _ := seedQuiz(fs, id.TenantID)
	se, _ := engine.CreateSession(context.Background(), id, quizID)

	if _, err := engine.Join(context.Background(), se.RoomCode, model.Joiner{Kind: model.IdentityGuest, Name: "A"}); err != nil {
		t.Fatalf("first join: %v", err)
	}
	if _, err := engine.Join(context.Background(), se.RoomCode, model.Joiner{Kind: model.IdentityGuest, Name: "B"}); err == nil {
		t.Fatal("expected second join to fail, session is full")
	}
}

func TestSubmitAnswerRejectsDuplicate(t *testing.T) {
	fs := newFakeStore()
	engine, id := testEngine(t, fs)
	quizID, questionID := seedQuiz(fs, id.TenantID)
	se, _ := engine.CreateSession(context.Background(), id, quizID)
	p, _ := engine.Join(context.Background(), se.RoomCode, model.Joiner{Kind: model.IdentityGuest, Name: "Alex"})
	if _, err := engine.Start(context.Background(), id, se.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	answer, _ := json.Marshal(model.MultipleChoiceAnswer{Selected: "b"})
	resp, err := engine.SubmitAnswer(context.Background(), se.ID, p.ID, questionID, answer, 1500)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if resp.IsCorrect == nil || !*resp.IsCorrect || resp.PointsEarned != 10 {
		t.Errorf("got %+v, want correct with 10 points", resp)
	}

	if _, err := engine.SubmitAnswer(context.Background(), se.ID, p.ID, questionID, answer, 1500); err == nil {
		t.Fatal("expected duplicate submission to fail")
	}
}

func TestAdvanceOnLastQuestionReturnsPrecondition(t *testing.T) {
	fs := newFakeStore()
	engine, id := testEngine(t, fs)
	quizID, _ := seedQuiz(fs, id.TenantID)
	se, _ := engine.CreateSession(context.Background(), id, quizID)
	if _, err := engine.Start(context.Background(), id, se.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err := engine.Advance(context.Background(), id, se.ID)
	var appErr *apperror.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperror.KindPrecondition {
		t.Fatalf("got err %v, want a precondition error (single-question quiz has no next question)", err)
	}
	if appErr.Code != "NO_MORE_QUESTIONS" {
		t.Errorf("got code %q, want NO_MORE_QUESTIONS", appErr.Code)
	}
}

func TestLeaderboardOrdersByScoreThenTime(t *testing.T) {
	fs := newFakeStore()
	engine, id := testEngine(t, fs)
	quizID, _ := seedQuiz(fs, id.TenantID)
	se, _ := engine.CreateSession(context.Background(), id, quizID)

	p1, _ := engine.Join(context.Background(), se.RoomCode, model.Joiner{Kind: model.IdentityGuest, Name: "Slow"})
	p2, _ := engine.Join(context.Background(), se.RoomCode, model.Joiner{Kind: model.IdentityGuest, Name: "Fast"})
	fs.UpdateParticipantScore(context.Background(), p1.ID, 10, 5000, nil)
	fs.UpdateParticipantScore(context.Background(), p2.ID, 10, 1000, nil)

	board, err := engine.Leaderboard(context.Background(), se.ID, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 2 || board[0].DisplayName != "Fast" {
		t.Errorf("got %+v, want Fast ranked first on tied score with lower time", board)
	}
}
