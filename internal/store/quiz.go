package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stemsi/classhub-backend/internal/identity"
	"github.com/stemsi/classhub-backend/internal/model"
)

func (s *PostgresStore) CreateQuiz(ctx context.Context, id identity.Context, req model.CreateQuizRequest) (*model.Quiz, error) {
	settings := req.Settings
	if len(settings) == 0 {
		settings = json.RawMessage("{}")
	}
	q := &model.Quiz{
		ID: uuid.New().String(), TenantID: id.TenantID, ClassID: req.ClassID,
		Title: req.Title, Description: req.Description, Status: model.QuizDraft, Settings: settings,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO quizzes (id, tenant_id, class_id, title, description, status, settings)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at, updated_at`,
		q.ID, q.TenantID, q.ClassID, q.Title, q.Description, q.Status, q.Settings,
	).Scan(&q.CreatedAt, &q.UpdatedAt)
	return q, err
}

const quizCols = `id, tenant_id, class_id, title, description, status, settings, last_room_code, deleted_at, created_at, updated_at`

func scanQuiz(row pgx.Row) (*model.Quiz, error) {
	q := &model.Quiz{}
	err := row.Scan(&q.ID, &q.TenantID, &q.ClassID, &q.Title, &q.Description, &q.Status, &q.Settings, &q.LastRoomCode, &q.DeletedAt, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (s *PostgresStore) GetQuiz(ctx context.Context, id identity.Context, quizID string) (*model.Quiz, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+quizCols+` FROM quizzes WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`,
		quizID, id.TenantID)
	q, err := scanQuiz(row)
	if err != nil {
		return nil, notFoundOn(err, "QUIZ_NOT_FOUND")
	}
	return q, nil
}

func (s *PostgresStore) UpdateQuiz(ctx context.Context, id identity.Context, quizID string, req model.UpdateQuizRequest) (*model.Quiz, error) {
	existing, err := s.GetQuiz(ctx, id, quizID)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		existing.Title = *req.Title
	}
	if req.Description != nil {
		existing.Description = *req.Description
	}
	if req.Status != nil {
		existing.Status = *req.Status
	}
	if len(req.Settings) > 0 {
		existing.Settings = req.Settings
	}
	row := s.pool.QueryRow(ctx,
		`UPDATE quizzes SET title = $1, description = $2, status = $3, settings = $4, updated_at = now()
		 WHERE id = $5 AND tenant_id = $6 AND deleted_at IS NULL
		 RETURNING `+quizCols,
		existing.Title, existing.Description, existing.Status, existing.Settings, quizID, id.TenantID)
	q, err := scanQuiz(row)
	if err != nil {
		return nil, notFoundOn(err, "QUIZ_NOT_FOUND")
	}
	return q, nil
}

func (s *PostgresStore) SetQuizLastRoomCode(ctx context.Context, quizID, roomCode string) error {
	_, err := s.pool.Exec(ctx, `UPDATE quizzes SET last_room_code = $1, updated_at = now() WHERE id = $2`, roomCode, quizID)
	return err
}

func (s *PostgresStore) ListQuizzes(ctx context.Context, id identity.Context) ([]model.Quiz, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+quizCols+` FROM quizzes WHERE tenant_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`,
		id.TenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Quiz
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AddQuestion(ctx context.Context, id identity.Context, quizID string, req model.AddQuestionRequest) (*model.Question, error) {
	if _, err := s.GetQuiz(ctx, id, quizID); err != nil {
		return nil, err
	}
	var nextIdx int
	if err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(order_index) + 1, 0) FROM questions WHERE quiz_id = $1`, quizID,
	).Scan(&nextIdx); err != nil {
		return nil, err
	}
	q := &model.Question{
		ID: uuid.New().String(), QuizID: quizID, QuestionType: req.QuestionType, Text: req.Text,
		OrderIndex: nextIdx, Points: req.Points, TimeLimitSeconds: req.TimeLimitSeconds,
		Options: req.Options, CorrectAnswer: req.CorrectAnswer, Explanation: req.Explanation, MediaURL: req.MediaURL,
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO questions (id, quiz_id, question_type, text, order_index, points, time_limit_seconds, options, correct_answer, explanation, media_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		q.ID, q.QuizID, q.QuestionType, q.Text, q.OrderIndex, q.Points, q.TimeLimitSeconds, q.Options, q.CorrectAnswer, q.Explanation, q.MediaURL)
	return q, err
}

const questionCols = `id, quiz_id, question_type, text, order_index, points, time_limit_seconds, options, correct_answer, explanation, media_url`

func scanQuestion(row pgx.Row) (*model.Question, error) {
	q := &model.Question{}
	err := row.Scan(&q.ID, &q.QuizID, &q.QuestionType, &q.Text, &q.OrderIndex, &q.Points, &q.TimeLimitSeconds, &q.Options, &q.CorrectAnswer, &q.Explanation, &q.MediaURL)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (s *PostgresStore) ListQuestions(ctx context.Context, id identity.Context, quizID string) ([]model.Question, error) {
	if _, err := s.GetQuiz(ctx, id, quizID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+questionCols+` FROM questions WHERE quiz_id = $1 ORDER BY order_index ASC`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CountQuestions(ctx context.Context, id identity.Context, quizID string) (int, error) {
	if _, err := s.GetQuiz(ctx, id, quizID); err != nil {
		return 0, err
	}
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions WHERE quiz_id = $1`, quizID).Scan(&n)
	return n, err
}

func (s *PostgresStore) GetQuestion(ctx context.Context, questionID string) (*model.Question, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+questionCols+` FROM questions WHERE id = $1`, questionID)
	q, err := scanQuestion(row)
	if err != nil {
		return nil, notFoundOn(err, "QUESTION_NOT_FOUND")
	}
	return q, nil
}
