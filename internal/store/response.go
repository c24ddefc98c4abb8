package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/stemsi/classhub-backend/internal/apperror"
	"github.com/stemsi/classhub-backend/internal/model"
)

// SubmitResponse inserts the answer row and applies its score delta to the
// participant atomically — spec.md §5's "submit_response and
// update_participant_score commit as a single unit" invariant — so a crash
// between the two never leaves a scored answer with no response row or
// vice versa.
func (s *PostgresStore) SubmitResponse(ctx context.Context, sessionID, participantID, questionID string, answer json.RawMessage, isCorrect *bool, pointsEarned int, timeTakenMs int64, now time.Time) (*model.Response, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	r := &model.Response{
		ID: uuid.New().String(), SessionID: sessionID, ParticipantID: participantID, QuestionID: questionID,
		Answer: answer, IsCorrect: isCorrect, PointsEarned: pointsEarned, TimeTakenMs: timeTakenMs, AnsweredAt: now,
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO responses (id, session_id, participant_id, question_id, answer, is_correct, points_earned, time_taken_ms, answered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.SessionID, r.ParticipantID, r.QuestionID, r.Answer, r.IsCorrect, r.PointsEarned, r.TimeTakenMs, r.AnsweredAt)
	if err != nil {
		if pgErrIsUniqueViolation(err) {
			return nil, apperror.Conflict("ALREADY_ANSWERED", "participant has already answered this question")
		}
		return nil, err
	}

	correctDelta := 0
	if isCorrect != nil && *isCorrect {
		correctDelta = 1
	}
	_, err = tx.Exec(ctx,
		`UPDATE participants
		 SET score = score + $1, total_time_ms = total_time_ms + $2, correct_answers = correct_answers + $3,
		     last_seen_at = $4
		 WHERE id = $5`,
		pointsEarned, timeTakenMs, correctDelta, now, participantID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *PostgresStore) HasResponded(ctx context.Context, sessionID, participantID, questionID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM responses WHERE session_id = $1 AND participant_id = $2 AND question_id = $3)`,
		sessionID, participantID, questionID,
	).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) CountDistinctResponders(ctx context.Context, sessionID, questionID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT participant_id) FROM responses WHERE session_id = $1 AND question_id = $2`,
		sessionID, questionID,
	).Scan(&n)
	return n, err
}

// SessionAnalytics supplements spec.md with the per-session reporting the
// teacher dashboard shows after a quiz ends (SPEC_FULL.md §4), grounded on
// quiz_grading_service.py's get_session_analytics but redefined to average
// over responses actually submitted rather than over inactive participants.
func (s *PostgresStore) SessionAnalytics(ctx context.Context, sessionID string) (SessionAnalytics, error) {
	var out SessionAnalytics

	rows, err := s.pool.Query(ctx,
		`SELECT question_id,
		        COUNT(*) AS total_attempts,
		        COUNT(*) FILTER (WHERE is_correct) AS correct_count,
		        COALESCE(AVG(time_taken_ms), 0) AS avg_time_ms
		 FROM responses
		 WHERE session_id = $1
		 GROUP BY question_id`, sessionID)
	if err != nil {
		return out, err
	}
	defer rows.Close()

	for rows.Next() {
		var qa QuestionAnalytics
		if err := rows.Scan(&qa.QuestionID, &qa.TotalAttempts, &qa.CorrectCount, &qa.AvgTimeMs); err != nil {
			return out, err
		}
		if qa.TotalAttempts > 0 {
			qa.CorrectPercentage = 100 * float64(qa.CorrectCount) / float64(qa.TotalAttempts)
		}
		out.PerQuestion = append(out.PerQuestion, qa)
	}
	if err := rows.Err(); err != nil {
		return out, err
	}

	var avgScore *float64
	if err := s.pool.QueryRow(ctx, `SELECT AVG(score) FROM participants WHERE session_id = $1`, sessionID).Scan(&avgScore); err != nil {
		return out, err
	}
	if avgScore != nil {
		out.OverallAverageScore = *avgScore
	}
	return out, nil
}
