package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stemsi/classhub-backend/internal/apperror"
	"github.com/stemsi/classhub-backend/internal/identity"
	"github.com/stemsi/classhub-backend/internal/model"
)

const sessionCols = `id, quiz_id, tenant_id, status, room_code, current_question_index, config_snapshot, timeout_hours, started_at, ended_at, auto_ended_at, created_at`

func scanSession(row pgx.Row) (*model.Session, error) {
	se := &model.Session{}
	err := row.Scan(&se.ID, &se.QuizID, &se.TenantID, &se.Status, &se.RoomCode, &se.CurrentQuestionIdx,
		&se.ConfigSnapshot, &se.TimeoutHours, &se.StartedAt, &se.EndedAt, &se.AutoEndedAt, &se.CreatedAt)
	if err != nil {
		return nil, err
	}
	return se, nil
}

func (s *PostgresStore) CreateQuizSession(ctx context.Context, id identity.Context, quizID, roomCode string, snapshot model.ConfigSnapshot, timeoutHours float64) (*model.Session, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	se := &model.Session{
		ID: uuid.New().String(), QuizID: quizID, TenantID: id.TenantID, Status: model.SessionWaiting,
		RoomCode: roomCode, ConfigSnapshot: raw, TimeoutHours: timeoutHours,
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO sessions (id, quiz_id, tenant_id, status, room_code, current_question_index, config_snapshot, timeout_hours)
		 VALUES ($1, $2, $3, $4, $5, 0, $6, $7)
		 RETURNING created_at`,
		se.ID, se.QuizID, se.TenantID, se.Status, se.RoomCode, se.ConfigSnapshot, se.TimeoutHours,
	).Scan(&se.CreatedAt)
	if err != nil {
		if pgErrIsUniqueViolation(err) {
			return nil, apperror.Conflict("ROOM_CODE_TAKEN", "room code already in use")
		}
		return nil, err
	}
	return se, nil
}

func (s *PostgresStore) GetSession(ctx context.Context, id identity.Context, sessionID string) (*model.Session, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+sessionCols+` FROM sessions WHERE id = $1 AND tenant_id = $2`, sessionID, id.TenantID)
	se, err := scanSession(row)
	if err != nil {
		return nil, notFoundOn(err, "SESSION_NOT_FOUND")
	}
	return se, nil
}

// GetSessionByRoomCode is the one intentionally cross-tenant lookup: a
// joining guest knows only the room code, not which tenant owns the quiz.
// Callers must still confirm the room is in a joinable state before use.
func (s *PostgresStore) GetSessionByRoomCode(ctx context.Context, roomCode string) (*model.Session, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT se.id, se.quiz_id, se.tenant_id, se.status, se.room_code, se.current_question_index,
		        se.config_snapshot, se.timeout_hours, se.started_at, se.ended_at, se.auto_ended_at, se.created_at
		 FROM sessions se
		 JOIN quizzes q ON q.id = se.quiz_id
		 WHERE se.room_code = $1 AND q.deleted_at IS NULL
		 ORDER BY se.created_at DESC LIMIT 1`, roomCode)
	se, err := scanSession(row)
	if err != nil {
		return nil, notFoundOn(err, "ROOM_NOT_FOUND")
	}
	return se, nil
}

func (s *PostgresStore) IsRoomCodeLive(ctx context.Context, roomCode string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM sessions WHERE room_code = $1 AND status IN ('waiting','in_progress'))`,
		roomCode,
	).Scan(&exists)
	return exists, err
}

func (s *PostgresStore) StartSession(ctx context.Context, id identity.Context, sessionID string, now time.Time) (*model.Session, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE sessions SET status = $1, started_at = $2
		 WHERE id = $3 AND tenant_id = $4 AND status = $5
		 RETURNING `+sessionCols,
		model.SessionInProgress, now, sessionID, id.TenantID, model.SessionWaiting)
	se, err := scanSession(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperror.Precondition("SESSION_NOT_WAITING", "session is not in the waiting state")
		}
		return nil, err
	}
	return se, nil
}

func (s *PostgresStore) EndSession(ctx context.Context, id identity.Context, sessionID string, reason model.EndReason, now time.Time) (*model.Session, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE sessions SET status = $1, ended_at = $2
		 WHERE id = $3 AND tenant_id = $4 AND status IN ($5, $6)
		 RETURNING `+sessionCols,
		model.SessionCompleted, now, sessionID, id.TenantID, model.SessionWaiting, model.SessionInProgress)
	se, err := scanSession(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperror.Precondition("SESSION_ALREADY_ENDED", "session has already ended")
		}
		return nil, err
	}
	if reason == model.EndReasonCancel {
		se.Status = model.SessionCancelled
		if _, err := s.pool.Exec(ctx, `UPDATE sessions SET status = $1 WHERE id = $2`, model.SessionCancelled, se.ID); err != nil {
			return nil, err
		}
	}
	return se, nil
}

func (s *PostgresStore) AdvanceSession(ctx context.Context, id identity.Context, sessionID string, now time.Time) (*model.Session, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE sessions SET current_question_index = current_question_index + 1
		 WHERE id = $1 AND tenant_id = $2 AND status = $3
		 RETURNING `+sessionCols,
		sessionID, id.TenantID, model.SessionInProgress)
	se, err := scanSession(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperror.Precondition("SESSION_NOT_IN_PROGRESS", "session is not in progress")
		}
		return nil, err
	}
	return se, nil
}

// GetTimedOutSessions returns sessions still in waiting or in_progress
// whose timeout window has elapsed. in_progress sessions are timed from
// started_at; waiting sessions never started, so they're timed from
// created_at instead — otherwise a session that is created and never
// started would never be swept.
func (s *PostgresStore) GetTimedOutSessions(ctx context.Context, now time.Time) ([]model.Session, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+sessionCols+` FROM sessions
		 WHERE (status = $1 AND started_at + (timeout_hours * interval '1 hour') <= $3)
		    OR (status = $2 AND created_at + (timeout_hours * interval '1 hour') <= $3)`,
		model.SessionInProgress, model.SessionWaiting, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Session
	for rows.Next() {
		se, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *se)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AutoEndSession(ctx context.Context, sessionID string, now time.Time) (*model.Session, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE sessions SET status = $1, ended_at = $2, auto_ended_at = $2
		 WHERE id = $3 AND status IN ($4, $5)
		 RETURNING `+sessionCols,
		model.SessionCompleted, now, sessionID, model.SessionInProgress, model.SessionWaiting)
	se, err := scanSession(row)
	if err != nil {
		return nil, notFoundOn(err, "SESSION_NOT_FOUND")
	}
	return se, nil
}
