package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stemsi/classhub-backend/internal/model"
)

const participantCols = `id, session_id, identity_kind, student_id, display_name, guest_token, score, correct_answers, total_time_ms, is_active, joined_at, last_seen_at, anonymised_at`

func scanParticipant(row pgx.Row) (*model.Participant, error) {
	p := &model.Participant{}
	err := row.Scan(&p.ID, &p.SessionID, &p.IdentityKind, &p.StudentID, &p.DisplayName, &p.GuestToken,
		&p.Score, &p.CorrectAnswers, &p.TotalTimeMs, &p.IsActive, &p.JoinedAt, &p.LastSeenAt, &p.AnonymisedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostgresStore) AddParticipant(ctx context.Context, sessionID string, kind model.IdentityKind, resolvedStudentID *string, displayName string, token *string) (*model.Participant, error) {
	p := &model.Participant{
		ID: uuid.New().String(), SessionID: sessionID, IdentityKind: kind,
		StudentID: resolvedStudentID, DisplayName: displayName, GuestToken: token, IsActive: true,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO participants (id, session_id, identity_kind, student_id, display_name, guest_token, score, correct_answers, total_time_ms, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, 0, 0, 0, true)
		 RETURNING joined_at, last_seen_at`,
		p.ID, p.SessionID, p.IdentityKind, p.StudentID, p.DisplayName, p.GuestToken,
	).Scan(&p.JoinedAt, &p.LastSeenAt)
	return p, err
}

func (s *PostgresStore) GetParticipant(ctx context.Context, participantID string) (*model.Participant, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+participantCols+` FROM participants WHERE id = $1`, participantID)
	p, err := scanParticipant(row)
	if err != nil {
		return nil, notFoundOn(err, "PARTICIPANT_NOT_FOUND")
	}
	return p, nil
}

func (s *PostgresStore) ListParticipantNames(ctx context.Context, sessionID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT display_name FROM participants WHERE session_id = $1`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (s *PostgresStore) CountParticipants(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM participants WHERE session_id = $1`, sessionID).Scan(&n)
	return n, err
}

func (s *PostgresStore) FindParticipantByStudent(ctx context.Context, sessionID, studentID string) (*model.Participant, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+participantCols+` FROM participants WHERE session_id = $1 AND student_id = $2`, sessionID, studentID)
	p, err := scanParticipant(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (s *PostgresStore) UpdateParticipantScore(ctx context.Context, participantID string, addPoints int, addTimeMs int64, isCorrect *bool) error {
	correctDelta := 0
	if isCorrect != nil && *isCorrect {
		correctDelta = 1
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE participants
		 SET score = score + $1, total_time_ms = total_time_ms + $2, correct_answers = correct_answers + $3,
		     last_seen_at = now()
		 WHERE id = $4`,
		addPoints, addTimeMs, correctDelta, participantID)
	return err
}

func (s *PostgresStore) GetLeaderboard(ctx context.Context, sessionID string, limit int) ([]model.Participant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+participantCols+` FROM participants
		 WHERE session_id = $1
		 ORDER BY score DESC, total_time_ms ASC, joined_at ASC
		 LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// AnonymiseOldGuests scrubs display names and guest tokens for guest/
// identified_guest participants in sessions that ended more than
// retentionDays ago. Student participants are never touched — their
// identity is the tenant's roster data, out of this scrubber's scope.
func (s *PostgresStore) AnonymiseOldGuests(ctx context.Context, now time.Time, retentionDays int) (int, error) {
	cutoff := now.AddDate(0, 0, -retentionDays)
	rows, err := s.pool.Query(ctx,
		`SELECT p.id FROM participants p
		 JOIN sessions se ON se.id = p.session_id
		 WHERE p.identity_kind IN ($1, $2)
		   AND p.anonymised_at IS NULL
		   AND se.ended_at IS NOT NULL AND se.ended_at <= $3`,
		model.IdentityGuest, model.IdentityIdentifiedGuest, cutoff)
	if err != nil {
		return 0, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	count := 0
	for _, id := range ids {
		anonName := fmt.Sprintf("Anonymous User #%s", lastSix(id))
		_, err := s.pool.Exec(ctx,
			`UPDATE participants SET display_name = $1, guest_token = NULL, anonymised_at = $2 WHERE id = $3`,
			anonName, now, id)
		if err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func lastSix(id string) string {
	clean := id
	if len(clean) > 6 {
		clean = clean[len(clean)-6:]
	}
	return clean
}
