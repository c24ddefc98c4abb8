package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stemsi/classhub-backend/internal/identity"
	"github.com/stemsi/classhub-backend/internal/model"
)

const assessmentCols = `id, tenant_id, status, config, answer_sheet_paths, ai_summary, total_pages, created_at`

func scanAssessment(row pgx.Row) (*model.Assessment, error) {
	a := &model.Assessment{}
	err := row.Scan(&a.ID, &a.TenantID, &a.Status, &a.Config, &a.AnswerSheetPaths, &a.AISummary, &a.TotalPages, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *PostgresStore) CreateAssessment(ctx context.Context, id identity.Context, cfg model.AssessmentConfig, files []model.AnswerSheetFile, totalPages int) (*model.Assessment, error) {
	cfgRaw, err := json.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	filesRaw, err := json.Marshal(files)
	if err != nil {
		return nil, err
	}
	a := &model.Assessment{
		ID: uuid.New().String(), TenantID: id.TenantID, Status: model.AssessmentQueued,
		Config: cfgRaw, AnswerSheetPaths: filesRaw, TotalPages: &totalPages,
	}
	err = s.pool.QueryRow(ctx,
		`INSERT INTO assessments (id, tenant_id, status, config, answer_sheet_paths, total_pages)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		a.ID, a.TenantID, a.Status, a.Config, a.AnswerSheetPaths, a.TotalPages,
	).Scan(&a.CreatedAt)
	return a, err
}

func (s *PostgresStore) GetAssessment(ctx context.Context, id identity.Context, assessmentID string) (*model.Assessment, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+assessmentCols+` FROM assessments WHERE id = $1 AND tenant_id = $2`, assessmentID, id.TenantID)
	a, err := scanAssessment(row)
	if err != nil {
		return nil, notFoundOn(err, "ASSESSMENT_NOT_FOUND")
	}
	return a, nil
}

func (s *PostgresStore) SetAssessmentStatus(ctx context.Context, assessmentID string, status model.AssessmentStatus) error {
	_, err := s.pool.Exec(ctx, `UPDATE assessments SET status = $1 WHERE id = $2`, status, assessmentID)
	return err
}

func (s *PostgresStore) SetAssessmentSummary(ctx context.Context, assessmentID string, summary string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE assessments SET ai_summary = $1, status = $2 WHERE id = $3`,
		summary, model.AssessmentCompleted, assessmentID)
	return err
}

func (s *PostgresStore) SetAssessmentFailed(ctx context.Context, assessmentID string) error {
	return s.SetAssessmentStatus(ctx, assessmentID, model.AssessmentFailed)
}

func (s *PostgresStore) ClearPendingAnswerSheets(ctx context.Context, assessmentID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE assessments SET answer_sheet_paths = '[]' WHERE id = $1`, assessmentID)
	return err
}

func (s *PostgresStore) FindOutsiderByName(ctx context.Context, assessmentID, name string) (*model.OutsiderStudent, error) {
	o := &model.OutsiderStudent{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, assessment_id FROM outsider_students WHERE assessment_id = $1 AND name = $2`,
		assessmentID, name,
	).Scan(&o.ID, &o.Name, &o.AssessmentID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return o, nil
}

func (s *PostgresStore) CreateOutsiderStudent(ctx context.Context, name, assessmentID string) (*model.OutsiderStudent, error) {
	o := &model.OutsiderStudent{ID: uuid.New().String(), Name: name, AssessmentID: assessmentID}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO outsider_students (id, name, assessment_id) VALUES ($1, $2, $3)`,
		o.ID, o.Name, o.AssessmentID)
	return o, err
}

const resultCols = `id, assessment_id, question_id, identity_kind, student_id, outsider_student_id, grade, feedback, extracted_answer, status, finalised_by, answer_sheet_path, content_type, report_token`

func scanResult(row pgx.Row) (*model.Result, error) {
	r := &model.Result{}
	err := row.Scan(&r.ID, &r.AssessmentID, &r.QuestionID, &r.IdentityKind, &r.StudentID, &r.OutsiderID,
		&r.Grade, &r.Feedback, &r.ExtractedAnswer, &r.Status, &r.FinalisedBy, &r.AnswerSheetPath, &r.ContentType, &r.ReportToken)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *PostgresStore) CreateResultsForEntity(ctx context.Context, assessmentID, questionID string, identityKind model.ResultIdentityKind, studentID, outsiderID *string, file model.AnswerSheetFile) (*model.Result, error) {
	r := &model.Result{
		ID: uuid.New().String(), AssessmentID: assessmentID, QuestionID: questionID, IdentityKind: identityKind,
		StudentID: studentID, OutsiderID: outsiderID, Status: model.ResultPendingGrade,
		AnswerSheetPath: file.Path, ContentType: file.ContentType,
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO results (id, assessment_id, question_id, identity_kind, student_id, outsider_student_id, status, answer_sheet_path, content_type)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.AssessmentID, r.QuestionID, r.IdentityKind, r.StudentID, r.OutsiderID, r.Status, r.AnswerSheetPath, r.ContentType)
	return r, err
}

func (s *PostgresStore) ListResultsByAssessment(ctx context.Context, assessmentID string) ([]model.Result, error) {
	return s.listResults(ctx, `assessment_id = $1`, assessmentID)
}

func (s *PostgresStore) ListResultsByQuestion(ctx context.Context, assessmentID, questionID string) ([]model.Result, error) {
	return s.listResults(ctx, `assessment_id = $1 AND question_id = $2`, assessmentID, questionID)
}

func (s *PostgresStore) ListResultsByEntity(ctx context.Context, assessmentID string, identityKind model.ResultIdentityKind, entityID string) ([]model.Result, error) {
	col := "student_id"
	if identityKind == model.ResultIdentityOutsider {
		col = "outsider_student_id"
	}
	return s.listResults(ctx, `assessment_id = $1 AND identity_kind = $2 AND `+col+` = $3`, assessmentID, identityKind, entityID)
}

func (s *PostgresStore) listResults(ctx context.Context, where string, args ...any) ([]model.Result, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+resultCols+` FROM results WHERE `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SetResultExtractedAnswer(ctx context.Context, resultID, extracted string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE results SET extracted_answer = $1, status = $2 WHERE id = $3`,
		extracted, model.ResultMatched, resultID)
	return err
}

func (s *PostgresStore) FinaliseResult(ctx context.Context, resultID string, status model.ResultStatus, grade *float64, feedback *string, finalisedBy *model.FinalisedBy) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE results SET status = $1, grade = $2, feedback = $3, finalised_by = $4 WHERE id = $5`,
		status, grade, feedback, finalisedBy, resultID)
	return err
}

func (s *PostgresStore) CountPendingReview(ctx context.Context, assessmentID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM results WHERE assessment_id = $1 AND status = $2`,
		assessmentID, model.ResultPendingReview,
	).Scan(&n)
	return n, err
}

func (s *PostgresStore) SaveAIModelRun(ctx context.Context, run model.AIModelRun) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO ai_model_runs (id, assessment_id, identity_kind, student_id, outsider_student_id, question_id, run_index, raw_json, grade, comment)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID, run.AssessmentID, run.IdentityKind, run.StudentID, run.OutsiderID, run.QuestionID, run.RunIndex, run.RawJSON, run.Grade, run.Comment)
	return err
}

func (s *PostgresStore) ListAIModelRuns(ctx context.Context, assessmentID, questionID string, identityKind model.ResultIdentityKind, entityID string) ([]model.AIModelRun, error) {
	col := "student_id"
	if identityKind == model.ResultIdentityOutsider {
		col = "outsider_student_id"
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, assessment_id, identity_kind, student_id, outsider_student_id, question_id, run_index, raw_json, grade, comment, created_at
		 FROM ai_model_runs
		 WHERE assessment_id = $1 AND question_id = $2 AND identity_kind = $3 AND `+col+` = $4
		 ORDER BY run_index ASC`,
		assessmentID, questionID, identityKind, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AIModelRun
	for rows.Next() {
		var r model.AIModelRun
		if err := rows.Scan(&r.ID, &r.AssessmentID, &r.IdentityKind, &r.StudentID, &r.OutsiderID, &r.QuestionID, &r.RunIndex, &r.RawJSON, &r.Grade, &r.Comment, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
