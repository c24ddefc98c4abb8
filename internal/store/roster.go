package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/stemsi/classhub-backend/internal/apperror"
	"github.com/stemsi/classhub-backend/internal/identity"
	"github.com/stemsi/classhub-backend/internal/model"
)

func (s *PostgresStore) CreateClass(ctx context.Context, id identity.Context, name, description string) (*model.Class, error) {
	c := &model.Class{ID: uuid.New().String(), TenantID: id.TenantID, Name: name, Description: description}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO classes (id, tenant_id, name, description)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		c.ID, c.TenantID, c.Name, c.Description,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *PostgresStore) ListClasses(ctx context.Context, id identity.Context) ([]model.Class, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, name, description, created_at, updated_at
		 FROM classes WHERE tenant_id = $1 ORDER BY name ASC`, id.TenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Class
	for rows.Next() {
		var c model.Class
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateStudent(ctx context.Context, id identity.Context, req model.CreateStudentRequest) (*model.Student, error) {
	st := &model.Student{ID: uuid.New().String(), TenantID: id.TenantID, Name: req.Name, ExternalID: req.ExternalID}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO students (id, tenant_id, name, external_id)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at, updated_at`,
		st.ID, st.TenantID, st.Name, st.ExternalID,
	).Scan(&st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		if pgErrIsUniqueViolation(err) {
			return nil, apperror.Conflict("STUDENT_EXTERNAL_ID_TAKEN", "a student with this external id already exists")
		}
		return nil, err
	}
	return st, nil
}

func (s *PostgresStore) GetStudentByExternalID(ctx context.Context, id identity.Context, externalID string) (*model.Student, error) {
	st := &model.Student{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, name, external_id, overall_grade_cache, created_at, updated_at
		 FROM students WHERE tenant_id = $1 AND external_id = $2`, id.TenantID, externalID,
	).Scan(&st.ID, &st.TenantID, &st.Name, &st.ExternalID, &st.OverallGradeCache, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, notFoundOn(err, "STUDENT_NOT_FOUND")
	}
	return st, nil
}

func (s *PostgresStore) AddStudentToClass(ctx context.Context, id identity.Context, studentID, classID string) error {
	var owns bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM students WHERE id = $1 AND tenant_id = $2)
		   AND EXISTS(SELECT 1 FROM classes WHERE id = $3 AND tenant_id = $2)`,
		studentID, id.TenantID, classID,
	).Scan(&owns)
	if err != nil {
		return err
	}
	if !owns {
		return apperror.NotFound("STUDENT_OR_CLASS_NOT_FOUND", "student or class not found")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO student_class_memberships (id, student_id, class_id)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (student_id, class_id) DO NOTHING`,
		uuid.New().String(), studentID, classID)
	return err
}

func (s *PostgresStore) ListStudentsByClass(ctx context.Context, id identity.Context, classID string) ([]model.Student, error) {
	return s.listStudents(ctx, id, classID)
}

func (s *PostgresStore) GetStudentsByClass(ctx context.Context, id identity.Context, classID string) ([]model.Student, error) {
	return s.listStudents(ctx, id, classID)
}

func (s *PostgresStore) listStudents(ctx context.Context, id identity.Context, classID string) ([]model.Student, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT s.id, s.tenant_id, s.name, s.external_id, s.overall_grade_cache, s.created_at, s.updated_at
		 FROM students s
		 JOIN student_class_memberships m ON m.student_id = s.id
		 WHERE m.class_id = $1 AND s.tenant_id = $2
		 ORDER BY s.name ASC`, classID, id.TenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Student
	for rows.Next() {
		var st model.Student
		if err := rows.Scan(&st.ID, &st.TenantID, &st.Name, &st.ExternalID, &st.OverallGradeCache, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
