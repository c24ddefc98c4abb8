package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/stemsi/classhub-backend/internal/apperror"
	"github.com/stemsi/classhub-backend/internal/model"
)

func (s *PostgresStore) CreateTenant(ctx context.Context, email, passwordHash string) (*model.Tenant, error) {
	t := &model.Tenant{ID: uuid.New().String(), Email: email, PasswordHash: passwordHash, IsActive: true}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO tenants (id, email, password_hash, is_active)
		 VALUES ($1, $2, $3, true)
		 RETURNING created_at`,
		t.ID, t.Email, t.PasswordHash,
	).Scan(&t.CreatedAt)
	if err != nil {
		if pgErrIsUniqueViolation(err) {
			return nil, apperror.Conflict("TENANT_EMAIL_TAKEN", "an account with this email already exists")
		}
		return nil, err
	}
	return t, nil
}

func (s *PostgresStore) GetTenantByEmail(ctx context.Context, email string) (*model.Tenant, error) {
	t := &model.Tenant{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, is_active, created_at FROM tenants WHERE email = $1`, email,
	).Scan(&t.ID, &t.Email, &t.PasswordHash, &t.IsActive, &t.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperror.NotFound("TENANT_NOT_FOUND", "no account with this email")
		}
		return nil, err
	}
	return t, nil
}
