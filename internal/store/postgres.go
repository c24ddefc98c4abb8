package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stemsi/classhub-backend/internal/apperror"
)

// uniqueViolation is Postgres SQLSTATE 23505.
const uniqueViolation = "23505"

func pgErrIsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// PostgresStore is the pgx-backed Store implementation. Grounded on the
// teacher's repository/*.go query idioms (positional args, ON CONFLICT ...
// RETURNING, dynamic WHERE builders) but collapsed into a single package
// since C2 is spec'd as one component rather than a repository-per-model
// split.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore over an established pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func notFoundOn(err error, code string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NotFound(code, fmt.Sprintf("%s not found", code))
	}
	return err
}

func rawOrNull(v any) (json.RawMessage, error) {
	if v == nil {
		return json.RawMessage("null"), nil
	}
	return json.Marshal(v)
}
