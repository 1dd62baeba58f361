package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrDuplicateEmail  = errors.New("an account with this email already exists")
	ErrSessionConflict = errors.New("an exam session already exists for this user and exam")
)

// uniqueViolation is the SQLSTATE Postgres reports for a unique index conflict.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
