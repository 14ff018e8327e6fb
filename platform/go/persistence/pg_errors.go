package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"
	pgUndefinedTable  = "42P01"
)

func isUniqueViolation(err error) bool {
	return hasPgCode(err, pgUniqueViolation)
}

func isUndefinedTable(err error) bool {
	return hasPgCode(err, pgUndefinedTable)
}

func hasPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
