package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

// IsUniqueViolation reports whether err is a unique constraint failure on the
// given column. An empty column matches any unique violation.
func IsUniqueViolation(err error, column string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return false
		}
		return column == "" ||
			strings.Contains(pgErr.ConstraintName, column) ||
			strings.Contains(pgErr.Detail, "("+column+")")
	}

	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		if sqErr.ExtendedCode != sqlite3.ErrConstraintUnique && sqErr.ExtendedCode != sqlite3.ErrConstraintPrimaryKey {
			return false
		}
		return column == "" || strings.Contains(sqErr.Error(), "."+column)
	}

	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsExclusionViolation reports whether err comes from the reservation overlap
// exclusion constraint.
func IsExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
