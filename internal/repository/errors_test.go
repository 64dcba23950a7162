package repository

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsUniqueViolation_Postgres(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "idx_venue_contracts_contract_number",
	})

	assert.True(t, IsUniqueViolation(err, "contract_number"))
	assert.True(t, IsUniqueViolation(err, ""))
	assert.False(t, IsUniqueViolation(err, "reservation_number"))
	assert.False(t, IsExclusionViolation(err))
}

func TestIsExclusionViolation_Postgres(t *testing.T) {
	err := &pgconn.PgError{Code: "23P01", ConstraintName: "venue_reservations_no_overlap"}

	assert.True(t, IsExclusionViolation(err))
	assert.False(t, IsUniqueViolation(err, ""))
}

func TestIsUniqueViolation_Generic(t *testing.T) {
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey, "anything"))
	assert.False(t, IsUniqueViolation(gorm.ErrRecordNotFound, ""))
	assert.False(t, IsUniqueViolation(nil, ""))
	assert.True(t, IsNotFound(fmt.Errorf("wrap: %w", gorm.ErrRecordNotFound)))
}

func TestIsUniqueViolation_SQLiteCodes(t *testing.T) {
	err := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintCheck}
	assert.False(t, IsUniqueViolation(err, ""))
}
