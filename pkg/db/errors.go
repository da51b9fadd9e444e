package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// IsUniqueViolation reports whether the provided error references a unique
// violation. When constraintName is provided, the helper looks for the
// constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if pgErr := asPgError(err); pgErr != nil {
		return pgErr.Code == pgUniqueViolation && matchesConstraint(pgErr.ConstraintName, constraintName)
	}
	msg := err.Error()
	if constraintName != "" && strings.Contains(msg, constraintName) {
		return true
	}
	// sqlite reports "UNIQUE constraint failed: <table>.<column>"
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}

// IsCheckViolation reports whether err came from a CHECK constraint.
func IsCheckViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if pgErr := asPgError(err); pgErr != nil {
		return pgErr.Code == pgCheckViolation && matchesConstraint(pgErr.ConstraintName, constraintName)
	}
	msg := err.Error()
	return strings.Contains(msg, "violates check constraint") || strings.Contains(msg, "CHECK constraint failed")
}

func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if pgErr := asPgError(err); pgErr != nil {
		return pgErr.Code == pgForeignKeyViolation
	}
	msg := err.Error()
	return strings.Contains(msg, "violates foreign key constraint") || strings.Contains(msg, "FOREIGN KEY constraint failed")
}

func asPgError(err error) *pgconn.PgError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr
	}
	return nil
}

func matchesConstraint(actual, want string) bool {
	return want == "" || actual == want
}
