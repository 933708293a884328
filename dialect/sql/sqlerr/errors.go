// Package sqlerr classifies errors returned by the database drivers.
//
// Execution errors are propagated unchanged by dialect/sql; these helpers
// let callers recognize constraint violations without importing every driver.
package sqlerr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Kind is the class of a constraint violation.
type Kind int

// Constraint violation kinds.
const (
	None Kind = iota
	Unique
	ForeignKey
	Check
)

// String implements the fmt.Stringer interface.
func (k Kind) String() string {
	switch k {
	case Unique:
		return "unique"
	case ForeignKey:
		return "foreign key"
	case Check:
		return "check"
	default:
		return "none"
	}
}

// ConstraintError wraps a driver error that resulted from a constraint violation.
type ConstraintError struct {
	Kind Kind
	Err  error
}

// Error implements the error interface.
func (e *ConstraintError) Error() string {
	return fmt.Sprintf("sqlerr: %s constraint violation: %v", e.Kind, e.Err)
}

// Unwrap returns the driver error.
func (e *ConstraintError) Unwrap() error { return e.Err }

// Wrap returns err wrapped in a *ConstraintError if it is a constraint
// violation, and err itself otherwise.
func Wrap(err error) error {
	if k := Classify(err); k != None {
		return &ConstraintError{Kind: k, Err: err}
	}
	return err
}

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry   = 1062
	mysqlForeignKeyParent = 1451 // cannot delete or update a parent row
	mysqlForeignKeyChild  = 1452 // cannot add or update a child row
	mysqlCheckViolation   = 3819
)

// Classify returns the kind of constraint violation err represents.
func Classify(err error) Kind {
	if err == nil {
		return None
	}
	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	var (
		pqErr  *pq.Error
		pgxErr *pgconn.PgError
		myErr  *mysql.MySQLError
		sqlErr *sqlite.Error
	)
	switch {
	case errors.As(err, &pqErr):
		return pgKind(string(pqErr.Code))
	case errors.As(err, &pgxErr):
		return pgKind(pgxErr.Code)
	case errors.As(err, &myErr):
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return Unique
		case mysqlForeignKeyParent, mysqlForeignKeyChild:
			return ForeignKey
		case mysqlCheckViolation:
			return Check
		}
		return None
	case errors.As(err, &sqlErr):
		switch sqlErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return Unique
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return ForeignKey
		case sqlite3.SQLITE_CONSTRAINT_CHECK:
			return Check
		}
		return None
	}
	// Fallback to string matching for errors that lost their driver type.
	msg := err.Error()
	switch {
	case containsAny(msg, "Error 1062", "violates unique constraint", "UNIQUE constraint failed"):
		return Unique
	case containsAny(msg, "Error 1451", "Error 1452", "violates foreign key constraint", "FOREIGN KEY constraint failed"):
		return ForeignKey
	case containsAny(msg, "Error 3819", "violates check constraint", "CHECK constraint failed"):
		return Check
	}
	return None
}

func pgKind(code string) Kind {
	switch code {
	case pgUniqueViolation:
		return Unique
	case pgForeignKeyViolation:
		return ForeignKey
	case pgCheckViolation:
		return Check
	default:
		return None
	}
}

// IsConstraintError reports whether err resulted from any constraint violation.
func IsConstraintError(err error) bool {
	return Classify(err) != None
}

// IsUniqueConstraintError reports whether err resulted from a uniqueness
// violation, e.g. a duplicate value in a unique index.
func IsUniqueConstraintError(err error) bool {
	return Classify(err) == Unique
}

// IsForeignKeyConstraintError reports whether err resulted from a
// foreign-key violation, e.g. a missing parent row.
func IsForeignKeyConstraintError(err error) bool {
	return Classify(err) == ForeignKey
}

// IsCheckConstraintError reports whether err resulted from a check constraint violation.
func IsCheckConstraintError(err error) bool {
	return Classify(err) == Check
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
