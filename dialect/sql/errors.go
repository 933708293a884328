package sql

import (
	"errors"
	"fmt"
)

// Builder misuse errors. They are returned when a query is compiled,
// before any statement reaches the database.
var (
	// ErrNoQueryType is returned when compiling a query before Select,
	// Insert, Update or Delete was called.
	ErrNoQueryType = errors.New("dialect/sql: query type not set")

	// ErrQueryTypeFixed is returned when a query is turned into a different
	// statement type after its type was set.
	ErrQueryTypeFixed = errors.New("dialect/sql: query type cannot be changed")

	// ErrNoTable is returned when compiling a query without a target table.
	ErrNoTable = errors.New("dialect/sql: target table not set")

	// ErrEmptyValues is returned when compiling an INSERT or UPDATE without values.
	ErrEmptyValues = errors.New("dialect/sql: empty value set")

	// ErrJoinWithoutOn is returned when a non-CROSS join has no ON condition.
	ErrJoinWithoutOn = errors.New("dialect/sql: join requires an ON condition")

	// ErrConflictTarget is returned when an ON CONFLICT DO UPDATE clause has
	// no conflict target on a dialect that requires one.
	ErrConflictTarget = errors.New("dialect/sql: conflict target required for DO UPDATE")

	// ErrArgCount is returned when a raw fragment has a different number of
	// "?" markers than arguments.
	ErrArgCount = errors.New("dialect/sql: placeholder and argument count mismatch")

	// ErrInvalidOperand is returned when a value cannot be used as a column operand.
	ErrInvalidOperand = errors.New("dialect/sql: invalid column operand")

	// ErrNegativeLimit is returned for a negative LIMIT or OFFSET.
	ErrNegativeLimit = errors.New("dialect/sql: negative limit or offset")

	// ErrDialectMismatch is returned when a query is executed on a connection
	// of another dialect.
	ErrDialectMismatch = errors.New("dialect/sql: query and connection dialects differ")
)

// RollbackError is returned by Manager.Transaction when rolling back after a
// failed transaction function also fails. Both errors are matched by
// errors.Is and errors.As.
type RollbackError struct {
	Err      error // Error returned by the transaction function.
	Rollback error // Error returned by the rollback.
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	return fmt.Sprintf("dialect/sql: %v: rollback failed: %v", e.Err, e.Rollback)
}

// Unwrap returns both underlying errors.
func (e *RollbackError) Unwrap() []error {
	return []error{e.Err, e.Rollback}
}
