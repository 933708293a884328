package dialect

import (
	"strconv"
	"strings"
)

// Dialect names for external usage.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
	Supabase = "supabase"
)

// PlaceholderStyle defines how query parameters are formatted.
type PlaceholderStyle int

const (
	// PlaceholderQuestion uses ? for all parameters (MySQL, SQLite).
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar uses $1, $2, etc. for parameters (PostgreSQL, Supabase).
	PlaceholderDollar
)

// String returns the string representation of PlaceholderStyle.
func (s PlaceholderStyle) String() string {
	switch s {
	case PlaceholderQuestion:
		return "question"
	case PlaceholderDollar:
		return "dollar"
	default:
		return "unknown"
	}
}

// Dialect describes the SQL syntax of one database engine.
// Implementations are stateless and safe for concurrent use.
type Dialect interface {
	// Name returns the dialect tag (e.g. "postgres").
	Name() string
	// DriverName returns the database/sql driver name used to open connections.
	DriverName() string

	// QuoteIdentifier wraps name in the engine quote character, doubling
	// any embedded quote character.
	QuoteIdentifier(name string) string
	// Placeholder returns the parameter marker for the 1-based index.
	Placeholder(index int) string
	// PlaceholderStyle reports whether placeholders are positional or numbered.
	PlaceholderStyle() PlaceholderStyle

	// SupportsReturning reports whether INSERT/UPDATE/DELETE accept RETURNING.
	SupportsReturning() bool
	// SupportsLimitInDelete reports whether DELETE accepts a LIMIT clause.
	SupportsLimitInDelete() bool

	// AutoIncrementKeyword returns the column attribute for auto-increment keys.
	AutoIncrementKeyword() string
	// SerialType returns the column type for auto-increment integer keys.
	SerialType() string
	// CurrentTimestampExpr returns the expression for the current timestamp.
	CurrentTimestampExpr() string
	// BooleanLiteral returns the literal spelling of a boolean value.
	BooleanLiteral(v bool) string

	// DefaultOptions returns the driver options applied when the caller sets none.
	DefaultOptions() map[string]string
	// NormalizeConfig fills unset fields with the dialect defaults.
	NormalizeConfig(cfg Config) Config
	// ConnectionString builds the driver connection string for cfg.
	ConnectionString(cfg Config) (string, error)

	// TableExistsQuery returns a single-row probe that yields a row when the
	// table exists, along with its arguments.
	TableExistsQuery(table string) (string, []any)
}

// Open returns the dialect registered under name.
func Open(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case MySQL:
		return mysqlDialect{}, nil
	case SQLite, "sqlite3":
		return sqliteDialect{}, nil
	case Postgres, "postgresql":
		return postgresDialect{}, nil
	case Supabase:
		return supabaseDialect{}, nil
	default:
		return nil, &ConfigError{Dialect: name, Err: ErrUnknownDialect}
	}
}

// MustOpen is like Open but panics if the dialect is unknown.
func MustOpen(name string) Dialect {
	d, err := Open(name)
	if err != nil {
		panic(err)
	}
	return d
}

// Names returns the supported dialect tags.
func Names() []string {
	return []string{MySQL, SQLite, Postgres, Supabase}
}

// base supplies the defaults shared by all dialects.
type base struct{}

func (base) SupportsLimitInDelete() bool { return false }

func (base) BooleanLiteral(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

// quote wraps s in q and doubles every embedded q. Backslashes are never
// used for escaping.
func quote(s string, q byte) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(q)
	for i := 0; i < len(s); i++ {
		if s[i] == q {
			b.WriteByte(q)
		}
		b.WriteByte(s[i])
	}
	b.WriteByte(q)
	return b.String()
}

func dollar(index int) string {
	return "$" + strconv.Itoa(index)
}
