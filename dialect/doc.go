// Package dialect provides database dialect abstraction for sqlkit.
//
// This package defines the policy objects and interfaces used for
// database-specific SQL syntax, allowing the query compiler to target
// MySQL, SQLite, PostgreSQL and managed PostgreSQL (Supabase).
//
// # Supported Dialects
//
// Each dialect is identified by a constant string:
//
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//	dialect.Postgres = "postgres"
//	dialect.Supabase = "supabase"
//
// MySQL and SQLite use positional "?" placeholders; PostgreSQL and Supabase
// use numbered "$N" placeholders.
//
// # Dialect Interface
//
// A Dialect is stateless and safe for concurrent use:
//
//	d, err := dialect.Open(dialect.Postgres)
//	d.QuoteIdentifier(`my"table`) // "my""table"
//	d.Placeholder(3)              // $3
//	d.SupportsReturning()         // true
//
// Capability flags (SupportsReturning, SupportsLimitInDelete) are consumed
// by the query builder, which silently omits clauses a dialect cannot express.
//
// # Connection Strings
//
// Dialects turn a normalized Config into a driver connection string:
//
//	cfg, err := dialect.DecodeConfig(map[string]any{
//	    "project_ref": "abcd1234",
//	    "region":      "eu-west-1",
//	    "pooling":     true,
//	    "password":    "secret",
//	})
//	d, _ := dialect.Open(dialect.Supabase)
//	dsn, err := d.ConnectionString(d.NormalizeConfig(cfg))
//
// # Driver Interface
//
// The package defines the Driver interface for database operations:
//
//	type Driver interface {
//	    ExecQuerier
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
package dialect
