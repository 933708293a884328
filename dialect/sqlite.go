package dialect

import "net/url"

// sqliteDialect implements Dialect for SQLite.
type sqliteDialect struct{ base }

func (sqliteDialect) Name() string       { return SQLite }
func (sqliteDialect) DriverName() string { return "sqlite" }

func (sqliteDialect) QuoteIdentifier(name string) string { return quote(name, '"') }
func (sqliteDialect) Placeholder(int) string             { return "?" }

func (sqliteDialect) PlaceholderStyle() PlaceholderStyle { return PlaceholderQuestion }

// SupportsReturning is true since SQLite 3.35.
func (sqliteDialect) SupportsReturning() bool { return true }

func (sqliteDialect) AutoIncrementKeyword() string { return "AUTOINCREMENT" }
func (sqliteDialect) SerialType() string           { return "INTEGER" }
func (sqliteDialect) CurrentTimestampExpr() string { return "CURRENT_TIMESTAMP" }

// BooleanLiteral uses integers, the storage class SQLite keeps booleans in.
func (sqliteDialect) BooleanLiteral(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func (sqliteDialect) DefaultOptions() map[string]string {
	return map[string]string{
		"_pragma": "foreign_keys(1)",
	}
}

// NormalizeConfig drops the network fields, which have no meaning for an
// embedded database, and defaults to an in-memory database.
func (d sqliteDialect) NormalizeConfig(cfg Config) Config {
	cfg = cfg.withDefaults(0, d.DefaultOptions())
	cfg.Host = ""
	cfg.Port = 0
	if cfg.Database == "" {
		cfg.Database = ":memory:"
	}
	return cfg
}

// ConnectionString returns a modernc.org/sqlite file URI.
func (d sqliteDialect) ConnectionString(cfg Config) (string, error) {
	cfg = d.NormalizeConfig(cfg)
	db := cfg.Database
	if db == "" {
		db = ":memory:"
	}
	if len(cfg.Options) == 0 {
		return "file:" + db, nil
	}
	q := make(url.Values, len(cfg.Options))
	for k, v := range cfg.Options {
		q.Set(k, v)
	}
	return "file:" + db + "?" + q.Encode(), nil
}

func (sqliteDialect) TableExistsQuery(table string) (string, []any) {
	return "SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ? LIMIT 1", []any{table}
}
