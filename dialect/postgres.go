package dialect

import (
	"net"
	"net/url"
	"strconv"
)

// postgresDialect implements Dialect for PostgreSQL.
type postgresDialect struct{ base }

func (postgresDialect) Name() string       { return Postgres }
func (postgresDialect) DriverName() string { return "postgres" }

func (postgresDialect) QuoteIdentifier(name string) string { return quote(name, '"') }
func (postgresDialect) Placeholder(index int) string       { return dollar(index) }

func (postgresDialect) PlaceholderStyle() PlaceholderStyle { return PlaceholderDollar }

func (postgresDialect) SupportsReturning() bool { return true }

// AutoIncrementKeyword is empty: PostgreSQL expresses auto-increment through SerialType.
func (postgresDialect) AutoIncrementKeyword() string { return "" }
func (postgresDialect) SerialType() string           { return "BIGSERIAL" }
func (postgresDialect) CurrentTimestampExpr() string { return "CURRENT_TIMESTAMP" }

func (postgresDialect) DefaultOptions() map[string]string {
	return map[string]string{
		"sslmode": "disable",
	}
}

func (d postgresDialect) NormalizeConfig(cfg Config) Config {
	cfg = cfg.withDefaults(5432, d.DefaultOptions())
	if cfg.SSLMode != "" {
		cfg.Options["sslmode"] = cfg.SSLMode
	}
	return cfg
}

// ConnectionString returns a postgres:// URL understood by both lib/pq and pgx.
func (d postgresDialect) ConnectionString(cfg Config) (string, error) {
	cfg = d.NormalizeConfig(cfg)
	return postgresURL(cfg), nil
}

func (postgresDialect) TableExistsQuery(table string) (string, []any) {
	return "SELECT 1 FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1 LIMIT 1", []any{table}
}

func postgresURL(cfg Config) string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + cfg.Database,
	}
	switch {
	case cfg.Username != "" && cfg.Password != "":
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	case cfg.Username != "":
		u.User = url.User(cfg.Username)
	}
	if len(cfg.Options) > 0 {
		q := make(url.Values, len(cfg.Options))
		for k, v := range cfg.Options {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}
