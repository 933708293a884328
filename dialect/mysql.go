package dialect

import (
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
)

// mysqlDialect implements Dialect for MySQL and MariaDB.
type mysqlDialect struct{ base }

func (mysqlDialect) Name() string       { return MySQL }
func (mysqlDialect) DriverName() string { return "mysql" }

func (mysqlDialect) QuoteIdentifier(name string) string { return quote(name, '`') }
func (mysqlDialect) Placeholder(int) string             { return "?" }

func (mysqlDialect) PlaceholderStyle() PlaceholderStyle { return PlaceholderQuestion }

func (mysqlDialect) SupportsReturning() bool     { return false }
func (mysqlDialect) SupportsLimitInDelete() bool { return true }

func (mysqlDialect) AutoIncrementKeyword() string { return "AUTO_INCREMENT" }
func (mysqlDialect) SerialType() string           { return "BIGINT" }
func (mysqlDialect) CurrentTimestampExpr() string { return "CURRENT_TIMESTAMP" }

func (mysqlDialect) DefaultOptions() map[string]string {
	return map[string]string{
		"charset":   "utf8mb4",
		"parseTime": "true",
	}
}

func (d mysqlDialect) NormalizeConfig(cfg Config) Config {
	cfg = cfg.withDefaults(3306, d.DefaultOptions())
	if cfg.Charset != "" {
		cfg.Options["charset"] = cfg.Charset
	}
	return cfg
}

// ConnectionString formats a go-sql-driver/mysql DSN.
func (d mysqlDialect) ConnectionString(cfg Config) (string, error) {
	cfg = d.NormalizeConfig(cfg)
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.Database
	params := make(map[string]string, len(cfg.Options))
	for k, v := range cfg.Options {
		if k == "parseTime" {
			pt, err := strconv.ParseBool(v)
			if err != nil {
				return "", &ConfigError{Dialect: MySQL, Key: k, Err: err}
			}
			mc.ParseTime = pt
			continue
		}
		params[k] = v
	}
	if len(params) > 0 {
		mc.Params = params
	}
	return mc.FormatDSN(), nil
}

func (mysqlDialect) TableExistsQuery(table string) (string, []any) {
	return "SELECT 1 FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ? LIMIT 1", []any{table}
}
