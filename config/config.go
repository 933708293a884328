// Package config loads connection settings for a sqlkit Manager.
//
// Values are layered, highest priority last:
//
//  1. built-in defaults
//  2. a YAML file (sqlkit.yaml or sqlkit.yml in the working directory, or an explicit path)
//  3. SQLKIT_ environment variables, with "__" separating nested keys
//
// For example SQLKIT_DIALECT=postgres and SQLKIT_CONNECTION__HOST=db.internal
// override the dialect and connection.host keys of:
//
//	dialect: postgres
//	debug: false
//	slow_threshold: 250ms
//	connection:
//	  host: localhost
//	  port: 5432
//	  database: app
//	  username: app
//	  password: secret
//	  options:
//	    application_name: api
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/syssam/sqlkit/dialect"
	"github.com/syssam/sqlkit/dialect/sql"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "SQLKIT_"

// Defaults.
const (
	DefaultDialect       = dialect.SQLite
	DefaultSlowThreshold = 100 * time.Millisecond
)

// Config holds the settings needed to build a Manager.
type Config struct {
	// Dialect is one of the dialect tags (mysql, sqlite, postgres, supabase).
	Dialect string `koanf:"dialect"`
	// Connection is the loosely typed connection map decoded by dialect.DecodeConfig.
	Connection map[string]any `koanf:"connection"`
	// Debug logs every statement at debug level.
	Debug bool `koanf:"debug"`
	// SlowThreshold enables statement statistics when positive.
	SlowThreshold time.Duration `koanf:"slow_threshold"`
}

// findConfigFile returns the explicit path, or the first default file found.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"sqlkit.yaml", "sqlkit.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// envKey maps SQLKIT_CONNECTION__HOST to connection.host.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Load reads the configuration. An empty path looks for a default file in
// the working directory; a missing default file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"dialect":        DefaultDialect,
		"debug":          false,
		"slow_threshold": DefaultSlowThreshold.String(),
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if f := findConfigFile(path); f != "" {
		if err := k.Load(file.Provider(f), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", f, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the dialect and connection settings without connecting.
func (c *Config) Validate() error {
	d, err := dialect.Open(c.Dialect)
	if err != nil {
		return err
	}
	if c.SlowThreshold < 0 {
		return &dialect.ConfigError{Dialect: d.Name(), Key: "slow_threshold", Err: errors.New("must not be negative")}
	}
	dc, err := dialect.DecodeConfig(c.Connection)
	if err != nil {
		return &dialect.ConfigError{Dialect: d.Name(), Key: "connection", Err: err}
	}
	_, err = d.ConnectionString(dc)
	return err
}

// Manager returns a Manager for the configuration. Options derived from
// the configuration are applied before opts.
func (c *Config) Manager(opts ...sql.ManagerOption) (*sql.Manager, error) {
	var derived []sql.ManagerOption
	if c.SlowThreshold > 0 {
		derived = append(derived, sql.WithStats(sql.WithSlowThreshold(c.SlowThreshold)))
	}
	if c.Debug {
		derived = append(derived, sql.WithDebug())
	}
	return sql.NewManager(c.Dialect, c.Connection, append(derived, opts...)...)
}
