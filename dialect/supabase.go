package dialect

import "fmt"

const (
	supabaseDefaultRegion = "us-east-1"
	supabaseDirectPort    = 5432
	supabasePoolerPort    = 6543
)

// supabaseDialect is PostgreSQL hosted on Supabase. SQL syntax is identical
// to Postgres; the connection target is derived from the project reference.
type supabaseDialect struct{ postgresDialect }

func (supabaseDialect) Name() string { return Supabase }

// DriverName returns the pgx stdlib driver, which handles the pooler's
// transaction mode better than lib/pq.
func (supabaseDialect) DriverName() string { return "pgx" }

func (supabaseDialect) DefaultOptions() map[string]string {
	return map[string]string{
		"sslmode": "require",
	}
}

// NormalizeConfig leaves Host and Port unset when they were not given so that
// ConnectionString can derive them from the project reference.
func (d supabaseDialect) NormalizeConfig(cfg Config) Config {
	host, port := cfg.Host, cfg.Port
	cfg = cfg.withDefaults(0, d.DefaultOptions())
	cfg.Host, cfg.Port = host, port
	if host != "" && port == 0 {
		cfg.Port = supabaseDirectPort
	}
	if cfg.SSLMode != "" {
		cfg.Options["sslmode"] = cfg.SSLMode
	}
	if cfg.Database == "" {
		cfg.Database = "postgres"
	}
	if cfg.Username == "" {
		cfg.Username = "postgres"
	}
	if cfg.Region == "" {
		cfg.Region = supabaseDefaultRegion
	}
	return cfg
}

// ConnectionString derives the host from the project reference when no
// explicit host is configured:
//
//	pooling:  aws-0-<region>.pooler.supabase.com:6543, user <username>.<project_ref>
//	direct:   db.<project_ref>.supabase.co:5432
func (d supabaseDialect) ConnectionString(cfg Config) (string, error) {
	cfg = d.NormalizeConfig(cfg)
	if cfg.Host == "" {
		if cfg.ProjectRef == "" {
			return "", &ConfigError{Dialect: Supabase, Key: "project_ref", Err: ErrMissingHost}
		}
		port := supabaseDirectPort
		if cfg.Pooling {
			cfg.Host = fmt.Sprintf("aws-0-%s.pooler.supabase.com", cfg.Region)
			cfg.Username = cfg.Username + "." + cfg.ProjectRef
			port = supabasePoolerPort
		} else {
			cfg.Host = fmt.Sprintf("db.%s.supabase.co", cfg.ProjectRef)
		}
		if cfg.Port == 0 {
			cfg.Port = port
		}
	}
	return postgresURL(cfg), nil
}
