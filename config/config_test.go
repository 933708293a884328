package config

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlkit/dialect"
	sqlkit "github.com/syssam/sqlkit/dialect/sql"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, dialect.SQLite, cfg.Dialect)
	assert.False(t, cfg.Debug)
	assert.Equal(t, DefaultSlowThreshold, cfg.SlowThreshold)
	assert.Empty(t, cfg.Connection)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "db.yaml", `
dialect: postgres
debug: true
slow_threshold: 250ms
connection:
  host: db.internal
  port: 5433
  database: app
  username: app
  password: secret
  options:
    application_name: api
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dialect.Postgres, cfg.Dialect)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 250*time.Millisecond, cfg.SlowThreshold)
	assert.Equal(t, "db.internal", cfg.Connection["host"])
	assert.EqualValues(t, 5433, cfg.Connection["port"])

	dc, err := dialect.DecodeConfig(cfg.Connection)
	require.NoError(t, err)
	assert.Equal(t, "api", dc.Options["application_name"])
}

func TestLoadDefaultFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sqlkit.yml", "dialect: mysql\nconnection:\n  database: app\n")
	t.Chdir(dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, dialect.MySQL, cfg.Dialect)
	assert.Equal(t, "app", cfg.Connection["database"])
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "db.yaml", "dialect: postgres\nconnection:\n  host: localhost\n  database: app\n")
	t.Setenv("SQLKIT_CONNECTION__HOST", "db.prod")
	t.Setenv("SQLKIT_CONNECTION__PORT", "6432")
	t.Setenv("SQLKIT_SLOW_THRESHOLD", "2s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "db.prod", cfg.Connection["host"], "env overrides the file")
	assert.Equal(t, "app", cfg.Connection["database"], "untouched keys survive")
	assert.Equal(t, 2*time.Second, cfg.SlowThreshold)

	dc, err := dialect.DecodeConfig(cfg.Connection)
	require.NoError(t, err)
	assert.Equal(t, 6432, dc.Port, "string env values decode weakly")
}

func TestLoadErrors(t *testing.T) {
	t.Run("MissingFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})
	t.Run("UnknownDialect", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "db.yaml", "dialect: oracle\n")
		_, err := Load(path)
		require.ErrorIs(t, err, dialect.ErrUnknownDialect)
		assert.True(t, dialect.IsConfigError(err))
	})
	t.Run("SupabaseWithoutHost", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "db.yaml", "dialect: supabase\nconnection:\n  password: pw\n")
		_, err := Load(path)
		require.ErrorIs(t, err, dialect.ErrMissingHost)
	})
	t.Run("NegativeThreshold", func(t *testing.T) {
		cfg := &Config{Dialect: dialect.SQLite, SlowThreshold: -time.Second}
		require.True(t, dialect.IsConfigError(cfg.Validate()))
	})
}

func TestConfigManager(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing()
	mock.ExpectExec("DELETE FROM sessions").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectClose()

	cfg := &Config{
		Dialect:       dialect.Postgres,
		Connection:    map[string]any{"host": "db.internal", "database": "app"},
		SlowThreshold: time.Hour,
	}
	var opened string
	m, err := cfg.Manager(sqlkit.WithOpener(func(driverName, source string) (*sql.DB, error) {
		opened = driverName + " " + source
		return db, nil
	}))
	require.NoError(t, err)

	res, err := m.Exec(context.Background(), "DELETE FROM sessions")
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.RowsAffected)
	assert.Equal(t, "postgres postgres://db.internal:5432/app?sslmode=disable", opened)

	require.NotNil(t, m.Stats())
	assert.EqualValues(t, 1, m.Stats().Stats().TotalExecs)
	require.NoError(t, m.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}
