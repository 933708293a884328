package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/syssam/sqlkit/dialect"
)

// ErrManagerClosed is returned by a Manager after Close.
var ErrManagerClosed = errors.New("dialect/sql: manager is closed")

// Opener opens a database handle. It matches the signature of sql.Open.
type Opener func(driverName, source string) (*sql.DB, error)

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger for connection lifecycle and debug output.
// A nil logger discards everything, which is also the default.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}
		m.logger = logger
	}
}

// WithOpener replaces sql.Open, typically to inject a mock database in tests.
func WithOpener(open Opener) ManagerOption {
	return func(m *Manager) {
		m.open = open
	}
}

// WithStats wraps the connection with a StatsDriver. Statistics are
// available from Manager.Stats once connected.
func WithStats(opts ...StatsOption) ManagerOption {
	return func(m *Manager) {
		m.wrappers = append(m.wrappers, func(drv dialect.Driver) dialect.Driver {
			sd := NewStatsDriver(drv, opts...)
			m.stats = sd.QueryStats()
			return sd
		})
	}
}

// WithDebug logs every statement at debug level with the manager logger.
func WithDebug() ManagerOption {
	return func(m *Manager) {
		m.wrappers = append(m.wrappers, func(drv dialect.Driver) dialect.Driver {
			return NewDebugDriver(drv, m.logger)
		})
	}
}

// Manager owns at most one live connection, established lazily from a
// dialect and its connection config on first use.
//
//	m, err := sql.NewManager(dialect.Postgres, map[string]any{
//	    "host":     "db.internal",
//	    "database": "app",
//	    "username": "app",
//	    "password": secret,
//	})
//	if err != nil {
//	    return err
//	}
//	defer m.Close()
//	rows, err := m.Query(ctx, "SELECT id FROM users WHERE email = $1", email)
type Manager struct {
	dialect  dialect.Dialect
	source   string
	logger   *slog.Logger
	open     Opener
	wrappers []func(dialect.Driver) dialect.Driver
	group    singleflight.Group

	mu     sync.Mutex
	drv    dialect.Driver
	stats  *QueryStats
	closed bool
}

// NewManager resolves the dialect, decodes cfg and builds the connection
// string. Configuration errors are returned here; no connection is made.
func NewManager(name string, cfg map[string]any, opts ...ManagerOption) (*Manager, error) {
	d, err := dialect.Open(name)
	if err != nil {
		return nil, err
	}
	c, err := dialect.DecodeConfig(cfg)
	if err != nil {
		return nil, &dialect.ConfigError{Dialect: d.Name(), Err: err}
	}
	source, err := d.ConnectionString(c)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		dialect: d,
		source:  source,
		logger:  slog.New(slog.DiscardHandler),
		open:    sql.Open,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Dialect returns the dialect of the manager.
func (m *Manager) Dialect() dialect.Dialect {
	return m.dialect
}

// Stats returns the statement statistics, or nil when the manager was
// created without WithStats or has not connected yet.
func (m *Manager) Stats() *QueryStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Driver returns the live connection, connecting on first use. Concurrent
// first calls share a single connection attempt.
func (m *Manager) Driver(ctx context.Context) (dialect.Driver, error) {
	m.mu.Lock()
	drv, closed := m.drv, m.closed
	m.mu.Unlock()
	switch {
	case closed:
		return nil, ErrManagerClosed
	case drv != nil:
		return drv, nil
	}
	v, err, _ := m.group.Do("connect", func() (any, error) {
		return m.connect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(dialect.Driver), nil
}

func (m *Manager) connect(ctx context.Context) (dialect.Driver, error) {
	m.mu.Lock()
	if m.drv != nil {
		defer m.mu.Unlock()
		return m.drv, nil
	}
	m.mu.Unlock()

	name := m.dialect.Name()
	m.logger.Debug("connecting", slog.String("dialect", name), slog.String("driver", m.dialect.DriverName()))
	db, err := m.open(m.dialect.DriverName(), m.source)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: open %s: %w", name, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Join(fmt.Errorf("dialect/sql: connect %s: %w", name, err), db.Close())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, errors.Join(ErrManagerClosed, db.Close())
	}
	var drv dialect.Driver = OpenDB(name, db)
	for _, wrap := range m.wrappers {
		drv = wrap(drv)
	}
	m.drv = drv
	m.logger.Debug("connected", slog.String("dialect", name))
	return drv, nil
}

// Exec executes a statement that returns no rows.
func (m *Manager) Exec(ctx context.Context, query string, args ...any) (*QueryResult, error) {
	drv, err := m.Driver(ctx)
	if err != nil {
		return nil, err
	}
	return execOn(ctx, drv, query, args)
}

// Query executes a statement and returns its rows.
func (m *Manager) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	drv, err := m.Driver(ctx)
	if err != nil {
		return nil, err
	}
	return queryOn(ctx, drv, query, args)
}

// Run executes a compiled Query. The query must have been built for the
// dialect of the manager.
func (m *Manager) Run(ctx context.Context, q *Query) (*QueryResult, error) {
	if d := q.Dialect(); d != nil && d.Name() != m.dialect.Name() {
		return nil, fmt.Errorf("%w: query %s, connection %s", ErrDialectMismatch, d.Name(), m.dialect.Name())
	}
	drv, err := m.Driver(ctx)
	if err != nil {
		return nil, err
	}
	return q.Exec(ctx, drv)
}

// Transaction runs fn in a transaction. The transaction is committed if fn
// returns nil, and rolled back if fn returns an error or panics.
func (m *Manager) Transaction(ctx context.Context, fn func(tx dialect.Tx) error) (err error) {
	drv, err := m.Driver(ctx)
	if err != nil {
		return err
	}
	tx, err := drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("dialect/sql: begin transaction: %w", err)
	}
	defer func() {
		if v := recover(); v != nil {
			if rerr := tx.Rollback(); rerr != nil {
				m.logger.Error("rollback after panic", slog.String("error", rerr.Error()))
			}
			panic(v)
		}
	}()
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = &RollbackError{Err: err, Rollback: rerr}
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("dialect/sql: commit: %w", err)
	}
	return nil
}

// TableExists reports whether the table exists, using the dialect probe.
func (m *Manager) TableExists(ctx context.Context, table string) (bool, error) {
	query, args := m.dialect.TableExistsQuery(table)
	rows, err := m.Query(ctx, query, args...)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// Close closes the live connection, if any. The manager cannot be used
// afterwards.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	if m.drv == nil {
		return nil
	}
	err := m.drv.Close()
	m.drv = nil
	m.logger.Debug("closed", slog.String("dialect", m.dialect.Name()))
	return err
}

func execOn(ctx context.Context, ex dialect.ExecQuerier, query string, args []any) (*QueryResult, error) {
	if args == nil {
		args = []any{}
	}
	var res sql.Result
	if err := ex.Exec(ctx, query, args, &res); err != nil {
		return nil, err
	}
	out := &QueryResult{}
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	return out, nil
}

func queryOn(ctx context.Context, ex dialect.ExecQuerier, query string, args []any) ([]map[string]any, error) {
	if args == nil {
		args = []any{}
	}
	rows := &Rows{}
	if err := ex.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	return ScanMaps(rows)
}
