// Package driverpg is the relational Driver implementation (spec.md §4.8):
// a database/sql + lib/pq connection pool satisfying cascade.Driver,
// query.SQLExecutor, migrate.Executor, and migrate.Transactor.
package driverpg

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/warlockjs/cascade"
	"github.com/warlockjs/cascade/dialect"
	"github.com/warlockjs/cascade/migrate"
	"github.com/warlockjs/cascade/query"
)

// Config is the subset of cascade.DataSourceOptions driverpg consumes to
// build a connection string and pool, kept separate so driverpg has no
// import-cycle dependency on the root package's other concerns.
type Config struct {
	Host             string
	Port             int
	Database         string
	User             string
	Password         string
	ConnectionString string
	SSL              bool

	Max                     int
	IdleTimeoutMillis       int
	ConnectionTimeoutMillis int
	ApplicationName         string

	DryRun bool
	Logger cascade.Logger
}

// Driver is the lib/pq-backed relational cascade.Driver. It owns exactly
// one *sql.DB connection pool (spec.md §3 "Driver exclusively owns its
// connection pool").
type Driver struct {
	cfg     Config
	dialect dialect.Dialect

	mu        sync.RWMutex
	db        *sql.DB
	connected bool

	events *cascade.EventBus
	logger cascade.Logger
}

// New returns a Driver configured from cfg. Connect must be called before
// any CRUD method.
func New(cfg Config) *Driver {
	logger := cfg.Logger
	if logger == nil {
		logger = cascade.NewDefaultLogger()
	}
	return &Driver{
		cfg:     cfg,
		dialect: dialect.NewPostgres(),
		events:  cascade.NewEventBus(),
		logger:  logger,
	}
}

func (d *Driver) dsn() string {
	if d.cfg.ConnectionString != "" {
		return d.cfg.ConnectionString
	}
	sslmode := "disable"
	if d.cfg.SSL {
		sslmode = "require"
	}
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s application_name=%s",
		d.cfg.Host, d.cfg.Port, d.cfg.Database, d.cfg.User, d.cfg.Password, sslmode, d.cfg.ApplicationName)
}

// Connect opens the pool, applies the configured limits, and confirms
// connectivity with a round-trip ping before emitting "connected"
// (spec.md §4.8 "connect must be idempotent; double-connect is a no-op").
func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.connected {
		return nil
	}

	db, err := sql.Open("postgres", d.dsn())
	if err != nil {
		return cascade.ConnectionError(cascade.KindConnectionConnectFailed, "failed to open connection pool", err)
	}
	if d.cfg.Max > 0 {
		db.SetMaxOpenConns(d.cfg.Max)
	}
	if d.cfg.IdleTimeoutMillis > 0 {
		db.SetConnMaxIdleTime(time.Duration(d.cfg.IdleTimeoutMillis) * time.Millisecond)
	}
	timeout := 2 * time.Second
	if d.cfg.ConnectionTimeoutMillis > 0 {
		timeout = time.Duration(d.cfg.ConnectionTimeoutMillis) * time.Millisecond
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return cascade.ConnectionError(cascade.KindConnectionConnectFailed, "ping failed", err)
	}

	d.db = db
	d.connected = true
	d.events.Emit("connected", d)
	return nil
}

// Disconnect closes the pool and emits "disconnected" once it has drained.
func (d *Driver) Disconnect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return nil
	}
	err := d.db.Close()
	d.connected = false
	d.db = nil
	d.events.Emit("disconnected", d)
	if err != nil {
		return cascade.ConnectionError(cascade.KindConnectionDisconnectFail, "failed to close connection pool", err)
	}
	return nil
}

func (d *Driver) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

func (d *Driver) Events() *cascade.EventBus { return d.events }

// pool returns the active *sql.DB, or a not-connected error.
func (d *Driver) pool() (*sql.DB, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.connected {
		return nil, cascade.NotConnectedError()
	}
	return d.db, nil
}

// querier is the subset of *sql.DB / *sql.Tx the executor needs, so the
// same rendering/scanning code path serves both the pooled driver and an
// open transaction.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// link picks the querier for ctx: the ambient transaction if one is
// installed and belongs to this driver, otherwise the pool (spec.md §4.8
// "query(sql, params) consults the ambient transaction context").
func (d *Driver) link(ctx context.Context) (querier, error) {
	if tx, ok := cascade.TransactionFromContext(ctx); ok {
		if pgtx, ok := tx.(*Transaction); ok {
			return pgtx.tx, nil
		}
	}
	return d.pool()
}

// QueryBuilder returns a fresh query.Builder dispatching through this
// driver, rooted at table.
func (d *Driver) QueryBuilder(table string) *query.Builder {
	parser := query.NewRelationalParser(d.dialect)
	dispatcher := query.NewRelationalDispatcher(parser, d)
	return query.New(query.RootSpec{Table: table}, dispatcher)
}

// MigrationDriver, Blueprint and RecordStore vend the migrate-package
// surfaces over a migrate.Executor adapter bound to this driver's pool.
func (d *Driver) MigrationDriver() migrate.MigrationDriver {
	return migrate.NewPostgresMigrationDriver(d.dialect, &ddlExecutor{driver: d})
}

func (d *Driver) Blueprint() migrate.Blueprint {
	return migrate.NewPostgresBlueprint(&ddlExecutor{driver: d})
}

func (d *Driver) RecordStore() migrate.RecordStore {
	return migrate.NewPostgresRecordStore(&ddlExecutor{driver: d}, "_migrations")
}
