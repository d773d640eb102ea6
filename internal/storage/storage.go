package storage

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harlequingg/todo-assistant/internal/todo"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

//go:embed migrations/postgres.sql
var postgresSchema string

//go:embed migrations/sqlite.sql
var sqliteSchema string

type Config struct {
	Driver       string
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	MaxIdleTime  time.Duration
}

// DB is the SQL implementation of todo.Gateway. Queries are written with ?
// placeholders and rebound for the configured driver.
type DB struct {
	log    *slog.Logger
	conn   *sqlx.DB
	driver string
	now    func() time.Time
}

func Open(ctx context.Context, log *slog.Logger, cfg Config) (*DB, error) {
	switch cfg.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}

	conn, err := sqlx.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == DriverSQLite {
		// one writer at a time
		conn.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxIdleTime > 0 {
		conn.SetConnMaxIdleTime(cfg.MaxIdleTime)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		log.Error("connection problem", "driver", cfg.Driver, "error", err)
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	return &DB{
		log:    log,
		conn:   conn,
		driver: cfg.Driver,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Migrate creates the users and tasks tables when missing.
func (db *DB) Migrate(ctx context.Context) error {
	db.log.Debug("running migrations", "driver", db.driver)

	schema := postgresSchema
	if db.driver == DriverSQLite {
		schema = sqliteSchema
	}
	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	db.log.Debug("migrations finished")
	return nil
}

var _ todo.Gateway = (*DB)(nil)
