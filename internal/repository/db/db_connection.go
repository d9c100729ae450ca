package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported values of db.driver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects the store and its pool size.
type Options struct {
	Driver       string
	Path         string // sqlite file
	DSN          string // postgres connection string
	MaxOpenConns int
}

const pingTimeout = 5 * time.Second

// Open connects to the configured database and ensures the schema exists.
func Open(opts Options) (*sqlx.DB, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		return openSQLite(opts.Path)
	case DriverPostgres:
		return openPostgres(opts.DSN, opts.MaxOpenConns)
	default:
		return nil, fmt.Errorf("unsupported db.driver %q", opts.Driver)
	}
}

// openSQLite pins the pool to one connection, so transactions on different bins
// queue behind each other and Options.MaxOpenConns is not used. Only postgres
// runs bins in parallel.
func openSQLite(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open(DriverSQLite, sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	return finish(db, sqliteSchema)
}

// sqliteDSN applies the per-connection pragmas and stores timestamps in the
// sortable "2006-01-02 15:04:05.999999999-07:00" form.
func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite"
}

func openPostgres(dsn string, maxOpen int) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("db.dsn is required for postgres")
	}
	db, err := sqlx.Open(DriverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
		db.SetMaxIdleConns(maxOpen / 2)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	return finish(db, postgresSchema)
}

func finish(db *sqlx.DB, schema []string) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", db.DriverName(), err)
	}
	if err := ensureSchema(ctx, db, schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sqlx.DB, schema []string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS bins (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id INTEGER NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		latitude REAL,
		longitude REAL,
		fill_level INTEGER NOT NULL DEFAULT 0 CHECK (fill_level BETWEEN 0 AND 100),
		status TEXT NOT NULL DEFAULT 'EMPTY' CHECK (status IN ('EMPTY', 'PARTIAL', 'FULL')),
		last_collected_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sensor_readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		bin_id INTEGER NOT NULL REFERENCES bins(id) ON DELETE CASCADE,
		device_id TEXT NOT NULL DEFAULT '',
		fill_level INTEGER NOT NULL,
		temperature REAL,
		humidity REAL,
		recorded_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS collection_requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		bin_id INTEGER NOT NULL REFERENCES bins(id) ON DELETE CASCADE,
		requested_by INTEGER,
		company_id INTEGER,
		reason TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT 'NORMAL',
		status TEXT NOT NULL CHECK (status IN ('PENDING', 'FULFILLED', 'CANCELLED')),
		created_at TIMESTAMP NOT NULL,
		closed_at TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS collection_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		bin_id INTEGER NOT NULL REFERENCES bins(id) ON DELETE CASCADE,
		collector_id INTEGER NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		collected_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bins_owner_id ON bins(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sensor_readings_bin_time ON sensor_readings(bin_id, recorded_at)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_collection_requests_one_pending ON collection_requests(bin_id) WHERE status = 'PENDING'`,
	`CREATE INDEX IF NOT EXISTS idx_collection_records_bin_id ON collection_records(bin_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS bins (
		id BIGSERIAL PRIMARY KEY,
		owner_id BIGINT NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION,
		longitude DOUBLE PRECISION,
		fill_level INT NOT NULL DEFAULT 0 CHECK (fill_level BETWEEN 0 AND 100),
		status TEXT NOT NULL DEFAULT 'EMPTY' CHECK (status IN ('EMPTY', 'PARTIAL', 'FULL')),
		last_collected_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sensor_readings (
		id BIGSERIAL PRIMARY KEY,
		bin_id BIGINT NOT NULL REFERENCES bins(id) ON DELETE CASCADE,
		device_id TEXT NOT NULL DEFAULT '',
		fill_level INT NOT NULL,
		temperature DOUBLE PRECISION,
		humidity DOUBLE PRECISION,
		recorded_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS collection_requests (
		id BIGSERIAL PRIMARY KEY,
		bin_id BIGINT NOT NULL REFERENCES bins(id) ON DELETE CASCADE,
		requested_by BIGINT,
		company_id BIGINT,
		reason TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT 'NORMAL',
		status TEXT NOT NULL CHECK (status IN ('PENDING', 'FULFILLED', 'CANCELLED')),
		created_at TIMESTAMPTZ NOT NULL,
		closed_at TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS collection_records (
		id BIGSERIAL PRIMARY KEY,
		bin_id BIGINT NOT NULL REFERENCES bins(id) ON DELETE CASCADE,
		collector_id BIGINT NOT NULL,
		note TEXT NOT NULL DEFAULT '',
		collected_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bins_owner_id ON bins(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sensor_readings_bin_time ON sensor_readings(bin_id, recorded_at)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_collection_requests_one_pending ON collection_requests(bin_id) WHERE status = 'PENDING'`,
	`CREATE INDEX IF NOT EXISTS idx_collection_records_bin_id ON collection_records(bin_id)`,
}
