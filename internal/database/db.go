package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Queries runs the archive statements against one database handle.
type Queries struct {
	db *sqlx.DB
}

// New wraps an open database.
func New(db *sqlx.DB) *Queries {
	return &Queries{db: db}
}

// Open connects to the archive database and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, errors.Errorf("unsupported archive driver %q", driver)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "connect %s archive", driver)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

var schema = map[string]string{
	DriverPostgres: `
CREATE TABLE IF NOT EXISTS coaching_turns (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	entry TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS coaching_turns_session_idx ON coaching_turns (session_id, position);
`,
	DriverSQLite: `
CREATE TABLE IF NOT EXISTS coaching_turns (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	entry TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS coaching_turns_session_idx ON coaching_turns (session_id, position);
`,
}

// Migrate creates the archive tables when they are missing.
func (q *Queries) Migrate(ctx context.Context) error {
	ddl, ok := schema[q.db.DriverName()]
	if !ok {
		return errors.Errorf("no schema for driver %q", q.db.DriverName())
	}
	if _, err := q.db.ExecContext(ctx, ddl); err != nil {
		return errors.Wrap(err, "migrate archive schema")
	}
	return nil
}

// Close releases the underlying connection pool.
func (q *Queries) Close() error {
	return q.db.Close()
}
