package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"proptax/internal/config"
)

// schema is the registry DDL. Every statement is idempotent so the schema
// can be applied on every startup. Per-year valuation and tax rows hang off
// their property via ON DELETE CASCADE; rate tables carry a UNIQUE
// (type, year) key so a rate year can never be duplicated.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	last_name   TEXT NOT NULL,
	first_name  TEXT NOT NULL,
	middle_name TEXT NOT NULL DEFAULT '',
	rnokpp      TEXT NOT NULL UNIQUE,
	address     TEXT NOT NULL DEFAULT '',
	email       TEXT,
	phone       TEXT
);

CREATE TABLE IF NOT EXISTS land_parcel_type (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS land_parcel_type_rates (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	land_parcel_type_id INTEGER NOT NULL REFERENCES land_parcel_type(id),
	tax_year            INTEGER NOT NULL,
	tax_rate            REAL NOT NULL,
	UNIQUE (land_parcel_type_id, tax_year)
);

CREATE TABLE IF NOT EXISTS land_parcel (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id             INTEGER NOT NULL REFERENCES users(id),
	land_parcel_type_id INTEGER NOT NULL REFERENCES land_parcel_type(id),
	address             TEXT NOT NULL,
	area                REAL NOT NULL,
	privileged          INTEGER NOT NULL DEFAULT 0,
	notes               TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS normative_monetary_values (
	land_id INTEGER NOT NULL REFERENCES land_parcel(id) ON DELETE CASCADE,
	year    INTEGER NOT NULL,
	value   REAL NOT NULL,
	PRIMARY KEY (land_id, year)
);

CREATE TABLE IF NOT EXISTS land_parcel_taxes (
	land_parcel_id INTEGER NOT NULL REFERENCES land_parcel(id) ON DELETE CASCADE,
	tax_year       INTEGER NOT NULL,
	tax            REAL NOT NULL,
	paid           INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (land_parcel_id, tax_year)
);

CREATE TABLE IF NOT EXISTS real_estate_type (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS real_estate_type_rates (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	real_estate_type_id INTEGER NOT NULL REFERENCES real_estate_type(id),
	tax_year            INTEGER NOT NULL,
	tax_rate            REAL NOT NULL,
	tax_area_limit      REAL NOT NULL,
	UNIQUE (real_estate_type_id, tax_year)
);

CREATE TABLE IF NOT EXISTS real_estate (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id             INTEGER NOT NULL REFERENCES users(id),
	real_estate_type_id INTEGER NOT NULL REFERENCES real_estate_type(id),
	name                TEXT NOT NULL,
	address             TEXT NOT NULL,
	area                REAL NOT NULL,
	notes               TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS real_estate_taxes (
	real_estate_id INTEGER NOT NULL REFERENCES real_estate(id) ON DELETE CASCADE,
	tax_year       INTEGER NOT NULL,
	tax            REAL NOT NULL,
	paid           INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (real_estate_id, tax_year)
);

CREATE TABLE IF NOT EXISTS general_info (
	year       INTEGER PRIMARY KEY,
	min_salary REAL NOT NULL
);
`

// DB wraps the SQLite handle and provides database lifecycle operations.
type DB struct {
	SQL *sql.DB

	path string
}

// Open opens (creating if necessary) the SQLite registry file, turns on
// foreign-key enforcement and applies the schema.
//
// The connection pool is capped at one connection, keeping the engine
// single-writer and guaranteeing the per-connection PRAGMAs apply to every
// statement the store executes.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %q: %w", cfg.Path, err)
	}

	db.SetMaxOpenConns(1)

	// Foreign keys are off by default in SQLite and must be enabled
	// explicitly, otherwise the property -> valuation/tax cascades are
	// silently ignored.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if cfg.BusyTimeoutMS > 0 {
		pragma := fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeoutMS)
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set busy timeout: %w", err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{SQL: db, path: cfg.Path}, nil
}

// Ping checks if the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.SQL.PingContext(ctx)
}

// Path returns the location of the database file.
func (db *DB) Path() string {
	return db.path
}

// Close closes the database handle.
func (db *DB) Close() error {
	if db.SQL == nil {
		return nil
	}
	return db.SQL.Close()
}
