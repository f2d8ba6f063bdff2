package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"proptax/internal/database"
)

// ErrUniqueConstraint is returned when an insert or update violates a
// uniqueness constraint (for example a duplicate taxpayer code). Callers can
// detect it with errors.Is and present a targeted message instead of a raw
// backend error.
var ErrUniqueConstraint = errors.New("unique constraint violation")

// StorageError wraps any other backend failure with the operation and table
// that produced it.
type StorageError struct {
	Op    string
	Table string
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s on %s: %v", e.Op, e.Table, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Store is a thin parametrized record store over the registry tables:
// insert, update and delete by named columns, plus query passthroughs for
// the repositories' own SQL. Every call is a single auto-committed
// statement; the store exposes no multi-statement transactions.
type Store struct {
	db *sql.DB
}

// New creates a Store over an open database handle.
func New(db *database.DB) *Store {
	return &Store{db: db.SQL}
}

// Insert adds a row with the given columns and returns the new surrogate key.
func (s *Store) Insert(ctx context.Context, table string, columns []string, values ...any) (int64, error) {
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		placeholders(len(columns)),
	)

	res, err := s.db.ExecContext(ctx, query, values...)
	if err != nil {
		return 0, wrapErr("insert", table, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapErr("insert", table, err)
	}
	return id, nil
}

// Update mutates the named columns of the rows matching the key columns.
func (s *Store) Update(ctx context.Context, table string, keyCols []string, keyVals []any, columns []string, values []any) error {
	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s",
		table,
		assignments(columns),
		conditions(keyCols),
	)

	args := append(append([]any{}, values...), keyVals...)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return wrapErr("update", table, err)
	}
	return nil
}

// Delete removes the rows matching the key columns.
func (s *Store) Delete(ctx context.Context, table string, keyCols []string, keyVals ...any) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", table, conditions(keyCols))

	if _, err := s.db.ExecContext(ctx, query, keyVals...); err != nil {
		return wrapErr("delete", table, err)
	}
	return nil
}

// Exists reports whether any row matches the key columns.
func (s *Store) Exists(ctx context.Context, table string, keyCols []string, keyVals ...any) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s LIMIT 1", table, conditions(keyCols))

	var one int
	err := s.db.QueryRowContext(ctx, query, keyVals...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, wrapErr("select", table, err)
	}
	return true, nil
}

// Exec runs a repository-authored statement and returns its result.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("exec", tableHint(query), err)
	}
	return res, nil
}

// Query runs a repository-authored SELECT and returns its rows.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("select", tableHint(query), err)
	}
	return rows, nil
}

// QueryRow runs a repository-authored single-row SELECT.
func (s *Store) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, query, args...)
}

// placeholders renders "?, ?, ?" for n columns.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// assignments renders "a = ?, b = ?" for the named columns.
func assignments(columns []string) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = col + " = ?"
	}
	return strings.Join(parts, ", ")
}

// conditions renders "a = ? AND b = ?" for the key columns.
func conditions(columns []string) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = col + " = ?"
	}
	return strings.Join(parts, " AND ")
}

// tableHint extracts a best-effort table name from a query for error context.
func tableHint(query string) string {
	fields := strings.Fields(query)
	for i, f := range fields {
		if strings.EqualFold(f, "FROM") && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return "?"
}

// wrapErr maps a driver error to the store's error taxonomy: uniqueness
// violations become ErrUniqueConstraint, everything else a StorageError.
func wrapErr(op, table string, err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w on %s: %v", ErrUniqueConstraint, table, err)
		}
	}
	return &StorageError{Op: op, Table: table, Err: err}
}
