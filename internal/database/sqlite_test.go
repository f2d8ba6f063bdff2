package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proptax/internal/config"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(context.Background(), config.DatabaseConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_AppliesSchema(t *testing.T) {
	db := openTestDB(t)

	tables := []string{
		"users",
		"land_parcel_type", "land_parcel_type_rates", "land_parcel",
		"normative_monetary_values", "land_parcel_taxes",
		"real_estate_type", "real_estate_type_rates", "real_estate",
		"real_estate_taxes",
		"general_info",
	}

	for _, table := range tables {
		var name string
		err := db.SQL.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table,
		).Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
	}
}

func TestOpen_EnablesForeignKeys(t *testing.T) {
	db := openTestDB(t)

	var enabled int
	err := db.SQL.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	assert.Equal(t, 1, enabled)
}

func TestOpen_IsIdempotent(t *testing.T) {
	// Applying the schema twice against the same file must not fail.
	path := t.TempDir() + "/registry.db"
	ctx := context.Background()

	db, err := Open(ctx, config.DatabaseConfig{Path: path})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(ctx, config.DatabaseConfig{Path: path})
	require.NoError(t, err)
	assert.NoError(t, db.Ping(ctx))
	require.NoError(t, db.Close())
}

func TestOpen_CascadeDeletesPerYearRows(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.SQL.ExecContext(ctx,
		"INSERT INTO users (last_name, first_name, rnokpp) VALUES ('Doe', 'John', '1234567890')")
	require.NoError(t, err)
	_, err = db.SQL.ExecContext(ctx, "INSERT INTO land_parcel_type (name) VALUES ('arable')")
	require.NoError(t, err)
	_, err = db.SQL.ExecContext(ctx,
		"INSERT INTO land_parcel (user_id, land_parcel_type_id, address, area) VALUES (1, 1, 'Main St 1', 1000)")
	require.NoError(t, err)
	_, err = db.SQL.ExecContext(ctx,
		"INSERT INTO normative_monetary_values (land_id, year, value) VALUES (1, 2024, 20000)")
	require.NoError(t, err)
	_, err = db.SQL.ExecContext(ctx,
		"INSERT INTO land_parcel_taxes (land_parcel_id, tax_year, tax, paid) VALUES (1, 2024, 100000, 0)")
	require.NoError(t, err)

	_, err = db.SQL.ExecContext(ctx, "DELETE FROM land_parcel WHERE id = 1")
	require.NoError(t, err)

	var count int
	require.NoError(t, db.SQL.QueryRow("SELECT COUNT(*) FROM normative_monetary_values").Scan(&count))
	assert.Equal(t, 0, count, "valuation rows should cascade")
	require.NoError(t, db.SQL.QueryRow("SELECT COUNT(*) FROM land_parcel_taxes").Scan(&count))
	assert.Equal(t, 0, count, "tax rows should cascade")
}
