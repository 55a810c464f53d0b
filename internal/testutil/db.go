// Package testutil opens migrated in-memory databases for package tests.
package testutil

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"libreriapos/m/internal/database"
	"libreriapos/m/internal/migrations"
)

// NewDB returns a migrated in-memory SQLite database closed with the test.
func NewDB(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Run(db))
	return db
}

// SeedUser inserts an active user with an unusable password hash.
func SeedUser(t testing.TB, db *sqlx.DB, username, role string) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO usuarios (username, password_hash, nombre_completo, rol) VALUES (?, 'x', ?, ?)`, username, username, role)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

// SeedProduct inserts an active product and returns its id.
func SeedProduct(t testing.TB, db *sqlx.DB, name, price string, stock int64) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO productos (nombre, precio_venta, stock_actual, stock_minimo) VALUES (?, ?, ?, 5)`, name, price, stock)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

// Count returns SELECT COUNT(*) FROM table.
func Count(t testing.TB, db *sqlx.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}
