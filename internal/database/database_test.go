package database

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Connect(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`)
	require.NoError(t, err)
	return db
}

func countItems(t *testing.T, db *sqlx.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM items`))
	return n
}

func TestConnectEnablesForeignKeys(t *testing.T) {
	db := newTestDB(t)
	var enabled int
	require.NoError(t, db.Get(&enabled, "PRAGMA foreign_keys"))
	require.Equal(t, 1, enabled)
	require.NoError(t, CheckIntegrity(db))
}

func TestWithTxCommits(t *testing.T) {
	db := newTestDB(t)
	err := WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
		_, err := tx.Exec(`INSERT INTO items (name) VALUES (?), (?)`, "a", "b")
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 2, countItems(t, db))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	boom := errors.New("boom")
	err := WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`INSERT INTO items (name) VALUES (?)`, "a"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, countItems(t, db))
}

func TestContainsPatternMatchesLiterally(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Exec(`INSERT INTO items (name) VALUES ('50% off'), ('a_b'), ('plain'), ('back\slash')`)
	require.NoError(t, err)

	match := func(term string) []string {
		var names []string
		require.NoError(t, db.Select(&names, `SELECT name FROM items WHERE name LIKE ? ESCAPE '\' ORDER BY id`, ContainsPattern(term)))
		return names
	}
	require.Equal(t, []string{"50% off"}, match("%"))
	require.Equal(t, []string{"a_b"}, match("_"))
	require.Equal(t, []string{"back\\slash"}, match(`\`))
	require.Len(t, match("a"), 3)
}
