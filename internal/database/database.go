package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA foreign_keys = ON",
	"PRAGMA busy_timeout = 5000",
}

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Connect opens a SQLite database using the provided DSN.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("database: connect: %w", err)
	}
	// A single connection serialises writers and keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("database: %s: %w", p, err)
		}
	}
	return db, nil
}

// CheckIntegrity runs SQLite's integrity check and reports the first problem found.
func CheckIntegrity(db *sqlx.DB) error {
	var result string
	if err := db.Get(&result, "PRAGMA integrity_check"); err != nil {
		return fmt.Errorf("database: integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database: integrity check failed: %s", result)
	}
	return nil
}
