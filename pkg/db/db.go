// Package db persists sources and the entries extracted from them in SQLite.
package db

import (
	"database/sql"
	_ "embed"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var migrationsSQL string

// Open opens the SQLite database at path and runs migrations.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// Every connection would otherwise see its own empty database.
		conn.SetMaxOpenConns(1)
	}
	if err := InitDB(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// InitDB runs migrations on the given DB connection using the embedded SQL.
func InitDB(db *sql.DB) error {
	stmts := strings.Split(migrationsSQL, ";")
	for _, s := range stmts {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
