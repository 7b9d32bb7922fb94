package db

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func tableColumns(t *testing.T, conn *sql.DB, table string) map[string]bool {
	t.Helper()
	rows, err := conn.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("pragmas: %v", err)
	}
	defer rows.Close()
	cols := map[string]bool{}
	for rows.Next() {
		var cid int
		var colName, ctype string
		var notnull, pk int
		var dfltVal interface{}
		if err := rows.Scan(&cid, &colName, &ctype, &notnull, &dfltVal, &pk); err != nil {
			t.Fatalf("scan col: %v", err)
		}
		cols[colName] = true
	}
	return cols
}

// TestInitDBCreatesSchema verifies a fresh database gets both tables with the
// columns the store relies on, and that running the migrations twice is safe.
func TestInitDBCreatesSchema(t *testing.T) {
	dbConn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer dbConn.Close()
	dbConn.SetMaxOpenConns(1)

	if err := InitDB(dbConn); err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	if err := InitDB(dbConn); err != nil {
		t.Fatalf("second InitDB failed: %v", err)
	}

	sources := tableColumns(t, dbConn, "sources")
	for _, c := range []string{"source_type", "language", "last_processed_sentence"} {
		if !sources[c] {
			t.Errorf("sources is missing %s, got %v", c, sources)
		}
	}
	entries := tableColumns(t, dbConn, "entries")
	for _, c := range []string{"source_id", "sentence_index", "dim", "body", "span_start", "span_end", "latent", "value", "projected"} {
		if !entries[c] {
			t.Errorf("entries is missing %s, got %v", c, entries)
		}
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entries.db")
	conn, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer conn.Close()
	if _, err := CreateOrGetSource(conn, Source{SourceType: "text", Title: "notes"}); err != nil {
		t.Fatalf("create source: %v", err)
	}
}
