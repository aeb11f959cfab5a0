// Package matrix exports the full pairwise similarity matrix to SQLite.
//
// The export is write-once output: any existing file is replaced and nothing
// reads it back on later runs.
package matrix

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE images (
	idx      INTEGER PRIMARY KEY,
	path     TEXT NOT NULL,
	name     TEXT NOT NULL,
	checksum TEXT NOT NULL DEFAULT '',
	size     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE scores (
	base  INTEGER NOT NULL REFERENCES images(idx),
	other INTEGER NOT NULL REFERENCES images(idx),
	score REAL    NOT NULL,
	PRIMARY KEY (base, other)
);

CREATE TABLE peaks (
	base  INTEGER NOT NULL REFERENCES images(idx),
	other INTEGER NOT NULL REFERENCES images(idx),
	score REAL    NOT NULL,
	PRIMARY KEY (base, other)
);

CREATE INDEX idx_scores_other ON scores(other);
`

// DB wraps a sql.DB holding one exported matrix.
type DB struct {
	conn *sql.DB
}

// Create removes any file at path, then creates a fresh database with the schema.
func Create(path string) (*DB, error) {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("matrix: remove old export: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("matrix: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("matrix: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("matrix: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
