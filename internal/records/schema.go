// Package records provides the SQLite-backed, append-only store of timed
// learn and review intervals.
package records

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/visproject/internal/apperr"
	"github.com/starford/visproject/internal/models"
)

// Table names are fixed per mode and never derived from caller input.
var tables = map[models.Mode]string{
	models.ModeLearn:  "learn",
	models.ModeReview: "review",
}

const tableSchemaSQL = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	node_id TEXT    NOT NULL,
	date    TEXT    NOT NULL,
	start   INTEGER NOT NULL,
	"end"   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_%[1]s_node_id ON %[1]s(node_id);
CREATE INDEX IF NOT EXISTS idx_%[1]s_date ON %[1]s(date);
`

// DB wraps a sql.DB with record-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("records: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("records: ping: %w", err)
	}
	for _, mode := range models.Modes {
		if _, err := conn.Exec(fmt.Sprintf(tableSchemaSQL, tables[mode])); err != nil {
			conn.Close()
			return nil, fmt.Errorf("records: apply %s schema: %w", mode, err)
		}
	}
	return &DB{conn: conn}, nil
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func tableFor(mode models.Mode) (string, error) {
	t, ok := tables[mode]
	if !ok {
		return "", fmt.Errorf("records: unknown mode %q: %w", mode, apperr.ErrInvalidArgument)
	}
	return t, nil
}
