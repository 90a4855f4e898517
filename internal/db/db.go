// Package db implements the unified annotation store: a SQLite database
// holding datasets, categories, images and bounding-box annotations
// normalized from heterogeneous source formats.
package db

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// schema.sql contains the SQL statements for creating the unified store:
// the Dataset/Category/Image/Annotation tables plus the import_run audit
// table. All statements are CREATE TABLE IF NOT EXISTS so applying it to
// an existing store is a no-op.
//
//go:embed schema.sql
var schemaSQL string

// Open opens the SQLite store at path, creating the file if it does not
// exist. SQLite only enforces foreign keys when asked per connection, so
// the pragma rides on the DSN to cover every pooled connection.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", path)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}

	// One importer process writes at a time; a single connection avoids
	// SQLITE_BUSY between the pool's connections.
	sqlDB.SetMaxOpenConns(1)

	return &DB{sqlDB}, nil
}

// Init applies the embedded schema.
func (db *DB) Init() error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Execer is the subset of database/sql used by the insert helpers. Both
// *DB and *sql.Tx satisfy it, so importers can run their inserts inside
// a per-phase transaction.
type Execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}
