// Package sqlite provides a SQLite-backed storage.KV.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/zhyuuka/xingling-chat/pkg/storage/sqlkv"
)

// Driver implements storage.KV using SQLite.
type Driver struct {
	*sqlkv.Driver
}

// NewDriver opens the database at dbPath, which can be a file path or
// ":memory:".
func NewDriver(ctx context.Context, dbPath string) (*Driver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases from splitting per connection
	// and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	kv, err := sqlkv.New(ctx, db, sqlkv.Question)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Driver{Driver: kv}, nil
}
