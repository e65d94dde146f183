// Package sqlkv implements storage.KV on top of database/sql. The SQLite and
// PostgreSQL drivers embed it and differ only in connection setup and
// placeholder style.
package sqlkv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/zhyuuka/xingling-chat/pkg/storage"
)

// Dialect selects the bind parameter style.
type Dialect int

const (
	// Question binds parameters as "?" (SQLite).
	Question Dialect = iota

	// Dollar binds parameters as "$1", "$2", ... (PostgreSQL).
	Dollar
)

// migrations run in order; each must be idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
}

// Driver implements storage.KV against a kv table.
type Driver struct {
	DB      *sql.DB
	dialect Dialect
}

// New runs migrations on db and returns a Driver that owns it.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Driver, error) {
	d := &Driver{DB: db, dialect: dialect}
	for i, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return nil, fmt.Errorf("running migration %d: %w", i, err)
		}
	}
	return d, nil
}

func (d *Driver) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := d.DB.QueryRowContext(ctx, d.bind(`SELECT value FROM kv WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.NotFoundError{Key: key}
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

func (d *Driver) Put(ctx context.Context, key, value string) error {
	_, err := d.DB.ExecContext(ctx, d.bind(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
	), key, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (d *Driver) Delete(ctx context.Context, key string) error {
	if _, err := d.DB.ExecContext(ctx, d.bind(`DELETE FROM kv WHERE key = ?`), key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (d *Driver) Keys(ctx context.Context) ([]string, error) {
	rows, err := d.DB.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (d *Driver) Close() error {
	return d.DB.Close()
}

// bind rewrites "?" placeholders for the driver's dialect.
func (d *Driver) bind(query string) string {
	if d.dialect != Dollar {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
