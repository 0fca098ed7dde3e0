package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const (
	postgresSchema = `CREATE TABLE IF NOT EXISTS documents (
	name TEXT PRIMARY KEY,
	body JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
	sqliteSchema = `CREATE TABLE IF NOT EXISTS documents (
	name TEXT PRIMARY KEY,
	body TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

	selectDocument = `SELECT body FROM documents WHERE name = ?`
	upsertDocument = `INSERT INTO documents (name, body) VALUES (?, ?)
ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = CURRENT_TIMESTAMP`
)

// DocumentBackend keeps the whole JSON document in one row of the
// documents table, keyed by name.
type DocumentBackend struct {
	db      *sqlx.DB
	name    string
	timeout time.Duration
}

func NewDocumentBackend(db *sqlx.DB, name string, timeout time.Duration) (*DocumentBackend, error) {
	var schema string
	switch db.DriverName() {
	case "postgres":
		schema = postgresSchema
	case "sqlite3":
		schema = sqliteSchema
	default:
		return nil, fmt.Errorf("unsupported driver %q", db.DriverName())
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	b := &DocumentBackend{db: db, name: name, timeout: timeout}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	return b, nil
}

func (b *DocumentBackend) Load() ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	var body string
	err := b.db.GetContext(ctx, &body, b.db.Rebind(selectDocument), b.name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select document %s: %w", b.name, err)
	}
	return []byte(body), nil
}

func (b *DocumentBackend) Save(data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	// passed as text: lib/pq would send []byte as bytea
	if _, err := b.db.ExecContext(ctx, b.db.Rebind(upsertDocument), b.name, string(data)); err != nil {
		return fmt.Errorf("upsert document %s: %w", b.name, err)
	}
	return nil
}

func (b *DocumentBackend) Close() error {
	return b.db.Close()
}
