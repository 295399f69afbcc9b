package storage

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const kvSchemaSQL = `
CREATE TABLE IF NOT EXISTS slots (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLite implements Provider over a single-table SQLite key-value store.
type SQLite struct {
	conn *sql.DB
}

// NewSQLite opens (or creates) the database at dsn and applies the schema.
func NewSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("storage: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	if _, err := conn.Exec(kvSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

// Load reads the slot for key.
func (s *SQLite) Load(key string) ([]byte, error) {
	var value []byte
	err := s.conn.QueryRow(`SELECT value FROM slots WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("storage: load %s: %w", key, os.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: load %s: %w", key, err)
	}
	return value, nil
}

// Save upserts data under key.
func (s *SQLite) Save(key string, data []byte) error {
	_, err := s.conn.Exec(`
		INSERT INTO slots (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at
	`, key, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("storage: save %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}
