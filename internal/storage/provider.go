// Package storage defines the durable key-value persistence boundary the
// store snapshots into, with file-system and SQLite backends.
package storage

// Provider persists opaque JSON slots under fixed namespace keys.
type Provider interface {
	// Load returns the bytes stored under key. A missing slot yields an
	// error satisfying errors.Is(err, os.ErrNotExist).
	Load(key string) ([]byte, error)
	// Save durably writes data under key, replacing any previous value.
	Save(key string, data []byte) error
	// Close releases backend resources.
	Close() error
}
