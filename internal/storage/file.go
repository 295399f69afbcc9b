package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File implements Provider backed by one JSON file per key in a data
// directory. Writes are atomic: tmp file → fsync → rename.
type File struct {
	root string // absolute path to data directory
}

// NewFile creates a File provider rooted at dir, creating it if needed.
func NewFile(dir string) (*File, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &File{root: abs}, nil
}

// keyPath validates that key is a plain name (no separators, no traversal)
// and returns the file path for it.
func (f *File) keyPath(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("storage: key is required")
	}
	cleaned := filepath.Clean(key)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("storage: invalid key: %s", key)
	}
	return filepath.Join(f.root, cleaned+".json"), nil
}

// Load reads the slot for key.
func (f *File) Load(key string) ([]byte, error) {
	p, err := f.keyPath(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("storage: load %s: %w", key, err)
	}
	return data, nil
}

// Save atomically writes data: tmp file → fsync → rename.
func (f *File) Save(key string, data []byte) error {
	p, err := f.keyPath(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.root, ".notebook-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true
	return nil
}

// Close is a no-op for the file backend.
func (f *File) Close() error { return nil }
