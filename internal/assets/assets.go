// Package assets stores uploaded media files on disk and watches the asset
// directory for external changes. It is the server-side half of the media
// acquisition boundary: the core only ever sees the resulting attachment
// payloads, never the bytes.
package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/nlzhou/notebook/internal/models"
)

// Saved describes a stored asset, shaped like the picker results the core
// wraps into attachments.
type Saved struct {
	URI      string                `json:"uri"`
	FileName string                `json:"fileName"`
	FileSize int64                 `json:"fileSize"`
	MimeType string                `json:"mimeType,omitempty"`
	Type     models.AttachmentType `json:"type"`
}

// Dir is an asset directory.
type Dir struct {
	root string
}

// NewDir creates the asset directory if needed and returns it.
func NewDir(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("assets: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("assets: create root: %w", err)
	}
	return &Dir{root: abs}, nil
}

// Root returns the absolute asset directory path.
func (d *Dir) Root() string { return d.root }

// Save stores the stream under a content-derived name (sha256 prefix plus the
// original extension), so re-uploads of identical bytes dedupe naturally.
// The returned URI is relative ("assets/<name>").
func (d *Dir) Save(fileName string, r io.Reader) (Saved, error) {
	tmp, err := os.CreateTemp(d.root, ".upload-*")
	if err != nil {
		return Saved{}, fmt.Errorf("assets: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	h := sha256.New()
	size, err := io.Copy(tmp, io.TeeReader(r, h))
	if err != nil {
		return Saved{}, fmt.Errorf("assets: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Saved{}, fmt.Errorf("assets: close temp: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	name := hex.EncodeToString(h.Sum(nil))[:16] + ext
	if err := os.Rename(tmpName, filepath.Join(d.root, name)); err != nil {
		return Saved{}, fmt.Errorf("assets: rename: %w", err)
	}
	success = true

	mimeType := mime.TypeByExtension(ext)
	return Saved{
		URI:      "assets/" + name,
		FileName: fileName,
		FileSize: size,
		MimeType: mimeType,
		Type:     TypeForMime(mimeType),
	}, nil
}

// Read returns the bytes of a stored asset by its URI or bare name. Paths
// escaping the asset directory are rejected.
func (d *Dir) Read(uri string) ([]byte, error) {
	abs, err := d.safeName(strings.TrimPrefix(uri, "assets/"))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("assets: read %s: %w", uri, err)
	}
	return data, nil
}

// safeName validates that name is a plain filename (no separators, no
// traversal) and returns its absolute path under the asset directory.
func (d *Dir) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("assets: name is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("assets: invalid name: %s", name)
	}
	return filepath.Join(d.root, cleaned), nil
}

// TypeForMime maps a MIME type onto the attachment type taxonomy. Unknown
// types fall back to the generic file type.
func TypeForMime(mimeType string) models.AttachmentType {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return models.AttachmentImage
	case strings.HasPrefix(mimeType, "video/"):
		return models.AttachmentVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return models.AttachmentAudio
	default:
		return models.AttachmentFile
	}
}
