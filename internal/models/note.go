// Package models defines the domain types for notebook.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Well-known folder ids. AllNotesFolderID is a virtual aggregate view and is
// never stored as a note's FolderID; DefaultFolderID receives notes orphaned
// by folder deletion.
const (
	AllNotesFolderID = "all-notes"
	DefaultFolderID  = "default"
)

// AttachmentType classifies an attachment payload.
type AttachmentType string

// Attachment types.
const (
	AttachmentImage AttachmentType = "image"
	AttachmentVideo AttachmentType = "video"
	AttachmentAudio AttachmentType = "audio"
	AttachmentFile  AttachmentType = "file"
)

// Attachment is a reference to an external media or file asset plus metadata.
// The referenced bytes are owned by the platform; the record is never a copy.
// Immutable once created except for deletion.
type Attachment struct {
	ID           string         `json:"id"`
	Type         AttachmentType `json:"type"`
	URI          string         `json:"uri"`
	FileName     string         `json:"fileName"`
	FileSize     int64          `json:"fileSize,omitempty"`
	MimeType     string         `json:"mimeType,omitempty"`
	Duration     float64        `json:"duration,omitempty"` // seconds, audio/video only
	ThumbnailURI string         `json:"thumbnailUri,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// Note is a single note. Content and Attachments are the flattened projection
// of Blocks; when Blocks is non-empty it is authoritative for positional layout.
// A missing Blocks field marks a legacy note whose sequence is rebuilt on open.
type Note struct {
	ID          string       `json:"id"`
	FolderID    string       `json:"folderId"`
	Title       string       `json:"title"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments"`
	Blocks      []Block      `json:"blocks,omitempty"`
	IsPinned    bool         `json:"isPinned"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// IsEmpty reports whether the note carries no user content. Empty notes are
// deleted silently when their editing session ends.
func (n Note) IsEmpty() bool {
	return strings.TrimSpace(n.Title) == "" &&
		strings.TrimSpace(n.Content) == "" &&
		len(n.Attachments) == 0
}

// Folder groups notes. Folders flagged IsDefault can never be deleted.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon"`
	Color     string    `json:"color"`
	IsPinned  bool      `json:"isPinned"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SortType selects the note comparison field.
type SortType string

// SortOrder selects the comparison direction.
type SortOrder string

// Sort settings values.
const (
	SortByUpdatedAt SortType = "updatedAt"
	SortByCreatedAt SortType = "createdAt"
	SortByTitle     SortType = "title"

	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// NewID returns a fresh unique identifier.
func NewID() string {
	return uuid.NewString()
}

// Now returns the current UTC time truncated to millisecond precision, the
// granularity carried by the persisted RFC-3339 timestamps.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// NewNote creates an empty note inside the given folder.
func NewNote(folderID string) Note {
	ts := Now()
	return Note{
		ID:          NewID(),
		FolderID:    folderID,
		Attachments: []Attachment{},
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

// NewFolder creates a concrete (non-default, unpinned) folder.
func NewFolder(name, color, icon string) Folder {
	ts := Now()
	return Folder{
		ID:        NewID(),
		Name:      name,
		Icon:      icon,
		Color:     color,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

// NewAttachment assigns an id and creation timestamp to an attachment payload
// received from the media acquisition boundary.
func NewAttachment(a Attachment) Attachment {
	a.ID = NewID()
	a.CreatedAt = Now()
	return a
}
