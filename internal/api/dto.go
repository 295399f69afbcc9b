package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/nlzhou/notebook/internal/models"
	"github.com/nlzhou/notebook/internal/store"
)

// CreateFolderRequest is the request body for creating a folder.
type CreateFolderRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// Validate validates the folder creation request.
func (r CreateFolderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 120)),
	)
}

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	FolderID string `json:"folderId"`
}

// Validate validates the note creation request.
func (r CreateNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FolderID, validation.Required),
	)
}

// MoveNoteRequest is the request body for moving a note between folders.
type MoveNoteRequest struct {
	FolderID string `json:"folderId"`
}

// Validate validates the move request.
func (r MoveNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FolderID, validation.Required),
	)
}

// AddAttachmentRequest is the legacy flat-attachment request body: a picker
// result the store wraps into a full attachment record.
type AddAttachmentRequest struct {
	Type         models.AttachmentType `json:"type"`
	URI          string                `json:"uri"`
	FileName     string                `json:"fileName"`
	FileSize     int64                 `json:"fileSize,omitempty"`
	MimeType     string                `json:"mimeType,omitempty"`
	Duration     float64               `json:"duration,omitempty"`
	ThumbnailURI string                `json:"thumbnailUri,omitempty"`
}

// Validate validates the attachment payload.
func (r AddAttachmentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required, validation.In(
			models.AttachmentImage, models.AttachmentVideo,
			models.AttachmentAudio, models.AttachmentFile,
		)),
		validation.Field(&r.URI, validation.Required),
	)
}

// Attachment converts the payload into an attachment record (id and timestamp
// are assigned by the store).
func (r AddAttachmentRequest) Attachment() models.Attachment {
	return models.Attachment{
		Type:         r.Type,
		URI:          r.URI,
		FileName:     r.FileName,
		FileSize:     r.FileSize,
		MimeType:     r.MimeType,
		Duration:     r.Duration,
		ThumbnailURI: r.ThumbnailURI,
	}
}

// SortSettingsRequest is the request body for updating the sort policy.
type SortSettingsRequest struct {
	SortType  models.SortType  `json:"sortType"`
	SortOrder models.SortOrder `json:"sortOrder"`
}

// Validate validates the sort settings.
func (r SortSettingsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SortType, validation.In(
			models.SortByUpdatedAt, models.SortByCreatedAt, models.SortByTitle,
		)),
		validation.Field(&r.SortOrder, validation.In(models.SortAsc, models.SortDesc)),
	)
}

// ReplaceBlocksRequest is the request body for replacing a session's working
// block sequence.
type ReplaceBlocksRequest struct {
	Blocks []models.Block `json:"blocks"`
}

// SetTitleRequest is the request body for updating a session's working title.
type SetTitleRequest struct {
	Title string `json:"title"`
}

// InsertMediaRequest is the request body for cursor-aware media insertion.
type InsertMediaRequest struct {
	ActiveBlockID string               `json:"activeBlockId"`
	CursorOffset  int                  `json:"cursorOffset"`
	Attachment    AddAttachmentRequest `json:"attachment"`
}

// Validate validates the insertion request.
func (r InsertMediaRequest) Validate() error {
	return r.Attachment.Validate()
}

// RemoveMediaRequest is the request body for media block removal.
type RemoveMediaRequest struct {
	BlockID string `json:"blockId"`
}

// Validate validates the removal request.
func (r RemoveMediaRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BlockID, validation.Required),
	)
}

// FolderListItem is a folder plus its note count.
type FolderListItem struct {
	models.Folder
	NotesCount int `json:"notesCount"`
}

// FolderListResponse wraps folder listings.
type FolderListResponse struct {
	Folders []FolderListItem `json:"folders"`
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes"`
	Total int           `json:"total"`
}

// SessionResponse describes a session's working state after an operation.
// FocusBlockID and CursorOffset identify where editing focus should land.
type SessionResponse struct {
	NoteID       string         `json:"noteId"`
	Blocks       []models.Block `json:"blocks"`
	FocusBlockID string         `json:"focusBlockId,omitempty"`
	CursorOffset int            `json:"cursorOffset"`
}

// FolderUpdate re-exported for request decoding.
type FolderUpdate = store.FolderUpdate

// NoteUpdate re-exported for request decoding.
type NoteUpdate = store.NoteUpdate
