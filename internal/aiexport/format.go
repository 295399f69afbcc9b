// Package aiexport projects notes into a reduced, order-preserving
// representation for external AI consumers: attachment metadata without local
// URIs or raw bytes, and the block sequence when one exists so media keeps its
// position in the body. The projection never mutates the source note.
package aiexport

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/nlzhou/notebook/internal/models"
)

// AttachmentForAI is the reduced attachment shape: metadata only, no URI.
// Data carries base64-encoded bytes only when inlining is requested.
type AttachmentForAI struct {
	ID       string                `json:"id"`
	Type     models.AttachmentType `json:"type"`
	FileName string                `json:"fileName"`
	FileSize int64                 `json:"fileSize,omitempty"`
	MimeType string                `json:"mimeType,omitempty"`
	Duration float64               `json:"duration,omitempty"`
	Data     string                `json:"data,omitempty"`
}

// BlockForAI preserves the positional interleaving of text and media.
type BlockForAI struct {
	Kind       models.BlockKind
	Text       string
	Attachment *AttachmentForAI
}

// MarshalJSON serializes only the fields meaningful for the block's kind,
// mirroring the stored block encoding.
func (b BlockForAI) MarshalJSON() ([]byte, error) {
	switch b.Kind {
	case models.BlockText:
		return json.Marshal(struct {
			Kind models.BlockKind `json:"kind"`
			Text string           `json:"text"`
		}{b.Kind, b.Text})
	case models.BlockMedia:
		return json.Marshal(struct {
			Kind       models.BlockKind `json:"kind"`
			Attachment *AttachmentForAI `json:"attachment"`
		}{b.Kind, b.Attachment})
	default:
		return nil, fmt.Errorf("aiexport: unknown block kind %q", b.Kind)
	}
}

// NoteForAI is the exported note shape. Blocks is present only for notes with
// stored block data; legacy notes fall back to the flat attachment list.
type NoteForAI struct {
	ID          string            `json:"id"`
	FolderID    string            `json:"folderId"`
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	Blocks      []BlockForAI      `json:"blocks,omitempty"`
	Attachments []AttachmentForAI `json:"attachments"`
	CreatedAt   string            `json:"createdAt"`
	UpdatedAt   string            `json:"updatedAt"`
}

// Export wraps a multi-note projection.
type Export struct {
	Notes      []NoteForAI `json:"notes"`
	TotalCount int         `json:"totalCount"`
}

// AssetReader resolves an attachment URI to its raw bytes. Used only by the
// inlining variant; the formatter itself performs no file I/O.
type AssetReader func(uri string) ([]byte, error)

// FormatAttachment strips an attachment down to its metadata.
func FormatAttachment(a models.Attachment) AttachmentForAI {
	return AttachmentForAI{
		ID:       a.ID,
		Type:     a.Type,
		FileName: a.FileName,
		FileSize: a.FileSize,
		MimeType: a.MimeType,
		Duration: a.Duration,
	}
}

// FormatNote projects a note. blocksOverride, when non-nil, replaces the
// note's stored blocks (the editing session's working copy is fresher than
// the persisted one while a session is open).
func FormatNote(note models.Note, blocksOverride []models.Block) NoteForAI {
	atts := make([]AttachmentForAI, len(note.Attachments))
	byID := make(map[string]AttachmentForAI, len(note.Attachments))
	for i, a := range note.Attachments {
		atts[i] = FormatAttachment(a)
		byID[a.ID] = atts[i]
	}

	stored := note.Blocks
	if blocksOverride != nil {
		stored = blocksOverride
	}
	var seq []BlockForAI
	for _, b := range stored {
		switch b.Kind {
		case models.BlockText:
			seq = append(seq, BlockForAI{Kind: models.BlockText, Text: b.Text})
		case models.BlockMedia:
			if b.Attachment == nil {
				continue
			}
			att, ok := byID[b.Attachment.ID]
			if !ok {
				att = FormatAttachment(*b.Attachment)
			}
			seq = append(seq, BlockForAI{Kind: models.BlockMedia, Attachment: &att})
		}
	}

	return NoteForAI{
		ID:          note.ID,
		FolderID:    note.FolderID,
		Title:       note.Title,
		Content:     note.Content,
		Blocks:      seq,
		Attachments: atts,
		CreatedAt:   note.CreatedAt.Format(timeLayout),
		UpdatedAt:   note.UpdatedAt.Format(timeLayout),
	}
}

// FormatNotes projects a list of notes without block overrides.
func FormatNotes(notes []models.Note) Export {
	out := make([]NoteForAI, len(notes))
	for i, n := range notes {
		out[i] = FormatNote(n, nil)
	}
	return Export{Notes: out, TotalCount: len(notes)}
}

// FormatNoteInline is the inlining variant: image attachments additionally
// carry their base64-encoded bytes, resolved through read. Unreadable assets
// degrade to metadata-only entries.
func FormatNoteInline(note models.Note, blocksOverride []models.Block, read AssetReader) NoteForAI {
	out := FormatNote(note, blocksOverride)
	if read == nil {
		return out
	}

	inlined := make(map[string]string, len(note.Attachments))
	for _, a := range note.Attachments {
		if a.Type != models.AttachmentImage {
			continue
		}
		raw, err := read(a.URI)
		if err != nil {
			continue
		}
		inlined[a.ID] = base64.StdEncoding.EncodeToString(raw)
	}

	for i := range out.Attachments {
		out.Attachments[i].Data = inlined[out.Attachments[i].ID]
	}
	for i := range out.Blocks {
		if out.Blocks[i].Attachment != nil {
			att := *out.Blocks[i].Attachment
			att.Data = inlined[att.ID]
			out.Blocks[i].Attachment = &att
		}
	}
	return out
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"
