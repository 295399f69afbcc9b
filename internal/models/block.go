package models

import (
	"encoding/json"
	"fmt"
)

// BlockKind discriminates the two block variants.
type BlockKind string

// Block kinds.
const (
	BlockText  BlockKind = "text"
	BlockMedia BlockKind = "media"
)

// Block is one atomic unit of note body content kept in display order:
// either a run of text or a single attachment. Exactly one of Text or
// Attachment is meaningful, selected by Kind.
//
// A sequence never holds two adjacent media blocks: every insertion adds a
// trailing (possibly empty) text block after the media block, and removal
// merges or leaves a single text block in place.
type Block struct {
	ID         string
	Kind       BlockKind
	Text       string
	Attachment *Attachment
}

// NewTextBlock returns a text block with a fresh id.
func NewTextBlock(text string) Block {
	return Block{ID: NewID(), Kind: BlockText, Text: text}
}

// NewMediaBlock returns a media block with a fresh id wrapping the attachment.
func NewMediaBlock(a Attachment) Block {
	return Block{ID: NewID(), Kind: BlockMedia, Attachment: &a}
}

type textBlockJSON struct {
	ID   string    `json:"id"`
	Kind BlockKind `json:"kind"`
	Text string    `json:"text"`
}

type mediaBlockJSON struct {
	ID         string      `json:"id"`
	Kind       BlockKind   `json:"kind"`
	Attachment *Attachment `json:"attachment"`
}

// MarshalJSON serializes only the fields meaningful for the block's kind.
// Text blocks always carry a "text" field, even when empty.
func (b Block) MarshalJSON() ([]byte, error) {
	switch b.Kind {
	case BlockText:
		return json.Marshal(textBlockJSON{ID: b.ID, Kind: b.Kind, Text: b.Text})
	case BlockMedia:
		return json.Marshal(mediaBlockJSON{ID: b.ID, Kind: b.Kind, Attachment: b.Attachment})
	default:
		return nil, fmt.Errorf("models: marshal block %s: unknown kind %q", b.ID, b.Kind)
	}
}

// UnmarshalJSON restores a block from its stored form, rejecting unknown kinds.
func (b *Block) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         string      `json:"id"`
		Kind       BlockKind   `json:"kind"`
		Text       string      `json:"text"`
		Attachment *Attachment `json:"attachment"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Kind {
	case BlockText:
		*b = Block{ID: raw.ID, Kind: raw.Kind, Text: raw.Text}
	case BlockMedia:
		if raw.Attachment == nil {
			return fmt.Errorf("models: unmarshal block %s: media block without attachment", raw.ID)
		}
		*b = Block{ID: raw.ID, Kind: raw.Kind, Attachment: raw.Attachment}
	default:
		return fmt.Errorf("models: unmarshal block %s: unknown kind %q", raw.ID, raw.Kind)
	}
	return nil
}
