// Package blocks implements the block-based rich-content editor model: an
// ordered interleaving of text and media blocks with cursor-aware insertion
// and removal. All operations are pure; the input sequence is never mutated.
package blocks

import (
	"regexp"
	"strings"

	"github.com/nlzhou/notebook/internal/models"
)

var tripleNewlineRe = regexp.MustCompile(`\n{3,}`)

// Build produces an initial sequence for a note with no prior block data:
// one text block holding the entire body, then a (media, empty text) pair per
// attachment in array order. Legacy notes lose true interleaving; this is the
// best-effort reconstruction.
func Build(content string, attachments []models.Attachment) []models.Block {
	out := make([]models.Block, 0, 1+2*len(attachments))
	out = append(out, models.NewTextBlock(content))
	for _, a := range attachments {
		out = append(out, models.NewMediaBlock(a), models.NewTextBlock(""))
	}
	return out
}

// ExtractText joins all text block contents in sequence order with a newline
// separator, collapses runs of three or more newlines down to two, and trims
// surrounding whitespace. Idempotent over its own output.
func ExtractText(seq []models.Block) string {
	parts := make([]string, 0, len(seq))
	for _, b := range seq {
		if b.Kind == models.BlockText {
			parts = append(parts, b.Text)
		}
	}
	joined := strings.Join(parts, "\n")
	joined = tripleNewlineRe.ReplaceAllString(joined, "\n\n")
	return strings.TrimSpace(joined)
}

// ExtractAttachments collects media block attachments in sequence order.
func ExtractAttachments(seq []models.Block) []models.Attachment {
	out := []models.Attachment{}
	for _, b := range seq {
		if b.Kind == models.BlockMedia && b.Attachment != nil {
			out = append(out, *b.Attachment)
		}
	}
	return out
}

// InsertMedia splits the text block identified by activeBlockID at
// cursorOffset (clamped to the block's rune length) and places a new media
// block between the two halves. The "before" half keeps the original block id;
// the "after" half is a fresh block and is the focus target, so typing can
// continue immediately past the inserted media.
//
// When activeBlockID does not resolve to a text block the media block plus a
// fresh empty trailing text block are appended at the end of the sequence
// instead, which keeps the no-adjacent-media invariant regardless of what the
// id pointed at.
//
// Returns the new sequence and the id of the block that should receive focus.
func InsertMedia(seq []models.Block, activeBlockID string, cursorOffset int, att models.Attachment) ([]models.Block, string) {
	idx := indexOf(seq, activeBlockID)
	if idx < 0 || seq[idx].Kind != models.BlockText {
		media := models.NewMediaBlock(att)
		trailing := models.NewTextBlock("")
		out := make([]models.Block, 0, len(seq)+2)
		out = append(out, seq...)
		out = append(out, media, trailing)
		return out, trailing.ID
	}

	runes := []rune(seq[idx].Text)
	off := clamp(cursorOffset, 0, len(runes))

	before := seq[idx]
	before.Text = string(runes[:off])
	media := models.NewMediaBlock(att)
	after := models.NewTextBlock(string(runes[off:]))

	out := make([]models.Block, 0, len(seq)+2)
	out = append(out, seq[:idx]...)
	out = append(out, before, media, after)
	out = append(out, seq[idx+1:]...)
	return out, after.ID
}

// RemoveMedia removes the media block with the given id. When text blocks
// neighbor it on both sides they are merged into one block (keeping the
// preceding block's id) whose text is before + separator + after, where the
// separator is a single newline only if both sides are non-empty. Otherwise
// the media block is spliced out without merging.
//
// Returns the new sequence, the id of the text block that should receive
// focus (preferring the preceding one, empty if no text neighbor exists), and
// the cursor offset within it, the position where the attachment used to be.
// Unknown ids and non-media ids leave the sequence unchanged.
func RemoveMedia(seq []models.Block, blockID string) ([]models.Block, string, int) {
	idx := indexOf(seq, blockID)
	if idx < 0 || seq[idx].Kind != models.BlockMedia {
		return seq, "", 0
	}

	prevText := idx > 0 && seq[idx-1].Kind == models.BlockText
	nextText := idx < len(seq)-1 && seq[idx+1].Kind == models.BlockText

	if prevText && nextText {
		before, after := seq[idx-1], seq[idx+1]
		sep := ""
		if before.Text != "" && after.Text != "" {
			sep = "\n"
		}
		merged := before
		merged.Text = before.Text + sep + after.Text

		out := make([]models.Block, 0, len(seq)-2)
		out = append(out, seq[:idx-1]...)
		out = append(out, merged)
		out = append(out, seq[idx+2:]...)
		return out, merged.ID, len([]rune(before.Text))
	}

	out := make([]models.Block, 0, len(seq)-1)
	out = append(out, seq[:idx]...)
	out = append(out, seq[idx+1:]...)

	if prevText {
		return out, seq[idx-1].ID, len([]rune(seq[idx-1].Text))
	}
	if nextText {
		return out, seq[idx+1].ID, 0
	}
	return out, "", 0
}

func indexOf(seq []models.Block, id string) int {
	for i, b := range seq {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
