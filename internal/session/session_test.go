package session

import (
	"testing"
	"time"

	"github.com/nlzhou/notebook/internal/models"
	"github.com/nlzhou/notebook/internal/store"
	"github.com/nlzhou/notebook/internal/testutil"
)

func testManager(t *testing.T, delay time.Duration) (*Manager, *store.Store) {
	t.Helper()
	st := testutil.Store(t)
	return NewManager(st, testutil.Logger(), delay), st
}

func strp(s string) *string { return &s }

func TestOpen_UnknownNote(t *testing.T) {
	m, _ := testManager(t, 0)
	if _, ok := m.Open("missing"); ok {
		t.Error("opening a missing note must fail")
	}
}

func TestOpen_BuildsLegacySequence(t *testing.T) {
	m, st := testManager(t, 0)
	n := st.AddNote(models.DefaultFolderID)
	att := models.NewAttachment(models.Attachment{Type: models.AttachmentImage, URI: "assets/a.jpg"})
	atts := []models.Attachment{att}
	st.UpdateNote(n.ID, store.NoteUpdate{Content: strp("hello"), Attachments: &atts})

	sess, ok := m.Open(n.ID)
	if !ok {
		t.Fatal("Open failed")
	}
	seq := sess.Blocks()
	if len(seq) != 3 {
		t.Fatalf("legacy sequence = %d blocks, want text+media+text", len(seq))
	}
	if seq[0].Text != "hello" || seq[1].Kind != models.BlockMedia || seq[2].Text != "" {
		t.Errorf("sequence = %+v", seq)
	}
}

func TestOpen_ResumesExisting(t *testing.T) {
	m, st := testManager(t, 0)
	n := st.AddNote(models.DefaultFolderID)

	first, _ := m.Open(n.ID)
	first.SetTitle("working")
	second, _ := m.Open(n.ID)
	if first != second {
		t.Error("reopening should return the live session")
	}
}

func TestOpen_PrefersStoredBlocks(t *testing.T) {
	m, st := testManager(t, 0)
	n := st.AddNote(models.DefaultFolderID)
	seq := []models.Block{models.NewTextBlock("stored layout")}
	st.UpdateNote(n.ID, store.NoteUpdate{Content: strp("other"), Blocks: &seq})

	sess, _ := m.Open(n.ID)
	got := sess.Blocks()
	if len(got) != 1 || got[0].Text != "stored layout" {
		t.Errorf("sequence = %+v, want stored blocks untouched", got)
	}
}

func TestDebouncedSave(t *testing.T) {
	m, st := testManager(t, 20*time.Millisecond)
	n := st.AddNote(models.DefaultFolderID)

	sess, _ := m.Open(n.ID)
	sess.SetTitle("draft")
	sess.Replace([]models.Block{models.NewTextBlock("body")})

	time.Sleep(60 * time.Millisecond)
	got, _ := st.NoteByID(n.ID)
	if got.Title != "draft" || got.Content != "body" {
		t.Errorf("saved note = %+v", got)
	}
	if len(got.Blocks) != 1 {
		t.Errorf("blocks not persisted: %+v", got.Blocks)
	}
}

func TestClose_FlushesImmediately(t *testing.T) {
	m, st := testManager(t, time.Hour)
	n := st.AddNote(models.DefaultFolderID)

	sess, _ := m.Open(n.ID)
	sess.SetTitle("kept")
	if !m.Close(n.ID) {
		t.Fatal("Close should find the session")
	}

	got, ok := st.NoteByID(n.ID)
	if !ok || got.Title != "kept" {
		t.Errorf("close must flush without waiting for the debounce: %+v", got)
	}
	if _, open := m.Get(n.ID); open {
		t.Error("session should be gone after close")
	}
	if m.Close(n.ID) {
		t.Error("second close must report no session")
	}
}

func TestClose_DeletesEmptyNote(t *testing.T) {
	m, st := testManager(t, time.Hour)
	n := st.AddNote(models.DefaultFolderID)

	if _, ok := m.Open(n.ID); !ok {
		t.Fatal("Open failed")
	}
	m.Close(n.ID)

	if _, ok := st.NoteByID(n.ID); ok {
		t.Error("abandoned empty note should be deleted on close")
	}
}

func TestClose_KeepsWhitespaceOnlyAsEmpty(t *testing.T) {
	m, st := testManager(t, time.Hour)
	n := st.AddNote(models.DefaultFolderID)

	sess, _ := m.Open(n.ID)
	sess.Replace([]models.Block{models.NewTextBlock("   \n  ")})
	m.Close(n.ID)

	if _, ok := st.NoteByID(n.ID); ok {
		t.Error("whitespace-only note counts as empty")
	}
}

func TestInsertRemoveMediaThroughSession(t *testing.T) {
	m, st := testManager(t, time.Hour)
	n := st.AddNote(models.DefaultFolderID)
	st.UpdateNote(n.ID, store.NoteUpdate{Content: strp("hello world")})

	sess, _ := m.Open(n.ID)
	target := sess.Blocks()[0]
	att := models.NewAttachment(models.Attachment{Type: models.AttachmentImage, URI: "assets/x.png"})

	seq, focus := sess.InsertMedia(target.ID, 5, att)
	if len(seq) != 3 {
		t.Fatalf("sequence = %d blocks after insert", len(seq))
	}
	if seq[0].ID != target.ID || seq[0].Text != "hello" {
		t.Errorf("before block = %+v", seq[0])
	}
	if focus != seq[2].ID {
		t.Error("focus should land on the trailing text block")
	}

	seq, focus, cursor := sess.RemoveMedia(seq[1].ID)
	if len(seq) != 1 || seq[0].Text != "hello\n world" {
		t.Errorf("merged sequence = %+v", seq)
	}
	if focus != seq[0].ID || cursor != len("hello") {
		t.Errorf("focus = %s cursor = %d", focus, cursor)
	}

	m.Close(n.ID)
	got, ok := st.NoteByID(n.ID)
	if !ok {
		t.Fatal("note with content must survive close")
	}
	if got.Content != "hello\n world" {
		t.Errorf("flattened content = %q", got.Content)
	}
	if len(got.Attachments) != 0 {
		t.Error("removed media must not linger in attachments")
	}
}

func TestCloseAll(t *testing.T) {
	m, st := testManager(t, time.Hour)
	a := st.AddNote(models.DefaultFolderID)
	b := st.AddNote(models.DefaultFolderID)

	sa, _ := m.Open(a.ID)
	sa.SetTitle("first")
	sb, _ := m.Open(b.ID)
	sb.SetTitle("second")

	m.CloseAll()

	if got, _ := st.NoteByID(a.ID); got.Title != "first" {
		t.Errorf("note a = %+v", got)
	}
	if got, _ := st.NoteByID(b.ID); got.Title != "second" {
		t.Errorf("note b = %+v", got)
	}
	if _, open := m.Get(a.ID); open {
		t.Error("no session should remain open")
	}
}
