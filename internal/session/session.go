// Package session manages note editing sessions: each session owns a private
// working copy of one note's block sequence and writes it back to the store
// through debounced, last-write-wins saves. Closing a session flushes
// immediately and deletes the note if it was abandoned empty.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nlzhou/notebook/internal/blocks"
	"github.com/nlzhou/notebook/internal/models"
	"github.com/nlzhou/notebook/internal/store"
)

const defaultSaveDelay = 500 * time.Millisecond

// Manager tracks open sessions, at most one per note.
type Manager struct {
	store  *store.Store
	logger *slog.Logger
	delay  time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager over the store. delay is the autosave
// debounce window; zero selects the default.
func NewManager(st *store.Store, logger *slog.Logger, delay time.Duration) *Manager {
	if delay <= 0 {
		delay = defaultSaveDelay
	}
	return &Manager{
		store:    st,
		logger:   logger,
		delay:    delay,
		sessions: make(map[string]*Session),
	}
}

// Open starts (or resumes) an editing session for the note. For legacy notes
// without stored blocks the sequence is rebuilt from the flattened content and
// attachments. Returns false when the note does not exist.
func (m *Manager) Open(noteID string) (*Session, bool) {
	note, ok := m.store.NoteByID(noteID)
	if !ok {
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, open := m.sessions[noteID]; open {
		return sess, true
	}

	seq := note.Blocks
	if len(seq) == 0 {
		seq = blocks.Build(note.Content, note.Attachments)
	}
	sess := &Session{
		mgr:    m,
		noteID: noteID,
		title:  note.Title,
		seq:    seq,
	}
	m.sessions[noteID] = sess
	return sess, true
}

// Get returns the open session for the note, if any.
func (m *Manager) Get(noteID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[noteID]
	return sess, ok
}

// Close ends the session for the note: the pending save is cancelled, the
// working state is flushed synchronously, and a note left with no title,
// content, or attachments is deleted instead of kept. Returns false when no
// session is open for the note.
func (m *Manager) Close(noteID string) bool {
	m.mu.Lock()
	sess, ok := m.sessions[noteID]
	delete(m.sessions, noteID)
	m.mu.Unlock()
	if !ok {
		return false
	}
	sess.close()
	return true
}

// CloseAll ends every open session, flushing each. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, sess := range sessions {
		sess.close()
	}
}

// Session is one note's editing session. Methods are safe for concurrent use;
// edits apply to the working copy strictly in call order.
type Session struct {
	mgr    *Manager
	noteID string

	mu     sync.Mutex
	title  string
	seq    []models.Block
	timer  *time.Timer
	closed bool
}

// NoteID returns the id of the note this session edits.
func (s *Session) NoteID() string { return s.noteID }

// Blocks returns a copy of the working block sequence.
func (s *Session) Blocks() []models.Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Block, len(s.seq))
	copy(out, s.seq)
	return out
}

// SetTitle updates the working title.
func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	s.title = title
	s.scheduleLocked()
	s.mu.Unlock()
}

// Replace swaps in a new working block sequence delivered by the editing
// surface.
func (s *Session) Replace(seq []models.Block) {
	s.mu.Lock()
	s.seq = seq
	s.scheduleLocked()
	s.mu.Unlock()
}

// InsertMedia splits the active text block at the cursor and inserts a media
// block for the attachment. Returns the updated sequence and the id of the
// block that should receive focus.
func (s *Session) InsertMedia(activeBlockID string, cursorOffset int, att models.Attachment) ([]models.Block, string) {
	s.mu.Lock()
	seq, focus := blocks.InsertMedia(s.seq, activeBlockID, cursorOffset, att)
	s.seq = seq
	s.scheduleLocked()
	s.mu.Unlock()
	return seq, focus
}

// RemoveMedia removes the media block, merging the surrounding text blocks
// when possible. Returns the updated sequence, the focus target, and the
// cursor offset within it.
func (s *Session) RemoveMedia(blockID string) ([]models.Block, string, int) {
	s.mu.Lock()
	seq, focus, cursor := blocks.RemoveMedia(s.seq, blockID)
	s.seq = seq
	s.scheduleLocked()
	s.mu.Unlock()
	return seq, focus, cursor
}

// scheduleLocked cancels and restarts the pending-save timer. Caller holds
// s.mu.
func (s *Session) scheduleLocked() {
	if s.closed {
		return
	}
	if s.timer == nil {
		s.timer = time.AfterFunc(s.mgr.delay, s.save)
		return
	}
	s.timer.Reset(s.mgr.delay)
}

// save writes the flattened working state back to the store.
func (s *Session) save() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	title := s.title
	seq := make([]models.Block, len(s.seq))
	copy(seq, s.seq)
	s.mu.Unlock()

	content := blocks.ExtractText(seq)
	atts := blocks.ExtractAttachments(seq)
	if !s.mgr.store.UpdateNote(s.noteID, store.NoteUpdate{
		Title:       &title,
		Content:     &content,
		Attachments: &atts,
		Blocks:      &seq,
	}) {
		s.mgr.logger.Warn("session: save matched no note", slog.String("note_id", s.noteID))
	}
}

// close flushes the final state and removes the note when it ended up empty.
func (s *Session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()

	s.save()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	if note, ok := s.mgr.store.NoteByID(s.noteID); ok && note.IsEmpty() {
		s.mgr.store.DeleteNote(s.noteID)
	}
}
