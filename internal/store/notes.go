package store

import "github.com/nlzhou/notebook/internal/models"

// NoteUpdate carries the mutable note fields for partial updates. Nil fields
// are left unchanged; id and createdAt never change. Title, Content,
// Attachments, and Blocks can be set together as one state transition.
type NoteUpdate struct {
	Title       *string              `json:"title,omitempty"`
	Content     *string              `json:"content,omitempty"`
	Attachments *[]models.Attachment `json:"attachments,omitempty"`
	Blocks      *[]models.Block      `json:"blocks,omitempty"`
	IsPinned    *bool                `json:"isPinned,omitempty"`
	FolderID    *string              `json:"folderId,omitempty"`
}

// AddNote creates an empty note inside folderID and prepends it to the note
// list, so new notes sort first among equal timestamps.
func (s *Store) AddNote(folderID string) models.Note {
	n := models.NewNote(folderID)
	s.mu.Lock()
	s.notes = append([]models.Note{n}, s.notes...)
	s.mu.Unlock()
	s.changed("note.created", n.ID)
	return n
}

// UpdateNote merges upd into the note with the given id and bumps its
// updatedAt. Unknown ids change nothing.
func (s *Store) UpdateNote(id string, upd NoteUpdate) bool {
	s.mu.Lock()
	ok := false
	for i := range s.notes {
		if s.notes[i].ID != id {
			continue
		}
		n := &s.notes[i]
		if upd.Title != nil {
			n.Title = *upd.Title
		}
		if upd.Content != nil {
			n.Content = *upd.Content
		}
		if upd.Attachments != nil {
			n.Attachments = *upd.Attachments
		}
		if upd.Blocks != nil {
			n.Blocks = *upd.Blocks
		}
		if upd.IsPinned != nil {
			n.IsPinned = *upd.IsPinned
		}
		if upd.FolderID != nil {
			n.FolderID = *upd.FolderID
		}
		n.UpdatedAt = models.Now()
		ok = true
		break
	}
	s.mu.Unlock()
	if ok {
		s.changed("note.updated", id)
	}
	return ok
}

// DeleteNote removes the note with the given id.
func (s *Store) DeleteNote(id string) bool {
	s.mu.Lock()
	idx := -1
	for i := range s.notes {
		if s.notes[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.notes = append(s.notes[:idx], s.notes[idx+1:]...)
	s.mu.Unlock()
	s.changed("note.deleted", id)
	return true
}

// TogglePinNote flips the note's pinned flag and bumps its updatedAt.
func (s *Store) TogglePinNote(id string) bool {
	s.mu.Lock()
	ok := false
	for i := range s.notes {
		if s.notes[i].ID == id {
			s.notes[i].IsPinned = !s.notes[i].IsPinned
			s.notes[i].UpdatedAt = models.Now()
			ok = true
			break
		}
	}
	s.mu.Unlock()
	if ok {
		s.changed("note.updated", id)
	}
	return ok
}

// MoveNote reassigns the note to targetFolderID and bumps its updatedAt.
func (s *Store) MoveNote(noteID, targetFolderID string) bool {
	fid := targetFolderID
	return s.UpdateNote(noteID, NoteUpdate{FolderID: &fid})
}

// AddAttachment assigns an id and timestamp to the attachment payload and
// appends it to the note's attachment list. Legacy flat-attachment path,
// kept alongside the block-aware UpdateNote contract.
func (s *Store) AddAttachment(noteID string, att models.Attachment) (models.Attachment, bool) {
	att = models.NewAttachment(att)
	s.mu.Lock()
	ok := false
	for i := range s.notes {
		if s.notes[i].ID == noteID {
			s.notes[i].Attachments = append(s.notes[i].Attachments, att)
			s.notes[i].UpdatedAt = models.Now()
			ok = true
			break
		}
	}
	s.mu.Unlock()
	if !ok {
		return models.Attachment{}, false
	}
	s.changed("note.updated", noteID)
	return att, true
}

// RemoveAttachment filters the attachment out of the note's attachment list.
func (s *Store) RemoveAttachment(noteID, attachmentID string) bool {
	s.mu.Lock()
	ok := false
	for i := range s.notes {
		if s.notes[i].ID != noteID {
			continue
		}
		atts := s.notes[i].Attachments
		kept := atts[:0:0]
		for _, a := range atts {
			if a.ID != attachmentID {
				kept = append(kept, a)
			}
		}
		if len(kept) != len(atts) {
			s.notes[i].Attachments = kept
			s.notes[i].UpdatedAt = models.Now()
			ok = true
		}
		break
	}
	s.mu.Unlock()
	if ok {
		s.changed("note.updated", noteID)
	}
	return ok
}

// NoteByID returns the note with the given id.
func (s *Store) NoteByID(id string) (models.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.notes {
		if n.ID == id {
			return n, true
		}
	}
	return models.Note{}, false
}
