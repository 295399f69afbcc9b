package store

import "github.com/nlzhou/notebook/internal/models"

// FolderUpdate carries the mutable folder fields for partial updates.
// Nil fields are left unchanged; id, isDefault, and createdAt never change.
type FolderUpdate struct {
	Name     *string `json:"name,omitempty"`
	Icon     *string `json:"icon,omitempty"`
	Color    *string `json:"color,omitempty"`
	IsPinned *bool   `json:"isPinned,omitempty"`
}

// AddFolder creates a concrete folder and appends it to the folder list.
func (s *Store) AddFolder(name, color, icon string) models.Folder {
	f := models.NewFolder(name, color, icon)
	s.mu.Lock()
	s.folders = append(s.folders, f)
	s.mu.Unlock()
	s.changed("folder.created", f.ID)
	return f
}

// UpdateFolder merges upd into the folder with the given id and bumps its
// updatedAt. Unknown ids change nothing.
func (s *Store) UpdateFolder(id string, upd FolderUpdate) bool {
	s.mu.Lock()
	ok := false
	for i := range s.folders {
		if s.folders[i].ID != id {
			continue
		}
		f := &s.folders[i]
		if upd.Name != nil {
			f.Name = *upd.Name
		}
		if upd.Icon != nil {
			f.Icon = *upd.Icon
		}
		if upd.Color != nil {
			f.Color = *upd.Color
		}
		if upd.IsPinned != nil {
			f.IsPinned = *upd.IsPinned
		}
		f.UpdatedAt = models.Now()
		ok = true
		break
	}
	s.mu.Unlock()
	if ok {
		s.changed("folder.updated", id)
	}
	return ok
}

// DeleteFolder removes a non-default folder and reassigns every note it
// contained to the default folder, bumping their updatedAt. Deleting a
// default folder (or an unknown id) is a no-op.
func (s *Store) DeleteFolder(id string) bool {
	s.mu.Lock()
	idx := -1
	for i := range s.folders {
		if s.folders[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 || s.folders[idx].IsDefault {
		s.mu.Unlock()
		return false
	}
	s.folders = append(s.folders[:idx], s.folders[idx+1:]...)

	ts := models.Now()
	var moved []string
	for i := range s.notes {
		if s.notes[i].FolderID == id {
			s.notes[i].FolderID = models.DefaultFolderID
			s.notes[i].UpdatedAt = ts
			moved = append(moved, s.notes[i].ID)
		}
	}
	s.mu.Unlock()

	s.changed("folder.deleted", id)
	for _, noteID := range moved {
		s.notify("note.updated", noteID)
	}
	return true
}

// TogglePinFolder flips the folder's pinned flag and bumps its updatedAt.
func (s *Store) TogglePinFolder(id string) bool {
	s.mu.Lock()
	ok := false
	for i := range s.folders {
		if s.folders[i].ID == id {
			s.folders[i].IsPinned = !s.folders[i].IsPinned
			s.folders[i].UpdatedAt = models.Now()
			ok = true
			break
		}
	}
	s.mu.Unlock()
	if ok {
		s.changed("folder.updated", id)
	}
	return ok
}

// Folders returns a copy of the folder list in insertion order.
func (s *Store) Folders() []models.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Folder, len(s.folders))
	copy(out, s.folders)
	return out
}

// FolderByID returns the folder with the given id.
func (s *Store) FolderByID(id string) (models.Folder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.folders {
		if f.ID == id {
			return f, true
		}
	}
	return models.Folder{}, false
}
