package store

import (
	"sort"
	"strings"

	"github.com/nlzhou/notebook/internal/models"
)

// NotesInFolder returns the notes in folderID sorted per the active sort
// policy. The virtual all-notes folder matches every note.
func (s *Store) NotesInFolder(folderID string) []models.Note {
	s.mu.RLock()
	out := s.filterFolder(folderID)
	st, so := s.sortType, s.sortOrder
	s.mu.RUnlock()

	s.sortNotes(out, st, so)
	return out
}

// NotesCount returns the number of notes in folderID.
func (s *Store) NotesCount(folderID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if folderID == models.AllNotesFolderID {
		return len(s.notes)
	}
	count := 0
	for _, n := range s.notes {
		if n.FolderID == folderID {
			count++
		}
	}
	return count
}

// SearchNotes returns notes whose title or flattened content contains the
// query, case-insensitively, across all folders. Empty or whitespace-only
// queries return an empty result.
func (s *Store) SearchNotes(query string) []models.Note {
	if strings.TrimSpace(query) == "" {
		return []models.Note{}
	}
	q := strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Note{}
	for _, n := range s.notes {
		if strings.Contains(strings.ToLower(n.Title), q) ||
			strings.Contains(strings.ToLower(n.Content), q) {
			out = append(out, n)
		}
	}
	return out
}

// filterFolder copies the notes matching folderID. Caller holds the lock.
func (s *Store) filterFolder(folderID string) []models.Note {
	if folderID == models.AllNotesFolderID {
		out := make([]models.Note, len(s.notes))
		copy(out, s.notes)
		return out
	}
	out := []models.Note{}
	for _, n := range s.notes {
		if n.FolderID == folderID {
			out = append(out, n)
		}
	}
	return out
}

// sortNotes orders notes in place: pinned notes always precede unpinned ones,
// then the active sort field decides within each partition. Timestamps compare
// newest-first by default and titles in collation order; SortAsc flips the
// field comparison but never the pin partitioning. The sort is stable so that
// equal notes keep their list order (new notes are prepended, so they stay
// first among equal timestamps).
func (s *Store) sortNotes(notes []models.Note, st models.SortType, so models.SortOrder) {
	s.collMu.Lock()
	defer s.collMu.Unlock()
	sort.SliceStable(notes, func(i, j int) bool {
		a, b := notes[i], notes[j]
		if a.IsPinned != b.IsPinned {
			return a.IsPinned
		}

		var cmp int
		switch st {
		case models.SortByCreatedAt:
			cmp = b.CreatedAt.Compare(a.CreatedAt)
		case models.SortByTitle:
			cmp = s.collator.CompareString(a.Title, b.Title)
		default: // models.SortByUpdatedAt
			cmp = b.UpdatedAt.Compare(a.UpdatedAt)
		}
		if so == models.SortAsc {
			cmp = -cmp
		}
		return cmp < 0
	})
}
