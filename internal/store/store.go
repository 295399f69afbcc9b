// Package store owns the canonical folder and note collections: CRUD,
// queries, sorting, and the snapshot persistence boundary. All mutations are
// total over the in-memory state; unknown ids match nothing and change
// nothing. Subscribers are notified after every effective mutation.
package store

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/nlzhou/notebook/internal/models"
	"github.com/nlzhou/notebook/internal/storage"
)

// StateKey is the fixed namespace key the snapshot persists under.
const StateKey = "notebook-state"

const defaultSaveDelay = 500 * time.Millisecond

// Event describes a store mutation for subscribers.
type Event struct {
	Kind string `json:"kind"` // e.g. "note.updated", "folder.deleted"
	ID   string `json:"id"`
}

// Snapshot is the persisted shape of the store state.
type Snapshot struct {
	Folders   []models.Folder  `json:"folders"`
	Notes     []models.Note    `json:"notes"`
	SortType  models.SortType  `json:"sortType"`
	SortOrder models.SortOrder `json:"sortOrder"`
}

// Store is the single authoritative mapping from id to Folder and Note.
type Store struct {
	mu        sync.RWMutex
	folders   []models.Folder
	notes     []models.Note
	sortType  models.SortType
	sortOrder models.SortOrder

	provider storage.Provider
	logger   *slog.Logger

	collMu   sync.Mutex // collators are not safe for concurrent use
	collator *collate.Collator

	subMu sync.RWMutex
	subs  []func(Event)

	saveMu    sync.Mutex
	saveTimer *time.Timer
	saveDelay time.Duration
}

// Option configures a Store.
type Option func(*Store)

// WithLocale sets the collation language for title sorting.
func WithLocale(tag language.Tag) Option {
	return func(s *Store) {
		s.collator = collate.New(tag)
	}
}

// WithSaveDelay sets the debounce window for snapshot persistence.
func WithSaveDelay(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.saveDelay = d
		}
	}
}

// New builds a Store over the given persistence provider, rehydrating the
// previous snapshot when one exists and seeding the preset folders otherwise.
func New(provider storage.Provider, logger *slog.Logger, opts ...Option) (*Store, error) {
	s := &Store{
		provider:  provider,
		logger:    logger,
		collator:  collate.New(language.Und),
		saveDelay: defaultSaveDelay,
		sortType:  models.SortByUpdatedAt,
		sortOrder: models.SortDesc,
	}
	for _, opt := range opts {
		opt(s)
	}

	data, err := provider.Load(StateKey)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.folders = seedFolders()
		s.notes = []models.Note{}
	case err != nil:
		return nil, err
	default:
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, err
		}
		s.restore(snap)
	}
	return s, nil
}

func (s *Store) restore(snap Snapshot) {
	s.folders = snap.Folders
	s.notes = snap.Notes
	if s.notes == nil {
		s.notes = []models.Note{}
	}
	if len(s.folders) == 0 {
		s.folders = seedFolders()
	}
	if snap.SortType != "" {
		s.sortType = snap.SortType
	}
	if snap.SortOrder != "" {
		s.sortOrder = snap.SortOrder
	}
}

// seedFolders returns the initial folder set: the virtual all-notes aggregate,
// the undeletable journal folder, and the preset work and life folders. All
// seeded ids are fixed so a fresh install always starts from the same state.
func seedFolders() []models.Folder {
	ts := models.Now()
	mk := func(id, name, icon, color string, pinned, def bool) models.Folder {
		return models.Folder{
			ID: id, Name: name, Icon: icon, Color: color,
			IsPinned: pinned, IsDefault: def,
			CreatedAt: ts, UpdatedAt: ts,
		}
	}
	return []models.Folder{
		mk(models.AllNotesFolderID, "All Notes", "doc.text", "#007AFF", true, true),
		mk(models.DefaultFolderID, "Journal", "book", "#FF9500", false, true),
		mk("work", "Work", "briefcase", "#34C759", false, false),
		mk("life", "Life", "heart", "#FF2D55", false, false),
	}
}

// Subscribe registers fn to be called after every effective mutation.
func (s *Store) Subscribe(fn func(Event)) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) notify(kind, id string) {
	s.subMu.RLock()
	subs := s.subs
	s.subMu.RUnlock()
	for _, fn := range subs {
		fn(Event{Kind: kind, ID: id})
	}
}

// changed schedules a debounced snapshot write and notifies subscribers.
func (s *Store) changed(kind, id string) {
	s.scheduleSave()
	s.notify(kind, id)
}

// scheduleSave cancels and restarts the pending-write timer, coalescing rapid
// mutations into a single persisted write.
func (s *Store) scheduleSave() {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if s.saveTimer == nil {
		s.saveTimer = time.AfterFunc(s.saveDelay, func() {
			if err := s.Flush(); err != nil {
				s.logger.Error("store: debounced save failed", slog.String("error", err.Error()))
			}
		})
		return
	}
	s.saveTimer.Reset(s.saveDelay)
}

// Flush synchronously persists the current snapshot.
func (s *Store) Flush() error {
	s.mu.RLock()
	snap := Snapshot{
		Folders:   s.folders,
		Notes:     s.notes,
		SortType:  s.sortType,
		SortOrder: s.sortOrder,
	}
	data, err := json.Marshal(snap)
	s.mu.RUnlock()
	if err != nil {
		return err
	}
	return s.provider.Save(StateKey, data)
}

// Close stops the pending-write timer and flushes the final snapshot.
func (s *Store) Close() error {
	s.saveMu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveMu.Unlock()
	return s.Flush()
}

// SortSettings returns the active sort type and order.
func (s *Store) SortSettings() (models.SortType, models.SortOrder) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortType, s.sortOrder
}

// SetSortSettings updates the active sort policy. Empty values keep the
// current setting.
func (s *Store) SetSortSettings(st models.SortType, so models.SortOrder) {
	s.mu.Lock()
	if st != "" {
		s.sortType = st
	}
	if so != "" {
		s.sortOrder = so
	}
	s.mu.Unlock()
	s.scheduleSave()
}
