package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nlzhou/notebook/internal/models"
)

// ListFolders handles GET /api/folders. Each folder carries its note count;
// the virtual all-notes folder counts everything.
func (h *Handler) ListFolders(w http.ResponseWriter, _ *http.Request) {
	folders := h.store.Folders()
	items := make([]FolderListItem, len(folders))
	for i, f := range folders {
		items[i] = FolderListItem{Folder: f, NotesCount: h.store.NotesCount(f.ID)}
	}
	writeJSON(w, http.StatusOK, FolderListResponse{Folders: items})
}

// CreateFolder handles POST /api/folders.
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	folder := h.store.AddFolder(req.Name, req.Color, req.Icon)
	writeJSON(w, http.StatusCreated, folder)
}

// UpdateFolder handles PATCH /api/folders/{id}. The id, isDefault, and
// createdAt fields are never merged.
func (h *Handler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var upd FolderUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if !h.store.UpdateFolder(id, upd) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	folder, _ := h.store.FolderByID(id)
	writeJSON(w, http.StatusOK, folder)
}

// DeleteFolder handles DELETE /api/folders/{id}. Default folders are
// protected; their notes cascade to the default folder on success.
func (h *Handler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	folder, ok := h.store.FolderByID(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	if folder.IsDefault {
		writeJSON(w, http.StatusForbidden, errorBody("default folders cannot be deleted"))
		return
	}
	h.store.DeleteFolder(id)
	w.WriteHeader(http.StatusNoContent)
}

// TogglePinFolder handles POST /api/folders/{id}/pin.
func (h *Handler) TogglePinFolder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.store.TogglePinFolder(id) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	folder, _ := h.store.FolderByID(id)
	writeJSON(w, http.StatusOK, folder)
}

// NotesInFolder handles GET /api/folders/{id}/notes: the folder's notes
// sorted per the active sort policy.
func (h *Handler) NotesInFolder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.store.FolderByID(id); !ok && id != models.AllNotesFolderID {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	notes := h.store.NotesInFolder(id)
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// NotesCount handles GET /api/folders/{id}/count.
func (h *Handler) NotesCount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, map[string]int{"count": h.store.NotesCount(id)})
}

// UpdateSortSettings handles PUT /api/settings/sort.
func (h *Handler) UpdateSortSettings(w http.ResponseWriter, r *http.Request) {
	var req SortSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	h.store.SetSortSettings(req.SortType, req.SortOrder)
	st, so := h.store.SortSettings()
	writeJSON(w, http.StatusOK, SortSettingsRequest{SortType: st, SortOrder: so})
}
