package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nlzhou/notebook/internal/aiexport"
	"github.com/nlzhou/notebook/internal/assets"
	"github.com/nlzhou/notebook/internal/models"
	"github.com/nlzhou/notebook/internal/session"
	"github.com/nlzhou/notebook/internal/store"
)

// Handler holds the API route handlers.
type Handler struct {
	store    *store.Store
	sessions *session.Manager
	assets   *assets.Dir
}

// CreateNote handles POST /api/notes: creates an empty note in the target
// folder.
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	note := h.store.AddNote(req.FolderID)
	writeJSON(w, http.StatusCreated, note)
}

// GetNote handles GET /api/notes/{id}.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	note, ok := h.store.NoteByID(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// UpdateNote handles PATCH /api/notes/{id}: merges the provided fields as one
// state transition. The id and createdAt fields never change.
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var upd NoteUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if !h.store.UpdateNote(id, upd) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	note, _ := h.store.NoteByID(id)
	writeJSON(w, http.StatusOK, note)
}

// DeleteNote handles DELETE /api/notes/{id}.
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if !h.store.DeleteNote(chi.URLParam(r, "id")) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TogglePinNote handles POST /api/notes/{id}/pin.
func (h *Handler) TogglePinNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.store.TogglePinNote(id) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	note, _ := h.store.NoteByID(id)
	writeJSON(w, http.StatusOK, note)
}

// MoveNote handles POST /api/notes/{id}/move.
func (h *Handler) MoveNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req MoveNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if !h.store.MoveNote(id, req.FolderID) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	note, _ := h.store.NoteByID(id)
	writeJSON(w, http.StatusOK, note)
}

// AddAttachment handles POST /api/notes/{id}/attachments, the legacy flat
// attachment path.
func (h *Handler) AddAttachment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req AddAttachmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	att, ok := h.store.AddAttachment(id, req.Attachment())
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusCreated, att)
}

// RemoveAttachment handles DELETE /api/notes/{id}/attachments/{attachmentID}.
func (h *Handler) RemoveAttachment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	attID := chi.URLParam(r, "attachmentID")
	if !h.store.RemoveAttachment(id, attID) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search: case-insensitive substring match over
// title and flattened content, across all folders.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	notes := h.store.SearchNotes(r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// ExportNote handles GET /api/notes/{id}/export: the AI projection of one
// note. An open session's working blocks take precedence over the persisted
// ones; ?inline=1 base64-encodes image bytes into the output.
func (h *Handler) ExportNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	note, ok := h.store.NoteByID(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}

	var override []models.Block
	if sess, open := h.sessions.Get(id); open {
		override = sess.Blocks()
	}

	if r.URL.Query().Get("inline") == "1" {
		writeJSON(w, http.StatusOK, aiexport.FormatNoteInline(note, override, h.assets.Read))
		return
	}
	writeJSON(w, http.StatusOK, aiexport.FormatNote(note, override))
}

// ExportAll handles GET /api/export: the AI projection of every note.
func (h *Handler) ExportAll(w http.ResponseWriter, _ *http.Request) {
	notes := h.store.NotesInFolder(models.AllNotesFolderID)
	writeJSON(w, http.StatusOK, aiexport.FormatNotes(notes))
}
