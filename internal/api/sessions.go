package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nlzhou/notebook/internal/models"
	"github.com/nlzhou/notebook/internal/session"
)

// OpenSession handles POST /api/notes/{id}/session. Opening is idempotent:
// an already-open session is returned as-is. Legacy notes get their block
// sequence rebuilt from flattened content and attachments.
func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := h.sessions.Open(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{NoteID: id, Blocks: sess.Blocks()})
}

// CloseSession handles DELETE /api/notes/{id}/session: flushes the working
// state immediately and silently deletes the note if it was abandoned empty.
func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Close(chi.URLParam(r, "id")) {
		writeJSON(w, http.StatusNotFound, errorBody("no open session"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// openSession resolves the session for the note id in the request, writing a
// 404 when none is open.
func (h *Handler) openSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	s, open := h.sessions.Get(id)
	if !open {
		writeJSON(w, http.StatusNotFound, errorBody("no open session"))
		return nil, false
	}
	return s, true
}

// ReplaceBlocks handles PUT /api/notes/{id}/session/blocks: the editing
// surface delivers its full working sequence; persistence is debounced.
func (h *Handler) ReplaceBlocks(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.openSession(w, r)
	if !ok {
		return
	}
	var req ReplaceBlocksRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	sess.Replace(req.Blocks)
	w.WriteHeader(http.StatusNoContent)
}

// SetTitle handles PUT /api/notes/{id}/session/title.
func (h *Handler) SetTitle(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.openSession(w, r)
	if !ok {
		return
	}
	var req SetTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	sess.SetTitle(req.Title)
	w.WriteHeader(http.StatusNoContent)
}

// InsertMedia handles POST /api/notes/{id}/session/insert: splits the active
// text block at the cursor and inserts a media block for the attachment.
func (h *Handler) InsertMedia(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.openSession(w, r)
	if !ok {
		return
	}
	var req InsertMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	att := models.NewAttachment(req.Attachment.Attachment())
	seq, focus := sess.InsertMedia(req.ActiveBlockID, req.CursorOffset, att)
	writeJSON(w, http.StatusOK, SessionResponse{
		NoteID:       sess.NoteID(),
		Blocks:       seq,
		FocusBlockID: focus,
	})
}

// RemoveMedia handles POST /api/notes/{id}/session/remove: removes the media
// block, merging the surrounding text blocks when both neighbors are text.
func (h *Handler) RemoveMedia(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.openSession(w, r)
	if !ok {
		return
	}
	var req RemoveMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	seq, focus, cursor := sess.RemoveMedia(req.BlockID)
	writeJSON(w, http.StatusOK, SessionResponse{
		NoteID:       sess.NoteID(),
		Blocks:       seq,
		FocusBlockID: focus,
		CursorOffset: cursor,
	})
}
