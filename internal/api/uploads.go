package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 50 << 20 // 50 MB

// UploadAsset handles POST /api/assets (multipart/form-data, field "file").
// The response is shaped like a media picker result, ready to wrap into an
// attachment via the insert or add-attachment endpoints.
func (h *Handler) UploadAsset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	saved, err := h.assets.Save(header.Filename, file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to store file"))
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// ServeAsset handles GET /api/assets/{name}.
func (h *Handler) ServeAsset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" || name != filepath.Base(name) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid asset name"))
		return
	}
	abs := filepath.Join(h.assets.Root(), name)
	if _, err := os.Stat(abs); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, abs)
}
