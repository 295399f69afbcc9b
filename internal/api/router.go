package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nlzhou/notebook/internal/assets"
	"github.com/nlzhou/notebook/internal/session"
	"github.com/nlzhou/notebook/internal/store"
)

// NewHandler creates a Handler over the store, session manager, and asset
// directory.
func NewHandler(st *store.Store, sessions *session.Manager, dir *assets.Dir) *Handler {
	return &Handler{store: st, sessions: sessions, assets: dir}
}

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Folders.
	r.Get("/folders", h.ListFolders)
	r.Post("/folders", h.CreateFolder)
	r.Patch("/folders/{id}", h.UpdateFolder)
	r.Delete("/folders/{id}", h.DeleteFolder)
	r.Post("/folders/{id}/pin", h.TogglePinFolder)
	r.Get("/folders/{id}/notes", h.NotesInFolder)
	r.Get("/folders/{id}/count", h.NotesCount)

	// Notes.
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/{id}", h.GetNote)
	r.Patch("/notes/{id}", h.UpdateNote)
	r.Delete("/notes/{id}", h.DeleteNote)
	r.Post("/notes/{id}/pin", h.TogglePinNote)
	r.Post("/notes/{id}/move", h.MoveNote)

	// Legacy flat attachments.
	r.Post("/notes/{id}/attachments", h.AddAttachment)
	r.Delete("/notes/{id}/attachments/{attachmentID}", h.RemoveAttachment)

	// Editing sessions.
	r.Post("/notes/{id}/session", h.OpenSession)
	r.Delete("/notes/{id}/session", h.CloseSession)
	r.Put("/notes/{id}/session/blocks", h.ReplaceBlocks)
	r.Put("/notes/{id}/session/title", h.SetTitle)
	r.Post("/notes/{id}/session/insert", h.InsertMedia)
	r.Post("/notes/{id}/session/remove", h.RemoveMedia)

	// Search.
	r.Get("/search", h.Search)

	// AI export.
	r.Get("/notes/{id}/export", h.ExportNote)
	r.Get("/export", h.ExportAll)

	// Settings.
	r.Put("/settings/sort", h.UpdateSortSettings)

	// Assets.
	r.Post("/assets", h.UploadAsset)
	r.Get("/assets/{name}", h.ServeAsset)

	// SSE endpoint (protected by the same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
