package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nlzhou/notebook/internal/assets"
	"github.com/nlzhou/notebook/internal/models"
	"github.com/nlzhou/notebook/internal/session"
	"github.com/nlzhou/notebook/internal/store"
	"github.com/nlzhou/notebook/internal/testutil"
)

// testEnv sets up a store, session manager, asset dir, and router.
// authToken="" means auth disabled; non-empty means token mode.
func testEnv(t *testing.T, authToken string) (*store.Store, http.Handler) {
	t.Helper()
	st, router, _ := testEnvFull(t, authToken)
	return st, router
}

func testEnvFull(t *testing.T, authToken string) (*store.Store, http.Handler, *assets.Dir) {
	t.Helper()

	st := testutil.Store(t)
	sessions := session.NewManager(st, testutil.Logger(), time.Hour)
	t.Cleanup(sessions.CloseAll)

	dir, err := assets.NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}

	h := NewHandler(st, sessions, dir)
	router := NewRouter(h, authToken != "", authToken, nil)
	return st, router, dir
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v, body = %s", err, w.Body.String())
	}
	return out
}

func TestListFolders_Seeded(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodGet, "/folders", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	resp := decode[FolderListResponse](t, w)
	if len(resp.Folders) != 4 {
		t.Errorf("seeded folders = %d, want 4", len(resp.Folders))
	}
}

func TestFolderLifecycle(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/folders", map[string]string{
		"name": "Travel", "color": "#5856D6", "icon": "airplane",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d, body = %s", w.Code, w.Body.String())
	}
	folder := decode[models.Folder](t, w)

	w = doJSON(t, router, http.MethodPatch, "/folders/"+folder.ID, map[string]string{"name": "Trips"})
	if w.Code != http.StatusOK {
		t.Fatalf("patch = %d", w.Code)
	}
	if got := decode[models.Folder](t, w); got.Name != "Trips" {
		t.Errorf("name = %q", got.Name)
	}

	w = doJSON(t, router, http.MethodPost, "/folders/"+folder.ID+"/pin", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("pin = %d", w.Code)
	}
	if got := decode[models.Folder](t, w); !got.IsPinned {
		t.Error("folder should be pinned")
	}

	w = doJSON(t, router, http.MethodDelete, "/folders/"+folder.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}
}

func TestCreateFolder_MissingName(t *testing.T) {
	_, router := testEnv(t, "")
	w := doJSON(t, router, http.MethodPost, "/folders", map[string]string{"color": "#fff"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("create without name = %d, want 400", w.Code)
	}
}

func TestDeleteFolder_DefaultForbidden(t *testing.T) {
	_, router := testEnv(t, "")
	w := doJSON(t, router, http.MethodDelete, "/folders/"+models.DefaultFolderID, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("delete default = %d, want 403", w.Code)
	}
	w = doJSON(t, router, http.MethodDelete, "/folders/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("delete missing = %d, want 404", w.Code)
	}
}

func TestNoteLifecycle(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/notes", map[string]string{"folderId": models.DefaultFolderID})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d, body = %s", w.Code, w.Body.String())
	}
	note := decode[models.Note](t, w)

	w = doJSON(t, router, http.MethodGet, "/notes/"+note.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodPatch, "/notes/"+note.ID, map[string]string{
		"title": "Groceries", "content": "milk",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("patch = %d", w.Code)
	}
	if got := decode[models.Note](t, w); got.Title != "Groceries" || got.Content != "milk" {
		t.Errorf("patched note = %+v", got)
	}

	w = doJSON(t, router, http.MethodPost, "/notes/"+note.ID+"/pin", nil)
	if got := decode[models.Note](t, w); !got.IsPinned {
		t.Error("note should be pinned")
	}

	w = doJSON(t, router, http.MethodDelete, "/notes/"+note.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}
	w = doJSON(t, router, http.MethodGet, "/notes/"+note.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestMoveNote(t *testing.T) {
	st, router := testEnv(t, "")
	folder := st.AddFolder("Target", "#abc", "tray")
	note := st.AddNote(models.DefaultFolderID)

	w := doJSON(t, router, http.MethodPost, "/notes/"+note.ID+"/move", map[string]string{"folderId": folder.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("move = %d", w.Code)
	}
	if got := decode[models.Note](t, w); got.FolderID != folder.ID {
		t.Errorf("folderId = %q", got.FolderID)
	}
}

func TestNotesInFolder(t *testing.T) {
	st, router := testEnv(t, "")
	st.AddNote(models.DefaultFolderID)

	w := doJSON(t, router, http.MethodGet, "/folders/"+models.DefaultFolderID+"/notes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	resp := decode[NoteListResponse](t, w)
	if resp.Total != 1 || len(resp.Notes) != 1 {
		t.Errorf("list = %d/%d", len(resp.Notes), resp.Total)
	}

	// The virtual all-notes folder is listable even though it is never stored.
	w = doJSON(t, router, http.MethodGet, "/folders/"+models.AllNotesFolderID+"/notes", nil)
	if w.Code != http.StatusOK {
		t.Errorf("all-notes list = %d", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/folders/nope/notes", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing folder = %d, want 404", w.Code)
	}
}

func TestAttachmentEndpoints(t *testing.T) {
	st, router := testEnv(t, "")
	note := st.AddNote(models.DefaultFolderID)

	w := doJSON(t, router, http.MethodPost, "/notes/"+note.ID+"/attachments", map[string]any{
		"type": "image", "uri": "assets/photo.jpg", "fileName": "photo.jpg",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("add attachment = %d, body = %s", w.Code, w.Body.String())
	}
	att := decode[models.Attachment](t, w)
	if att.ID == "" {
		t.Error("attachment should get an id")
	}

	// Missing uri → 400.
	w = doJSON(t, router, http.MethodPost, "/notes/"+note.ID+"/attachments", map[string]any{"type": "image"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid attachment = %d, want 400", w.Code)
	}

	w = doJSON(t, router, http.MethodDelete, "/notes/"+note.ID+"/attachments/"+att.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("remove = %d, want 204", w.Code)
	}
	w = doJSON(t, router, http.MethodDelete, "/notes/"+note.ID+"/attachments/"+att.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("remove again = %d, want 404", w.Code)
	}
}

func TestSessionFlow(t *testing.T) {
	st, router := testEnv(t, "")
	note := st.AddNote(models.DefaultFolderID)

	w := doJSON(t, router, http.MethodPost, "/notes/"+note.ID+"/session", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("open = %d, body = %s", w.Code, w.Body.String())
	}
	opened := decode[SessionResponse](t, w)
	if opened.NoteID != note.ID {
		t.Errorf("noteId = %q", opened.NoteID)
	}

	w = doJSON(t, router, http.MethodPut, "/notes/"+note.ID+"/session/title", map[string]string{"title": "Draft"})
	if w.Code != http.StatusNoContent {
		t.Fatalf("set title = %d", w.Code)
	}

	blocks := []models.Block{models.NewTextBlock("hello world")}
	w = doJSON(t, router, http.MethodPut, "/notes/"+note.ID+"/session/blocks", ReplaceBlocksRequest{Blocks: blocks})
	if w.Code != http.StatusNoContent {
		t.Fatalf("replace blocks = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, "/notes/"+note.ID+"/session/insert", map[string]any{
		"activeBlockId": blocks[0].ID,
		"cursorOffset":  5,
		"attachment":    map[string]any{"type": "image", "uri": "assets/x.png", "fileName": "x.png"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("insert = %d, body = %s", w.Code, w.Body.String())
	}
	inserted := decode[SessionResponse](t, w)
	if len(inserted.Blocks) != 3 {
		t.Fatalf("sequence = %d blocks after insert", len(inserted.Blocks))
	}
	if inserted.FocusBlockID != inserted.Blocks[2].ID {
		t.Error("focus should be the trailing text block")
	}

	w = doJSON(t, router, http.MethodPost, "/notes/"+note.ID+"/session/remove", map[string]string{
		"blockId": inserted.Blocks[1].ID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("remove = %d, body = %s", w.Code, w.Body.String())
	}
	removed := decode[SessionResponse](t, w)
	if len(removed.Blocks) != 1 {
		t.Errorf("sequence = %d blocks after remove", len(removed.Blocks))
	}
	if removed.CursorOffset != 5 {
		t.Errorf("cursorOffset = %d, want 5", removed.CursorOffset)
	}

	w = doJSON(t, router, http.MethodDelete, "/notes/"+note.ID+"/session", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("close = %d", w.Code)
	}

	// Close flushed the working state.
	got, ok := st.NoteByID(note.ID)
	if !ok || got.Title != "Draft" {
		t.Errorf("flushed note = %+v", got)
	}
}

func TestSession_NotOpen(t *testing.T) {
	st, router := testEnv(t, "")
	note := st.AddNote(models.DefaultFolderID)

	w := doJSON(t, router, http.MethodPut, "/notes/"+note.ID+"/session/title", map[string]string{"title": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("edit without session = %d, want 404", w.Code)
	}
	w = doJSON(t, router, http.MethodDelete, "/notes/"+note.ID+"/session", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("close without session = %d, want 404", w.Code)
	}
	w = doJSON(t, router, http.MethodPost, "/notes/missing/session", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("open missing note = %d, want 404", w.Code)
	}
}

func TestCloseSession_DeletesEmptyNote(t *testing.T) {
	st, router := testEnv(t, "")
	note := st.AddNote(models.DefaultFolderID)

	doJSON(t, router, http.MethodPost, "/notes/"+note.ID+"/session", nil)
	doJSON(t, router, http.MethodDelete, "/notes/"+note.ID+"/session", nil)

	if _, ok := st.NoteByID(note.ID); ok {
		t.Error("empty note should be deleted when its session closes")
	}
}

func TestSearchEndpoint(t *testing.T) {
	st, router := testEnv(t, "")
	note := st.AddNote(models.DefaultFolderID)
	title := "Shopping"
	content := "milk and eggs"
	st.UpdateNote(note.ID, store.NoteUpdate{Title: &title, Content: &content})

	w := doJSON(t, router, http.MethodGet, "/search?q=eggs", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d", w.Code)
	}
	resp := decode[NoteListResponse](t, w)
	if resp.Total != 1 {
		t.Errorf("results = %d, want 1", resp.Total)
	}

	// Empty query is not an error, just an empty result set.
	w = doJSON(t, router, http.MethodGet, "/search", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("empty search = %d", w.Code)
	}
	resp = decode[NoteListResponse](t, w)
	if resp.Total != 0 {
		t.Errorf("empty query results = %d, want 0", resp.Total)
	}
}

func TestExportNote(t *testing.T) {
	st, router := testEnv(t, "")
	note := st.AddNote(models.DefaultFolderID)
	title := "Trip"
	atts := []models.Attachment{models.NewAttachment(models.Attachment{
		Type: models.AttachmentImage, URI: "assets/p.jpg", FileName: "p.jpg",
	})}
	st.UpdateNote(note.ID, store.NoteUpdate{Title: &title, Attachments: &atts})

	w := doJSON(t, router, http.MethodGet, "/notes/"+note.ID+"/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d", w.Code)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("assets/")) {
		t.Errorf("export leaked local URI: %s", w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/notes/missing/export", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("export missing = %d, want 404", w.Code)
	}
}

func TestExportAll(t *testing.T) {
	st, router := testEnv(t, "")
	st.AddNote(models.DefaultFolderID)
	st.AddNote(models.DefaultFolderID)

	w := doJSON(t, router, http.MethodGet, "/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export all = %d", w.Code)
	}
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["totalCount"].(float64) != 2 {
		t.Errorf("totalCount = %v, want 2", resp["totalCount"])
	}
}

func TestUpdateSortSettings(t *testing.T) {
	st, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPut, "/settings/sort", map[string]string{
		"sortType": "title", "sortOrder": "asc",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("sort settings = %d, body = %s", w.Code, w.Body.String())
	}
	if st1, so := st.SortSettings(); st1 != models.SortByTitle || so != models.SortAsc {
		t.Errorf("settings = %s/%s", st1, so)
	}

	w = doJSON(t, router, http.MethodPut, "/settings/sort", map[string]string{"sortType": "bogus"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid sort type = %d, want 400", w.Code)
	}
}

func uploadFile(t *testing.T, router http.Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(part, bytes.NewReader(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/assets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadAndServeAsset(t *testing.T) {
	_, router, _ := testEnvFull(t, "")

	w := uploadFile(t, router, "photo.png", []byte("fake-png-data"))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	saved := decode[assets.Saved](t, w)
	if saved.Type != models.AttachmentImage || saved.MimeType != "image/png" {
		t.Errorf("saved = %+v", saved)
	}

	// Serve back through the API using the returned URI.
	req := httptest.NewRequest(http.MethodGet, "/"+saved.URI, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("serve = %d", rec.Code)
	}
	if rec.Body.String() != "fake-png-data" {
		t.Error("served bytes differ from upload")
	}
}

func TestUploadAsset_MissingFileField(t *testing.T) {
	_, router := testEnv(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("wrong", "data")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/assets", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}

func TestServeAsset_NotFound(t *testing.T) {
	_, router := testEnv(t, "")
	w := doJSON(t, router, http.MethodGet, "/assets/nope.png", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing asset = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/folders", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/folders", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/folders", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/folders", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}
