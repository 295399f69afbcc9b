// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the note store and AI export formatter as tools for LLM
// integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nlzhou/notebook/internal/aiexport"
	"github.com/nlzhou/notebook/internal/assets"
	"github.com/nlzhou/notebook/internal/models"
	"github.com/nlzhou/notebook/internal/store"
)

// Server wraps the MCP server with notebook tools.
type Server struct {
	mcp    *server.MCPServer
	store  *store.Store
	assets *assets.Dir
}

// New creates a new MCP server with all notebook tools registered.
func New(st *store.Store, dir *assets.Dir) *Server {
	s := &Server{store: st, assets: dir}

	s.mcp = server.NewMCPServer(
		"Notebook",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_folders",
		mcp.WithDescription("List all folders with their ids and note counts."),
	), s.listFolders)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes in a folder, sorted per the active sort policy. "+
			"Use folder id 'all-notes' for every note."),
		mcp.WithString("folder", mcp.Description("Folder id (defaults to all-notes)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a single note by id, including its block sequence."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Case-insensitive substring search over note titles and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("export_note",
		mcp.WithDescription("Export a note in the reduced AI format: attachment metadata without "+
			"local URIs, block sequence preserving media positions. Set inline to embed "+
			"base64 image bytes."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithBoolean("inline", mcp.Description("Base64-encode image bytes into the export")),
	), s.exportNote)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer exposes the underlying server for in-process testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listFolders(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var lines []string
	for _, f := range s.store.Folders() {
		lines = append(lines, fmt.Sprintf("%s\t%s\t%d notes", f.ID, f.Name, s.store.NotesCount(f.ID)))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) listNotes(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := models.AllNotesFolderID
	if f, err := req.RequireString("folder"); err == nil && f != "" {
		folder = f
	}

	notes := s.store.NotesInFolder(folder)
	if len(notes) == 0 {
		return mcp.NewToolResultText("no notes"), nil
	}
	var lines []string
	for _, n := range notes {
		title := n.Title
		if title == "" {
			title = "(untitled)"
		}
		lines = append(lines, fmt.Sprintf("%s\t%s", n.ID, title))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, ok := s.store.NoteByID(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("note not found: %s", id)), nil
	}
	data, err := json.MarshalIndent(note, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) searchNotes(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes := s.store.SearchNotes(query)
	if len(notes) == 0 {
		return mcp.NewToolResultText("no matches"), nil
	}
	var lines []string
	for _, n := range notes {
		lines = append(lines, fmt.Sprintf("%s\t%s", n.ID, n.Title))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) exportNote(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, ok := s.store.NoteByID(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("note not found: %s", id)), nil
	}

	var out aiexport.NoteForAI
	if req.GetBool("inline", false) {
		out = aiexport.FormatNoteInline(note, nil, s.assets.Read)
	} else {
		out = aiexport.FormatNote(note, nil)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
