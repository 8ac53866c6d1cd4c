// Package mcpserver exposes the note vault as MCP (Model Context Protocol)
// tools. It owns parameter extraction and result/error encoding; all vault
// semantics live in the vault package. Failures are rendered as tool error
// text, never as protocol faults.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/laguz/internal/frontmatter"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/vault"
)

// defaultLimit caps search results when the caller does not supply one.
const defaultLimit = 20

// Server wraps the MCP server with the Laguz vault tools.
type Server struct {
	mcp              *server.MCPServer
	vault            *vault.Vault
	parseFrontmatter bool
}

// New creates an MCP server with all vault tools registered.
// parseFrontmatter controls whether read_note splits frontmatter by default.
func New(v *vault.Vault, parseFrontmatter bool) *Server {
	s := &Server{vault: v, parseFrontmatter: parseFrontmatter}

	s.mcp = server.NewMCPServer(
		"Laguz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithLogging(),
	)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a markdown note from the vault. "+
			"Returns the note content, optionally with frontmatter parsed separately."),
		mcp.WithString("path", mcp.Required(),
			mcp.Description("Relative path to the note (e.g. daily/2024-01-01.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search for notes containing the given query. "+
			"Every markdown file in the vault is scanned concurrently."),
		mcp.WithString("query", mcp.Required(),
			mcp.Description("Search query (supports regex)")),
		mcp.WithNumber("limit",
			mcp.DefaultNumber(defaultLimit),
			mcp.Description("Maximum number of results to return (default: 20)")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("search_metadata",
		mcp.WithDescription("Search notes by frontmatter metadata field. "+
			"Supports nested fields with dot notation (e.g. author.name)."),
		mcp.WithString("field", mcp.Required(),
			mcp.Description("Frontmatter field to search (e.g. title, tags, author.name)")),
		mcp.WithString("pattern", mcp.Required(),
			mcp.Description("Value pattern to match (supports regex)")),
		mcp.WithNumber("limit",
			mcp.DefaultNumber(defaultLimit),
			mcp.Description("Maximum number of results to return (default: 20)")),
	), s.searchMetadata)

	s.mcp.AddTool(mcp.NewTool("write_note",
		mcp.WithDescription("Create or overwrite a markdown note. "+
			"Creates parent directories if they don't exist. "+
			"If metadata is provided, it is formatted as YAML frontmatter."),
		mcp.WithString("path", mcp.Required(),
			mcp.Description("Relative path to the note (e.g. daily/2024-01-01.md)")),
		mcp.WithString("content", mcp.Required(),
			mcp.Description("Body content to write to the note")),
		mcp.WithObject("metadata",
			mcp.Description("Optional frontmatter metadata (e.g. {\"title\": \"My Note\", \"tags\": [\"go\"]})")),
	), s.writeNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a markdown note. "+
			"By default, moves it to the .trash directory. Set permanent=true to permanently delete."),
		mcp.WithString("path", mcp.Required(),
			mcp.Description("Relative path to the note")),
		mcp.WithBoolean("permanent",
			mcp.DefaultBool(false),
			mcp.Description("If true, permanently delete. If false (default), move to .trash.")),
	), s.deleteNote)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// HTTPHandler returns the streamable-HTTP transport for the same tool set.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// parsedNote is the read_note payload when frontmatter is split out.
type parsedNote struct {
	Metadata any    `json:"metadata"`
	Body     string `json:"body"`
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	note, err := s.vault.ReadNote(path, s.parseFrontmatter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read note: %v", err)), nil
	}
	if !note.HasFrontmatter {
		return mcp.NewToolResultText(note.Raw), nil
	}

	out, err := json.MarshalIndent(parsedNote{Metadata: note.Metadata, Body: note.Body}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read note: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", defaultLimit)

	results, err := s.vault.Search(query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Search failed: %v", err)), nil
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchMetadata(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	field, err := req.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pattern, err := req.RequireString("pattern")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", defaultLimit)

	results, err := s.vault.SearchMetadata(field, pattern, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Metadata search failed: %v", err)), nil
	}
	if results == nil {
		results = []models.MetadataMatch{}
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) writeNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// Metadata may be an object, or a JSON-encoded string sent by clients
	// that double-encode; Format handles both.
	if meta, ok := req.GetArguments()["metadata"]; ok && meta != nil {
		content = frontmatter.Format(meta, content)
	}

	created, err := s.vault.Write(path, []byte(content))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to write note: %v", err)), nil
	}

	action := "Overwrote"
	if created {
		action = "Created"
	}
	msg := fmt.Sprintf("%s %s", action, path)
	slog.Info("note written", slog.String("path", path), slog.String("action", action))
	return mcp.NewToolResultText(msg), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	permanent := req.GetBool("permanent", false)

	trashPath, err := s.vault.Delete(path, permanent)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete note: %v", err)), nil
	}

	var msg string
	if permanent {
		msg = fmt.Sprintf("Permanently deleted %s", path)
	} else {
		msg = fmt.Sprintf("Moved to trash: %s", trashPath)
	}
	slog.Info("note deleted", slog.String("path", path), slog.Bool("permanent", permanent))
	return mcp.NewToolResultText(msg), nil
}
