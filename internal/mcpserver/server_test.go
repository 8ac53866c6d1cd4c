package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/laguz/internal/testutil"
	"github.com/starford/laguz/internal/vault"
)

func testServer(t *testing.T, parseFrontmatter bool) (*Server, *vault.Vault) {
	t.Helper()
	_, v := testutil.TestVault(t)
	return New(v, parseFrontmatter), v
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so we test
	// through the tool handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "search_metadata":
		result, err = srv.searchMetadata(ctx, req)
	case "write_note":
		result, err = srv.writeNote(ctx, req)
	case "delete_note":
		result, err = srv.deleteNote(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestWriteAndReadNote(t *testing.T) {
	srv, _ := testServer(t, false)

	r := callTool(t, srv, "write_note", map[string]interface{}{
		"path":    "test.md",
		"content": "# Test\nHello",
	})
	if text := resultText(r); text != "Created test.md" {
		t.Errorf("write result = %q", text)
	}

	r = callTool(t, srv, "read_note", map[string]interface{}{"path": "test.md"})
	if text := resultText(r); text != "# Test\nHello" {
		t.Errorf("read result = %q", text)
	}
}

func TestWriteNote_OverwriteMessage(t *testing.T) {
	srv, _ := testServer(t, false)

	_ = callTool(t, srv, "write_note", map[string]interface{}{"path": "a.md", "content": "one"})
	r := callTool(t, srv, "write_note", map[string]interface{}{"path": "a.md", "content": "two"})
	if text := resultText(r); text != "Overwrote a.md" {
		t.Errorf("write result = %q", text)
	}
}

func TestWriteNote_WithMetadata(t *testing.T) {
	srv, v := testServer(t, false)

	_ = callTool(t, srv, "write_note", map[string]interface{}{
		"path":     "meta.md",
		"content":  "Body content",
		"metadata": map[string]interface{}{"title": "My Note"},
	})

	note, err := v.ReadNote("meta.md", true)
	if err != nil {
		t.Fatalf("ReadNote: %v", err)
	}
	if !note.HasFrontmatter {
		t.Fatal("expected frontmatter")
	}
	meta := note.Metadata.(map[string]any)
	if meta["title"] != "My Note" {
		t.Errorf("title = %v", meta["title"])
	}
	if note.Body != "Body content" {
		t.Errorf("body = %q", note.Body)
	}
}

func TestWriteNote_WithJSONStringMetadata(t *testing.T) {
	srv, v := testServer(t, false)

	_ = callTool(t, srv, "write_note", map[string]interface{}{
		"path":     "meta.md",
		"content":  "Body",
		"metadata": `{"title": "Stringly", "level": 3}`,
	})

	note, _ := v.ReadNote("meta.md", true)
	if !note.HasFrontmatter {
		t.Fatal("expected frontmatter")
	}
	meta := note.Metadata.(map[string]any)
	if meta["title"] != "Stringly" || meta["level"] != 3 {
		t.Errorf("meta = %v", meta)
	}
}

func TestReadNote_ParsedOutput(t *testing.T) {
	srv, v := testServer(t, true)
	_, _ = v.Write("fm.md", []byte("---\ntitle: Parsed\n---\n\nHello body"))

	r := callTool(t, srv, "read_note", map[string]interface{}{"path": "fm.md"})
	var parsed struct {
		Metadata map[string]any `json:"metadata"`
		Body     string         `json:"body"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &parsed); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if parsed.Metadata["title"] != "Parsed" {
		t.Errorf("title = %v", parsed.Metadata["title"])
	}
	if parsed.Body != "Hello body" {
		t.Errorf("body = %q", parsed.Body)
	}
}

func TestReadNote_ParseToggleOffReturnsRaw(t *testing.T) {
	srv, v := testServer(t, false)
	raw := "---\ntitle: Raw\n---\n\nbody"
	_, _ = v.Write("fm.md", []byte(raw))

	r := callTool(t, srv, "read_note", map[string]interface{}{"path": "fm.md"})
	if text := resultText(r); text != raw {
		t.Errorf("read result = %q, want raw content", text)
	}
}

func TestReadNote_Missing(t *testing.T) {
	srv, _ := testServer(t, false)
	r := callTool(t, srv, "read_note", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
	if !strings.Contains(resultText(r), "Failed to read note") {
		t.Errorf("error text = %q", resultText(r))
	}
}

func TestSearchNotes(t *testing.T) {
	srv, v := testServer(t, false)
	_, _ = v.Write("one.md", []byte("Gagagigo rises"))
	_, _ = v.Write("two.md", []byte("nothing here"))

	r := callTool(t, srv, "search_notes", map[string]interface{}{"query": "Gagagigo"})
	text := resultText(r)
	if !strings.Contains(text, "one.md") || strings.Contains(text, "two.md") {
		t.Errorf("search output = %q", text)
	}
}

func TestSearchNotes_EmptyResultIsJSONArray(t *testing.T) {
	srv, _ := testServer(t, false)
	r := callTool(t, srv, "search_notes", map[string]interface{}{"query": "anything"})
	if text := strings.TrimSpace(resultText(r)); text != "[]" {
		t.Errorf("empty search output = %q, want []", text)
	}
}

func TestSearchNotes_InvalidRegex(t *testing.T) {
	srv, _ := testServer(t, false)
	r := callTool(t, srv, "search_notes", map[string]interface{}{"query": "[invalid("})
	if !r.IsError {
		t.Error("expected error result for invalid regex")
	}
	if !strings.Contains(resultText(r), "Search failed") {
		t.Errorf("error text = %q", resultText(r))
	}
}

func TestSearchMetadataTool(t *testing.T) {
	srv, v := testServer(t, false)
	_, _ = v.Write("note.md", []byte("---\ntitle: Test Note\n---\n\nbody"))

	r := callTool(t, srv, "search_metadata", map[string]interface{}{
		"field":   "title",
		"pattern": "Test",
	})
	text := resultText(r)
	if !strings.Contains(text, "Test Note") {
		t.Errorf("metadata search output = %q", text)
	}
}

func TestDeleteNote_Trash(t *testing.T) {
	srv, v := testServer(t, false)
	_, _ = v.Write("gone.md", []byte("bye"))

	r := callTool(t, srv, "delete_note", map[string]interface{}{"path": "gone.md"})
	text := resultText(r)
	if !strings.HasPrefix(text, "Moved to trash: .trash/") || !strings.HasSuffix(text, "_gone.md") {
		t.Errorf("delete result = %q", text)
	}
}

func TestDeleteNote_Permanent(t *testing.T) {
	srv, v := testServer(t, false)
	_, _ = v.Write("gone.md", []byte("bye"))

	r := callTool(t, srv, "delete_note", map[string]interface{}{
		"path":      "gone.md",
		"permanent": true,
	})
	if text := resultText(r); text != "Permanently deleted gone.md" {
		t.Errorf("delete result = %q", text)
	}
}

func TestDeleteNote_Missing(t *testing.T) {
	srv, _ := testServer(t, false)
	r := callTool(t, srv, "delete_note", map[string]interface{}{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}
