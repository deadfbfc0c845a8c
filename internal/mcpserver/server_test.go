package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/eastgate/lore/internal/apperr"
	"github.com/eastgate/lore/internal/docs"
	"github.com/eastgate/lore/internal/syncer"
)

// stubEngine is a canned DocEngine for tool tests.
type stubEngine struct {
	documents  []docs.Document
	refreshErr error
}

func (s *stubEngine) GetDocument(_ context.Context, slug string) (docs.Document, error) {
	for _, d := range s.documents {
		if d.Slug == slug {
			return d, nil
		}
	}
	return docs.Document{}, apperr.ErrNotFound
}

func (s *stubEngine) GetAllDocuments() []docs.Document { return s.documents }

func (s *stubEngine) BuildNavigation(section string) []docs.NavNode {
	return docs.BuildNav(s.documents, docs.SectionPrefix(section))
}

func (s *stubEngine) RefreshAll(context.Context) error { return s.refreshErr }

func (s *stubEngine) State() syncer.State { return syncer.StateReady }

func toolRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestGetDocumentTool(t *testing.T) {
	srv := New(&stubEngine{documents: []docs.Document{
		{Slug: "guide", Title: "Guide", Body: "# Guide"},
	}})

	r, err := srv.getDocument(context.Background(), toolRequest("get_document", map[string]any{"slug": "guide"}))
	if err != nil {
		t.Fatalf("tool error: %v", err)
	}
	var doc docs.Document
	if err := json.Unmarshal([]byte(resultText(r)), &doc); err != nil {
		t.Fatalf("result not JSON: %v", err)
	}
	if doc.Title != "Guide" {
		t.Errorf("title = %q", doc.Title)
	}
}

func TestGetDocumentTool_Missing(t *testing.T) {
	srv := New(&stubEngine{})
	r, err := srv.getDocument(context.Background(), toolRequest("get_document", map[string]any{"slug": "nope"}))
	if err != nil {
		t.Fatalf("tool error: %v", err)
	}
	if !r.IsError {
		t.Error("expected error result for missing document")
	}
}

func TestListDocumentsTool(t *testing.T) {
	srv := New(&stubEngine{documents: []docs.Document{
		{Slug: "a", Title: "A"},
		{Slug: "b", Title: "B"},
	}})
	r, err := srv.listDocuments(context.Background(), toolRequest("list_documents", nil))
	if err != nil {
		t.Fatalf("tool error: %v", err)
	}
	text := resultText(r)
	if !strings.Contains(text, "a\tA") || !strings.Contains(text, "b\tB") {
		t.Errorf("list = %q", text)
	}
}

func TestGetNavigationTool(t *testing.T) {
	srv := New(&stubEngine{documents: []docs.Document{
		{Slug: "guide", Title: "Guide", Order: 1},
		{Slug: "guide/setup", Title: "Setup", Order: 2},
	}})
	r, err := srv.getNavigation(context.Background(), toolRequest("get_navigation", map[string]any{}))
	if err != nil {
		t.Fatalf("tool error: %v", err)
	}
	var nav []docs.NavNode
	if err := json.Unmarshal([]byte(resultText(r)), &nav); err != nil {
		t.Fatalf("result not JSON: %v", err)
	}
	if len(nav) != 1 || len(nav[0].Children) != 1 {
		t.Errorf("nav = %+v", nav)
	}
}

func TestRefreshTool_Error(t *testing.T) {
	srv := New(&stubEngine{refreshErr: errors.New("listing failed")})
	r, err := srv.refresh(context.Background(), toolRequest("refresh", nil))
	if err != nil {
		t.Fatalf("tool error: %v", err)
	}
	if !r.IsError {
		t.Error("expected error result when refresh fails")
	}
}
