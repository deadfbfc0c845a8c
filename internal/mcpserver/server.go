// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes the documentation engine as read-only tools via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/eastgate/lore/internal/docs"
	"github.com/eastgate/lore/internal/syncer"
)

// DocEngine is the engine surface the MCP tools depend on.
type DocEngine interface {
	GetDocument(ctx context.Context, slug string) (docs.Document, error)
	GetAllDocuments() []docs.Document
	BuildNavigation(section string) []docs.NavNode
	RefreshAll(ctx context.Context) error
	State() syncer.State
}

// Server wraps the MCP server with lore tools.
type Server struct {
	mcp    *server.MCPServer
	engine DocEngine
}

// New creates a new MCP server with all lore tools registered.
func New(engine DocEngine) *Server {
	s := &Server{engine: engine}

	s.mcp = server.NewMCPServer(
		"Lore",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Read a documentation page by slug, including its metadata and Markdown body."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Document slug (path without extension, e.g. guide/setup)")),
	), s.getDocument)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List all documentation pages with their titles and slugs."),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("get_navigation",
		mcp.WithDescription("Get the hierarchical navigation tree, optionally restricted to one section."),
		mcp.WithString("section", mcp.Description("Optional slug prefix (empty for the full tree)")),
	), s.getNavigation)

	s.mcp.AddTool(mcp.NewTool("refresh",
		mcp.WithDescription("Force a full re-sync of the documentation set from the tracked repository."),
	), s.refresh)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) getDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.engine.GetDocument(ctx, slug)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
	}
	out, _ := json.MarshalIndent(doc, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listDocuments(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	all := s.engine.GetAllDocuments()
	if len(all) == 0 {
		return mcp.NewToolResultText("no documents cached"), nil
	}
	var lines []string
	for _, d := range all {
		lines = append(lines, fmt.Sprintf("%s\t%s", d.Slug, d.Title))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getNavigation(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	section := ""
	if v, err := req.RequireString("section"); err == nil {
		section = v
	}
	nav := s.engine.BuildNavigation(section)
	out, _ := json.MarshalIndent(nav, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) refresh(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.engine.RefreshAll(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("refreshed, state: %s", s.engine.State())), nil
}
