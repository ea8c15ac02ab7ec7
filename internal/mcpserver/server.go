// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes note publishing tools for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/noteservice"
)

// Server wraps the MCP server with note tools.
type Server struct {
	mcp     *server.MCPServer
	svc     *noteservice.Service
	baseURL string
}

// New creates a new MCP server with all note tools registered.
func New(svc *noteservice.Service, baseURL string) *Server {
	s := &Server{svc: svc, baseURL: baseURL}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("publish_note",
		mcp.WithDescription("Publish a Markdown note and get its public URL plus the "+
			"edit token needed for later changes. Read the markdown guide first via "+
			"the get_markdown_guide tool or the ansuz://markdown-format resource."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown content of the note")),
	), s.publishNote)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the raw Markdown content of a published note."),
		mcp.WithString("hashcode", mcp.Required(), mcp.Description("Note hashcode from its URL")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("edit_note",
		mcp.WithDescription("Replace the content of a note. Requires the edit token "+
			"returned by publish_note."),
		mcp.WithString("hashcode", mcp.Required(), mcp.Description("Note hashcode from its URL")),
		mcp.WithString("edit_token", mcp.Required(), mcp.Description("Edit token of the note")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New Markdown content")),
	), s.editNote)

	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List pages belonging to a Telegraph-style account, latest first."),
		mcp.WithString("access_token", mcp.Required(), mcp.Description("Account access token")),
	), s.listPages)

	s.mcp.AddTool(mcp.NewTool("get_markdown_guide",
		mcp.WithDescription("Returns the Markdown dialect notes are written in. "+
			"Call this before publishing to use the supported extensions correctly."),
	), s.getMarkdownGuide)

	// Resource: markdown format guide.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://markdown-format", "Markdown Format Guide",
			mcp.WithResourceDescription("Markdown dialect used by published notes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readMarkdownGuideResource,
	)

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

func (s *Server) publishNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.Publish(ctx, content)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]string{
		"hashcode":   n.Hashcode,
		"url":        s.baseURL + "/" + n.Hashcode,
		"edit_token": n.EditToken,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hashcode, err := req.RequireString("hashcode")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.Get(ctx, hashcode)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", hashcode)), nil
	}
	return mcp.NewToolResultText(n.Content), nil
}

func (s *Server) editNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hashcode, err := req.RequireString("hashcode")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	token, err := req.RequireString("edit_token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.svc.Edit(ctx, hashcode, "", token, content); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s", hashcode)), nil
}

func (s *Server) listPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, err := req.RequireString("access_token")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, total, err := s.svc.PageList(ctx, token, 0, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pages := make([]map[string]any, 0, len(notes))
	for _, n := range notes {
		pages = append(pages, map[string]any{
			"path":  n.Hashcode,
			"url":   s.baseURL + "/" + n.Hashcode,
			"title": n.Title,
			"views": n.Views,
		})
	}
	out, _ := json.MarshalIndent(map[string]any{
		"total_count": total,
		"pages":       pages,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getMarkdownGuide(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MarkdownGuide), nil
}

func (s *Server) readMarkdownGuideResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://markdown-format",
			MIMEType: "text/markdown",
			Text:     MarkdownGuide,
		},
	}, nil
}
