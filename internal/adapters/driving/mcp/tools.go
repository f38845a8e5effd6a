package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool inputs leave every field optional in the schema so that missing
// arguments reach the dispatcher and come back as text.

// AddDocumentationInput is the input schema for add_documentation.
type AddDocumentationInput struct {
	URL string `json:"url,omitempty" jsonschema:"URL or file path of the documentation to add"`
}

// AddDirectoryInput is the input schema for add_directory.
type AddDirectoryInput struct {
	Path string `json:"path,omitempty" jsonschema:"path of the directory to ingest recursively"`
}

// SearchDocumentationInput is the input schema for search_documentation.
type SearchDocumentationInput struct {
	Query string `json:"query,omitempty" jsonschema:"the search query"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default 5)"`
}

// ListSourcesInput is the input schema for list_sources.
type ListSourcesInput struct{}

// DeleteDocumentationInput is the input schema for delete_documentation.
type DeleteDocumentationInput struct {
	Source string `json:"source,omitempty" jsonschema:"source path or URL whose chunks should be removed"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolAddDocumentation,
		Description: "Add documentation from a URL or file path to the knowledge base",
	}, s.handleAddDocumentation)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolAddDirectory,
		Description: "Add every supported file in a directory to the knowledge base",
	}, s.handleAddDirectory)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolSearchDocumentation,
		Description: "Search the knowledge base for passages similar to a query",
	}, s.handleSearchDocumentation)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolListSources,
		Description: "List all documentation sources in the knowledge base",
	}, s.handleListSources)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolDeleteDocumentation,
		Description: "Remove all chunks of a documentation source",
	}, s.handleDeleteDocumentation)
}

func (s *Server) handleAddDocumentation(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddDocumentationInput,
) (*mcp.CallToolResult, any, error) {
	args := map[string]any{}
	if input.URL != "" {
		args["url"] = input.URL
	}
	return s.call(ctx, ToolAddDocumentation, args)
}

func (s *Server) handleAddDirectory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddDirectoryInput,
) (*mcp.CallToolResult, any, error) {
	args := map[string]any{}
	if input.Path != "" {
		args["path"] = input.Path
	}
	return s.call(ctx, ToolAddDirectory, args)
}

func (s *Server) handleSearchDocumentation(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchDocumentationInput,
) (*mcp.CallToolResult, any, error) {
	args := map[string]any{}
	if input.Query != "" {
		args["query"] = input.Query
	}
	if input.Limit != 0 {
		args["limit"] = input.Limit
	}
	return s.call(ctx, ToolSearchDocumentation, args)
}

func (s *Server) handleListSources(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListSourcesInput,
) (*mcp.CallToolResult, any, error) {
	return s.call(ctx, ToolListSources, nil)
}

func (s *Server) handleDeleteDocumentation(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteDocumentationInput,
) (*mcp.CallToolResult, any, error) {
	args := map[string]any{}
	if input.Source != "" {
		args["source"] = input.Source
	}
	return s.call(ctx, ToolDeleteDocumentation, args)
}

// call runs a tool through the dispatcher and wraps its text.
func (s *Server) call(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, any, error) {
	resp := s.dispatcher.Call(ctx, name, args)
	return toolResult(resp), nil, nil
}

func toolResult(resp Response) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: resp.Text}},
		IsError: resp.IsError,
	}
}
