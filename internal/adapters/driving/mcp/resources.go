package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
	"github.com/custodia-labs/ragdocs/internal/core/services"
)

const (
	// uriScheme is the custom URI scheme for ragdocs resources.
	uriScheme = "ragdocs://"

	sourcesURI   = uriScheme + "sources"
	searchPrefix = uriScheme + "search/"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         sourcesURI,
		Name:        "sources",
		Description: "Distinct sources stored in the knowledge base",
		MIMEType:    "application/json",
	}, s.handleSourcesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: searchPrefix + "{query}",
		Name:        "search",
		Description: "Top passages for a URL-encoded query",
		MIMEType:    "text/plain",
	}, s.handleSearchResource)
}

// handleSourcesResource returns the stored sources as a JSON array.
func (s *Server) handleSourcesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	sources, err := s.ports.Retrieval.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	if sources == nil {
		sources = []string{}
	}

	data, err := json.MarshalIndent(sources, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling sources: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleSearchResource runs a default search for the query in the URI.
func (s *Server) handleSearchResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	query := extractQuery(req.Params.URI)
	if query == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	results, err := s.ports.Retrieval.Search(ctx, domain.SearchQuery{Query: query})
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     services.FormatSearchResults(results),
		}},
	}, nil
}

// extractQuery extracts the decoded query from a URI like ragdocs://search/{query}.
func extractQuery(uri string) string {
	if !strings.HasPrefix(uri, searchPrefix) {
		return ""
	}
	raw := strings.TrimPrefix(uri, searchPrefix)
	query, err := url.PathUnescape(raw)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(query)
}
