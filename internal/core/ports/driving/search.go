package driving

import (
	"context"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
)

// RetrievalService ingests documents and answers similarity queries.
// It is the entry point for the MCP tools and the CLI.
type RetrievalService interface {
	// Initialize prepares the vector store for the embedder's dimension.
	Initialize(ctx context.Context) error

	// AddSource ingests a single URL or file path.
	AddSource(ctx context.Context, location string) (*domain.IngestResult, error)

	// AddDirectory ingests every supported file below path.
	// Per-file failures are recorded in the report, not returned.
	AddDirectory(ctx context.Context, path string) (*domain.DirectoryReport, error)

	// Search embeds the query and returns the nearest chunks.
	Search(ctx context.Context, query domain.SearchQuery) ([]domain.SearchResult, error)

	// ListSources returns the distinct sources of stored chunks.
	ListSources(ctx context.Context) ([]string, error)

	// DeleteSource removes every chunk of a source and returns the count.
	DeleteSource(ctx context.Context, source string) (int, error)

	// Reindex replaces the stored chunks of a file with a fresh ingestion.
	Reindex(ctx context.Context, path string) (*domain.IngestResult, error)
}
