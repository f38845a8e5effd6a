package driven

import (
	"context"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
)

// VectorStore persists (embedding, chunk) pairs and answers cosine
// similarity queries. Backed by Qdrant, SQLite or process memory.
//
// Backend failures are returned as *domain.StorageError so callers never
// depend on a driver's native error types.
type VectorStore interface {
	// Initialize ensures the collection exists with the given vector size,
	// cosine distance and a keyword index on "source". A collection with a
	// different vector size is dropped and recreated.
	Initialize(ctx context.Context, dimension int) error

	// AddDocument upserts a single chunk with its embedding.
	AddDocument(ctx context.Context, embedding []float32, chunk domain.Chunk) error

	// AddDocuments upserts chunks in fixed-size batches.
	// embeddings[i] belongs to chunks[i]; the slices must have equal length.
	AddDocuments(ctx context.Context, embeddings [][]float32, chunks []domain.Chunk) error

	// Search returns up to opts.Limit nearest chunks in non-increasing score
	// order, constrained by opts.Filters and excluding scores below opts.MinScore.
	Search(ctx context.Context, query []float32, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// ListSources returns the sorted, distinct source keys of stored chunks.
	ListSources(ctx context.Context) ([]string, error)

	// DeleteDocuments removes every chunk matching the filter and returns
	// the number removed. An empty filter is rejected.
	DeleteDocuments(ctx context.Context, filter domain.Filter) (int, error)

	// Close releases resources.
	Close() error
}
