// Package domain defines the core entities of the ragdocs pipeline.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A bounded span of document text with its Metadata
//   - SearchResult: A retrieved chunk paired with its similarity score
//   - Filter / SearchOptions: Constraints on search and deletion
//   - DirectoryReport: Statistics of a directory ingestion
//   - ProcessingError, EmbeddingError, StorageError, NotFoundError
//
// Chunks are stored by vector stores in a shared payload layout
// (see Chunk.Payload and ChunkFromPayload) so every backend agrees on
// which fields are filterable.
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
