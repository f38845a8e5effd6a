package driven

import (
	"context"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
)

// Processor turns a document location into chunks.
// Each processor handles one family of formats (PDF, text, web pages).
type Processor interface {
	// Name returns the processor name for logging.
	Name() string

	// CanProcess reports whether the processor handles the location.
	// mimeType may be empty when unknown.
	CanProcess(location, mimeType string) bool

	// Process reads the location and returns its chunks.
	// A document that cannot be read or parsed yields *domain.ProcessingError.
	Process(ctx context.Context, location string) ([]domain.Chunk, error)
}

// Chunker splits extracted text into bounded pieces.
type Chunker interface {
	// Split returns the chunk texts in document order.
	Split(text string) []string
}
