package chunking

import (
	"strings"

	"github.com/custodia-labs/ragdocs/internal/core/ports/driven"
)

// DefaultSliceSize is the default fixed-offset slice length in characters.
const DefaultSliceSize = 4000

// Ensure Fixed implements the interface.
var _ driven.Chunker = (*Fixed)(nil)

// Fixed cuts text every N characters regardless of word boundaries.
type Fixed struct {
	chunkSize int
	overlap   int
}

// FixedOption configures the fixed-offset chunker.
type FixedOption func(*Fixed)

// WithChunkSize sets the slice length in characters.
func WithChunkSize(size int) FixedOption {
	return func(f *Fixed) {
		if size > 0 {
			f.chunkSize = size
		}
	}
}

// WithOverlap sets how many characters consecutive slices share.
// The default is no overlap.
func WithOverlap(overlap int) FixedOption {
	return func(f *Fixed) {
		if overlap >= 0 {
			f.overlap = overlap
		}
	}
}

// NewFixed creates a fixed-offset chunker.
func NewFixed(opts ...FixedOption) *Fixed {
	f := &Fixed{chunkSize: DefaultSliceSize}
	for _, opt := range opts {
		opt(f)
	}

	// Ensure overlap doesn't exceed chunk size
	if f.overlap >= f.chunkSize {
		f.overlap = f.chunkSize / 4
	}
	return f
}

// ChunkSize returns the slice length.
func (f *Fixed) ChunkSize() int {
	return f.chunkSize
}

// Split slices text into chunks. Slices containing only whitespace are dropped.
func (f *Fixed) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := f.chunkSize - f.overlap
	chunks := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := start + f.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		piece := string(runes[start:end])
		if strings.TrimSpace(piece) != "" {
			chunks = append(chunks, piece)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}
