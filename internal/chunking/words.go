package chunking

import (
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/ragdocs/internal/core/ports/driven"
)

// DefaultMaxChunkSize is the default word-accumulation threshold in characters.
const DefaultMaxChunkSize = 1000

// Ensure Words implements the interface.
var _ driven.Chunker = (*Words)(nil)

// Words accumulates words into a buffer and emits the buffer once its
// space-joined length reaches the maximum.
type Words struct {
	maxSize int
}

// WordsOption configures the word chunker.
type WordsOption func(*Words)

// WithMaxSize sets the emit threshold in characters.
func WithMaxSize(size int) WordsOption {
	return func(w *Words) {
		if size > 0 {
			w.maxSize = size
		}
	}
}

// NewWords creates a word-accumulation chunker.
func NewWords(opts ...WordsOption) *Words {
	w := &Words{maxSize: DefaultMaxChunkSize}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// MaxSize returns the emit threshold.
func (w *Words) MaxSize() int {
	return w.maxSize
}

// Split returns the chunks of text. Whitespace runs collapse to a single
// space, so joining the chunks with spaces reproduces the normalised input.
func (w *Words) Split(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var (
		chunks  []string
		current []string
		length  int
	)
	for _, word := range words {
		if len(current) > 0 {
			length++ // joining space
		}
		current = append(current, word)
		length += utf8.RuneCountInString(word)

		if length >= w.maxSize {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
			length = 0
		}
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
