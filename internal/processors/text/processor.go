// Package text chunks plain text, markup and source code files.
package text

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/ragdocs/internal/chunking"
	"github.com/custodia-labs/ragdocs/internal/core/domain"
	"github.com/custodia-labs/ragdocs/internal/core/ports/driven"
	"github.com/custodia-labs/ragdocs/internal/logger"
)

// Ensure Processor implements the interface.
var _ driven.Processor = (*Processor)(nil)

// Processor reads a file as UTF-8 text and chunks it by word accumulation.
type Processor struct {
	chunker     driven.Chunker
	extensions  map[string]struct{}
	maxFileSize int64
}

// Option configures a Processor.
type Option func(*Processor)

// WithExtensions replaces the extension allow-list.
// Extensions are given without the leading dot and matched case-insensitively.
func WithExtensions(exts []string) Option {
	return func(p *Processor) {
		p.extensions = make(map[string]struct{}, len(exts))
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
			if ext != "" {
				p.extensions[ext] = struct{}{}
			}
		}
	}
}

// WithMaxFileSize rejects files larger than size bytes. Zero disables the check.
func WithMaxFileSize(size int64) Option {
	return func(p *Processor) {
		if size >= 0 {
			p.maxFileSize = size
		}
	}
}

// New creates a text processor. A nil chunker selects word accumulation
// with the default size.
func New(chunker driven.Chunker, opts ...Option) *Processor {
	if chunker == nil {
		chunker = chunking.NewWords()
	}
	p := &Processor{
		chunker:     chunker,
		maxFileSize: domain.DefaultMaxFileSize,
	}
	WithExtensions(domain.DefaultSupportedFileTypes())(p)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "text"
}

// CanProcess accepts any text/* MIME type or an allow-listed extension.
func (p *Processor) CanProcess(location, mimeType string) bool {
	if strings.HasPrefix(strings.ToLower(mimeType), "text/") {
		return true
	}
	_, ok := p.extensions[extension(location)]
	return ok
}

// Process reads and chunks the file. Empty files produce no chunks.
func (p *Processor) Process(_ context.Context, path string) ([]domain.Chunk, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, domain.NewProcessingError("failed to process text", err)
	}
	if p.maxFileSize > 0 && info.Size() > p.maxFileSize {
		return nil, domain.NewProcessingError(
			fmt.Sprintf("failed to process text: %s is %d bytes, limit is %d", path, info.Size(), p.maxFileSize), nil)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewProcessingError("failed to process text", err)
	}
	if !utf8.Valid(content) {
		return nil, domain.NewProcessingError("failed to process text: "+path+" is not valid UTF-8", nil)
	}

	text := string(content)
	if strings.TrimSpace(text) == "" {
		logger.Debug("skipping empty file %s", path)
		return nil, nil
	}

	base := domain.Metadata{
		Source:   path,
		Title:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		FileType: extension(path),
	}
	chunks := chunking.Assemble(p.chunker.Split(text), base)
	logger.Debug("extracted %d chunks from %s", len(chunks), path)
	return chunks, nil
}

func extension(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}
