// Package pdf extracts text from PDF files page by page using the poppler
// command-line tools.
package pdf

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/custodia-labs/ragdocs/internal/chunking"
	"github.com/custodia-labs/ragdocs/internal/core/domain"
	"github.com/custodia-labs/ragdocs/internal/core/ports/driven"
	"github.com/custodia-labs/ragdocs/internal/logger"
)

// Ensure Processor implements the interface.
var _ driven.Processor = (*Processor)(nil)

// ErrPDFToolNotFound indicates the poppler tools are not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found: install poppler to process PDF files")

// MIMEType is the PDF media type.
const MIMEType = "application/pdf"

// CommandRunner executes external commands. Tests substitute a fake.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, ErrPDFToolNotFound
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s failed: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	return out, nil
}

// Processor chunks PDF files one page at a time.
type Processor struct {
	runner  CommandRunner
	chunker driven.Chunker
}

// New creates a PDF processor that shells out to pdfinfo and pdftotext.
func New(chunker driven.Chunker) *Processor {
	return NewWithRunner(execRunner{}, chunker)
}

// NewWithRunner creates a PDF processor with a custom command runner.
// A nil chunker selects word accumulation with the default size.
func NewWithRunner(runner CommandRunner, chunker driven.Chunker) *Processor {
	if chunker == nil {
		chunker = chunking.NewWords()
	}
	return &Processor{runner: runner, chunker: chunker}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "pdf"
}

// CanProcess accepts the PDF MIME type or a .pdf extension.
func (p *Processor) CanProcess(location, mimeType string) bool {
	if strings.EqualFold(mimeType, MIMEType) {
		return true
	}
	return strings.HasSuffix(strings.ToLower(location), ".pdf")
}

// Process extracts every page and chunks it independently.
// Pages that are blank or fail to extract are skipped.
// ChunkIndex restarts at zero on every page.
func (p *Processor) Process(ctx context.Context, path string) ([]domain.Chunk, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, domain.NewProcessingError("failed to process PDF", err)
	}

	out, err := p.runner.Run(ctx, "pdfinfo", "-enc", "UTF-8", path)
	if err != nil {
		logger.Error("failed to read PDF info for %s: %v", path, err)
		return nil, domain.NewProcessingError("failed to process PDF", err)
	}
	info := parseInfo(out)
	logger.Debug("PDF %s has %d pages", path, info.pages)

	base := domain.Metadata{
		Source:   path,
		Title:    info.title,
		Author:   info.author,
		FileType: "pdf",
	}
	if base.Title == "" {
		base.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	var chunks []domain.Chunk
	for page := 1; page <= info.pages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, domain.NewProcessingError("failed to process PDF", err)
		}

		text, err := p.extractPage(ctx, path, page)
		if err != nil {
			logger.Error("error processing page %d of %s: %v", page, path, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			logger.Debug("skipping empty page %d of %s", page, path)
			continue
		}

		meta := base
		meta.PageNumber = page
		chunks = append(chunks, chunking.Assemble(p.chunker.Split(text), meta)...)
	}

	logger.Debug("extracted %d chunks from %s", len(chunks), path)
	return chunks, nil
}

func (p *Processor) extractPage(ctx context.Context, path string, page int) (string, error) {
	n := strconv.Itoa(page)
	out, err := p.runner.Run(ctx, "pdftotext", "-f", n, "-l", n, "-enc", "UTF-8", path, "-")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

type pdfInfo struct {
	title  string
	author string
	pages  int
}

// parseInfo reads the "Key: value" lines printed by pdfinfo.
func parseInfo(out []byte) pdfInfo {
	var info pdfInfo
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Title":
			info.title = value
		case "Author":
			info.author = value
		case "Pages":
			if n, err := strconv.Atoi(value); err == nil {
				info.pages = n
			}
		}
	}
	return info
}

// CheckAvailable returns ErrPDFToolNotFound if pdftotext or pdfinfo is missing.
func CheckAvailable() error {
	for _, tool := range []string{"pdftotext", "pdfinfo"} {
		if _, err := exec.LookPath(tool); err != nil {
			return ErrPDFToolNotFound
		}
	}
	return nil
}

// InstallInstructions returns platform install hints for the poppler tools.
func InstallInstructions() string {
	return `PDF support requires pdftotext and pdfinfo (poppler).

  macOS:         brew install poppler
  Debian/Ubuntu: apt install poppler-utils
  Fedora:        dnf install poppler-utils
  Windows:       choco install poppler`
}
