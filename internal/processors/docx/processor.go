// Package docx extracts paragraph text from Office Open XML documents.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/ragdocs/internal/chunking"
	"github.com/custodia-labs/ragdocs/internal/core/domain"
	"github.com/custodia-labs/ragdocs/internal/core/ports/driven"
	"github.com/custodia-labs/ragdocs/internal/logger"
)

// Ensure Processor implements the interface.
var _ driven.Processor = (*Processor)(nil)

// MIMEType is the Word document media type.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const (
	documentPart = "word/document.xml"
	corePart     = "docProps/core.xml"
)

// Processor chunks the body text of .docx files.
type Processor struct {
	chunker driven.Chunker
}

// New creates a DOCX processor.
func New(chunker driven.Chunker) *Processor {
	return &Processor{chunker: chunker}
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "docx"
}

// CanProcess accepts the Word MIME type or a .docx extension.
func (p *Processor) CanProcess(location, mimeType string) bool {
	if strings.EqualFold(mimeType, MIMEType) {
		return true
	}
	return strings.HasSuffix(strings.ToLower(location), ".docx")
}

// Process reads the document body. The title comes from the core
// properties, falling back to the file name.
func (p *Processor) Process(_ context.Context, path string) ([]domain.Chunk, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, domain.NewProcessingError("failed to process docx", err)
	}
	defer archive.Close()

	body, err := readPart(&archive.Reader, documentPart)
	if err != nil {
		return nil, domain.NewProcessingError("failed to process docx", err)
	}
	if body == nil {
		return nil, domain.NewProcessingError(
			fmt.Sprintf("failed to process docx: %s has no %s", path, documentPart), nil)
	}

	text := parseDocumentXML(body)
	if text == "" {
		logger.Debug("skipping empty document %s", path)
		return nil, nil
	}

	base := domain.Metadata{
		Source:   path,
		Title:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		FileType: "docx",
	}
	if core, err := readPart(&archive.Reader, corePart); err == nil && core != nil {
		props := parseCoreXML(core)
		if props.Title != "" {
			base.Title = props.Title
		}
		base.Author = props.Creator
	}

	chunks := chunking.Assemble(p.chunker.Split(text), base)
	logger.Debug("extracted %d chunks from %s", len(chunks), path)
	return chunks, nil
}

// readPart returns the named archive member, or nil if it is absent.
func readPart(r *zip.Reader, name string) ([]byte, error) {
	for _, file := range r.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, nil
}

type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []struct {
		Content string `xml:",chardata"`
	} `xml:"t"`
}

// parseDocumentXML joins run text per paragraph, one paragraph per line.
func parseDocumentXML(content []byte) string {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return ""
	}

	var b strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, r := range para.Runs {
			for _, t := range r.Text {
				b.WriteString(t.Content)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

type coreProps struct {
	Title   string `xml:"title"`
	Creator string `xml:"creator"`
}

func parseCoreXML(content []byte) coreProps {
	var props coreProps
	if err := xml.Unmarshal(content, &props); err != nil {
		return coreProps{}
	}
	props.Title = strings.TrimSpace(props.Title)
	props.Creator = strings.TrimSpace(props.Creator)
	return props
}
