// Package web fetches HTML pages and slices their visible text into
// fixed-size chunks.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/ragdocs/internal/chunking"
	"github.com/custodia-labs/ragdocs/internal/core/domain"
	"github.com/custodia-labs/ragdocs/internal/core/ports/driven"
	"github.com/custodia-labs/ragdocs/internal/logger"
)

// Ensure Processor implements the interface.
var _ driven.Processor = (*Processor)(nil)

// Defaults for fetching pages.
const (
	DefaultUserAgent = "Mozilla/5.0 RAGDocs Bot"
	DefaultTimeout   = 30 * time.Second
	DefaultMaxBytes  = 10 * 1024 * 1024
)

// skippedElements are removed together with their subtrees before text
// extraction.
var skippedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Nav:      true,
	atom.Footer:   true,
	atom.Header:   true,
	atom.Noscript: true,
	atom.Svg:      true,
	atom.Head:     true,
	atom.Template: true,
}

// Processor fetches a URL and chunks the page text.
type Processor struct {
	client    *http.Client
	chunker   driven.Chunker
	userAgent string
	maxBytes  int64
}

// Option configures a Processor.
type Option func(*Processor)

// WithHTTPClient sets the HTTP client used for fetching.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Processor) {
		if client != nil {
			p.client = client
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(p *Processor) {
		if ua != "" {
			p.userAgent = ua
		}
	}
}

// WithMaxBytes limits how much of a response body is read.
func WithMaxBytes(n int64) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxBytes = n
		}
	}
}

// New creates a web processor. A nil chunker selects fixed 4000-character
// slices.
func New(chunker driven.Chunker, opts ...Option) *Processor {
	if chunker == nil {
		chunker = chunking.NewFixed(chunking.WithChunkSize(domain.DefaultWebChunkSize))
	}
	p := &Processor{
		client:    &http.Client{Timeout: DefaultTimeout},
		chunker:   chunker,
		userAgent: DefaultUserAgent,
		maxBytes:  DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "web"
}

// CanProcess accepts http and https URLs.
func (p *Processor) CanProcess(location, _ string) bool {
	return IsURL(location)
}

// IsURL reports whether location is an absolute http(s) URL.
func IsURL(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Process fetches the page and chunks its visible text.
// Any status other than 200 is a processing error.
func (p *Processor) Process(ctx context.Context, location string) ([]domain.Chunk, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, domain.NewProcessingError("invalid URL "+location, err)
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, domain.NewProcessingError("failed to fetch "+location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewProcessingError(
			fmt.Sprintf("failed to fetch %s: status %d", location, resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBytes))
	if err != nil {
		return nil, domain.NewProcessingError("failed to read "+location, err)
	}
	logger.Debug("fetched %s, %d bytes", location, len(body))

	var title, text string
	if isHTML(resp.Header.Get("Content-Type")) {
		title, text, err = extract(string(body))
		if err != nil {
			return nil, domain.NewProcessingError("failed to parse "+location, err)
		}
	} else {
		text = strings.Join(strings.Fields(string(body)), " ")
	}
	if text == "" {
		return nil, nil
	}
	if title == "" {
		title = location
	}

	base := domain.Metadata{
		Source:   location,
		URL:      location,
		Title:    title,
		FileType: "html",
	}
	chunks := chunking.Assemble(p.chunker.Split(text), base)
	logger.Debug("processed %s into %d chunks", location, len(chunks))
	return chunks, nil
}

// isHTML treats a missing content type as HTML.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "html") || strings.Contains(ct, "xml")
}

// extract returns the page title and its visible text with whitespace
// collapsed to single spaces.
func extract(page string) (title, text string, err error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", "", err
	}

	title = findTitle(doc)

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.DataAtom] {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return title, strings.Join(strings.Fields(sb.String()), " "), nil
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		var sb strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			}
		}
		return strings.Join(strings.Fields(sb.String()), " ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}
