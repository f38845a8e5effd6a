package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
	"github.com/custodia-labs/ragdocs/internal/core/ports/driven"
	"github.com/custodia-labs/ragdocs/internal/core/ports/driving"
	"github.com/custodia-labs/ragdocs/internal/logger"
	"github.com/custodia-labs/ragdocs/internal/processors/web"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService composes processors, the embedder and the vector store.
// All dependencies are injected once at startup.
type RetrievalService struct {
	embedder    driven.EmbeddingService
	store       driven.VectorStore
	registry    driven.ProcessorRegistry
	files       driven.FileSource
	maxFileSize int64

	mu        sync.Mutex
	dimension int
}

// RetrievalOption configures a RetrievalService.
type RetrievalOption func(*RetrievalService)

// WithMaxFileSize sets the size above which files are not ingested.
func WithMaxFileSize(n int64) RetrievalOption {
	return func(s *RetrievalService) {
		if n > 0 {
			s.maxFileSize = n
		}
	}
}

// NewRetrievalService creates a new retrieval service.
func NewRetrievalService(
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	registry driven.ProcessorRegistry,
	files driven.FileSource,
	opts ...RetrievalOption,
) *RetrievalService {
	s := &RetrievalService{
		embedder:    embedder,
		store:       store,
		registry:    registry,
		files:       files,
		maxFileSize: domain.DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// dimensionProbe is embedded once at startup to learn the vector size.
const dimensionProbe = "ragdocs dimension probe"

// Initialize prepares the collection for the embedder's vector size.
// The size is taken from a real embedding rather than Dimensions, which
// may only be a table fallback until the provider has answered. A store
// is never initialised with a guessed size, so an existing collection of
// the right size keeps its points.
func (s *RetrievalService) Initialize(ctx context.Context) error {
	vector, err := s.embedder.Embed(ctx, dimensionProbe)
	if err != nil {
		return fmt.Errorf("probe embedding dimension: %w", err)
	}
	if len(vector) == 0 {
		return domain.NewEmbeddingError("probe embedding returned an empty vector", nil)
	}
	return s.ensureCollection(ctx, len(vector))
}

// ensureCollection initialises the store when the vector size changes.
// Providers that learn their dimension from the first response may report
// a different size after the first embedding.
func (s *RetrievalService) ensureCollection(ctx context.Context, dimension int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dimension == s.dimension {
		return nil
	}
	if s.dimension != 0 {
		logger.Warn("embedding dimension changed from %d to %d, recreating collection", s.dimension, dimension)
	}
	if err := s.store.Initialize(ctx, dimension); err != nil {
		return fmt.Errorf("initialize vector store: %w", err)
	}
	s.dimension = dimension
	logger.Debug("retrieval: collection ready (model %s, dimension %d)", s.embedder.ModelName(), dimension)
	return nil
}

// AddSource ingests a URL or a single file.
// A source without extractable text yields a result with zero chunks.
func (s *RetrievalService) AddSource(ctx context.Context, location string) (*domain.IngestResult, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("%w: location is empty", domain.ErrInvalidInput)
	}
	logger.Section("Add Source")
	logger.Debug("Location: %s", location)

	var (
		processor driven.Processor
		ok        bool
	)
	if web.IsURL(location) {
		processor, ok = s.registry.Select(location, "")
	} else {
		entry, err := s.files.Stat(location)
		if err != nil {
			return nil, err
		}
		if entry.IsDir {
			return nil, fmt.Errorf("%w: %s is a directory, use add_directory", domain.ErrInvalidInput, location)
		}
		if entry.Size > s.maxFileSize {
			return nil, domain.NewProcessingError(
				fmt.Sprintf("%s is %d bytes, limit is %d", entry.Path, entry.Size, s.maxFileSize), nil)
		}
		location = entry.Path
		processor, ok = s.registry.Select(entry.Path, entry.MIMEType)
	}
	if !ok {
		return nil, domain.NewProcessingError("no processor for "+location, domain.ErrUnsupportedType)
	}

	chunks, err := processor.Process(ctx, location)
	if err != nil {
		return nil, err
	}
	logger.Debug("Processor %s extracted %d chunks", processor.Name(), len(chunks))

	if err := s.ingest(ctx, chunks); err != nil {
		return nil, err
	}
	return &domain.IngestResult{Source: location, Chunks: len(chunks)}, nil
}

// AddDirectory ingests every supported file below path.
// Per-file failures are recorded in the report and never stop the walk.
// If the walk is cancelled the partial report is returned with the error.
func (s *RetrievalService) AddDirectory(ctx context.Context, path string) (*domain.DirectoryReport, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: path is empty", domain.ErrInvalidInput)
	}
	logger.Section("Add Directory")
	logger.Debug("Path: %s", path)

	report := &domain.DirectoryReport{Path: path}
	err := s.files.Walk(ctx, path, func(entry domain.FileEntry) error {
		return s.addWalkedFile(ctx, entry, report)
	})
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			return nil, err
		}
		return report, err
	}

	logger.Info("Directory %s: %d processed, %d failed, %d skipped, %d chunks",
		path, report.Processed, report.Failed, report.Skipped, report.TotalChunks)
	return report, nil
}

func (s *RetrievalService) addWalkedFile(ctx context.Context, entry domain.FileEntry, report *domain.DirectoryReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry.Hidden {
		logger.Debug("Skipping %s: hidden file", entry.Path)
		report.Skipped++
		return nil
	}
	if entry.Size > s.maxFileSize {
		logger.Debug("Skipping %s: %d bytes exceeds limit", entry.Path, entry.Size)
		report.Skipped++
		return nil
	}
	processor, ok := s.registry.Select(entry.Path, entry.MIMEType)
	if !ok {
		logger.Debug("Skipping %s: unsupported type %s", entry.Path, entry.MIMEType)
		report.Skipped++
		return nil
	}

	chunks, err := processor.Process(ctx, entry.Path)
	if err == nil {
		if len(chunks) == 0 {
			logger.Debug("Skipping %s: no content", entry.Path)
			report.Skipped++
			return nil
		}
		err = s.ingest(ctx, chunks)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		logger.Warn("Failed to process %s: %v", entry.Path, err)
		report.Failed++
		report.FailedFiles = append(report.FailedFiles, domain.FileOutcome{Path: entry.Path, Error: err.Error()})
		return nil
	}

	report.Processed++
	report.TotalChunks += len(chunks)
	report.ProcessedFiles = append(report.ProcessedFiles, domain.FileOutcome{Path: entry.Path, Chunks: len(chunks)})
	return nil
}

// ingest embeds the chunk texts and stores them.
func (s *RetrievalService) ingest(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(embeddings) != len(chunks) {
		return domain.NewEmbeddingError(
			fmt.Sprintf("got %d embeddings for %d chunks", len(embeddings), len(chunks)), nil)
	}
	if err := s.ensureCollection(ctx, len(embeddings[0])); err != nil {
		return err
	}
	return s.store.AddDocuments(ctx, embeddings, chunks)
}

// Search embeds the query and returns the nearest chunks.
func (s *RetrievalService) Search(ctx context.Context, query domain.SearchQuery) ([]domain.SearchResult, error) {
	text := strings.TrimSpace(query.Query)
	if text == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	logger.Section("Search")
	logger.Debug("Query: %q, limit %d, min score %.2f, filters %v",
		text, query.EffectiveLimit(), query.MinScore, query.Filters)

	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCollection(ctx, len(vector)); err != nil {
		return nil, err
	}

	opts := query.SearchOptions
	opts.Limit = opts.EffectiveLimit()
	results, err := s.store.Search(ctx, vector, opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("Found %d results", len(results))
	return results, nil
}

// ListSources returns the distinct sources of stored chunks.
func (s *RetrievalService) ListSources(ctx context.Context) ([]string, error) {
	return s.store.ListSources(ctx)
}

// DeleteSource removes every chunk whose source key equals source.
func (s *RetrievalService) DeleteSource(ctx context.Context, source string) (int, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return 0, fmt.Errorf("%w: source is empty", domain.ErrInvalidInput)
	}
	n, err := s.store.DeleteDocuments(ctx, domain.Filter{domain.PayloadSource: source})
	if err != nil {
		return 0, err
	}
	logger.Debug("Deleted %d chunks of %s", n, source)
	return n, nil
}

// Reindex deletes the stored chunks of path and ingests it again.
func (s *RetrievalService) Reindex(ctx context.Context, path string) (*domain.IngestResult, error) {
	if _, err := s.DeleteSource(ctx, path); err != nil {
		return nil, err
	}
	return s.AddSource(ctx, path)
}
