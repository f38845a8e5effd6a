package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
	"github.com/custodia-labs/ragdocs/internal/core/ports/driven"
	"github.com/custodia-labs/ragdocs/internal/vectors"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

type point struct {
	vector  []float32
	payload map[string]any
}

// VectorStore is an in-memory implementation of driven.VectorStore.
// Search is a linear scan in insertion order.
type VectorStore struct {
	mu        sync.RWMutex
	dimension int
	ids       []string
	points    map[string]point
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		points: make(map[string]point),
	}
}

// Initialize sets the vector size. A different size drops all points.
func (s *VectorStore) Initialize(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return domain.NewStorageError(fmt.Sprintf("invalid vector dimension %d", dimension), domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension != dimension {
		s.ids = nil
		s.points = make(map[string]point)
	}
	s.dimension = dimension
	return nil
}

// AddDocument stores a single chunk.
func (s *VectorStore) AddDocument(ctx context.Context, embedding []float32, chunk domain.Chunk) error {
	return s.AddDocuments(ctx, [][]float32{embedding}, []domain.Chunk{chunk})
}

// AddDocuments stores chunks. Existing IDs are overwritten in place.
func (s *VectorStore) AddDocuments(_ context.Context, embeddings [][]float32, chunks []domain.Chunk) error {
	if len(embeddings) != len(chunks) {
		return domain.NewStorageError(
			fmt.Sprintf("got %d embeddings for %d chunks", len(embeddings), len(chunks)), domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == 0 {
		return domain.NewStorageError("collection not initialized", nil)
	}
	for i, v := range embeddings {
		if len(v) != s.dimension {
			return domain.NewStorageError(
				fmt.Sprintf("vector %d has dimension %d, collection expects %d", i, len(v), s.dimension), domain.ErrInvalidInput)
		}
	}

	for i, chunk := range chunks {
		if _, exists := s.points[chunk.ID]; !exists {
			s.ids = append(s.ids, chunk.ID)
		}
		vec := make([]float32, len(embeddings[i]))
		copy(vec, embeddings[i])
		s.points[chunk.ID] = point{vector: vec, payload: chunk.Payload()}
	}
	return nil
}

// Search scores every stored point against query.
func (s *VectorStore) Search(_ context.Context, query []float32, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dimension == 0 {
		return nil, domain.NewStorageError("collection not initialized", nil)
	}
	if len(query) != s.dimension {
		return nil, domain.NewStorageError(
			fmt.Sprintf("query has dimension %d, collection expects %d", len(query), s.dimension), domain.ErrInvalidInput)
	}

	results := make([]domain.SearchResult, 0, len(s.ids))
	for _, id := range s.ids {
		p := s.points[id]
		if !opts.Filters.Matches(p.payload) {
			continue
		}
		results = append(results, domain.SearchResult{
			Chunk: domain.ChunkFromPayload(id, p.payload),
			Score: vectors.Cosine(query, p.vector),
		})
	}
	return vectors.Rank(results, opts.EffectiveLimit(), opts.MinScore), nil
}

// ListSources returns the sorted distinct source keys.
func (s *VectorStore) ListSources(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, p := range s.points {
		if source, ok := p.payload[domain.PayloadSource].(string); ok && source != "" {
			seen[source] = struct{}{}
		}
	}
	sources := make([]string, 0, len(seen))
	for source := range seen {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources, nil
}

// DeleteDocuments removes every point matching filter.
func (s *VectorStore) DeleteDocuments(_ context.Context, filter domain.Filter) (int, error) {
	if len(filter) == 0 {
		return 0, domain.NewStorageError("refusing to delete with an empty filter", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.ids[:0]
	deleted := 0
	for _, id := range s.ids {
		if filter.Matches(s.points[id].payload) {
			delete(s.points, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	s.ids = kept
	return deleted, nil
}

// Count returns the number of stored points.
func (s *VectorStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Close is a no-op.
func (s *VectorStore) Close() error {
	return nil
}
