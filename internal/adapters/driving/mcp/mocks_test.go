package mcp

import (
	"context"
	"sync"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	mu sync.Mutex

	ingest  *domain.IngestResult
	report  *domain.DirectoryReport
	results []domain.SearchResult
	sources []string
	deleted int
	err     error

	// block, when set, makes every call wait for the context.
	block bool
	// panicWith, when non-nil, is raised by every call.
	panicWith any

	lastLocation string
	lastQuery    domain.SearchQuery
}

func (m *mockRetrievalService) enter(ctx context.Context) error {
	if m.panicWith != nil {
		panic(m.panicWith)
	}
	if m.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return m.err
}

func (m *mockRetrievalService) Initialize(_ context.Context) error {
	return m.err
}

func (m *mockRetrievalService) AddSource(ctx context.Context, location string) (*domain.IngestResult, error) {
	m.mu.Lock()
	m.lastLocation = location
	m.mu.Unlock()
	if err := m.enter(ctx); err != nil {
		return nil, err
	}
	return m.ingest, nil
}

func (m *mockRetrievalService) AddDirectory(ctx context.Context, path string) (*domain.DirectoryReport, error) {
	m.mu.Lock()
	m.lastLocation = path
	m.mu.Unlock()
	if err := m.enter(ctx); err != nil {
		return nil, err
	}
	return m.report, nil
}

func (m *mockRetrievalService) Search(ctx context.Context, query domain.SearchQuery) ([]domain.SearchResult, error) {
	m.mu.Lock()
	m.lastQuery = query
	m.mu.Unlock()
	if err := m.enter(ctx); err != nil {
		return nil, err
	}
	return m.results, nil
}

func (m *mockRetrievalService) ListSources(ctx context.Context) ([]string, error) {
	if err := m.enter(ctx); err != nil {
		return nil, err
	}
	return m.sources, nil
}

func (m *mockRetrievalService) DeleteSource(ctx context.Context, source string) (int, error) {
	m.mu.Lock()
	m.lastLocation = source
	m.mu.Unlock()
	if err := m.enter(ctx); err != nil {
		return 0, err
	}
	return m.deleted, nil
}

func (m *mockRetrievalService) Reindex(ctx context.Context, path string) (*domain.IngestResult, error) {
	return m.AddSource(ctx, path)
}
