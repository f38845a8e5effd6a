package cli

import (
	"context"
	"errors"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	ingest  map[string]*domain.IngestResult
	report  *domain.DirectoryReport
	results []domain.SearchResult
	sources []string
	deleted int
	err     error

	added     []string
	deletedOf []string
	reindexed []string
	lastQuery domain.SearchQuery
}

func (m *mockRetrievalService) Initialize(_ context.Context) error { return m.err }

func (m *mockRetrievalService) AddSource(_ context.Context, location string) (*domain.IngestResult, error) {
	m.added = append(m.added, location)
	if m.err != nil {
		return nil, m.err
	}
	if r, ok := m.ingest[location]; ok {
		return r, nil
	}
	return nil, errors.New("unknown location")
}

func (m *mockRetrievalService) AddDirectory(_ context.Context, _ string) (*domain.DirectoryReport, error) {
	return m.report, m.err
}

func (m *mockRetrievalService) Search(_ context.Context, query domain.SearchQuery) ([]domain.SearchResult, error) {
	m.lastQuery = query
	return m.results, m.err
}

func (m *mockRetrievalService) ListSources(_ context.Context) ([]string, error) {
	return m.sources, m.err
}

func (m *mockRetrievalService) DeleteSource(_ context.Context, source string) (int, error) {
	m.deletedOf = append(m.deletedOf, source)
	return m.deleted, m.err
}

func (m *mockRetrievalService) Reindex(_ context.Context, path string) (*domain.IngestResult, error) {
	m.reindexed = append(m.reindexed, path)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.IngestResult{Source: path, Chunks: 1}, nil
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	backend     domain.StoreBackend
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding.Provider = provider
	m.settings.Embedding.Model = model
	m.settings.Embedding.APIKey = apiKey
	return nil
}

func (m *mockSettingsService) SetStoreBackend(backend domain.StoreBackend) error {
	m.backend = backend
	m.settings.Store.Backend = backend
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return nil }

// setupTestServices installs mock services and returns a cleanup function
// restoring the previous state.
func setupTestServices() (*mockRetrievalService, *mockSettingsService, func()) {
	retrieval := &mockRetrievalService{}
	settings := newMockSettingsService()

	prevRetrieval, prevSettings := retrievalService, settingsService
	prevWatcher, prevApp := fileWatcher, appSettings
	retrievalService = retrieval
	settingsService = settings

	return retrieval, settings, func() {
		retrievalService, settingsService = prevRetrieval, prevSettings
		fileWatcher, appSettings = prevWatcher, prevApp
		storeBackend = ""
	}
}
