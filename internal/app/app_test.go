package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
)

func TestNewProcessorRegistry_SelectionOrder(t *testing.T) {
	registry, err := NewProcessorRegistry(domain.DefaultAppSettings().Processing)
	require.NoError(t, err)

	tests := []struct {
		location string
		mimeType string
		want     string
		ok       bool
	}{
		{"https://example.com/docs", "", "web", true},
		{"/docs/manual.pdf", "application/pdf", "pdf", true},
		{"/docs/guide.docx", "", "docx", true},
		{"/docs/readme.md", "text/markdown", "text", true},
		{"/docs/image.png", "image/png", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			p, ok := registry.Select(tt.location, tt.mimeType)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				require.NotNil(t, p)
				assert.Equal(t, tt.want, p.Name())
			}
		})
	}
}

func TestNewProcessorRegistry_CustomExtensions(t *testing.T) {
	settings := domain.DefaultAppSettings().Processing
	settings.SupportedFileTypes = []string{"rst"}

	registry, err := NewProcessorRegistry(settings)
	require.NoError(t, err)

	_, ok := registry.Select("/docs/index.rst", "")
	assert.True(t, ok)
	_, ok = registry.Select("/docs/readme.md", "")
	assert.False(t, ok)
}

func TestNewSettingsService(t *testing.T) {
	svc, err := NewSettingsService(t.TempDir())
	require.NoError(t, err)

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultCollection, settings.Store.Qdrant.Collection)
}

func TestBuild_Errors(t *testing.T) {
	t.Run("nil settings", func(t *testing.T) {
		_, err := Build(context.Background(), nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("openai without key", func(t *testing.T) {
		settings := domain.DefaultAppSettings()
		settings.Embedding.Provider = domain.AIProviderOpenAI
		settings.Embedding.APIKey = ""

		_, err := Build(context.Background(), &settings)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}

func TestApp_CloseEmpty(t *testing.T) {
	a := &App{}
	assert.NoError(t, a.Close())
}

// newOllamaServer fakes an Ollama model whose vector size is not in the
// adapter's dimension table.
func newOllamaServer(t *testing.T, dim int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[]}`))
		case "/api/embeddings":
			var req struct {
				Prompt string `json:"prompt"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			embedding := make([]float64, dim)
			embedding[0] = 1
			embedding[len(req.Prompt)%dim] += 0.5
			_ = json.NewEncoder(w).Encode(map[string]any{"embedding": embedding})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func sqliteSettings(t *testing.T, baseURL string) *domain.AppSettings {
	t.Helper()
	settings := domain.DefaultAppSettings()
	settings.Embedding.Provider = domain.AIProviderOllama
	settings.Embedding.BaseURL = baseURL
	settings.Embedding.Model = "bge-m3"
	settings.Store.Backend = domain.StoreSQLite
	settings.Store.DataDir = t.TempDir()
	return &settings
}

func TestBuild_RestartKeepsStoredChunks(t *testing.T) {
	srv := newOllamaServer(t, 1024)
	settings := sqliteSettings(t, srv.URL)
	ctx := context.Background()

	doc := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(doc, []byte("Restart the agent after upgrading."), 0o644))

	first, err := Build(ctx, settings)
	require.NoError(t, err)
	result, err := first.Retrieval.AddSource(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Chunks)
	require.NoError(t, first.Close())

	second, err := Build(ctx, settings)
	require.NoError(t, err)
	defer second.Close()

	sources, err := second.Retrieval.ListSources(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{doc}, sources)

	results, err := second.Retrieval.Search(ctx, domain.SearchQuery{Query: "restart"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, doc, results[0].Chunk.Metadata.Source)
}

func TestBuild_DirectoryCountsEveryFile(t *testing.T) {
	srv := newOllamaServer(t, 1024)
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("Alpha guide."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".notes.md"), []byte("private notes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "program"), []byte("\x7fELF\x02\x01\xff\xfe"), 0o755))

	a, err := Build(ctx, sqliteSettings(t, srv.URL))
	require.NoError(t, err)
	defer a.Close()

	report, err := a.Retrieval.AddDirectory(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 2, report.Skipped)
	assert.Empty(t, report.FailedFiles)
}
