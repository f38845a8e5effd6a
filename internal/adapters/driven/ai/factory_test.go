package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ollamaembed "github.com/custodia-labs/ragdocs/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/ragdocs/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/ragdocs/internal/adapters/driven/embedding/ratelimit"
	"github.com/custodia-labs/ragdocs/internal/core/domain"
)

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name        string
		settings    *domain.EmbeddingSettings
		wantErr     bool
		errContains string
	}{
		{
			name:        "nil settings",
			settings:    nil,
			wantErr:     true,
			errContains: "required",
		},
		{
			name:        "unknown provider",
			settings:    &domain.EmbeddingSettings{Provider: "unknown"},
			wantErr:     true,
			errContains: "unsupported embedding provider",
		},
		{
			name:        "openai without key",
			settings:    &domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI},
			wantErr:     true,
			errContains: "API key",
		},
		{
			name: "ollama provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOllama,
				BaseURL:  "http://localhost:11434",
				Model:    "nomic-embed-text",
			},
		},
		{
			name: "openai provider creates service",
			settings: &domain.EmbeddingSettings{
				Provider: domain.AIProviderOpenAI,
				APIKey:   "test-key",
				Model:    "text-embedding-3-small",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(tt.settings)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, svc)
			assert.Equal(t, tt.settings.Model, svc.ModelName())
			assert.NoError(t, svc.Close())
		})
	}
}

func TestCreateEmbeddingService_Types(t *testing.T) {
	t.Run("ollama without rate limit", func(t *testing.T) {
		svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			Model:    "mxbai-embed-large",
		})
		require.NoError(t, err)
		assert.IsType(t, &ollamaembed.EmbeddingService{}, svc)
		assert.Equal(t, 1024, svc.Dimensions())
	})

	t.Run("ollama dimension override", func(t *testing.T) {
		svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
			Provider:   domain.AIProviderOllama,
			Model:      "custom",
			Dimensions: 256,
		})
		require.NoError(t, err)
		assert.Equal(t, 256, svc.Dimensions())
	})

	t.Run("openai", func(t *testing.T) {
		svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
			Provider: domain.AIProviderOpenAI,
			APIKey:   "k",
			Model:    "text-embedding-3-large",
		})
		require.NoError(t, err)
		assert.IsType(t, &openaiembed.EmbeddingService{}, svc)
		assert.Equal(t, 3072, svc.Dimensions())
	})

	t.Run("rate limited", func(t *testing.T) {
		svc, err := CreateEmbeddingService(&domain.EmbeddingSettings{
			Provider:          domain.AIProviderOllama,
			RequestsPerSecond: 5,
			Burst:             2,
		})
		require.NoError(t, err)
		assert.IsType(t, &ratelimit.EmbeddingService{}, svc)
	})
}

func TestCreateAndValidateEmbeddingService(t *testing.T) {
	t.Run("reachable ollama", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"models":[]}`))
		}))
		defer server.Close()

		svc, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  server.URL,
		})
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("unreachable ollama", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		svc, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
			Provider: domain.AIProviderOllama,
			BaseURL:  url,
		})
		assert.Nil(t, svc)
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
		assert.Contains(t, err.Error(), "service unreachable")
	})

	t.Run("invalid settings", func(t *testing.T) {
		_, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
			Provider: domain.AIProviderOpenAI,
		})
		assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
	})
}

func TestValidateEmbeddingConfig(t *testing.T) {
	assert.NoError(t, ValidateEmbeddingConfig(nil))
	assert.NoError(t, ValidateEmbeddingConfig(&domain.EmbeddingSettings{}))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := ValidateEmbeddingConfig(&domain.EmbeddingSettings{
		Provider: domain.AIProviderOllama,
		BaseURL:  server.URL,
	})
	var ee *domain.EmbeddingError
	assert.ErrorAs(t, err, &ee)
}
