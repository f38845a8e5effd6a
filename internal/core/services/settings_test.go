package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdocs/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragdocs/internal/core/domain"
)

// newSettings builds a service over an in-memory config with a fixed environment.
func newSettings(config map[string]any, env map[string]string) (*SettingsService, *memory.ConfigStore) {
	store := memory.NewConfigStore(config)
	svc := NewSettingsService(store, nil)
	svc.lookupEnv = func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
	return svc, store
}

type stubValidator struct {
	got *domain.EmbeddingSettings
	err error
}

func (v *stubValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	v.got = config
	return v.err
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	svc, _ := newSettings(nil, nil)

	settings, err := svc.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults, *settings)
	assert.Equal(t, defaults, svc.GetDefaults())
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	svc, _ := newSettings(map[string]any{
		"store.backend":                   "sqlite",
		"store.data_dir":                  "/var/lib/ragdocs",
		"qdrant.url":                      "http://qdrant:6333",
		"qdrant.collection":               "team-docs",
		"qdrant.grpc_port":                int64(7334),
		"embedding.provider":              "openai",
		"embedding.api_key":               "sk-config",
		"embedding.dimensions":            int64(512),
		"embedding.requests_per_second":   2.5,
		"embedding.burst":                 int64(4),
		"processing.max_chunk_size":       int64(500),
		"processing.web_chunk_size":       int64(2000),
		"processing.max_file_size":        int64(1024),
		"processing.supported_file_types": []any{"md", "rst"},
		"server.request_timeout":          "90s",
	}, nil)

	settings, err := svc.Get()
	require.NoError(t, err)

	assert.Equal(t, domain.StoreSQLite, settings.Store.Backend)
	assert.Equal(t, "/var/lib/ragdocs", settings.Store.DataDir)
	assert.Equal(t, domain.QdrantSettings{
		URL: "http://qdrant:6333", GRPCPort: 7334, Collection: "team-docs",
	}, settings.Store.Qdrant)
	assert.Equal(t, domain.EmbeddingSettings{
		Provider:          domain.AIProviderOpenAI,
		Model:             "text-embedding-3-small",
		APIKey:            "sk-config",
		Dimensions:        512,
		RequestsPerSecond: 2.5,
		Burst:             4,
	}, settings.Embedding)
	assert.Equal(t, domain.ProcessingSettings{
		MaxChunkSize:       500,
		WebChunkSize:       2000,
		MaxFileSize:        1024,
		SupportedFileTypes: []string{"md", "rst"},
	}, settings.Processing)
	assert.Equal(t, 90*time.Second, settings.Server.RequestTimeout)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	svc, _ := newSettings(map[string]any{
		"embedding.provider": "invalid_provider",
		"store.backend":      "redis",
	}, nil)

	settings, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, domain.StoreQdrant, settings.Store.Backend)
}

func TestSettingsService_Get_TimeoutForms(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  time.Duration
	}{
		{"duration string", "2m", 2 * time.Minute},
		{"seconds string", "45", 45 * time.Second},
		{"integer seconds", int64(30), 30 * time.Second},
		{"float seconds", 1.5, 1500 * time.Millisecond},
		{"empty string", "", domain.DefaultRequestTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newSettings(map[string]any{"server.request_timeout": tt.value}, nil)
			settings, err := svc.Get()
			require.NoError(t, err)
			assert.Equal(t, tt.want, settings.Server.RequestTimeout)
		})
	}

	svc, _ := newSettings(map[string]any{"server.request_timeout": "soon"}, nil)
	_, err := svc.Get()
	assert.ErrorContains(t, err, "server.request_timeout")
}

func TestSettingsService_Get_EnvironmentOverrides(t *testing.T) {
	svc, store := newSettings(map[string]any{
		"qdrant.url":        "http://config:6333",
		"embedding.api_key": "sk-config",
	}, map[string]string{
		EnvQdrantURL:        "https://cloud.qdrant.io:6333",
		EnvQdrantCollection: "env-docs",
		EnvQdrantAPIKey:     "qd-key",
		EnvEmbedProvider:    "OpenAI",
		EnvOpenAIKey:        "sk-env",
		EnvOpenAIBaseURL:    "https://proxy.example.com/v1",
		EnvOllamaURL:        "http://ignored:11434",
		EnvStore:            "memory",
		EnvMaxChunkSize:     "750",
		EnvMaxFileSize:      "2048",
		EnvRequestTimeout:   "15s",
	})

	settings, err := svc.Get()
	require.NoError(t, err)

	assert.Equal(t, "https://cloud.qdrant.io:6333", settings.Store.Qdrant.URL)
	assert.Equal(t, "env-docs", settings.Store.Qdrant.Collection)
	assert.Equal(t, "qd-key", settings.Store.Qdrant.APIKey)
	assert.Equal(t, domain.StoreMemory, settings.Store.Backend)
	assert.Equal(t, domain.AIProviderOpenAI, settings.Embedding.Provider)
	assert.Equal(t, "text-embedding-3-small", settings.Embedding.Model)
	assert.Equal(t, "sk-env", settings.Embedding.APIKey)
	assert.Equal(t, "https://proxy.example.com/v1", settings.Embedding.BaseURL)
	assert.Equal(t, 750, settings.Processing.MaxChunkSize)
	assert.Equal(t, int64(2048), settings.Processing.MaxFileSize)
	assert.Equal(t, 15*time.Second, settings.Server.RequestTimeout)

	// Overrides are not written back.
	assert.Equal(t, "http://config:6333", store.GetString("qdrant.url"))
}

func TestSettingsService_Get_OllamaEnvironment(t *testing.T) {
	svc, _ := newSettings(nil, map[string]string{
		EnvOllamaURL:   "http://gpu-box:11434",
		EnvEmbedModel:  "mxbai-embed-large",
		EnvOpenAIKey:   "sk-unused",
		EnvQdrantURL:   "   ",
		EnvMaxFileSize: "",
	})

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "http://gpu-box:11434", settings.Embedding.BaseURL)
	assert.Equal(t, "mxbai-embed-large", settings.Embedding.Model)
	assert.Empty(t, settings.Embedding.APIKey)
	assert.Equal(t, domain.DefaultQdrantURL, settings.Store.Qdrant.URL)
}

func TestSettingsService_Get_InvalidEnvironment(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"provider", map[string]string{EnvEmbedProvider: "cohere"}, EnvEmbedProvider},
		{"store", map[string]string{EnvStore: "redis"}, EnvStore},
		{"chunk size", map[string]string{EnvMaxChunkSize: "big"}, EnvMaxChunkSize},
		{"file size", map[string]string{EnvMaxFileSize: "1MB"}, EnvMaxFileSize},
		{"timeout", map[string]string{EnvRequestTimeout: "later"}, EnvRequestTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newSettings(nil, tt.env)
			_, err := svc.Get()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	svc, store := newSettings(nil, nil)

	settings := domain.DefaultAppSettings()
	settings.Store.Backend = domain.StoreSQLite
	settings.Store.DataDir = "/data"
	settings.Embedding.RequestsPerSecond = 3
	settings.Processing.SupportedFileTypes = []string{"md"}
	settings.Server.RequestTimeout = 2 * time.Minute
	require.NoError(t, svc.Save(&settings))

	_, ok := store.Get("embedding.api_key")
	assert.False(t, ok, "empty secrets are not persisted")

	loaded, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, settings, *loaded)
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	svc, store := newSettings(nil, map[string]string{EnvOpenAIKey: "sk-env"})

	require.NoError(t, svc.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "sk-test"))
	assert.Equal(t, "openai", store.GetString("embedding.provider"))
	assert.Equal(t, "text-embedding-3-small", store.GetString("embedding.model"))
	assert.Equal(t, "sk-test", store.GetString("embedding.api_key"))
	assert.Empty(t, store.GetString("embedding.base_url"))

	require.NoError(t, svc.SetEmbeddingProvider(domain.AIProviderOllama, "all-minilm", ""))
	assert.Equal(t, "ollama", store.GetString("embedding.provider"))
	assert.Equal(t, "all-minilm", store.GetString("embedding.model"))
	assert.Equal(t, DefaultOllamaURL, store.GetString("embedding.base_url"))

	err := svc.SetEmbeddingProvider(domain.AIProviderOpenAI, "", "")
	assert.ErrorContains(t, err, "API key required")

	err = svc.SetEmbeddingProvider("cohere", "", "")
	assert.ErrorContains(t, err, "invalid embedding provider")
}

func TestSettingsService_SetStoreBackend(t *testing.T) {
	svc, store := newSettings(nil, nil)

	require.NoError(t, svc.SetStoreBackend(domain.StoreSQLite))
	assert.Equal(t, "sqlite", store.GetString("store.backend"))

	assert.Error(t, svc.SetStoreBackend("redis"))
}

func TestSettingsService_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  map[string]any
		env     map[string]string
		wantErr string
	}{
		{name: "defaults"},
		{
			name:    "openai without key",
			config:  map[string]any{"embedding.provider": "openai"},
			wantErr: "not configured",
		},
		{
			name:   "openai with env key",
			config: map[string]any{"embedding.provider": "openai"},
			env:    map[string]string{EnvOpenAIKey: "sk"},
		},
		{
			name:    "bad qdrant url",
			config:  map[string]any{"qdrant.url": "::"},
			wantErr: "invalid qdrant URL",
		},
		{
			name:   "bad qdrant url ignored for sqlite",
			config: map[string]any{"qdrant.url": "::", "store.backend": "sqlite"},
		},
		{
			name:    "negative chunk size",
			config:  map[string]any{"processing.max_chunk_size": int64(-1)},
			wantErr: "chunk sizes",
		},
		{
			name:    "negative file size",
			config:  map[string]any{"processing.max_file_size": int64(-1)},
			wantErr: "max file size",
		},
		{
			name:    "negative timeout",
			config:  map[string]any{"server.request_timeout": "-5s"},
			wantErr: "request timeout",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newSettings(tt.config, tt.env)
			err := svc.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestSettingsService_ValidateEmbeddingConfig(t *testing.T) {
	svc, _ := newSettings(nil, nil)
	assert.NoError(t, svc.ValidateEmbeddingConfig())

	validator := &stubValidator{err: errors.New("connection refused")}
	svc.aiValidator = validator
	err := svc.ValidateEmbeddingConfig()
	assert.EqualError(t, err, "connection refused")
	require.NotNil(t, validator.got)
	assert.Equal(t, domain.AIProviderOllama, validator.got.Provider)
}
