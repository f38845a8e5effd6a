package services

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
	"github.com/custodia-labs/ragdocs/internal/core/ports/driven"
	"github.com/custodia-labs/ragdocs/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyStoreBackend     = "store.backend"
	keyStoreDataDir     = "store.data_dir"
	keyQdrantURL        = "qdrant.url"
	keyQdrantCollection = "qdrant.collection"
	keyQdrantAPIKey     = "qdrant.api_key"
	keyQdrantGRPCPort   = "qdrant.grpc_port"
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedDimensions  = "embedding.dimensions"
	keyEmbedRPS         = "embedding.requests_per_second"
	keyEmbedBurst       = "embedding.burst"
	keyMaxChunkSize     = "processing.max_chunk_size"
	keyWebChunkSize     = "processing.web_chunk_size"
	keyMaxFileSize      = "processing.max_file_size"
	keyFileTypes        = "processing.supported_file_types"
	keyRequestTimeout   = "server.request_timeout"
)

// Environment variables that override the config file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvQdrantURL        = "QDRANT_URL"
	EnvQdrantCollection = "QDRANT_COLLECTION"
	EnvQdrantAPIKey     = "QDRANT_API_KEY"
	EnvEmbedProvider    = "EMBEDDING_PROVIDER"
	EnvEmbedModel       = "EMBEDDING_MODEL"
	EnvOllamaURL        = "OLLAMA_URL"
	EnvOpenAIKey        = "OPENAI_API_KEY"
	EnvOpenAIBaseURL    = "OPENAI_BASE_URL"
	EnvStore            = "RAGDOCS_STORE"
	EnvMaxChunkSize     = "RAGDOCS_MAX_CHUNK_SIZE"
	EnvMaxFileSize      = "RAGDOCS_MAX_FILE_SIZE"
	EnvRequestTimeout   = "RAGDOCS_REQUEST_TIMEOUT"
)

// DefaultOllamaURL is the base URL assumed for a local Ollama instance.
const DefaultOllamaURL = "http://localhost:11434"

// SettingsService resolves application settings from the config store,
// then applies environment overrides. Overrides are never written back.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// Get retrieves current application settings, including environment overrides.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings, err := s.load()
	if err != nil {
		return nil, err
	}
	if err := s.applyEnv(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// load reads the config store only.
func (s *SettingsService) load() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	timeout, err := s.getDuration(keyRequestTimeout, defaults.Server.RequestTimeout)
	if err != nil {
		return nil, err
	}

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:             s.configStore.GetString(keyEmbedModel),
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL),
			APIKey:            s.configStore.GetString(keyEmbedAPIKey),
			Dimensions:        s.configStore.GetInt(keyEmbedDimensions),
			RequestsPerSecond: s.configStore.GetFloat(keyEmbedRPS),
			Burst:             s.getInt(keyEmbedBurst, defaults.Embedding.Burst),
		},
		Store: domain.StoreSettings{
			Backend: s.getBackend(defaults.Store.Backend),
			DataDir: s.configStore.GetString(keyStoreDataDir),
			Qdrant: domain.QdrantSettings{
				URL:        s.getString(keyQdrantURL, defaults.Store.Qdrant.URL),
				GRPCPort:   s.getInt(keyQdrantGRPCPort, defaults.Store.Qdrant.GRPCPort),
				Collection: s.getString(keyQdrantCollection, defaults.Store.Qdrant.Collection),
				APIKey:     s.configStore.GetString(keyQdrantAPIKey),
			},
		},
		Processing: domain.ProcessingSettings{
			MaxChunkSize:       s.getInt(keyMaxChunkSize, defaults.Processing.MaxChunkSize),
			WebChunkSize:       s.getInt(keyWebChunkSize, defaults.Processing.WebChunkSize),
			MaxFileSize:        int64(s.getInt(keyMaxFileSize, int(defaults.Processing.MaxFileSize))),
			SupportedFileTypes: defaults.Processing.SupportedFileTypes,
		},
		Server: domain.ServerSettings{
			RequestTimeout: timeout,
		},
	}
	if types := s.configStore.GetStringSlice(keyFileTypes); len(types) > 0 {
		settings.Processing.SupportedFileTypes = types
	}
	if settings.Embedding.Model == "" {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	return settings, nil
}

// applyEnv overlays environment variables. Empty variables are ignored.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) error {
	if v := s.env(EnvEmbedProvider); v != "" {
		provider := domain.AIProvider(strings.ToLower(v))
		if !provider.IsValid() {
			return fmt.Errorf("invalid %s: %q", EnvEmbedProvider, v)
		}
		if provider != settings.Embedding.Provider {
			settings.Embedding.Provider = provider
			settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
			settings.Embedding.BaseURL = ""
		}
	}
	if v := s.env(EnvEmbedModel); v != "" {
		settings.Embedding.Model = v
	}
	switch settings.Embedding.Provider {
	case domain.AIProviderOllama:
		if v := s.env(EnvOllamaURL); v != "" {
			settings.Embedding.BaseURL = v
		}
	case domain.AIProviderOpenAI:
		if v := s.env(EnvOpenAIKey); v != "" {
			settings.Embedding.APIKey = v
		}
		if v := s.env(EnvOpenAIBaseURL); v != "" {
			settings.Embedding.BaseURL = v
		}
	}

	if v := s.env(EnvStore); v != "" {
		backend := domain.StoreBackend(strings.ToLower(v))
		if !backend.IsValid() {
			return fmt.Errorf("invalid %s: %q", EnvStore, v)
		}
		settings.Store.Backend = backend
	}
	if v := s.env(EnvQdrantURL); v != "" {
		settings.Store.Qdrant.URL = v
	}
	if v := s.env(EnvQdrantCollection); v != "" {
		settings.Store.Qdrant.Collection = v
	}
	if v := s.env(EnvQdrantAPIKey); v != "" {
		settings.Store.Qdrant.APIKey = v
	}

	if v := s.env(EnvMaxChunkSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxChunkSize, err)
		}
		settings.Processing.MaxChunkSize = n
	}
	if v := s.env(EnvMaxFileSize); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxFileSize, err)
		}
		settings.Processing.MaxFileSize = n
	}
	if v := s.env(EnvRequestTimeout); v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRequestTimeout, err)
		}
		settings.Server.RequestTimeout = d
	}
	return nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyStoreBackend, settings.Store.Backend.String()},
		{keyQdrantURL, settings.Store.Qdrant.URL},
		{keyQdrantCollection, settings.Store.Qdrant.Collection},
		{keyQdrantGRPCPort, settings.Store.Qdrant.GRPCPort},
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyEmbedDimensions, settings.Embedding.Dimensions},
		{keyEmbedRPS, settings.Embedding.RequestsPerSecond},
		{keyEmbedBurst, settings.Embedding.Burst},
		{keyMaxChunkSize, settings.Processing.MaxChunkSize},
		{keyWebChunkSize, settings.Processing.WebChunkSize},
		{keyMaxFileSize, settings.Processing.MaxFileSize},
		{keyFileTypes, settings.Processing.SupportedFileTypes},
		{keyRequestTimeout, settings.Server.RequestTimeout.String()},
	}
	if settings.Store.DataDir != "" {
		values = append(values, struct {
			key   string
			value any
		}{keyStoreDataDir, settings.Store.DataDir})
	}
	for _, kv := range values {
		if err := s.configStore.Set(kv.key, kv.value); err != nil {
			return fmt.Errorf("save %s: %w", kv.key, err)
		}
	}

	// Only persist secrets that were explicitly provided.
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyEmbedAPIKey, err)
		}
	}
	if settings.Store.Qdrant.APIKey != "" {
		if err := s.configStore.Set(keyQdrantAPIKey, settings.Store.Qdrant.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyQdrantAPIKey, err)
		}
	}
	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.load()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	if model != "" {
		settings.Embedding.Model = model
	} else {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}
	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = DefaultOllamaURL
		}
	} else {
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey
	settings.Embedding.Dimensions = 0

	return s.Save(settings)
}

// SetStoreBackend selects the vector store backend.
func (s *SettingsService) SetStoreBackend(backend domain.StoreBackend) error {
	if !backend.IsValid() {
		return fmt.Errorf("invalid store backend: %s", backend)
	}
	return s.configStore.Set(keyStoreBackend, backend.String())
}

// Validate checks that the current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("embedding provider %q is not configured", settings.Embedding.Provider)
	}
	if !settings.Store.Backend.IsValid() {
		return fmt.Errorf("invalid store backend: %s", settings.Store.Backend)
	}
	if settings.Store.Backend == domain.StoreQdrant {
		u, err := url.Parse(settings.Store.Qdrant.URL)
		if err != nil || u.Hostname() == "" {
			return fmt.Errorf("invalid qdrant URL: %q", settings.Store.Qdrant.URL)
		}
	}
	if settings.Processing.MaxChunkSize <= 0 || settings.Processing.WebChunkSize <= 0 {
		return fmt.Errorf("chunk sizes must be positive")
	}
	if settings.Processing.MaxFileSize <= 0 {
		return fmt.Errorf("max file size must be positive")
	}
	if settings.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) env(name string) string {
	v, _ := s.lookupEnv(name)
	return strings.TrimSpace(v)
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

// getDuration accepts a duration string ("90s") or a number of seconds.
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val, ok := s.configStore.Get(key)
	if !ok {
		return defaultVal, nil
	}
	switch v := val.(type) {
	case string:
		if v == "" {
			return defaultVal, nil
		}
		d, err := parseTimeout(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	default:
		if secs := s.configStore.GetFloat(key); secs > 0 {
			return time.Duration(secs * float64(time.Second)), nil
		}
		return defaultVal, nil
	}
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.StoreBackend) domain.StoreBackend {
	backend := domain.StoreBackend(s.configStore.GetString(keyStoreBackend))
	if !slices.Contains(domain.AllStoreBackends(), backend) {
		return defaultVal
	}
	return backend
}

// parseTimeout parses "90s" style durations or plain seconds.
func parseTimeout(v string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}
