package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// StoreBackend identifies the vector storage implementation.
type StoreBackend string

// Available store backends.
const (
	// StoreQdrant is a Qdrant server reached over gRPC.
	StoreQdrant StoreBackend = "qdrant"

	// StoreSQLite is an embedded single-file database.
	StoreSQLite StoreBackend = "sqlite"

	// StoreMemory keeps vectors in process memory only.
	StoreMemory StoreBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreQdrant, StoreSQLite, StoreMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StoreBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b StoreBackend) Description() string {
	switch b {
	case StoreQdrant:
		return "Qdrant (vector database server)"
	case StoreSQLite:
		return "SQLite (embedded, single file)"
	case StoreMemory:
		return "Memory (not persisted)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions overrides the model's default vector size when non-zero.
	Dimensions int

	// RequestsPerSecond throttles embedding calls. Zero disables throttling.
	RequestsPerSecond float64

	// Burst is the token bucket size used with RequestsPerSecond.
	Burst int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// QdrantSettings holds the Qdrant connection configuration.
type QdrantSettings struct {
	// URL is the server URL; host and scheme select the gRPC endpoint.
	URL string

	// GRPCPort is the gRPC port used by the client.
	GRPCPort int

	// Collection is the collection name.
	Collection string

	// APIKey authenticates against Qdrant Cloud.
	APIKey string
}

// StoreSettings selects and configures the vector store.
type StoreSettings struct {
	// Backend is the storage implementation.
	Backend StoreBackend

	// Qdrant configures the qdrant backend.
	Qdrant QdrantSettings

	// DataDir holds the sqlite database file.
	DataDir string
}

// ProcessingSettings configures document processors.
type ProcessingSettings struct {
	// MaxChunkSize is the word-accumulation chunk size in characters.
	MaxChunkSize int

	// WebChunkSize is the fixed-offset slice size for web pages.
	WebChunkSize int

	// MaxFileSize is the largest file, in bytes, that will be ingested.
	MaxFileSize int64

	// SupportedFileTypes is the text processor extension allow-list.
	SupportedFileTypes []string
}

// ServerSettings configures the tool transport.
type ServerSettings struct {
	// RequestTimeout bounds every tool call.
	RequestTimeout time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding  EmbeddingSettings
	Store      StoreSettings
	Processing ProcessingSettings
	Server     ServerSettings
}

// Default values for settings.
const (
	DefaultQdrantURL      = "http://localhost:6333"
	DefaultQdrantGRPCPort = 6334
	DefaultCollection     = "ragdocs"
	DefaultMaxChunkSize   = 1000
	DefaultWebChunkSize   = 4000
	DefaultMaxFileSize    = 10 * 1024 * 1024
	DefaultRequestTimeout = 60 * time.Second
)

// DefaultSupportedFileTypes returns the text processor extension allow-list.
func DefaultSupportedFileTypes() []string {
	return []string{
		"txt", "md", "markdown",
		"py", "js", "java", "c", "cpp", "h", "hpp",
		"html", "css", "json", "yaml", "yml", "xml",
	}
}

// DefaultAppSettings returns settings with sensible defaults.
// Embeddings default to a local Ollama instance.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
			Burst:    1,
		},
		Store: StoreSettings{
			Backend: StoreQdrant,
			Qdrant: QdrantSettings{
				URL:        DefaultQdrantURL,
				GRPCPort:   DefaultQdrantGRPCPort,
				Collection: DefaultCollection,
			},
		},
		Processing: ProcessingSettings{
			MaxChunkSize:       DefaultMaxChunkSize,
			WebChunkSize:       DefaultWebChunkSize,
			MaxFileSize:        DefaultMaxFileSize,
			SupportedFileTypes: DefaultSupportedFileTypes(),
		},
		Server: ServerSettings{
			RequestTimeout: DefaultRequestTimeout,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllStoreBackends returns every store backend.
func AllStoreBackends() []StoreBackend {
	return []StoreBackend{StoreQdrant, StoreSQLite, StoreMemory}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}
