package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the embedding provider, vector store and processing limits.

Environment variables (QDRANT_URL, EMBEDDING_PROVIDER, OPENAI_API_KEY, ...)
override the saved settings and are never written to the config file.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Interactively select the embedding provider, model and API key.`,
	RunE:  runSettingsEmbedding,
}

var settingsStoreCmd = &cobra.Command{
	Use:   "store [backend]",
	Short: "Select the vector store backend",
	Long: `Select where vectors are stored.

Available backends:
  qdrant - Qdrant server over gRPC (default)
  sqlite - Embedded single-file database in the config directory
  memory - Process memory, lost on exit`,
	Args: cobra.ExactArgs(1),
	RunE: runSettingsStore,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsStoreCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	// Embedding settings
	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		if settings.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	if settings.Embedding.RequestsPerSecond > 0 {
		cmd.Printf("  Rate Limit: %.1f req/s (burst %d)\n", settings.Embedding.RequestsPerSecond, settings.Embedding.Burst)
	}
	status := "configured"
	if !settings.Embedding.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	// Store settings
	cmd.Println("[Store]")
	cmd.Printf("  Backend: %s\n", settings.Store.Backend.Description())
	switch settings.Store.Backend {
	case domain.StoreQdrant:
		cmd.Printf("  URL: %s\n", settings.Store.Qdrant.URL)
		cmd.Printf("  gRPC Port: %d\n", settings.Store.Qdrant.GRPCPort)
		cmd.Printf("  Collection: %s\n", settings.Store.Qdrant.Collection)
		if settings.Store.Qdrant.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Store.Qdrant.APIKey))
		}
	case domain.StoreSQLite:
		cmd.Printf("  Data Dir: %s\n", settings.Store.DataDir)
		cmd.Printf("  Collection: %s\n", settings.Store.Qdrant.Collection)
	}
	cmd.Println()

	// Processing settings
	cmd.Println("[Processing]")
	cmd.Printf("  Chunk Size: %d\n", settings.Processing.MaxChunkSize)
	cmd.Printf("  Web Chunk Size: %d\n", settings.Processing.WebChunkSize)
	cmd.Printf("  Max File Size: %d bytes\n", settings.Processing.MaxFileSize)
	cmd.Printf("  File Types: %s\n", strings.Join(settings.Processing.SupportedFileTypes, ", "))
	cmd.Println()

	// Server settings
	cmd.Println("[Server]")
	cmd.Printf("  Request Timeout: %s\n", settings.Server.RequestTimeout)
	cmd.Println()

	// Validation
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'ragdocs settings embedding' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if _, err := requireSettings(); err != nil {
		return err
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureEmbeddingProvider(cmd, reader)
}

func runSettingsStore(cmd *cobra.Command, args []string) error {
	if _, err := requireSettings(); err != nil {
		return err
	}

	backend := domain.StoreBackend(strings.ToLower(strings.TrimSpace(args[0])))
	if !backend.IsValid() {
		return fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidInput, args[0])
	}
	if err := settingsService.SetStoreBackend(backend); err != nil {
		return fmt.Errorf("failed to set store backend: %w", err)
	}
	cmd.Printf("Store backend set to: %s\n", backend.Description())
	return nil
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultEmbeddingModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetEmbeddingProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n", selectedProvider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when stdin is a terminal and falls back
// to the line reader otherwise.
func readPassword(reader *bufio.Reader) string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
