// Package cli provides the ragdocs command-line interface.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdocs/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragdocs/internal/app"
	"github.com/custodia-labs/ragdocs/internal/core/domain"
	"github.com/custodia-labs/ragdocs/internal/core/ports/driven"
	"github.com/custodia-labs/ragdocs/internal/core/ports/driving"
	"github.com/custodia-labs/ragdocs/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Global flags.
var (
	verbose      bool
	configDir    string
	storeBackend string
	envFile      string
)

// Services are created lazily on first use so that commands such as
// version and settings never dial the embedding provider or the store.
var (
	settingsService  driving.SettingsService
	retrievalService driving.RetrievalService
	fileWatcher      driven.FileWatcher
	appSettings      *domain.AppSettings
	closeApp         func() error
)

var rootCmd = &cobra.Command{
	Use:   "ragdocs",
	Short: "Documentation retrieval for AI assistants",
	Long: `ragdocs ingests documentation from URLs, PDF and text files into a
vector store and answers semantic search queries over it.

The same operations are exposed to AI assistants through an MCP server
(see 'ragdocs mcp serve').`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging to stderr")
	flags.StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.ragdocs)")
	flags.StringVar(&storeBackend, "store", "", "vector store backend: qdrant, sqlite or memory")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading settings")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	defer func() {
		if err := Close(); err != nil {
			logger.Warn("closing services: %v", err)
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

// Close releases services opened by commands.
func Close() error {
	if closeApp == nil {
		return nil
	}
	err := closeApp()
	closeApp = nil
	retrievalService = nil
	fileWatcher = nil
	return err
}

func setup(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	return file.LoadEnvFile(envFile)
}

// requireSettings returns the settings service, opening the config file on first use.
func requireSettings() (driving.SettingsService, error) {
	if settingsService != nil {
		return settingsService, nil
	}
	svc, err := app.NewSettingsService(configDir)
	if err != nil {
		return nil, err
	}
	settingsService = svc
	return settingsService, nil
}

// loadSettings returns the effective settings with the --store override applied.
func loadSettings() (*domain.AppSettings, error) {
	svc, err := requireSettings()
	if err != nil {
		return nil, err
	}
	settings, err := svc.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if storeBackend != "" {
		backend := domain.StoreBackend(storeBackend)
		if !backend.IsValid() {
			return nil, fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidInput, storeBackend)
		}
		settings.Store.Backend = backend
	}
	return settings, nil
}

// requireRetrieval returns the retrieval service, wiring it on first use.
func requireRetrieval(cmd *cobra.Command) (driving.RetrievalService, error) {
	if retrievalService != nil {
		return retrievalService, nil
	}

	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	if err := settingsService.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w. Run 'ragdocs settings show' to review them", err)
	}

	a, err := app.Build(cmd.Context(), settings)
	if err != nil {
		return nil, err
	}

	appSettings = settings
	retrievalService = a.Retrieval
	fileWatcher = a.Watcher
	closeApp = a.Close
	return retrievalService, nil
}
