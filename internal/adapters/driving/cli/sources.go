package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdocs/internal/core/services"
)

var sourcesJSON bool

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List stored documentation sources",
	Args:  cobra.NoArgs,
	RunE:  runSources,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [source]",
	Short: "Remove every chunk of a source",
	Long: `Deletes all stored chunks whose source equals the given path or URL.
Use 'ragdocs sources' to see the stored sources.`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	sourcesCmd.Flags().BoolVar(&sourcesJSON, "json", false, "output sources as JSON")
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	retrieval, err := requireRetrieval(cmd)
	if err != nil {
		return err
	}

	sources, err := retrieval.ListSources(cmd.Context())
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}

	if sourcesJSON {
		if sources == nil {
			sources = []string{}
		}
		data, err := json.MarshalIndent(sources, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal sources: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Print(services.FormatSources(sources))
	if len(sources) == 0 {
		cmd.Println()
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	retrieval, err := requireRetrieval(cmd)
	if err != nil {
		return err
	}

	n, err := retrieval.DeleteSource(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("delete source: %w", err)
	}
	cmd.Println(services.FormatDeleted(args[0], n))
	return nil
}
