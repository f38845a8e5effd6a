package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdocs/internal/adapters/driving/tui"
	"github.com/custodia-labs/ragdocs/internal/core/domain"
)

var tuiLimit int

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse stored documentation interactively",
	Long: `Opens a terminal interface for searching stored documentation,
reading full chunks and removing sources.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().IntVarP(&tuiLimit, "limit", "n", domain.DefaultSearchLimit, "results per search")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	retrieval, err := requireRetrieval(cmd)
	if err != nil {
		return err
	}
	return tui.Run(cmd.Context(), &tui.Ports{Retrieval: retrieval}, tuiLimit)
}
