package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdocs/internal/core/services"
)

var addCmd = &cobra.Command{
	Use:   "add [url-or-path...]",
	Short: "Add documentation from URLs or files",
	Long: `Fetches, chunks and embeds each location and stores the chunks.

Web pages are split into fixed-size slices. PDF files are chunked page by
page. Text files are accepted by extension (md, txt, source code, ...).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var addDirCmd = &cobra.Command{
	Use:   "add-dir [path]",
	Short: "Add every supported file in a directory",
	Long: `Walks the directory recursively and ingests every supported file.
Hidden files and directories are ignored. Files that fail are reported
and do not stop the walk.`,
	Args: cobra.ExactArgs(1),
	RunE: runAddDir,
}

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(addDirCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	retrieval, err := requireRetrieval(cmd)
	if err != nil {
		return err
	}

	var failed int
	for _, location := range args {
		result, err := retrieval.AddSource(cmd.Context(), location)
		if err != nil {
			cmd.PrintErrf("Error adding documentation: %v\n", err)
			failed++
			continue
		}
		cmd.Println(services.FormatIngestResult(result))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d sources failed", failed, len(args))
	}
	return nil
}

func runAddDir(cmd *cobra.Command, args []string) error {
	retrieval, err := requireRetrieval(cmd)
	if err != nil {
		return err
	}

	report, err := retrieval.AddDirectory(cmd.Context(), args[0])
	if report != nil {
		cmd.Print(services.FormatDirectoryReport(report))
	}
	if err != nil {
		return fmt.Errorf("add directory: %w", err)
	}
	return nil
}
