package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
	"github.com/custodia-labs/ragdocs/internal/core/ports/driving"
	"github.com/custodia-labs/ragdocs/internal/core/services"
	"github.com/custodia-labs/ragdocs/internal/logger"
)

var watchSkipInitial bool

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Keep a directory in sync with the store",
	Long: `Ingests the directory and then watches it for changes until interrupted.

Created or modified files are re-ingested, replacing their previous chunks.
Deleted files have their chunks removed.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchSkipInitial, "skip-initial", false, "do not ingest the directory before watching")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	retrieval, err := requireRetrieval(cmd)
	if err != nil {
		return err
	}
	if fileWatcher == nil {
		return errors.New("file watcher not configured")
	}

	ctx := cmd.Context()
	root := args[0]

	if !watchSkipInitial {
		report, err := retrieval.AddDirectory(ctx, root)
		if err != nil {
			return fmt.Errorf("add directory: %w", err)
		}
		cmd.Print(services.FormatDirectoryReport(report))
	}

	changes, err := fileWatcher.Watch(ctx, root)
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}
	cmd.PrintErrf("Watching %s for changes (Ctrl+C to stop)\n", root)

	for change := range changes {
		applyChange(ctx, cmd, retrieval, change)
	}
	return nil
}

// applyChange mirrors one file change into the store. Failures are
// reported and never stop the watch.
func applyChange(ctx context.Context, cmd *cobra.Command, retrieval driving.RetrievalService, change domain.FileChange) {
	switch change.Type {
	case domain.ChangeCreated, domain.ChangeUpdated:
		result, err := retrieval.Reindex(ctx, change.Path)
		if err != nil {
			if errors.Is(err, domain.ErrUnsupportedType) {
				logger.Debug("Ignoring %s: %v", change.Path, err)
				return
			}
			cmd.PrintErrf("Error reindexing %s: %v\n", change.Path, err)
			return
		}
		cmd.Println(services.FormatIngestResult(result))
	case domain.ChangeDeleted:
		n, err := retrieval.DeleteSource(ctx, change.Path)
		if err != nil {
			cmd.PrintErrf("Error deleting %s: %v\n", change.Path, err)
			return
		}
		cmd.Println(services.FormatDeleted(change.Path, n))
	default:
		logger.Warn("unknown change type %q for %s", change.Type, change.Path)
	}
}
