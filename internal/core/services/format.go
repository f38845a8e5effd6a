package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
)

// Display limits for directory summaries.
const (
	maxListedSuccesses = 10
	maxListedFailures  = 5
)

// Messages for empty results.
const (
	NoResultsMessage = "No results found for your query."
	NoSourcesMessage = "No documentation sources found."
)

const resultSeparator = "\n\n---\n\n"

// FormatIngestResult describes a single-source ingestion.
func FormatIngestResult(r *domain.IngestResult) string {
	if r.Chunks == 0 {
		return fmt.Sprintf("Error: No content extracted from %s", r.Source)
	}
	return fmt.Sprintf("Successfully added %d chunks from %s", r.Chunks, r.Source)
}

// FormatDirectoryReport renders the directory summary with capped file lists.
func FormatDirectoryReport(r *domain.DirectoryReport) string {
	var b strings.Builder
	b.WriteString("Directory Processing Results:\n\n")
	fmt.Fprintf(&b, "Processed %d files successfully\n", r.Processed)
	fmt.Fprintf(&b, "Failed to process %d files\n", r.Failed)
	fmt.Fprintf(&b, "Skipped %d unsupported files\n", r.Skipped)
	fmt.Fprintf(&b, "Added %d total chunks to the database\n\n", r.TotalChunks)

	if len(r.ProcessedFiles) > 0 {
		b.WriteString("Successfully processed files:\n")
		for i, f := range r.ProcessedFiles[:min(len(r.ProcessedFiles), maxListedSuccesses)] {
			fmt.Fprintf(&b, "%d. %s (%d chunks)\n", i+1, f.Path, f.Chunks)
		}
		if extra := len(r.ProcessedFiles) - maxListedSuccesses; extra > 0 {
			fmt.Fprintf(&b, "...and %d more files\n", extra)
		}
	}

	if len(r.FailedFiles) > 0 {
		b.WriteString("\nFailed files:\n")
		for i, f := range r.FailedFiles[:min(len(r.FailedFiles), maxListedFailures)] {
			fmt.Fprintf(&b, "%d. %s: %s\n", i+1, f.Path, f.Error)
		}
		if extra := len(r.FailedFiles) - maxListedFailures; extra > 0 {
			fmt.Fprintf(&b, "...and %d more files\n", extra)
		}
	}
	return b.String()
}

// FormatSearchResults renders numbered result blocks.
func FormatSearchResults(results []domain.SearchResult) string {
	if len(results) == 0 {
		return NoResultsMessage
	}
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("[%d] %s (Score: %.2f)\nSource: %s\n\n%s",
			i+1, r.DisplayTitle(), r.Score, r.DisplaySource(), r.Chunk.Text)
	}
	return strings.Join(blocks, resultSeparator)
}

// FormatSources renders a numbered source list.
func FormatSources(sources []string) string {
	if len(sources) == 0 {
		return NoSourcesMessage
	}
	var b strings.Builder
	b.WriteString("Documentation sources:\n\n")
	for i, s := range sources {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return b.String()
}

// FormatDeleted describes a deletion.
func FormatDeleted(source string, n int) string {
	if n == 0 {
		return fmt.Sprintf("No chunks found for %s", source)
	}
	return fmt.Sprintf("Deleted %d chunks from %s", n, source)
}
