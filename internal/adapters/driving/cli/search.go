package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
	"github.com/custodia-labs/ragdocs/internal/core/services"
)

var (
	searchLimit    int
	searchMinScore float64
	searchFilters  []string
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search stored documentation",
	Long: `Embeds the query and returns the most similar chunks by cosine similarity.

Results can be restricted with --filter key=value on payload fields such as
source, file_type or page_number. Values "true" and "false" match booleans
and integers match numeric fields.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultSearchLimit, "maximum number of results")
	searchCmd.Flags().Float64Var(&searchMinScore, "min-score", 0, "exclude results scoring below this value")
	searchCmd.Flags().StringArrayVarP(&searchFilters, "filter", "f", nil, "payload filter as key=value (repeatable)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	filters, err := parseFilters(searchFilters)
	if err != nil {
		return err
	}

	retrieval, err := requireRetrieval(cmd)
	if err != nil {
		return err
	}

	results, err := retrieval.Search(cmd.Context(), domain.SearchQuery{
		Query: args[0],
		SearchOptions: domain.SearchOptions{
			Limit:    searchLimit,
			Filters:  filters,
			MinScore: searchMinScore,
		},
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	cmd.Println(services.FormatSearchResults(results))
	return nil
}

// searchResultJSON is the --json representation of a result.
type searchResultJSON struct {
	Title      string  `json:"title"`
	Source     string  `json:"source"`
	Score      float64 `json:"score"`
	PageNumber int     `json:"page_number,omitempty"`
	ChunkIndex int     `json:"chunk_index"`
	Text       string  `json:"text"`
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	out := make([]searchResultJSON, len(results))
	for i, r := range results {
		out[i] = searchResultJSON{
			Title:      r.DisplayTitle(),
			Source:     r.DisplaySource(),
			Score:      r.Score,
			PageNumber: r.Chunk.Metadata.PageNumber,
			ChunkIndex: r.Chunk.Metadata.ChunkIndex,
			Text:       r.Chunk.Text,
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

// parseFilters converts key=value pairs into a filter.
func parseFilters(pairs []string) (domain.Filter, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	filter := make(domain.Filter, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: filter %q must be key=value", domain.ErrInvalidInput, pair)
		}
		filter[key] = parseFilterValue(value)
	}
	return filter, nil
}

func parseFilterValue(s string) any {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}
