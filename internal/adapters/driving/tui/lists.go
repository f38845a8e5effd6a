package tui

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
)

// cursor tracks a selection within a list of n items.
type cursor struct {
	selected int
	n        int
}

func (c *cursor) reset(n int) {
	c.n = n
	c.selected = 0
}

func (c *cursor) up() {
	if c.selected > 0 {
		c.selected--
	}
}

func (c *cursor) down() {
	if c.selected < c.n-1 {
		c.selected++
	}
}

// window returns the visible [start, end) range for the given capacity.
func (c *cursor) window(capacity int) (int, int) {
	if capacity < 1 {
		capacity = 1
	}
	start := 0
	if c.selected >= capacity {
		start = c.selected - capacity + 1
	}
	end := start + capacity
	if end > c.n {
		end = c.n
	}
	return start, end
}

// ResultList displays search results in a navigable list.
type ResultList struct {
	cursor
	results []domain.SearchResult
	styles  *Styles
	width   int
	height  int
}

// NewResultList creates a new result list component.
func NewResultList(s *Styles) *ResultList {
	if s == nil {
		s = NewStyles(nil)
	}
	return &ResultList{styles: s, width: 80, height: 20}
}

// SetResults replaces the results and selects the first one.
func (r *ResultList) SetResults(results []domain.SearchResult) {
	r.results = results
	r.reset(len(results))
}

// SelectedResult returns the currently selected result, or nil if none.
func (r *ResultList) SelectedResult() *domain.SearchResult {
	if len(r.results) == 0 {
		return nil
	}
	return &r.results[r.selected]
}

// Count returns the number of results.
func (r *ResultList) Count() int {
	return len(r.results)
}

// SetDimensions sets the component dimensions.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// View renders the result list.
func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("No results found for your query.")
	}

	lines := []string{r.styles.Subtitle.Render(fmt.Sprintf("Results (%d)", len(r.results))), ""}

	// Each result takes three lines.
	start, end := r.window((r.height - 4) / 3)
	for i := start; i < end; i++ {
		lines = append(lines, r.renderResult(i, &r.results[i]))
	}
	return strings.Join(lines, "\n")
}

func (r *ResultList) renderResult(index int, result *domain.SearchResult) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	maxTitleLen := max(r.width-20, 10)
	title := truncate(result.DisplayTitle(), maxTitleLen)
	score := fmt.Sprintf("%.2f", result.Score)

	var titleLine string
	if index == r.selected {
		titleLine = r.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxTitleLen, title, score))
	} else {
		titleLine = r.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxTitleLen, title)) +
			r.styles.Score.Render(score)
	}

	source := result.DisplaySource()
	if page := result.Chunk.Metadata.PageNumber; page > 0 {
		source = fmt.Sprintf("%s (page %d)", source, page)
	}
	sourceLine := r.styles.Subtitle.Render("    " + truncate(source, max(r.width-6, 20)))

	preview := strings.Join(strings.Fields(result.Chunk.Text), " ")
	previewLine := r.styles.Muted.Render("    " + truncate(preview, max(r.width-6, 20)))

	return titleLine + "\n" + sourceLine + "\n" + previewLine
}

// SourceList displays stored sources in a navigable list.
type SourceList struct {
	cursor
	sources []string
	styles  *Styles
	height  int
}

// NewSourceList creates a new source list component.
func NewSourceList(s *Styles) *SourceList {
	if s == nil {
		s = NewStyles(nil)
	}
	return &SourceList{styles: s, height: 20}
}

// SetSources replaces the sources and selects the first one.
func (l *SourceList) SetSources(sources []string) {
	l.sources = sources
	l.reset(len(sources))
}

// SelectedSource returns the selected source, or "" when the list is empty.
func (l *SourceList) SelectedSource() string {
	if len(l.sources) == 0 {
		return ""
	}
	return l.sources[l.selected]
}

// Count returns the number of sources.
func (l *SourceList) Count() int {
	return len(l.sources)
}

// View renders the source list.
func (l *SourceList) View() string {
	if len(l.sources) == 0 {
		return l.styles.Muted.Render("No documentation sources found.")
	}

	lines := []string{l.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(l.sources))), ""}
	start, end := l.window(l.height - 4)
	for i := start; i < end; i++ {
		line := fmt.Sprintf("%d. %s", i+1, l.sources[i])
		if i == l.selected {
			lines = append(lines, l.styles.Selected.Render("> "+line))
		} else {
			lines = append(lines, l.styles.Normal.Render("  "+line))
		}
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
