package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/ragdocs/internal/core/domain"
	"github.com/custodia-labs/ragdocs/internal/core/services"
)

// view identifies the active screen.
type view int

const (
	viewSearch view = iota
	viewResults
	viewDetail
	viewSources
)

// Messages produced by asynchronous commands.
type (
	searchDoneMsg struct {
		query   string
		results []domain.SearchResult
		err     error
	}
	sourcesMsg struct {
		sources []string
		err     error
	}
	deletedMsg struct {
		source string
		count  int
		err    error
	}
)

// App is the TUI application following the Elm architecture.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *Styles
	keys   *KeyMap
	limit  int

	input   textinput.Model
	results *ResultList
	sources *SourceList
	detail  viewport.Model

	current  view
	previous view
	status   string
	failed   bool
	busy     bool

	width  int
	height int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := NewStyles(nil)
	ti := textinput.New()
	ti.Placeholder = "Search documentation..."
	ti.CharLimit = 512
	ti.Width = 60
	ti.Focus()

	return &App{
		ports:   ports,
		ctx:     context.Background(),
		styles:  s,
		keys:    DefaultKeyMap(),
		limit:   domain.DefaultSearchLimit,
		input:   ti,
		results: NewResultList(s),
		sources: NewSourceList(s),
		detail:  viewport.New(80, 20),
		width:   80,
		height:  24,
	}, nil
}

// WithContext sets the context used for service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// WithLimit sets the number of results requested per search.
func (a *App) WithLimit(limit int) *App {
	if limit > 0 {
		a.limit = limit
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.SetWindowTitle("ragdocs"))
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case searchDoneMsg:
		a.busy = false
		if msg.err != nil {
			a.setError("Error searching documentation: %v", msg.err)
			return a, nil
		}
		a.results.SetResults(msg.results)
		a.setStatus("%d results for %q", len(msg.results), msg.query)
		a.current = viewResults
		a.input.Blur()
		return a, nil

	case sourcesMsg:
		a.busy = false
		if msg.err != nil {
			a.setError("Error listing sources: %v", msg.err)
			return a, nil
		}
		a.sources.SetSources(msg.sources)
		if a.current != viewSources {
			a.previous = a.current
			a.current = viewSources
		}
		return a, nil

	case deletedMsg:
		if msg.err != nil {
			a.busy = false
			a.setError("Error deleting documentation: %v", msg.err)
			return a, nil
		}
		a.setStatus("%s", services.FormatDeleted(msg.source, msg.count))
		return a, a.loadSources()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.handleKey(msg)
	}

	if a.current == viewSearch {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.current {
	case viewSearch:
		return a.handleSearchKey(msg)
	case viewResults:
		return a.handleResultsKey(msg)
	case viewDetail:
		if key.Matches(msg, a.keys.Back) {
			a.current = viewResults
			return a, nil
		}
		var cmd tea.Cmd
		a.detail, cmd = a.detail.Update(msg)
		return a, cmd
	case viewSources:
		return a.handleSourcesKey(msg)
	}
	return a, nil
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if a.results.Count() > 0 {
			a.current = viewResults
			a.input.Blur()
			return a, nil
		}
		return a, tea.Quit
	case tea.KeyEnter:
		query := strings.TrimSpace(a.input.Value())
		if query == "" || a.busy {
			return a, nil
		}
		a.busy = true
		a.setStatus("Searching...")
		return a, a.search(query)
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleResultsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	case key.Matches(msg, a.keys.Up):
		a.results.up()
	case key.Matches(msg, a.keys.Down):
		a.results.down()
	case key.Matches(msg, a.keys.Submit):
		if r := a.results.SelectedResult(); r != nil {
			a.detail.SetContent(a.renderDetail(r))
			a.detail.GotoTop()
			a.current = viewDetail
		}
	case key.Matches(msg, a.keys.NewSearch), key.Matches(msg, a.keys.Back):
		a.current = viewSearch
		a.input.SetValue("")
		return a, a.input.Focus()
	case key.Matches(msg, a.keys.Sources):
		a.busy = true
		return a, a.loadSources()
	}
	return a, nil
}

func (a *App) handleSourcesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Back):
		a.current = a.previous
		if a.current == viewSearch {
			return a, a.input.Focus()
		}
	case key.Matches(msg, a.keys.Up):
		a.sources.up()
	case key.Matches(msg, a.keys.Down):
		a.sources.down()
	case key.Matches(msg, a.keys.Refresh):
		a.busy = true
		return a, a.loadSources()
	case key.Matches(msg, a.keys.Delete):
		source := a.sources.SelectedSource()
		if source == "" || a.busy {
			return a, nil
		}
		a.busy = true
		a.setStatus("Deleting %s...", source)
		return a, a.deleteSource(source)
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) search(query string) tea.Cmd {
	ctx, retrieval, limit := a.ctx, a.ports.Retrieval, a.limit
	return func() tea.Msg {
		results, err := retrieval.Search(ctx, domain.SearchQuery{
			Query:         query,
			SearchOptions: domain.SearchOptions{Limit: limit},
		})
		return searchDoneMsg{query: query, results: results, err: err}
	}
}

func (a *App) loadSources() tea.Cmd {
	ctx, retrieval := a.ctx, a.ports.Retrieval
	return func() tea.Msg {
		sources, err := retrieval.ListSources(ctx)
		return sourcesMsg{sources: sources, err: err}
	}
}

func (a *App) deleteSource(source string) tea.Cmd {
	ctx, retrieval := a.ctx, a.ports.Retrieval
	return func() tea.Msg {
		n, err := retrieval.DeleteSource(ctx, source)
		return deletedMsg{source: source, count: n, err: err}
	}
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height
	a.input.Width = max(width-16, 20)
	a.results.SetDimensions(width, height-4)
	a.sources.height = height - 4
	a.detail.Width = width
	a.detail.Height = max(height-4, 1)
}

func (a *App) setStatus(format string, args ...any) {
	a.status = fmt.Sprintf(format, args...)
	a.failed = false
}

func (a *App) setError(format string, args ...any) {
	a.status = fmt.Sprintf(format, args...)
	a.failed = true
}

func (a *App) renderDetail(r *domain.SearchResult) string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render(r.DisplayTitle()))
	b.WriteString("\n")
	b.WriteString(a.styles.Subtitle.Render("Source: " + r.DisplaySource()))
	b.WriteString("\n")
	meta := fmt.Sprintf("Score: %.2f  Chunk: %d", r.Score, r.Chunk.Metadata.ChunkIndex)
	if r.Chunk.Metadata.PageNumber > 0 {
		meta += fmt.Sprintf("  Page: %d", r.Chunk.Metadata.PageNumber)
	}
	b.WriteString(a.styles.Muted.Render(meta))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Width(max(a.width-2, 20)).Render(r.Chunk.Text))
	return b.String()
}

// View implements tea.Model.
func (a *App) View() string {
	header := a.styles.Title.Render("ragdocs")

	var body string
	switch a.current {
	case viewSearch:
		label := a.styles.Title.Render("Search: ")
		//nolint:misspell // lipgloss.Center is the correct constant from the library
		body = lipgloss.JoinHorizontal(lipgloss.Center, label, a.styles.InputField.Render(a.input.View()))
	case viewResults:
		body = a.results.View()
	case viewDetail:
		body = a.detail.View()
	case viewSources:
		body = a.sources.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", a.statusBar())
}

func (a *App) statusBar() string {
	left := a.styles.Muted.Render(a.status)
	if a.failed {
		left = a.styles.Error.Render(a.status)
	}

	bindings := a.keys.help(a.current)
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, h.Key+": "+h.Desc)
	}
	right := a.styles.Muted.Render(strings.Join(hints, " | "))

	padding := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	return a.styles.StatusBar.Render(left + strings.Repeat(" ", padding) + right)
}

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
func Run(ctx context.Context, ports *Ports, limit int) error {
	app, err := NewApp(ports)
	if err != nil {
		return err
	}
	app.WithContext(ctx).WithLimit(limit)

	_, err = tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
