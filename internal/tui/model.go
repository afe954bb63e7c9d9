// Package tui implements the interactive launcher bar: a query input
// over a ranked result list, driven by the engine's debounced async
// search.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/runeberg/flare/internal/rank"
)

// Searcher is the slice of the engine the TUI drives. SearchAsync
// must return ok=false when a newer keystroke superseded the call.
type Searcher interface {
	SearchAsync(ctx context.Context, query string) ([]rank.Scored, bool)
	CancelSearch()
}

// uiState tracks what the result area is showing.
type uiState int

const (
	stateIdle      uiState = iota // empty query, nothing to show
	stateSearching                // a search is in flight
	stateLoaded                   // results on screen
	stateEmpty                    // search finished with no matches
	stateCancelled                // user bailed out
)

// searchDoneMsg is sent when an async search command completes.
type searchDoneMsg struct {
	gen     uint64
	results []rank.Scored
	ok      bool
}

// initMsg triggers the initial search when the model starts with a
// prefilled query.
type initMsg struct{}

// Model is the Bubble Tea model for the launcher bar.
type Model struct {
	searcher Searcher
	input    textinput.Model

	state     uiState
	results   []rank.Scored
	selection int // index into results; -1 when empty

	// gen is a monotonic counter for stale detection: only a
	// searchDoneMsg carrying the latest generation is accepted.
	gen uint64

	width  int
	height int

	showScores bool

	// picked holds the launched result after Enter.
	picked   *rank.Scored
	quitting bool
}

// NewModel builds a launcher model over the given searcher.
func NewModel(searcher Searcher) Model {
	ti := textinput.New()
	ti.Placeholder = "Search apps, files, anything"
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.Focus()

	return Model{
		searcher:  searcher,
		input:     ti,
		state:     stateIdle,
		selection: -1,
	}
}

// WithQuery prefills the query and searches it immediately on start.
func (m Model) WithQuery(query string) Model {
	m.input.SetValue(query)
	m.input.CursorEnd()
	return m
}

// WithScores annotates each result row with its numeric score.
// Debugging surface, off by default.
func (m Model) WithScores() Model {
	m.showScores = true
	return m
}

// Picked returns the result the user launched, if any.
func (m Model) Picked() (rank.Scored, bool) {
	if m.picked == nil {
		return rank.Scored{}, false
	}
	return *m.picked, true
}

// IsCancelled reports whether the user quit without picking.
func (m Model) IsCancelled() bool {
	return m.state == stateCancelled
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.input.Value() != "" {
		return tea.Batch(textinput.Blink, func() tea.Msg { return initMsg{} })
	}
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - len(m.input.Prompt) - 1
		return m, nil

	case searchDoneMsg:
		return m.handleSearchDone(msg)

	case initMsg:
		return m, m.startSearch()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.state = stateCancelled
		m.quitting = true
		m.searcher.CancelSearch()
		return m, tea.Quit

	case tea.KeyEnter:
		if m.selection >= 0 && m.selection < len(m.results) {
			picked := m.results[m.selection]
			m.picked = &picked
		}
		m.quitting = true
		m.searcher.CancelSearch()
		return m, tea.Quit

	case tea.KeyUp, tea.KeyCtrlP:
		if m.selection > 0 {
			m.selection--
		}
		return m, nil

	case tea.KeyDown, tea.KeyCtrlN:
		if m.selection < len(m.results)-1 {
			m.selection++
		}
		return m, nil
	}

	// Everything else edits the query.
	before := m.input.Value()
	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, inputCmd
	}
	return m, tea.Batch(inputCmd, m.startSearch())
}

// startSearch fires an async search for the current query. The engine
// debounces and supersedes internally; the generation counter here
// additionally guards against replies arriving out of order.
func (m *Model) startSearch() tea.Cmd {
	m.gen++
	gen := m.gen

	query := m.input.Value()
	if strings.TrimSpace(query) == "" {
		m.searcher.CancelSearch()
		m.state = stateIdle
		m.results = nil
		m.selection = -1
		return nil
	}

	m.state = stateSearching
	s := m.searcher
	return func() tea.Msg {
		results, ok := s.SearchAsync(context.Background(), query)
		return searchDoneMsg{gen: gen, results: results, ok: ok}
	}
}

func (m Model) handleSearchDone(msg searchDoneMsg) (tea.Model, tea.Cmd) {
	// Stale or superseded replies carry nothing worth showing.
	if msg.gen != m.gen || !msg.ok {
		return m, nil
	}

	m.results = msg.results
	if len(m.results) == 0 {
		m.state = stateEmpty
		m.selection = -1
	} else {
		m.state = stateLoaded
		m.selection = 0
	}
	return m, nil
}

// listHeight returns how many result rows fit under the input and
// above the status line.
func (m Model) listHeight() int {
	const chrome = 4
	h := m.height - chrome
	if h < 1 {
		h = 10
	}
	return h
}

var (
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(m.viewResults())
	b.WriteString("\n")
	b.WriteString(m.viewStatus())
	return b.String()
}

func (m Model) viewResults() string {
	switch m.state {
	case stateIdle:
		return dimStyle.Render("Type to search")
	case stateEmpty:
		return dimStyle.Render("No matches")
	case stateSearching:
		if len(m.results) == 0 {
			return dimStyle.Render("Searching...")
		}
	}

	var b strings.Builder
	max := m.listHeight()
	for i, res := range m.results {
		if i >= max {
			break
		}
		b.WriteString(m.renderRow(i, res))
		if i < len(m.results)-1 && i < max-1 {
			b.WriteRune('\n')
		}
	}
	return b.String()
}

func (m Model) renderRow(i int, res rank.Scored) string {
	width := m.width
	if width <= 0 {
		width = 80
	}

	line := Display(res.Title)
	if res.Subtitle != "" {
		line += "  " + Display(res.Subtitle)
	}
	if m.showScores {
		// Plain text: style escapes would break width truncation.
		line += fmt.Sprintf("  [%s %.0f]", res.Category, res.Score)
	}
	line = MiddleTruncate(line, width-2)

	if i == m.selection {
		return selectedStyle.Render("> " + line)
	}
	return normalStyle.Render("  " + line)
}

func (m Model) viewStatus() string {
	switch m.state {
	case stateLoaded:
		return dimStyle.Render(fmt.Sprintf("%d results  enter launch  esc quit", len(m.results)))
	case stateSearching:
		return dimStyle.Render("searching")
	default:
		return dimStyle.Render("enter launch  esc quit")
	}
}
