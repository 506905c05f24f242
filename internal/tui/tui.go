package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zuo-Peng/ai-session-export/internal/catalog"
)

type Options struct {
	PageSize int
	Title    string
}

type model struct {
	entries []catalog.Entry
	engine  *Engine
	title   string

	filterInput textinput.Model
	help        help.Model
	status      string // transient message, cleared on the next key
	width       int
}

func newModel(entries []catalog.Entry, opts Options) model {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "filter by path or summary"
	ti.PromptStyle = styleInputPrompt
	ti.TextStyle = styleInput
	ti.CharLimit = 256

	title := opts.Title
	if title == "" {
		title = "Select sessions to export"
	}

	return model{
		entries:     entries,
		engine:      NewEngine(entries, opts.PageSize),
		title:       title,
		filterInput: ti,
		help:        help.New(),
	}
}

// Run shows the picker and blocks until the user exports or quits. It returns
// the chosen entries in catalog order, or ErrCancelled. The terminal is
// restored on every exit path, including cancellation of ctx.
func Run(ctx context.Context, entries []catalog.Entry, opts Options) ([]catalog.Entry, error) {
	return run(ctx, newModel(entries, opts), tea.WithAltScreen())
}

func run(ctx context.Context, m model, progOpts ...tea.ProgramOption) ([]catalog.Entry, error) {
	p := tea.NewProgram(m, append(progOpts, tea.WithContext(ctx))...)
	final, err := p.Run()
	if err != nil {
		m.engine.Quit()
		if errors.Is(err, tea.ErrProgramKilled) || ctx.Err() != nil {
			return nil, ErrCancelled
		}
		return nil, fmt.Errorf("tui: %w", err)
	}
	return result(final.(model).engine)
}

func result(e *Engine) ([]catalog.Entry, error) {
	if e.State() != Exported {
		e.Quit()
		return nil, ErrCancelled
	}
	return e.SelectedEntries(), nil
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		m.status = ""
		if m.engine.State() == Filtering {
			return m.updateFilter(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e := m.engine
	switch {
	case key.Matches(msg, keys.Quit):
		e.Quit()
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		e.MoveUp()
	case key.Matches(msg, keys.Down):
		e.MoveDown()
	case key.Matches(msg, keys.NextPage):
		e.NextPage()
	case key.Matches(msg, keys.PrevPage):
		e.PrevPage()
	case key.Matches(msg, keys.Toggle):
		e.Toggle()
	case key.Matches(msg, keys.SelectPage):
		e.SelectPage()
	case key.Matches(msg, keys.Clear):
		e.Clear()
	case key.Matches(msg, keys.Filter):
		e.StartFilter()
		m.filterInput.SetValue(e.FilterText())
		m.filterInput.CursorEnd()
		return m, m.filterInput.Focus()
	case key.Matches(msg, keys.Export):
		if err := e.Confirm(); err != nil {
			m.status = "Select at least one session first"
			return m, nil
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	e := m.engine
	switch {
	case msg.Type == tea.KeyCtrlC:
		e.Quit()
		return m, tea.Quit
	case key.Matches(msg, keys.Accept):
		e.AcceptFilter()
		m.filterInput.Blur()
		return m, nil
	case key.Matches(msg, keys.Cancel):
		e.CancelFilter()
		m.filterInput.Blur()
		return m, nil
	case msg.Type == tea.KeyBackspace:
		e.BackspaceFilter()
	case msg.Type == tea.KeySpace:
		e.TypeFilter(" ")
	case msg.Type == tea.KeyRunes:
		e.TypeFilter(string(msg.Runes))
	default:
		return m, nil
	}
	m.filterInput.SetValue(e.FilterText())
	m.filterInput.CursorEnd()
	return m, nil
}

func (m model) View() string {
	e := m.engine
	if e.State() == Exported || e.State() == Quit {
		return ""
	}

	width := m.width
	if width <= 0 {
		width = 80
	}

	counts := styleCounts.Render(fmt.Sprintf("page %d/%d · %d shown · %d selected",
		e.Page(), e.PageCount(), len(e.Visible()), len(e.Selected())))
	header := styleTitle.Render(m.title) + "  " + counts

	var filterRow string
	switch {
	case e.State() == Filtering:
		filterRow = m.filterInput.View()
	case e.FilterText() != "":
		filterRow = styleStatusBar.Render("filter: " + e.FilterText())
	}

	var status string
	if m.status != "" {
		status = styleWarn.Render(m.status)
	}

	var h string
	if e.State() == Filtering {
		h = m.help.View(filterHelp{keys})
	} else {
		h = m.help.View(keys)
	}

	parts := []string{header, filterRow, m.renderList(width), status, styleStatusBar.Render(h)}
	return lipgloss.JoinVertical(lipgloss.Left, nonEmpty(parts)...)
}

func nonEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
