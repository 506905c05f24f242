package tui

import (
	"context"
	"io"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func press(t *testing.T, m model, msgs ...tea.KeyMsg) (model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(model)
	}
	return m, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_SelectAndExport(t *testing.T) {
	m := newModel(testEntries(5), Options{PageSize: 2})

	m, _ = press(t, m,
		runes("j"),
		tea.KeyMsg{Type: tea.KeySpace},
		runes("n"),
		runes("a"),
	)
	assert.Equal(t, []int{2, 3, 4}, m.engine.Selected())
	assert.Contains(t, m.View(), "[x]")

	m, cmd := press(t, m, runes("e"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	got, err := result(m.engine)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 2, got[0].Index)
}

func TestModel_ExportWithoutSelectionWarns(t *testing.T) {
	m := newModel(testEntries(3), Options{})
	m, cmd := press(t, m, runes("e"))
	assert.Nil(t, cmd)
	assert.Equal(t, Browsing, m.engine.State())
	assert.Contains(t, m.View(), "Select at least one session")
}

func TestModel_FilterTyping(t *testing.T) {
	m := newModel(testEntries(4), Options{})
	m, _ = press(t, m,
		runes("/"),
		runes("do"),
		runes("csx"),
		tea.KeyMsg{Type: tea.KeyBackspace},
	)
	assert.Equal(t, Filtering, m.engine.State())
	assert.Equal(t, "docs", m.engine.FilterText())
	assert.Len(t, m.engine.Visible(), 2)

	// q is text while filtering
	m, _ = press(t, m, runes("q"))
	assert.Equal(t, "docsq", m.engine.FilterText())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, Browsing, m.engine.State())
	assert.Equal(t, "", m.engine.FilterText())

	m, _ = press(t, m, runes("/"), runes("docs"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, Browsing, m.engine.State())
	assert.Equal(t, "docs", m.engine.FilterText())
	assert.Contains(t, m.View(), "filter: docs")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, []int{2}, m.engine.Selected())
}

func TestModel_Quit(t *testing.T) {
	for _, msg := range []tea.KeyMsg{runes("q"), {Type: tea.KeyCtrlC}} {
		m := newModel(testEntries(2), Options{})
		m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeySpace}, msg)
		require.NotNil(t, cmd)
		assert.Equal(t, Quit, m.engine.State())

		_, err := result(m.engine)
		assert.ErrorIs(t, err, ErrCancelled)
	}
}

func TestResult_ForcesQuitWhenUnfinished(t *testing.T) {
	e := NewEngine(testEntries(2), 0)
	e.Toggle()
	_, err := result(e)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, Quit, e.State())
}

func headless() []tea.ProgramOption {
	return []tea.ProgramOption{
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
		tea.WithoutSignalHandler(),
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := newModel(testEntries(3), Options{})
	got, err := run(ctx, m, headless()...)

	require.ErrorIs(t, err, ErrCancelled)
	assert.Nil(t, got)
	assert.Equal(t, Quit, m.engine.State())
}

func TestRun_CancelWhileRunning(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	m := newModel(testEntries(3), Options{})
	m.engine.Toggle()
	got, err := run(ctx, m, headless()...)

	require.ErrorIs(t, err, ErrCancelled)
	assert.Nil(t, got)
	assert.Equal(t, Quit, m.engine.State())
}
