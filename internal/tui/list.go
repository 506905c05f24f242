package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/ai-session-export/internal/catalog"
)

// renderList renders the current page of the filtered catalog, one line per
// entry:
//
//	> [x]  12  01-27  project/session.jsonl  summary
func (m model) renderList(width int) string {
	page, offset := m.engine.PageEntries()
	if len(page) == 0 {
		return lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Render("  No matching sessions")
	}

	numWidth := len(fmt.Sprint(len(m.entries)))
	lines := make([]string, 0, m.engine.PageSize())
	for i, e := range page {
		lines = append(lines, formatEntryLine(e, width, numWidth,
			offset+i == m.engine.Cursor(), m.engine.IsSelected(e.Index)))
	}
	// keep the help line steady on short pages
	for len(lines) < m.engine.PageSize() {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func formatEntryLine(e catalog.Entry, width, numWidth int, cursor, marked bool) string {
	pointer := "  "
	if cursor {
		pointer = styleListCursor.Render("> ")
	}
	mark := "[ ]"
	if marked {
		mark = styleMarked.Render("[x]")
	}

	date := "     "
	if t := e.UpdatedAt(); !t.IsZero() {
		date = t.Local().Format("01-02")
	}
	meta := fmt.Sprintf("%*d  %s", numWidth, e.Index, date)

	// pointer + mark + separators
	textMax := width - 2 - 3 - 2 - runewidth.StringWidth(meta) - 2
	if textMax < 0 {
		textMax = 0
	}
	text := strings.Join(strings.Fields(e.Label()), " ")
	if runewidth.StringWidth(text) > textMax {
		text = runewidth.Truncate(text, textMax, "…")
	}

	style := styleListNormal
	if cursor {
		style = styleListCursor
	}
	return pointer + mark + "  " + styleMeta.Render(meta) + "  " + style.Render(text)
}
