package tui

import (
	"errors"
	"sort"

	"github.com/Zuo-Peng/ai-session-export/internal/catalog"
)

// DefaultPageSize matches the picker page length used when none is configured.
const DefaultPageSize = 15

type State int

const (
	Browsing State = iota
	Filtering
	Exported
	Quit
)

func (s State) String() string {
	switch s {
	case Browsing:
		return "browsing"
	case Filtering:
		return "filtering"
	case Exported:
		return "exported"
	case Quit:
		return "quit"
	}
	return "unknown"
}

var (
	ErrEmptySelection = errors.New("no sessions selected")
	ErrCancelled      = errors.New("selection cancelled")
)

// Engine is the picker state machine. It holds no terminal state and every
// operation is synchronous, so it can be driven directly from tests.
//
// The cursor indexes the filtered view. Selections are catalog indices and
// survive filter changes.
type Engine struct {
	entries  []catalog.Entry
	pageSize int

	state      State
	view       []int // positions into entries
	cursor     int
	page       int // 0-based
	filter     string
	prevFilter string // restored by CancelFilter
	selected   map[int]struct{}
}

func NewEngine(entries []catalog.Entry, pageSize int) *Engine {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	e := &Engine{
		entries:  entries,
		pageSize: pageSize,
		selected: make(map[int]struct{}),
	}
	e.applyFilter()
	return e
}

func (e *Engine) State() State       { return e.state }
func (e *Engine) Cursor() int        { return e.cursor }
func (e *Engine) FilterText() string { return e.filter }
func (e *Engine) PageSize() int      { return e.pageSize }

// Page is the current page, 1-based.
func (e *Engine) Page() int { return e.page + 1 }

// PageCount is never less than 1, even for an empty view.
func (e *Engine) PageCount() int {
	if len(e.view) == 0 {
		return 1
	}
	return (len(e.view) + e.pageSize - 1) / e.pageSize
}

// Visible returns the entries matching the current filter.
func (e *Engine) Visible() []catalog.Entry {
	out := make([]catalog.Entry, len(e.view))
	for i, pos := range e.view {
		out[i] = e.entries[pos]
	}
	return out
}

// PageEntries returns the slice of the filtered view shown on the current
// page and the view offset of its first element.
func (e *Engine) PageEntries() ([]catalog.Entry, int) {
	start, end := e.pageBounds()
	out := make([]catalog.Entry, 0, end-start)
	for _, pos := range e.view[start:end] {
		out = append(out, e.entries[pos])
	}
	return out, start
}

func (e *Engine) IsSelected(index int) bool {
	_, ok := e.selected[index]
	return ok
}

// Selected returns the chosen catalog indices in ascending order.
func (e *Engine) Selected() []int {
	out := make([]int, 0, len(e.selected))
	for i := range e.selected {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// SelectedEntries returns the chosen entries in catalog order.
func (e *Engine) SelectedEntries() []catalog.Entry {
	var out []catalog.Entry
	for _, entry := range e.entries {
		if e.IsSelected(entry.Index) {
			out = append(out, entry)
		}
	}
	return out
}

func (e *Engine) done() bool {
	return e.state == Exported || e.state == Quit
}

func (e *Engine) browsing() bool {
	return e.state == Browsing
}

func (e *Engine) MoveUp() {
	if !e.browsing() || e.cursor == 0 {
		return
	}
	e.cursor--
	e.page = e.cursor / e.pageSize
}

func (e *Engine) MoveDown() {
	if !e.browsing() || e.cursor >= len(e.view)-1 {
		return
	}
	e.cursor++
	e.page = e.cursor / e.pageSize
}

func (e *Engine) NextPage() {
	if !e.browsing() || e.page+1 >= e.PageCount() {
		return
	}
	e.page++
	e.cursor = e.page * e.pageSize
}

func (e *Engine) PrevPage() {
	if !e.browsing() || e.page == 0 {
		return
	}
	e.page--
	e.cursor = e.page * e.pageSize
}

// Toggle flips the selection of the entry under the cursor.
func (e *Engine) Toggle() {
	if !e.browsing() || len(e.view) == 0 {
		return
	}
	idx := e.entries[e.view[e.cursor]].Index
	if _, ok := e.selected[idx]; ok {
		delete(e.selected, idx)
	} else {
		e.selected[idx] = struct{}{}
	}
}

// SelectPage adds every entry on the current page to the selection.
func (e *Engine) SelectPage() {
	if !e.browsing() {
		return
	}
	start, end := e.pageBounds()
	for _, pos := range e.view[start:end] {
		e.selected[e.entries[pos].Index] = struct{}{}
	}
}

func (e *Engine) Clear() {
	if !e.browsing() {
		return
	}
	clear(e.selected)
}

func (e *Engine) StartFilter() {
	if !e.browsing() {
		return
	}
	e.prevFilter = e.filter
	e.state = Filtering
}

func (e *Engine) TypeFilter(s string) {
	if e.state != Filtering || s == "" {
		return
	}
	e.filter += s
	e.applyFilter()
}

func (e *Engine) BackspaceFilter() {
	if e.state != Filtering || e.filter == "" {
		return
	}
	r := []rune(e.filter)
	e.filter = string(r[:len(r)-1])
	e.applyFilter()
}

// AcceptFilter keeps the typed filter and returns to browsing.
func (e *Engine) AcceptFilter() {
	if e.state != Filtering {
		return
	}
	e.state = Browsing
}

// CancelFilter restores the filter active before StartFilter.
func (e *Engine) CancelFilter() {
	if e.state != Filtering {
		return
	}
	e.filter = e.prevFilter
	e.applyFilter()
	e.state = Browsing
}

// Confirm finishes the session with the current selection. With nothing
// selected it returns ErrEmptySelection and the engine stays in Browsing.
func (e *Engine) Confirm() error {
	if !e.browsing() {
		return nil
	}
	if len(e.selected) == 0 {
		return ErrEmptySelection
	}
	e.state = Exported
	return nil
}

// Quit ends the session and discards the selection.
func (e *Engine) Quit() {
	if e.done() {
		return
	}
	clear(e.selected)
	e.state = Quit
}

func (e *Engine) applyFilter() {
	e.view = e.view[:0]
	for pos, entry := range e.entries {
		if e.filter == "" || entry.Matches(e.filter) {
			e.view = append(e.view, pos)
		}
	}
	e.cursor = 0
	e.page = 0
}

func (e *Engine) pageBounds() (int, int) {
	start := e.page * e.pageSize
	end := min(start+e.pageSize, len(e.view))
	if start > end {
		start = end
	}
	return start, end
}
