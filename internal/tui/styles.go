package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	colorPrimary   = lipgloss.Color("12")  // bright blue
	colorSecondary = lipgloss.Color("10")  // bright green
	colorDim       = lipgloss.Color("240") // gray
	colorHighlight = lipgloss.Color("11")  // bright yellow
	colorWarn      = lipgloss.Color("9")   // bright red

	// Header
	styleTitle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleCounts = lipgloss.NewStyle().
			Foreground(colorDim)

	// Filter prompt
	styleInput = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	// List items
	styleListCursor = lipgloss.NewStyle().
			Foreground(colorHighlight).
			Bold(true)

	styleListNormal = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	styleMarked = lipgloss.NewStyle().
			Foreground(colorSecondary).
			Bold(true)

	styleMeta = lipgloss.NewStyle().
			Foreground(colorDim)

	// Status line
	styleStatusBar = lipgloss.NewStyle().
			Foreground(colorDim).
			Padding(0, 1)

	styleWarn = lipgloss.NewStyle().
			Foreground(colorWarn).
			Padding(0, 1)
)
