package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/ai-session-export/internal/catalog"
)

const (
	sColorDim   = "\033[2m"
	sColorReset = "\033[0m"
)

func listCmd(g *globalFlags) *cobra.Command {
	var filter string
	var width int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions with the indices used by --select",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.discover()
			if err != nil {
				return err
			}

			shown := catalog.Filter(entries, filter)
			if len(shown) == 0 {
				fmt.Fprintln(os.Stderr, "No sessions found.")
				return nil
			}

			color := term.IsTerminal(int(os.Stdout.Fd()))
			if width <= 0 {
				width = terminalWidth()
			}
			printEntries(os.Stdout, shown, width, color)
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Only list sessions whose path or summary contains this text")
	cmd.Flags().IntVar(&width, "width", 0, "Truncate summaries to this many columns (0 = terminal width)")

	return cmd
}

// printEntries writes one tab-separated line per entry:
// index, turns, updated, path, summary.
func printEntries(w io.Writer, entries []catalog.Entry, width int, color bool) {
	for _, e := range entries {
		updated := "-"
		if t := e.UpdatedAt(); !t.IsZero() {
			updated = t.Local().Format("2006-01-02 15:04")
		}
		if color {
			updated = sColorDim + updated + sColorReset
		}

		summary := strings.ReplaceAll(e.Summary, "\t", " ")
		if width > 0 {
			// index, turns, date and path are printed before the summary
			room := width - 4 - 5 - 16 - runewidth.StringWidth(e.RelPath) - 4
			if room < 10 {
				room = 10
			}
			summary = runewidth.Truncate(summary, room, "…")
		}

		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n", e.Index, e.TurnCount, updated, e.RelPath, summary)
	}
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return w
}
