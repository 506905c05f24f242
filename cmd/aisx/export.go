package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/ai-session-export/internal/catalog"
	"github.com/Zuo-Peng/ai-session-export/internal/export"
	"github.com/Zuo-Peng/ai-session-export/internal/open"
	"github.com/Zuo-Peng/ai-session-export/internal/render"
	"github.com/Zuo-Peng/ai-session-export/internal/scan"
	"github.com/Zuo-Peng/ai-session-export/internal/selection"
	"github.com/Zuo-Peng/ai-session-export/internal/tui"
)

type exportFlags struct {
	output         string
	selectExpr     string
	all            bool
	title          string
	nonInteractive bool
	copyPath       bool
	openPage       bool
}

func rootCmd() *cobra.Command {
	var g globalFlags
	var f exportFlags

	cmd := &cobra.Command{
		Use:   "aisx",
		Short: "Export Claude Code conversation logs to a single HTML file",
		Long: `Export one or more session transcripts (JSONL) into a self-contained HTML
page that opens offline.

  aisx                           pick sessions interactively
  aisx -s 1,3-5 -o notes.html    export sessions 1, 3, 4 and 5
  aisx --all                     export everything under the input
  aisx list                      show session indices for --select`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), &g, &f)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.input, "input", "i", "", "Session file or directory (default from config, ~/.claude/projects)")
	pf.BoolVar(&g.noCache, "no-cache", false, "Do not read or update the catalog cache")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "Debug logging")

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output HTML path (default <input>-conversations-<time>.html)")
	cmd.Flags().StringVarP(&f.selectExpr, "select", "s", "", `Sessions to export, e.g. "1,3-5" or "all"`)
	cmd.Flags().BoolVar(&f.all, "all", false, "Export every session")
	cmd.Flags().StringVar(&f.title, "title", "", "Page title (default from config)")
	cmd.Flags().BoolVar(&f.nonInteractive, "non-interactive", false, "Never open the picker")
	cmd.Flags().BoolVar(&f.copyPath, "copy", false, "Copy the output path to the clipboard")
	cmd.Flags().BoolVar(&f.openPage, "open", false, "Open the exported page in the default browser")
	cmd.MarkFlagsMutuallyExclusive("all", "select")

	cmd.AddCommand(listCmd(&g))
	cmd.AddCommand(openCmd(&g))
	cmd.AddCommand(doctorCmd(&g))

	return cmd
}

var errNothingToExport = errors.New("nothing to export")

func runExport(ctx context.Context, g *globalFlags, f *exportFlags) error {
	a, err := newApp(g)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.discover()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("%w: no session files in %s", errNothingToExport, a.cfg.Input)
	}
	a.logger.Debug("catalog ready", "input", a.cfg.Input, "sessions", len(entries))

	chosen, err := choose(ctx, a, entries, f)
	if errors.Is(err, tui.ErrCancelled) && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, "Cancelled, nothing exported.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Loading %d session(s)...\n", len(chosen))
	transcripts, err := export.Load(ctx, scan.FS{}, chosen, a.cfg.Workers, a.logger)
	if err != nil {
		return err
	}

	title := f.title
	if title == "" {
		title = a.cfg.Title
	}
	page, err := render.Render(transcripts, render.Options{
		Title:     title,
		Source:    a.cfg.Input,
		BaseDir:   a.baseDir(),
		Generated: time.Now(),
	})
	if err != nil {
		return err
	}

	// last chance to bail out before touching the filesystem
	if err := ctx.Err(); err != nil {
		return err
	}

	out := f.output
	if out == "" {
		out = export.DefaultOutputPath(a.cfg.Input, time.Now())
	}
	if err := export.WriteFile(out, page); err != nil {
		return err
	}

	abs, err := filepath.Abs(out)
	if err != nil {
		abs = out
	}
	fmt.Fprintf(os.Stderr, "Exported %d session(s).\n", len(chosen))
	fmt.Println(abs)

	if f.copyPath {
		if err := clipboard.WriteAll(abs); err != nil {
			a.logger.Warn("copy to clipboard failed", "err", err)
		} else {
			fmt.Fprintln(os.Stderr, "Copied path to clipboard.")
		}
	}
	if f.openPage {
		if err := open.Browser(abs); err != nil {
			a.logger.Warn("open in browser failed", "err", err)
		}
	}
	return nil
}

// choose resolves which entries to export: explicit flags first, then a
// lone session, then the interactive picker.
func choose(ctx context.Context, a *app, entries []catalog.Entry, f *exportFlags) ([]catalog.Entry, error) {
	switch {
	case f.all || selection.IsAll(f.selectExpr):
		return entries, nil

	case f.selectExpr != "":
		idx, err := selection.Parse(f.selectExpr, len(entries))
		if err != nil {
			return nil, err
		}
		chosen := make([]catalog.Entry, 0, len(idx))
		for _, i := range idx {
			chosen = append(chosen, entries[i-1])
		}
		return chosen, nil

	case len(entries) == 1:
		return entries, nil

	case f.nonInteractive || !interactive():
		return nil, fmt.Errorf("%d sessions found; choose with --select or --all (see 'aisx list')", len(entries))
	}

	chosen, err := tui.Run(ctx, entries, tui.Options{PageSize: a.cfg.PageSize})
	if err != nil {
		return nil, err
	}
	return chosen, nil
}

func interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
