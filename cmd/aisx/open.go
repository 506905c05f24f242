package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/ai-session-export/internal/open"
)

func openCmd(g *globalFlags) *cobra.Command {
	var line int

	cmd := &cobra.Command{
		Use:   "open <index>",
		Short: "Open a session's JSONL file in $EDITOR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("index must be a number: %q", args[0])
			}

			a, err := newApp(g)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := a.discover()
			if err != nil {
				return err
			}
			if n < 1 || n > len(entries) {
				return fmt.Errorf("index %d out of range, valid indices are 1-%d", n, len(entries))
			}

			return open.Editor(entries[n-1].Path, line)
		},
	}

	cmd.Flags().IntVar(&line, "line", 1, "Line to jump to")

	return cmd
}
