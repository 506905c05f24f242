package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/ai-session-export/internal/config"
	"github.com/Zuo-Peng/ai-session-export/internal/scan"
)

func doctorCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify input, config, cache, and terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(g)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			defer a.Close()

			fmt.Println("=== Config ===")
			if home, err := os.UserHomeDir(); err == nil {
				path := config.Path(home)
				if _, err := os.Stat(path); err == nil {
					fmt.Printf("  File: %s\n", path)
				} else {
					fmt.Printf("  File: %s (not present, using defaults)\n", path)
				}
			}
			fmt.Printf("  Page size: %d\n", a.cfg.PageSize)
			fmt.Printf("  Workers:   %d\n", a.cfg.Workers)

			fmt.Println("\n=== Input ===")
			checkPath("Input", a.cfg.Input)
			files, err := scan.FS{}.List(a.cfg.Input)
			if err != nil {
				fmt.Printf("  scan error: %v\n", err)
			} else {
				fmt.Printf("  Session files: %d\n", len(files))
			}

			fmt.Println("\n=== Cache ===")
			fmt.Printf("  Path: %s\n", a.cfg.CachePath)
			switch {
			case !a.cfg.Cache:
				fmt.Println("  Status: disabled")
			case a.cache == nil:
				fmt.Println("  Status: UNAVAILABLE (see warning above)")
			default:
				n, err := a.cache.Count()
				if err != nil {
					return fmt.Errorf("count cache entries: %w", err)
				}
				fmt.Printf("  Entries: %d\n", n)
			}

			fmt.Println("\n=== Terminal ===")
			if interactive() {
				fmt.Println("  Interactive picker: available")
			} else {
				fmt.Println("  Interactive picker: unavailable (stdin or stdout is not a terminal)")
			}

			return nil
		},
	}
}

func checkPath(label, path string) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		fmt.Printf("  %s: %s (NOT FOUND)\n", label, path)
		return
	}
	if err != nil {
		fmt.Printf("  %s: %s (error: %v)\n", label, path, err)
		return
	}
	kind := "directory"
	if !info.IsDir() {
		kind = "file"
	}
	fmt.Printf("  %s: %s (%s)\n", label, path, kind)
}
