package open

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// Browser opens an exported page with the platform's default handler.
func Browser(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file not found: %s", path)
	}
	name, args := browserCommand(runtime.GOOS, path)
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	// the opener may outlive us
	return cmd.Process.Release()
}

func browserCommand(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}
	default:
		return "xdg-open", []string{path}
	}
}

// Editor opens a session file in $EDITOR (less when unset) at line.
func Editor(path string, line int) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file not found: %s", path)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "less"
	}

	name, args := editorCommand(editor, path, line)
	cmd := exec.Command(name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func editorCommand(editor, path string, line int) (string, []string) {
	if line < 1 {
		line = 1
	}
	switch {
	case strings.Contains(editor, "vim") || strings.Contains(editor, "nvim"):
		return editor, []string{fmt.Sprintf("+%d", line), path}
	case strings.Contains(editor, "code"):
		return editor, []string{"--goto", path + ":" + strconv.Itoa(line)}
	case strings.Contains(editor, "less"):
		return editor, []string{"+" + strconv.Itoa(line), path}
	default:
		return editor, []string{path}
	}
}
