package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Zuo-Peng/ai-session-export/internal/catalog"
	"github.com/Zuo-Peng/ai-session-export/internal/transcript"
)

const DefaultWorkers = 4

// Reader loads the raw bytes of a session file.
type Reader interface {
	ReadFile(path string) ([]byte, error)
}

// Load reads and parses the given entries with at most workers in flight.
// The result has the same order as entries.
func Load(ctx context.Context, r Reader, entries []catalog.Entry, workers int, logger *slog.Logger) ([]*transcript.Transcript, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}

	out := make([]*transcript.Transcript, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := r.ReadFile(e.Path)
			if err != nil {
				return fmt.Errorf("read session %s: %w", e.Path, err)
			}
			t := transcript.Parse(e.Path, raw)
			if n := len(t.ParseErrors); n > 0 {
				logger.Warn("skipped malformed lines", "path", e.Path, "count", n)
			}
			logger.Debug("parsed session", "path", e.Path, "records", len(t.Records))
			out[i] = t
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// WriteFile replaces path with content through a temporary file in the same
// directory, so a failed write never leaves a partial document behind.
func WriteFile(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	tmpName := tmp.Name()

	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}

	if _, err := tmp.WriteString(content); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

// DefaultOutputPath names the output after the input's base name and the
// current time, e.g. projects-conversations-20250117-103000.html.
func DefaultOutputPath(input string, now time.Time) string {
	base := filepath.Base(filepath.Clean(input))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "claude"
	}
	return fmt.Sprintf("%s-conversations-%s.html", base, now.Format("20060102-150405"))
}
