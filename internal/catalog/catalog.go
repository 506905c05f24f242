package catalog

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/Zuo-Peng/ai-session-export/internal/scan"
)

// Entry describes one discovered session file. Index is 1-based and fixed for
// the lifetime of the catalog it came from.
type Entry struct {
	Index     int
	Path      string
	RelPath   string
	Summary   string
	TurnCount int // user and assistant lines, an estimate
	Lines     int
	Size      int64
	ModTime   time.Time
	FirstAt   time.Time
	LastAt    time.Time
}

// Label is the text shown for the entry and matched by the picker filter.
func (e Entry) Label() string {
	return e.RelPath + "  " + e.Summary
}

// UpdatedAt is the last message time, falling back to the file mtime.
func (e Entry) UpdatedAt() time.Time {
	if !e.LastAt.IsZero() {
		return e.LastAt
	}
	return e.ModTime
}

// Source lists candidate session files and reads their contents.
type Source interface {
	List(root string) ([]scan.FileInfo, error)
	ReadFile(path string) ([]byte, error)
}

// Cache remembers Meta for files whose mtime and size have not changed.
type Cache interface {
	Get(path string, modTime time.Time, size int64) (Meta, bool, error)
	Put(path string, modTime time.Time, size int64, m Meta) error
	Prune(root string, seen map[string]struct{}) (int, error)
}

type Options struct {
	Source Source
	Cache  Cache // optional
	Logger *slog.Logger
}

type DiscoveryError struct {
	Path string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("cannot discover sessions in %s: %v", e.Path, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// Discover enumerates the sessions under inputPath. Entries are ordered by
// path and numbered from 1. An existing directory with no session files
// yields an empty slice and no error.
func Discover(inputPath string, opts Options) ([]Entry, error) {
	src := opts.Source
	if src == nil {
		src = scan.FS{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	files, err := src.List(inputPath)
	if err != nil {
		return nil, &DiscoveryError{Path: inputPath, Err: err}
	}

	base := inputPath
	if len(files) == 1 && files[0].Path == inputPath {
		base = filepath.Dir(inputPath)
	}

	entries := make([]Entry, 0, len(files))
	seen := make(map[string]struct{}, len(files))
	hits := 0
	for i, f := range files {
		key := cacheKey(f.Path)
		seen[key] = struct{}{}

		meta, cached := lookup(opts.Cache, key, f, logger)
		if cached {
			hits++
		} else {
			raw, err := src.ReadFile(f.Path)
			if err != nil {
				logger.Warn("cannot read session", "path", f.Path, "err", err)
				meta = Meta{Summary: "(unreadable)"}
			} else {
				meta = Peek(raw)
				store(opts.Cache, key, f, meta, logger)
			}
		}

		entries = append(entries, Entry{
			Index:     i + 1,
			Path:      f.Path,
			RelPath:   relPath(base, f.Path),
			Summary:   meta.Summary,
			TurnCount: meta.TurnCount,
			Lines:     meta.Lines,
			Size:      f.Size,
			ModTime:   f.ModTime,
			FirstAt:   meta.FirstAt,
			LastAt:    meta.LastAt,
		})
	}

	if opts.Cache != nil {
		pruned, err := opts.Cache.Prune(cacheKey(inputPath), seen)
		if err != nil {
			logger.Warn("catalog cache prune failed", "err", err)
		}
		logger.Debug("catalog cache", "hits", hits, "misses", len(files)-hits, "pruned", pruned)
	}

	return entries, nil
}

// cacheKey makes relative inputs from different working directories
// address different cache rows.
func cacheKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func lookup(c Cache, key string, f scan.FileInfo, logger *slog.Logger) (Meta, bool) {
	if c == nil {
		return Meta{}, false
	}
	m, ok, err := c.Get(key, f.ModTime, f.Size)
	if err != nil {
		logger.Warn("catalog cache lookup failed", "path", f.Path, "err", err)
		return Meta{}, false
	}
	return m, ok
}

func store(c Cache, key string, f scan.FileInfo, m Meta, logger *slog.Logger) {
	if c == nil {
		return
	}
	if err := c.Put(key, f.ModTime, f.Size, m); err != nil {
		logger.Warn("catalog cache store failed", "path", f.Path, "err", err)
	}
}

func relPath(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

// Matches reports whether the entry label contains text, ignoring case.
func (e Entry) Matches(text string) bool {
	return strings.Contains(strings.ToLower(e.Label()), strings.ToLower(text))
}

// Filter returns the entries matching text. An empty text matches everything.
func Filter(entries []Entry, text string) []Entry {
	if text == "" {
		return entries
	}
	var out []Entry
	for _, e := range entries {
		if e.Matches(text) {
			out = append(out, e)
		}
	}
	return out
}
